// Package metrics provides credit and usage tracking for extraction calls.
package metrics

import "time"

// Metric represents a single recorded extraction call.
// Metrics are append-only records kept in memory for the life of the server.
type Metric struct {
	// Attribution (for filtering/aggregation)
	RequestID string `json:"request_id"`
	Mode      string `json:"mode"`               // raw, schema, model
	Document  string `json:"document,omitempty"` // filename, empty when loading failed
	Provider  string `json:"provider,omitempty"`

	// Usage
	PageCount  int     `json:"page_count,omitempty"`
	ChunkCount int     `json:"chunk_count,omitempty"`
	Credits    float64 `json:"credits,omitempty"`

	// Timing
	TotalSeconds float64 `json:"total_seconds"`

	// Status
	Success   bool   `json:"success"`
	ErrorType string `json:"error_type,omitempty"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
}

// Duration returns the call's wall time.
func (m *Metric) Duration() time.Duration {
	return time.Duration(m.TotalSeconds * float64(time.Second))
}
