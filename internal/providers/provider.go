// Package providers talks to document-extraction services. The LandingAI ADE
// client is the production Parser; MockParser serves tests.
package providers

import (
	"context"
	"encoding/json"
	"time"
)

// Parser is the document-extraction collaborator. One call turns document
// bytes into markdown and chunks, and into schema-shaped data when a schema
// is supplied.
type Parser interface {
	// Name returns the provider identifier (e.g., "landingai-ade").
	Name() string

	// Parse extracts content from a document. Implementations must not
	// retry a failed extraction.
	Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error)
}

// Budgeter is implemented by parsers whose calls can outlast a single
// request timeout, such as asynchronous jobs on large documents.
type Budgeter interface {
	// ExtraTime returns how much longer than a synchronous call a document
	// with pageCount pages may take. Zero means no extra time.
	ExtraTime(pageCount int) time.Duration
}

// ParseRequest is one extraction call.
type ParseRequest struct {
	Document []byte
	Filename string

	// PageCount is the locally known page count, 0 when unknown.
	PageCount int

	// Schema selects structured extraction. Nil means markdown + chunks only.
	Schema json.RawMessage

	// Request tracking
	RequestID string
}

// BoundingBox is a chunk's location on its page in normalized coordinates.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Chunk is one extracted content unit.
type Chunk struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"` // "text", "table", "figure", ...
	Markdown string      `json:"markdown"`
	Page     int         `json:"page"` // 0-based
	Box      BoundingBox `json:"box"`
}

// FieldReference is the provider's evidence for one extracted field.
type FieldReference struct {
	Confidence      *float64 `json:"confidence,omitempty"`
	RawText         string   `json:"raw_text,omitempty"`
	ChunkReferences []string `json:"chunk_references,omitempty"`
}

// ParseResponse is the provider's result for one document.
type ParseResponse struct {
	Markdown  string  `json:"markdown"`
	Chunks    []Chunk `json:"chunks"`
	PageCount int     `json:"page_count"`

	// Structured extraction, set only when a schema was supplied.
	Extraction         json.RawMessage           `json:"extraction,omitempty"`
	ExtractionMetadata map[string]FieldReference `json:"extraction_metadata,omitempty"`
	ExtractionError    string                    `json:"extraction_error,omitempty"`

	// Cost and timing
	CreditUsage   float64       `json:"credit_usage"`
	ExecutionTime time.Duration `json:"execution_time"`

	// Provider info
	Provider string `json:"provider"`
	JobID    string `json:"job_id,omitempty"`
}
