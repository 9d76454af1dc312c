package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockParserName = "mock"

// MockParser is a Parser for testing.
type MockParser struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailAfter  int // Fail after N requests (0 = never)

	// Canned response fields
	Markdown           string
	Chunks             []Chunk
	PageCount          int
	CreditUsage        float64
	Extraction         json.RawMessage
	ExtractionMetadata map[string]FieldReference
	ExtractionError    string

	// State
	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []ParseRequest
}

// NewMockParser creates a new mock parser with a one-page, one-chunk response.
func NewMockParser() *MockParser {
	return &MockParser{
		Markdown:  "# Mock document\n\nmock text",
		PageCount: 1,
		Chunks: []Chunk{
			{
				ID:       "chunk-0",
				Type:     "text",
				Markdown: "mock text",
				Page:     0,
				Box:      BoundingBox{Left: 0.1, Top: 0.1, Right: 0.9, Bottom: 0.2},
			},
		},
	}
}

// Name returns the provider identifier.
func (p *MockParser) Name() string {
	return MockParserName
}

// Parse returns the canned response.
func (p *MockParser) Parse(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	start := time.Now()
	count := p.requestCount.Add(1)

	p.mu.Lock()
	p.requests = append(p.requests, *req)
	p.mu.Unlock()

	if p.ShouldFail {
		return nil, fmt.Errorf("mock parser configured to fail")
	}
	if p.FailAfter > 0 && int(count) > p.FailAfter {
		return nil, fmt.Errorf("mock parser failed after %d requests", p.FailAfter)
	}

	if p.Latency > 0 {
		select {
		case <-time.After(p.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	resp := &ParseResponse{
		Markdown:  p.Markdown,
		Chunks:    append([]Chunk(nil), p.Chunks...),
		PageCount:   p.PageCount,
		Provider:    MockParserName,
		CreditUsage: p.CreditUsage,
	}
	if len(req.Schema) > 0 {
		resp.Extraction = p.Extraction
		resp.ExtractionMetadata = p.ExtractionMetadata
		resp.ExtractionError = p.ExtractionError
	}
	resp.ExecutionTime = time.Since(start)
	return resp, nil
}

// RequestCount returns the number of requests made.
func (p *MockParser) RequestCount() int64 {
	return p.requestCount.Load()
}

// LastRequest returns a copy of the most recent request, if any.
func (p *MockParser) LastRequest() (ParseRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.requests) == 0 {
		return ParseRequest{}, false
	}
	return p.requests[len(p.requests)-1], true
}

// Reset resets the request counter and history.
func (p *MockParser) Reset() {
	p.requestCount.Store(0)
	p.mu.Lock()
	p.requests = nil
	p.mu.Unlock()
}

// Verify interface
var _ Parser = (*MockParser)(nil)
