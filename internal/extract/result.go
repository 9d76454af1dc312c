package extract

import (
	"encoding/json"

	"github.com/landing-ai/ade-apps/internal/providers"
)

// Chunk is one extracted content unit in reading order.
type Chunk struct {
	ChunkID     string                `json:"chunk_id"`
	Type        string                `json:"type"`
	Content     string                `json:"content"`
	Page        int                   `json:"page"`
	BoundingBox providers.BoundingBox `json:"bounding_box"`
}

// FieldMetadata is the evidence behind one extracted field.
type FieldMetadata struct {
	Confidence      *float64               `json:"confidence"`
	RawText         string                 `json:"raw_text,omitempty"`
	Page            *int                   `json:"page"`
	BoundingBox     *providers.BoundingBox `json:"bounding_box"`
	ChunkReferences []string               `json:"chunk_references"`
}

// Result is a normalized extraction.
type Result struct {
	RequestID string
	Document  string // filename
	Path      string // absolute path for file input

	Markdown  string
	Chunks    []Chunk
	PageCount int
	Credits   float64 // billed by the service, not part of tool output

	Structured      bool
	Data            json.RawMessage
	FieldMetadata   map[string]FieldMetadata
	ExtractionError string
}

// RawOutput is the body of a raw extraction.
type RawOutput struct {
	Markdown  string  `json:"markdown"`
	Chunks    []Chunk `json:"chunks"`
	PageCount int     `json:"page_count"`
}

// PathOutput is the body of a raw extraction of a file.
type PathOutput struct {
	FilePath string `json:"file_path"`
	RawOutput
}

// StructuredOutput is the body of a schema- or model-guided extraction.
type StructuredOutput struct {
	Data            json.RawMessage          `json:"data"`
	FieldMetadata   map[string]FieldMetadata `json:"field_metadata"`
	ExtractionError *string                  `json:"extraction_error"`
}

// Raw returns the raw output view.
func (r *Result) Raw() RawOutput {
	chunks := r.Chunks
	if chunks == nil {
		chunks = []Chunk{}
	}
	return RawOutput{Markdown: r.Markdown, Chunks: chunks, PageCount: r.PageCount}
}

// WithPath returns the raw output view with the source path attached.
func (r *Result) WithPath() PathOutput {
	return PathOutput{FilePath: r.Path, RawOutput: r.Raw()}
}

// Output returns the structured output view.
func (r *Result) Output() StructuredOutput {
	out := StructuredOutput{
		Data:          r.Data,
		FieldMetadata: r.FieldMetadata,
	}
	if len(out.Data) == 0 {
		out.Data = json.RawMessage("null")
	}
	if out.FieldMetadata == nil {
		out.FieldMetadata = map[string]FieldMetadata{}
	}
	if r.ExtractionError != "" {
		msg := r.ExtractionError
		out.ExtractionError = &msg
	}
	return out
}
