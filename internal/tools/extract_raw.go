package tools

import (
	"context"
	"encoding/json"

	"github.com/landing-ai/ade-apps/internal/extract"
)

// RawChunksArgs are the arguments of extract_raw_chunks.
type RawChunksArgs struct {
	DocumentBase64 string `json:"document_base64" jsonschema:"minLength=1" jsonschema_description:"Base64-encoded document (PDF, image or Office file). A data URL prefix is accepted."`
}

func extractRawChunksTool(s *Server) toolDef {
	return toolDef{
		name: ToolExtractRawChunks,
		description: "Extract all text chunks and their metadata from a base64-encoded document. " +
			"Returns the document markdown plus every chunk in reading order with its type, content, " +
			"0-based page number and bounding box.",
		args: RawChunksArgs{},
		handler: func(ctx context.Context, requestID string, raw json.RawMessage) (any, error) {
			var args RawChunksArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			result, err := s.extractor.ExtractWithID(ctx, requestID, extract.FromBase64(args.DocumentBase64), extract.Raw())
			if err != nil {
				return nil, err
			}
			return result.Raw(), nil
		},
	}
}
