package tools

import (
	"context"
	"encoding/json"

	"github.com/landing-ai/ade-apps/internal/extract"
)

// PathArgs are the arguments of extract_from_path.
type PathArgs struct {
	Path string `json:"path" jsonschema:"minLength=1" jsonschema_description:"Path to a document on the server's filesystem. Relative paths resolve against the server's working directory."`
}

func extractFromPathTool(s *Server) toolDef {
	return toolDef{
		name: ToolExtractFromPath,
		description: "Extract text chunks from a document on the local filesystem. " +
			"Same output as extract_raw_chunks plus the absolute file_path that was read.",
		args: PathArgs{},
		handler: func(ctx context.Context, requestID string, raw json.RawMessage) (any, error) {
			var args PathArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			result, err := s.extractor.ExtractWithID(ctx, requestID, extract.FromPath(args.Path), extract.Raw())
			if err != nil {
				return nil, err
			}
			return result.WithPath(), nil
		},
	}
}
