package tools

import (
	"context"
	"encoding/json"

	invopopSchema "github.com/invopop/jsonschema"

	"github.com/landing-ai/ade-apps/internal/extract"
)

// SchemaArgs are the arguments of extract_with_json_schema.
type SchemaArgs struct {
	DocumentBase64 string          `json:"document_base64" jsonschema:"minLength=1" jsonschema_description:"Base64-encoded document (PDF, image or Office file)."`
	Schema         json.RawMessage `json:"schema"`
}

// JSONSchemaExtend describes the free-form schema argument.
func (SchemaArgs) JSONSchemaExtend(s *invopopSchema.Schema) {
	s.Properties.Set("schema", objectProperty(
		"JSON Schema for the data to extract. The top-level type must be object; "+
			"allOf, anyOf, oneOf, not and if/then/else are not supported; nesting is limited to 5 levels."))
}

func extractWithJSONSchemaTool(s *Server) toolDef {
	return toolDef{
		name: ToolExtractWithJSONSchema,
		description: "Extract structured data matching a JSON Schema. " +
			"The schema is validated first and extraction does not run if validation fails. " +
			"Returns data, per-field metadata (confidence, page, bounding box, chunk references) and extraction_error.",
		args: SchemaArgs{},
		handler: func(ctx context.Context, requestID string, raw json.RawMessage) (any, error) {
			var args SchemaArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			result, err := s.extractor.ExtractWithID(ctx, requestID,
				extract.FromBase64(args.DocumentBase64), extract.SchemaGuided(args.Schema))
			if err != nil {
				return nil, err
			}
			return result.Output(), nil
		},
	}
}
