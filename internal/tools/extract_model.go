package tools

import (
	"context"
	"encoding/json"

	invopopSchema "github.com/invopop/jsonschema"

	"github.com/landing-ai/ade-apps/internal/extract"
	"github.com/landing-ai/ade-apps/internal/schema"
)

// ModelArgs are the arguments of extract_with_model.
type ModelArgs struct {
	DocumentBase64 string            `json:"document_base64" jsonschema:"minLength=1" jsonschema_description:"Base64-encoded document (PDF, image or Office file)."`
	Model          json.RawMessage   `json:"model"`
	Name           string            `json:"name,omitempty" jsonschema_description:"Optional model name, sent as the schema title."`
	Descriptions   map[string]string `json:"descriptions,omitempty" jsonschema_description:"Field descriptions keyed by dotted field path, e.g. line_items.amount."`
}

// JSONSchemaExtend describes the free-form model argument.
func (ModelArgs) JSONSchemaExtend(s *invopopSchema.Schema) {
	s.Properties.Set("model", objectProperty(
		`Field name to type. Types: "str", "int", "float", "bool", "date", "datetime", `+
			`"list[T]", "optional[T]" or "T?"; a nested object for a sub-model; [T] for a list of T.`))
}

func extractWithModelTool(s *Server) toolDef {
	return toolDef{
		name: ToolExtractWithModel,
		description: "Extract structured data described by a typed field model. " +
			"The model is translated to a JSON Schema and validated before any extraction is billed. " +
			"Returns data, per-field metadata (confidence, page, bounding box, chunk references) and extraction_error.",
		args: ModelArgs{},
		handler: func(ctx context.Context, requestID string, raw json.RawMessage) (any, error) {
			var args ModelArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			mode := extract.ModelGuided(schema.ModelDescription{
				Name:         args.Name,
				Fields:       args.Model,
				Descriptions: args.Descriptions,
			})
			result, err := s.extractor.ExtractWithID(ctx, requestID, extract.FromBase64(args.DocumentBase64), mode)
			if err != nil {
				return nil, err
			}
			return result.Output(), nil
		},
	}
}
