package tools

import (
	"context"
	"encoding/json"
	"fmt"

	invopopSchema "github.com/invopop/jsonschema"

	"github.com/landing-ai/ade-apps/internal/schema"
)

// ValidateArgs are the arguments of validate_json_schema.
type ValidateArgs struct {
	Schema json.RawMessage `json:"schema"`
}

// JSONSchemaExtend describes the free-form schema argument.
func (ValidateArgs) JSONSchemaExtend(s *invopopSchema.Schema) {
	s.Properties.Set("schema", objectProperty("JSON Schema to check against ADE's extraction rules."))
}

func validateJSONSchemaTool() toolDef {
	return toolDef{
		name: ToolValidateJSONSchema,
		description: "Validate a JSON Schema against ADE extraction rules without extracting anything. " +
			"Reports every violation with its path (e.g. root.items.items) and rule: top-level type must be object, " +
			"no allOf/anyOf/oneOf/not/if/then/else, at most 5 levels of nesting, objects need properties, " +
			"required must name declared properties, arrays need items.",
		args: ValidateArgs{},
		handler: func(_ context.Context, _ string, raw json.RawMessage) (any, error) {
			var args ValidateArgs
			if err := decodeArgs(raw, &args); err != nil {
				return nil, err
			}
			report, err := schema.ValidateJSON(args.Schema)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
			}
			return report, nil
		},
	}
}
