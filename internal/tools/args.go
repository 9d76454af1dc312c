package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidArguments means the tool arguments do not match the tool's
// input schema.
var ErrInvalidArguments = errors.New("invalid arguments")

// argsSchema validates raw tool arguments against the reflected input schema.
type argsSchema struct {
	compiled *jsonschema.Schema
}

// reflectArgs derives a tool's input schema from its argument struct. The
// map form is handed to the MCP server; the compiled form checks calls.
func reflectArgs(args any) (map[string]any, *argsSchema) {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(args)
	schema.Version = ""
	schema.ID = ""

	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("tools: cannot encode input schema for %T: %v", args, err))
	}

	var inputSchema map[string]any
	if err := json.Unmarshal(raw, &inputSchema); err != nil {
		panic(fmt.Sprintf("tools: cannot decode input schema for %T: %v", args, err))
	}

	url := strings.ToLower(reflect.TypeOf(args).Name()) + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("tools: cannot load input schema for %T: %v", args, err))
	}
	return inputSchema, &argsSchema{compiled: compiler.MustCompile(url)}
}

func (a *argsSchema) check(args json.RawMessage) error {
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return fmt.Errorf("%w: arguments are not valid JSON: %v", ErrInvalidArguments, err)
	}
	if err := a.compiled.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", ErrInvalidArguments, describeValidation(ve))
		}
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

// describeValidation flattens a validation error tree into one line per
// leaf cause, e.g. "/document_base64: expected string, but got number".
func describeValidation(ve *jsonschema.ValidationError) string {
	var lines []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			lines = append(lines, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(lines)
	return strings.Join(lines, "; ")
}

// decodeArgs unmarshals arguments that already passed the schema check.
func decodeArgs(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}

func objectProperty(description string) *invopopSchema.Schema {
	return &invopopSchema.Schema{Type: "object", Description: description}
}
