package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CheckConformance validates extracted data against the schema it was
// requested with. A nil error means the data matches.
func CheckConformance(schemaRaw, data json.RawMessage) error {
	if len(schemaRaw) == 0 || len(data) == 0 {
		return nil
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(schemaRaw)); err != nil {
		return fmt.Errorf("failed to load extraction schema: %w", err)
	}
	compiled, err := compiler.Compile("extraction.json")
	if err != nil {
		return fmt.Errorf("failed to compile extraction schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode extracted data: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("extracted data does not match schema: %w", err)
	}
	return nil
}
