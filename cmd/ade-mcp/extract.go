package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/landing-ai/ade-apps/internal/extract"
	"github.com/landing-ai/ade-apps/internal/schema"
)

var (
	extractSchemaFile string
	extractModelFile  string
)

var extractCmd = &cobra.Command{
	Use:   "extract <path>",
	Short: "Extract a document from disk",
	Long: `Run one extraction against the ADE service and print the result.

Without flags the document is parsed into markdown and grounded chunks.
With --schema (a JSON Schema file) or --model (a field/type description file)
structured fields are extracted as well; the schema is validated first and
nothing is sent when it breaks ADE's rules.

A model file is either {"name", "fields", "descriptions"} or a bare
field-to-type object:

  {"invoice_number": "str", "total": "float", "items": [{"sku": "str"}]}

Examples:
  ade-mcp extract invoice.pdf
  ade-mcp extract invoice.pdf --schema invoice.schema.json -o yaml
  ade-mcp extract receipt.png --model receipt.model.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if extractSchemaFile != "" && extractModelFile != "" {
			return errors.New("--schema and --model are mutually exclusive")
		}

		mode, err := extractMode(cmd)
		if err != nil {
			return err
		}

		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		level := new(slog.LevelVar)
		level.Set(cfg.SlogLevel())
		logger := newLogger(cmd.ErrOrStderr(), level)

		// The gate runs before the credential check so schema problems surface
		// even without an API key.
		if _, err := extract.Gate(mode); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		result, err := newExtractor(cfg, logger, nil).Extract(cmd.Context(), extract.FromPath(args[0]), mode)
		if err != nil {
			return err
		}
		if mode.Structured() {
			return printer.Print(result.Output())
		}
		return printer.Print(result.WithPath())
	},
}

func extractMode(cmd *cobra.Command) (extract.Mode, error) {
	switch {
	case extractSchemaFile != "":
		data, err := readInput(cmd, extractSchemaFile)
		if err != nil {
			return extract.Mode{}, err
		}
		return extract.SchemaGuided(data), nil
	case extractModelFile != "":
		data, err := readInput(cmd, extractModelFile)
		if err != nil {
			return extract.Mode{}, err
		}
		model, err := decodeModel(data)
		if err != nil {
			return extract.Mode{}, fmt.Errorf("%s: %w", extractModelFile, err)
		}
		return extract.ModelGuided(model), nil
	default:
		return extract.Raw(), nil
	}
}

// decodeModel accepts a full model description or a bare fields object.
func decodeModel(data []byte) (schema.ModelDescription, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return schema.ModelDescription{}, fmt.Errorf("model description must be a JSON object: %w", err)
	}
	if isFullModel(keys) {
		var m schema.ModelDescription
		if err := json.Unmarshal(data, &m); err != nil {
			return schema.ModelDescription{}, err
		}
		return m, nil
	}
	return schema.ModelDescription{Fields: json.RawMessage(data)}, nil
}

// isFullModel reports whether keys hold {"fields": {...}} with only the
// optional name and descriptions beside it. Anything else is a bare field map,
// including one that declares a field called "fields".
func isFullModel(keys map[string]json.RawMessage) bool {
	fields, ok := keys["fields"]
	if !ok {
		return false
	}
	trimmed := bytes.TrimSpace(fields)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	for k := range keys {
		switch k {
		case "fields", "name", "descriptions":
		default:
			return false
		}
	}
	return true
}

func init() {
	extractCmd.Flags().StringVar(&extractSchemaFile, "schema", "", "JSON Schema file guiding structured extraction")
	extractCmd.Flags().StringVar(&extractModelFile, "model", "", "model description file guiding structured extraction")

	rootCmd.AddCommand(extractCmd)
}
