package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/landing-ai/ade-apps/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema.json>",
	Short: "Check a JSON Schema against ADE's extraction rules",
	Long: `Validate a JSON Schema locally, without calling the ADE service.

The report lists every issue with its path, rule and message. The command
exits non-zero when the schema is invalid. Use "-" to read from stdin.

Examples:
  ade-mcp validate invoice.schema.json
  cat invoice.schema.json | ade-mcp validate - -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		report, err := schema.ValidateJSON(data)
		if err != nil {
			return fmt.Errorf("%s is not valid JSON: %w", args[0], err)
		}
		if err := printer.Print(report); err != nil {
			return err
		}
		if !report.Valid {
			return fmt.Errorf("schema invalid: %d issue(s)", len(report.Issues))
		}
		return nil
	},
}

// readInput reads a file argument, with "-" meaning stdin.
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
