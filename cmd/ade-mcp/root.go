package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/landing-ai/ade-apps/internal/config"
	"github.com/landing-ai/ade-apps/internal/extract"
	"github.com/landing-ai/ade-apps/internal/metrics"
	"github.com/landing-ai/ade-apps/internal/output"
	"github.com/landing-ai/ade-apps/internal/providers"
	"github.com/landing-ai/ade-apps/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string

	printer *output.Printer
)

var rootCmd = &cobra.Command{
	Use:   "ade-mcp",
	Short: "MCP server for LandingAI Agentic Document Extraction",
	Long: `ade-mcp exposes LandingAI ADE document extraction as MCP tools.

Tools served over stdio:
  - extract_raw_chunks        markdown and grounded chunks from a base64 document
  - extract_from_path         the same, reading the document from disk
  - extract_with_json_schema  structured fields guided by a JSON Schema
  - extract_with_model        structured fields guided by a field/type description
  - validate_json_schema      check a schema against ADE's rules without extracting

Schemas are validated locally before any billable extraction call.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		printer = output.NewPrinter(cmd.OutOrStdout(), format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.ade-mcp/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "ade-mcp home directory (default: ~/.ade-mcp)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "json", "output format: json or yaml",
	)

	rootCmd.AddCommand(versionCmd)
}

// loadConfig builds the config manager from the persistent flags.
func loadConfig() (*config.Manager, error) {
	return config.NewManager(cfgFile, homeDir)
}

// newLogger writes text logs to w. stdout carries the MCP protocol, so
// callers pass stderr.
func newLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// newExtractor wires the ADE client into an extractor. rec may be nil.
func newExtractor(cfg *config.Config, logger *slog.Logger, rec *metrics.Recorder) *extract.Extractor {
	client := providers.NewLandingAIClient(cfg.ToLandingAIConfig(logger))
	return extract.New(extract.Config{
		Parser:   client,
		Timeout:  cfg.Timeout(),
		Logger:   logger,
		Recorder: rec,
	})
}
