package main

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/landing-ai/ade-apps/internal/config"
	"github.com/landing-ai/ade-apps/internal/metrics"
	"github.com/landing-ai/ade-apps/internal/tools"
	"github.com/landing-ai/ade-apps/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ADE tools over stdio",
	Long: `Start the MCP server on stdin/stdout.

stdout carries the protocol; logs go to stderr. The API key is read from
VISION_AGENT_API_KEY (or ADE_API_KEY, or api_key in the config file) and the
server refuses to start without one.

Changes to log_level in the config file apply without a restart.

Examples:
  ade-mcp serve
  ade-mcp serve --config ./config.yaml
  ADE_LOG_LEVEL=debug ade-mcp serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		if err := cfg.Validate(); err != nil {
			return err
		}

		level := new(slog.LevelVar)
		level.Set(cfg.SlogLevel())
		logger := newLogger(cmd.ErrOrStderr(), level)

		mgr.OnChange(func(c *config.Config) {
			level.Set(c.SlogLevel())
			logger.Info("config reloaded", "log_level", c.SlogLevel().String())
		})
		mgr.WatchConfig()

		usage := metrics.NewRecorder(metrics.DefaultLimit)
		srv := tools.New(tools.Config{
			Extractor: newExtractor(cfg, logger, usage),
			Version:   version.GitRelease,
			Logger:    logger,
		})

		logger.Info("starting MCP server",
			"name", tools.ServerName,
			"version", version.GitRelease,
			"transport", "stdio",
			"tools", srv.Names(),
			"config", mgr.ConfigFileUsed(),
			"env_file", mgr.EnvFileUsed(),
		)

		err = srv.RunStdio(ctx)

		logUsage(logger, usage)

		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped", "error", err)
			return err
		}
		logger.Info("server stopped")
		return nil
	},
}

// logUsage writes the session's extraction totals, credit and error
// breakdowns, and per-mode latency percentiles.
func logUsage(logger *slog.Logger, usage *metrics.Recorder) {
	all := metrics.Filter{}
	summary := usage.Summary(all)
	attrs := []any{
		"extractions", summary.Count,
		"failed", summary.ErrorCount,
		"pages", summary.TotalPages,
		"credits", summary.TotalCredits,
		"credits_by_mode", usage.CreditsByMode(all),
		"errors_by_type", usage.ErrorsByType(all),
	}

	latency := usage.Latency(all)
	for _, mode := range slices.Sorted(maps.Keys(latency)) {
		l := latency[mode]
		attrs = append(attrs, slog.Group("latency_"+mode,
			"count", l.Count,
			"p50", l.P50,
			"p95", l.P95,
			"max", l.Max,
		))
	}
	logger.Info("session usage", attrs...)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
