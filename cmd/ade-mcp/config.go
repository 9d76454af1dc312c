package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/landing-ai/ade-apps/internal/config"
	"github.com/landing-ai/ade-apps/internal/home"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ade-mcp configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	Long: `Write the default configuration to --config, or to ~/.ade-mcp/config.yaml.

An existing file is left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			path = h.ConfigPath()
		}

		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		return printer.Print(map[string]string{"written": path})
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, config file, .env file and
ADE_ environment overrides are applied. A literal API key is masked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		return printer.Print(struct {
			ConfigFile string         `json:"config_file"`
			EnvFile    string         `json:"env_file_loaded"`
			APIKeySet  bool           `json:"api_key_set"`
			Config     *config.Config `json:"config"`
		}{
			ConfigFile: mgr.ConfigFileUsed(),
			EnvFile:    mgr.EnvFileUsed(),
			APIKeySet:  cfg.ResolvedAPIKey() != "",
			Config:     cfg.Redacted(),
		})
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List config keys with their defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printer.Print(config.DefaultEntries())
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one config key's effective value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if err := config.ValidateKey(key); err != nil {
			return err
		}
		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		value, err := mgr.Get().Redacted().Value(key)
		if err != nil {
			return err
		}
		return printer.Print(map[string]any{key: value})
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configShowCmd, configKeysCmd, configGetCmd)
	rootCmd.AddCommand(configCmd)
}
