package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/landing-ai/ade-apps/internal/providers"
)

// ErrMissingAPIKey is returned when no ADE credential is configured.
var ErrMissingAPIKey = errors.New("missing ADE API key: set VISION_AGENT_API_KEY (or ADE_API_KEY, or api_key in the config file)")

// Config holds ade-mcp configuration.
// Stored at: ~/.ade-mcp/config.yaml or ./config.yaml
type Config struct {
	APIKey     string `mapstructure:"api_key" yaml:"api_key" json:"api_key"`    // supports ${ENV_VAR} syntax
	BaseURL    string `mapstructure:"base_url" yaml:"base_url" json:"base_url"` // ADE API root
	ParseModel string `mapstructure:"parse_model" yaml:"parse_model" json:"parse_model"`

	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"` // per extraction call
	RateLimit      int `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`                // requests per minute

	AsyncPageThreshold  int `mapstructure:"async_page_threshold" yaml:"async_page_threshold" json:"async_page_threshold"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds" yaml:"poll_interval_seconds" json:"poll_interval_seconds"`
	MaxPollAttempts     int `mapstructure:"max_poll_attempts" yaml:"max_poll_attempts" json:"max_poll_attempts"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"` // debug, info, warn, error
	EnvFile  string `mapstructure:"env_file" yaml:"env_file" json:"env_file"`    // dotenv file loaded at startup
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIKey:              "${VISION_AGENT_API_KEY}",
		BaseURL:             providers.LandingAIBaseURL,
		ParseModel:          providers.LandingAIModel,
		TimeoutSeconds:      int(providers.DefaultTimeout / time.Second),
		RateLimit:           providers.DefaultRateLimit,
		AsyncPageThreshold:  providers.DefaultAsyncPageThreshold,
		PollIntervalSeconds: int(providers.DefaultPollInterval / time.Second),
		MaxPollAttempts:     providers.DefaultMaxPollAttempts,
		LogLevel:            "info",
		EnvFile:             ".env",
	}
}

// ResolvedAPIKey returns the API key with ${ENV_VAR} references expanded.
func (c *Config) ResolvedAPIKey() string {
	return strings.TrimSpace(ResolveEnvVars(c.APIKey))
}

// Validate checks settings required before serving or extracting.
func (c *Config) Validate() error {
	if c.ResolvedAPIKey() == "" {
		return ErrMissingAPIKey
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative, got %d", c.TimeoutSeconds)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Timeout returns the per-extraction timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return providers.DefaultTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ToLandingAIConfig converts the config to the ADE client's configuration.
// It resolves ${ENV_VAR} references in the API key.
func (c *Config) ToLandingAIConfig(logger *slog.Logger) providers.LandingAIConfig {
	return providers.LandingAIConfig{
		APIKey:             c.ResolvedAPIKey(),
		BaseURL:            c.BaseURL,
		Model:              c.ParseModel,
		Timeout:            c.Timeout(),
		RateLimit:          c.RateLimit,
		AsyncPageThreshold: c.AsyncPageThreshold,
		PollInterval:       time.Duration(c.PollIntervalSeconds) * time.Second,
		MaxPollAttempts:    c.MaxPollAttempts,
		Logger:             logger,
	}
}

// Value returns the setting stored under a config key.
func (c *Config) Value(key string) (any, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	v, ok := values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return v, nil
}

// SlogLevel returns the configured log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// ParseLogLevel parses debug, info, warn or error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q (want debug, info, warn or error)", s)
	}
}
