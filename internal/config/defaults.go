package config

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/spf13/viper"
)

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Entry represents a single configuration entry.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns the default configuration entries with their
// descriptions. These seed viper's defaults and annotate `config init`.
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		{
			Key:         "api_key",
			Value:       d.APIKey,
			Description: "ADE API key (uses environment variable)",
		},
		{
			Key:         "base_url",
			Value:       d.BaseURL,
			Description: "ADE API root URL",
		},
		{
			Key:         "parse_model",
			Value:       d.ParseModel,
			Description: "Model used to parse documents",
		},
		{
			Key:         "timeout_seconds",
			Value:       d.TimeoutSeconds,
			Description: "Upper bound in seconds for one extraction call",
		},
		{
			Key:         "rate_limit",
			Value:       d.RateLimit,
			Description: "Rate limit in requests per minute to ADE",
		},
		{
			Key:         "async_page_threshold",
			Value:       d.AsyncPageThreshold,
			Description: "Documents with more pages are parsed as async jobs (negative disables)",
		},
		{
			Key:         "poll_interval_seconds",
			Value:       d.PollIntervalSeconds,
			Description: "Seconds between async parse job status checks",
		},
		{
			Key:         "max_poll_attempts",
			Value:       d.MaxPollAttempts,
			Description: "Status checks before an async parse job is abandoned",
		},
		{
			Key:         "log_level",
			Value:       d.LogLevel,
			Description: "Log level: debug, info, warn or error (logs go to stderr)",
		},
		{
			Key:         "env_file",
			Value:       d.EnvFile,
			Description: "Dotenv file loaded at startup; never overrides the real environment",
		},
	}
}

// SeedDefaults registers every default entry with v.
func SeedDefaults(v *viper.Viper) {
	for _, entry := range DefaultEntries() {
		v.SetDefault(entry.Key, entry.Value)
	}
}

// GetDefault returns the default value for a config key.
// Returns nil if no default exists for the key.
func GetDefault(key string) *Entry {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry
		}
	}
	return nil
}

// ValidateKey checks that key is a known config key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	if GetDefault(key) == nil {
		return fmt.Errorf("%w: %q (%w)", ErrInvalidKey, key, ErrNoDefault)
	}
	return nil
}
