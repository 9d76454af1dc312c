package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultEntries(t *testing.T) {
	entries := DefaultEntries()

	if len(entries) == 0 {
		t.Fatal("DefaultEntries() returned empty slice")
	}

	requiredKeys := []string{
		"api_key",
		"base_url",
		"parse_model",
		"timeout_seconds",
		"rate_limit",
		"async_page_threshold",
		"poll_interval_seconds",
		"max_poll_attempts",
		"log_level",
		"env_file",
	}

	keys := make(map[string]bool)
	for _, e := range entries {
		keys[e.Key] = true
		if e.Description == "" {
			t.Errorf("entry %s has no description", e.Key)
		}
	}

	for _, key := range requiredKeys {
		if !keys[key] {
			t.Errorf("DefaultEntries() missing required key: %s", key)
		}
	}
}

func TestGetDefault(t *testing.T) {
	t.Run("existing_key", func(t *testing.T) {
		entry := GetDefault("log_level")
		if entry == nil {
			t.Fatal("GetDefault() returned nil for existing key")
		}
		if entry.Value != "info" {
			t.Errorf("GetDefault() Value = %v, want %q", entry.Value, "info")
		}
	})

	t.Run("non_existent_key", func(t *testing.T) {
		entry := GetDefault("does_not_exist")
		if entry != nil {
			t.Errorf("GetDefault() = %v, want nil for non-existent key", entry)
		}
	})
}

func TestSeedDefaults(t *testing.T) {
	v := viper.New()
	SeedDefaults(v)

	for _, entry := range DefaultEntries() {
		if !v.IsSet(entry.Key) {
			t.Errorf("SeedDefaults() did not set %s", entry.Key)
		}
	}
	if got := v.GetInt("rate_limit"); got != DefaultConfig().RateLimit {
		t.Errorf("rate_limit = %d", got)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"known key", "api_key", false},
		{"another known key", "max_poll_attempts", false},
		{"empty", "", true},
		{"dotted", "providers.ocr", true},
		{"space", "log level", true},
		{"unknown", "colour", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKey) {
					t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", tt.key, err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateKey(%q) = %v", tt.key, err)
			}
		})
	}

	if err := ValidateKey("colour"); !errors.Is(err, ErrNoDefault) {
		t.Errorf("unknown key should wrap ErrNoDefault, got %v", err)
	}
}
