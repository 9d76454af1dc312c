package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/landing-ai/ade-apps/internal/home"
)

// EnvPrefix is the prefix for environment overrides (ADE_API_KEY, ADE_LOG_LEVEL, ...).
const EnvPrefix = "ADE"

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	home      *home.Dir
	config    *Config
	envLoaded string
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// cfgFile names an explicit config file; when empty, config.yaml is searched
// for in the working directory and then in homeDir (default ~/.ade-mcp).
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}

	cm := &Manager{
		v:         viper.New(),
		home:      h,
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	if err := cm.loadEnvFile(); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	SeedDefaults(cm.v)

	// Environment variables with ADE_ prefix
	cm.v.SetEnvPrefix(EnvPrefix)
	cm.v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		cm.v.SetConfigFile(cfgFile)
	} else {
		cm.v.SetConfigName("config")
		cm.v.SetConfigType("yaml")
		cm.v.AddConfigPath(".")
		cm.v.AddConfigPath(cm.home.Path())
	}

	// Try to read config file (not required unless named explicitly)
	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// loadEnvFile applies the configured dotenv file, falling back to the one in
// the home directory. A missing file is not an error.
func (cm *Manager) loadEnvFile() error {
	candidates := []string{cm.v.GetString("env_file"), cm.home.EnvPath()}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		ok, err := LoadEnvFile(path)
		if err != nil {
			return err
		}
		if ok {
			cm.envLoaded = path
			return nil
		}
	}
	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// Home returns the home directory the manager searches.
func (cm *Manager) Home() *home.Dir {
	return cm.home
}

// ConfigFileUsed returns the config file that was read, or "" when running
// on defaults and environment alone.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// EnvFileUsed returns the dotenv file that was applied, if any.
func (cm *Manager) EnvFileUsed() string {
	return cm.envLoaded
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. It does nothing when
// no config file was read.
func (cm *Manager) WatchConfig() {
	if cm.v.ConfigFileUsed() == "" {
		return
	}
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment. Variables that are already set are left alone. It reports
// whether the file existed.
func LoadEnvFile(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat env file %s: %w", path, err)
	}

	ev := viper.New()
	ev.SetConfigFile(path)
	ev.SetConfigType("env")
	if err := ev.ReadInConfig(); err != nil {
		return false, fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for _, key := range ev.AllKeys() {
		name := strings.ToUpper(key)
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, ev.GetString(key)); err != nil {
			return false, fmt.Errorf("failed to set %s from %s: %w", name, path, err)
		}
	}
	return true, nil
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envVarPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// Redacted returns a copy of c that is safe to print. A literal API key is
// masked; ${ENV_VAR} references are kept as written.
func (c *Config) Redacted() *Config {
	out := *c
	if out.APIKey != "" && !envVarPattern.MatchString(out.APIKey) {
		out.APIKey = maskSecret(out.APIKey)
	}
	return &out
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var header strings.Builder
	header.WriteString("# ade-mcp configuration\n")
	header.WriteString("# The API key uses ${ENV_VAR} syntax to reference environment variables\n")
	header.WriteString("# Set it in your shell or a .env file: VISION_AGENT_API_KEY=xxx\n")
	header.WriteString("# Every key can also be overridden with an ADE_ environment variable (ADE_LOG_LEVEL=debug)\n#\n")
	for _, entry := range DefaultEntries() {
		fmt.Fprintf(&header, "# %s: %s\n", entry.Key, entry.Description)
	}
	header.WriteString("\n")

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append([]byte(header.String()), data...), 0o600)
}
