package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "parley.yaml"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Version    int            `yaml:"version"`
	Docs       string         `yaml:"docs"`
	LogLevel   string         `yaml:"log_level"`
	StepBudget int            `yaml:"step_budget"`
	Store      StoreConfig    `yaml:"store"`
	HTTP       HTTPConfig     `yaml:"http"`
	Security   SecurityConfig `yaml:"security"`
}

type StoreConfig struct {
	Backend string        `yaml:"backend"`
	DSN     string        `yaml:"dsn"`
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
	Lock    bool          `yaml:"lock"`
}

type HTTPConfig struct {
	Addr             string   `yaml:"addr"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	ValidateRequests bool     `yaml:"validate_requests"`
}

type SecurityConfig struct {
	EncryptionKey  string   `yaml:"encryption_key"`
	FallbackKeys   []string `yaml:"fallback_keys"`
	RedactPatterns []string `yaml:"redact_patterns"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Version:    1,
		Docs:       ".",
		LogLevel:   "info",
		StepBudget: 1000,
		Store:      StoreConfig{Backend: BackendFile},
		HTTP: HTTPConfig{
			Addr:             ":8080",
			AllowedOrigins:   []string{"*"},
			ValidateRequests: true,
		},
	}
}

// Load reads path on top of the defaults and applies PARLEY_* overrides.
// An empty path tries DefaultFile and silently skips it when absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PARLEY_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set("PARLEY_DOCS", &c.Docs)
	set("PARLEY_LOG_LEVEL", &c.LogLevel)
	set("PARLEY_STORE", &c.Store.Backend)
	set("PARLEY_STORE_DSN", &c.Store.DSN)
	set("PARLEY_HTTP_ADDR", &c.HTTP.Addr)
	set("PARLEY_ENCRYPTION_KEY", &c.Security.EncryptionKey)

	if v := strings.TrimSpace(getenv("PARLEY_STEP_BUDGET")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PARLEY_STEP_BUDGET: %w", err)
		}
		c.StepBudget = n
	}
	return nil
}

// Validate checks field values after all overrides are applied.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return fmt.Errorf("unsupported version: %d", c.Version)
	}
	if strings.TrimSpace(c.Docs) == "" {
		return fmt.Errorf("docs directory is required")
	}
	if c.StepBudget <= 0 {
		return fmt.Errorf("step_budget must be positive, got %d", c.StepBudget)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis, BackendSQLite, BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store %s requires a dsn", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	if c.Store.Lock && c.Store.Backend != BackendRedis {
		return fmt.Errorf("store lock requires the redis backend")
	}
	if len(c.Security.FallbackKeys) > 0 && c.Security.EncryptionKey == "" {
		return fmt.Errorf("fallback keys require an encryption key")
	}
	return nil
}

// ParseLevel maps a level name to slog.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// Level returns the configured log level, or Info when invalid.
func (c *Config) Level() slog.Level {
	level, err := ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
