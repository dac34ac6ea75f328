// Package config holds the vecdb configuration loaded from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for vecdb.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Distance  DistanceConfig  `yaml:"distance"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimit      float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst          int           `yaml:"burst"`
}

// StoreConfig holds vector store configuration.
type StoreConfig struct {
	Path            string        `yaml:"path"`
	BusyTimeout     time.Duration `yaml:"busy_timeout"`
	MaxFallbackRows int           `yaml:"max_fallback_rows"`
	StrictModel     bool          `yaml:"strict_model"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"` // "hash" or "openai"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Timeout     time.Duration `yaml:"timeout"`
	Warmup      bool          `yaml:"warmup"`
	Concurrency int           `yaml:"concurrency"`
	CachePath   string        `yaml:"cache_path"` // empty disables the cache
}

// DistanceConfig controls native distance function discovery.
type DistanceConfig struct {
	Builtin    bool     `yaml:"builtin"`
	Candidates []string `yaml:"candidates"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

const (
	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":4000",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   60 * time.Second,
			RequestTimeout: 30 * time.Second,
			Burst:          20,
		},
		Store: StoreConfig{
			Path:            "vectors.db",
			BusyTimeout:     5 * time.Second,
			MaxFallbackRows: 10000,
		},
		Embedding: EmbeddingConfig{
			Provider:    ProviderHash,
			Model:       "Xenova/all-MiniLM-L6-v2",
			Timeout:     60 * time.Second,
			Concurrency: 4,
		},
		Distance: DistanceConfig{
			Builtin:    true,
			Candidates: []string{"vec0", "sqlite-vss", "vss"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied afterwards.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from VECDB_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("VECDB_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("VECDB_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VECDB_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("VECDB_EMBEDDING_URL"); v != "" {
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv("VECDB_EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("VECDB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VECDB_MAX_FALLBACK_ROWS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VECDB_MAX_FALLBACK_ROWS: %w", err)
		}
		c.Store.MaxFallbackRows = n
	}
	return nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store.path must be set")
	}
	if c.Store.MaxFallbackRows <= 0 {
		return fmt.Errorf("store.max_fallback_rows must be positive, got %d", c.Store.MaxFallbackRows)
	}
	switch c.Embedding.Provider {
	case ProviderHash, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown embedding provider: %s", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model must be set")
	}
	if c.Embedding.Concurrency <= 0 {
		return fmt.Errorf("embedding.concurrency must be positive, got %d", c.Embedding.Concurrency)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
