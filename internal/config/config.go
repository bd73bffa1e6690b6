// Package config provides configuration management for the key-level service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"keylevels/internal/analysis/keylevels"
)

// Config holds all application configuration.
//
// The detection algorithm never reads configuration directly: every call
// receives an explicit keylevels.Params. Config only supplies the defaults
// the HTTP and CLI surfaces fill in when the caller omits a parameter.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Provider  ProviderConfig   `mapstructure:"provider"`
	Store     StoreConfig      `mapstructure:"store"`
	Algorithm keylevels.Params `mapstructure:"algorithm"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ComputeTimeout  time.Duration `mapstructure:"compute_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	Backend  string        `mapstructure:"backend"` // "redis", "memory"
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

// ProviderConfig holds market data provider configuration.
type ProviderConfig struct {
	Name     string        `mapstructure:"name"` // "yahoo", "synthetic"
	Timeout  time.Duration `mapstructure:"timeout"`
	ProxyURL string        `mapstructure:"proxy_url"`
}

// StoreConfig holds local bar store configuration.
type StoreConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"`
	Freshness time.Duration `mapstructure:"freshness"`
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("cache.backend %q unsupported (redis, memory)", c.Cache.Backend)
	}
	switch c.Provider.Name {
	case "yahoo", "synthetic":
	default:
		return fmt.Errorf("provider.name %q unsupported (yahoo, synthetic)", c.Provider.Name)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path required when store is enabled")
	}
	return c.Algorithm.Validate()
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/keylevels"
	}
	return filepath.Join(home, ".config", "keylevels")
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ComputeTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:3000"},
		},
		Cache: CacheConfig{
			Backend: "memory",
			Addr:    "localhost:6379",
			DB:      0,
			TTL:     5 * time.Minute,
			Prefix:  "keylevels:",
		},
		Provider: ProviderConfig{
			Name:    "yahoo",
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Enabled:   true,
			Path:      filepath.Join(DefaultConfigDir(), "bars.db"),
			Freshness: 5 * time.Minute,
		},
		Algorithm: keylevels.DefaultParams(),
	}
}

// Load loads configuration from the specified directory, falling back to
// defaults for anything unset. If configDir is empty, the default config
// directory is used. A missing config file is not an error.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix("KEYLEVELS")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Algorithm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid algorithm defaults: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.compute_timeout", def.Server.ComputeTimeout)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", def.Server.CORSOrigins)

	v.SetDefault("cache.backend", def.Cache.Backend)
	v.SetDefault("cache.addr", def.Cache.Addr)
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", def.Cache.DB)
	v.SetDefault("cache.ttl", def.Cache.TTL)
	v.SetDefault("cache.prefix", def.Cache.Prefix)

	v.SetDefault("provider.name", def.Provider.Name)
	v.SetDefault("provider.timeout", def.Provider.Timeout)
	v.SetDefault("provider.proxy_url", "")

	v.SetDefault("store.enabled", def.Store.Enabled)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("store.freshness", def.Store.Freshness)

	v.SetDefault("algorithm.pivot_window", def.Algorithm.PivotWindow)
	v.SetDefault("algorithm.atr_period", def.Algorithm.ATRPeriod)
	v.SetDefault("algorithm.atr_multiplier", def.Algorithm.ATRMultiplier)
	v.SetDefault("algorithm.max_zones", def.Algorithm.MaxZones)
}

// WriteDefault writes a default config file to the specified directory if
// one does not already exist.
func WriteDefault(configDir string) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	content := `# keylevels configuration
server:
  host: 0.0.0.0
  port: 8000
  compute_timeout: 30s
  cors_origins:
    - http://localhost:3000

cache:
  backend: memory # or: redis
  addr: localhost:6379
  ttl: 5m

provider:
  name: yahoo # or: synthetic
  timeout: 30s

store:
  enabled: true
  freshness: 5m

algorithm:
  pivot_window: 3
  atr_period: 14
  atr_multiplier: 0.3
  max_zones: 6
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}
