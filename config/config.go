// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Config is the root configuration structure.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Cache      CacheConfig      `yaml:"cache"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// StoreConfig selects and configures the item store.
type StoreConfig struct {
	Driver string `yaml:"driver"` // "memory", "sqlite" or "bolt"
	DSN    string `yaml:"dsn"`    // database file for sqlite and bolt
}

// CatalogConfig configures the field catalog seeded into the store.
type CatalogConfig struct {
	Path        string `yaml:"path"`         // YAML file or directory, optional
	SeedBuiltin bool   `yaml:"seed_builtin"` // seed the embedded catalog
}

// CacheConfig configures the field cache.
type CacheConfig struct {
	FieldCacheSize int `yaml:"field_cache_size"` // negative disables the cache
}

// ValidationConfig configures validators built by the application.
type ValidationConfig struct {
	LenientRepeaterKeys bool `yaml:"lenient_repeater_keys"`
	MaxDepth            int  `yaml:"max_depth"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures the operational HTTP endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"` // listen address (default: :9090)
	Path    string `yaml:"path"` // metrics path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, then applies env overrides and defaults.
func Parse(data []byte) (*Config, error) {
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{Catalog: CatalogConfig{SeedBuiltin: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	CONTENTCORE_STORE_DRIVER          - memory, sqlite or bolt (default: memory)
//	CONTENTCORE_STORE_DSN             - Database file (default: contentcore.db)
//	CONTENTCORE_CATALOG_PATH          - Field catalog file or directory
//	CONTENTCORE_CATALOG_SEED_BUILTIN  - Seed the built-in catalog (default: true)
//	CONTENTCORE_CACHE_FIELD_SIZE      - Field cache entries (default: 1024)
//	CONTENTCORE_VALIDATION_LENIENT    - Keep unknown repeater keys (default: false)
//	CONTENTCORE_VALIDATION_MAX_DEPTH  - Repeater nesting limit (default: 16)
//	CONTENTCORE_LOG_LEVEL             - debug, info, warn, error (default: info)
//	CONTENTCORE_LOG_FORMAT            - json or console (default: json)
//	CONTENTCORE_METRICS_ENABLED       - Serve /metrics (default: false)
//	CONTENTCORE_METRICS_ADDR          - Listen address (default: :9090)
//	CONTENTCORE_METRICS_PATH          - Metrics path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	cfg := Config{Catalog: CatalogConfig{SeedBuiltin: true}}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads path when it exists, else falls back to the
// environment.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies CONTENTCORE_* environment variables to the
// config. Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CONTENTCORE_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("CONTENTCORE_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}

	if v := os.Getenv("CONTENTCORE_CATALOG_PATH"); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv("CONTENTCORE_CATALOG_SEED_BUILTIN"); v != "" {
		cfg.Catalog.SeedBuiltin = parseBool(v)
	}

	if v := os.Getenv("CONTENTCORE_CACHE_FIELD_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.FieldCacheSize = n
		}
	}

	if v := os.Getenv("CONTENTCORE_VALIDATION_LENIENT"); v != "" {
		cfg.Validation.LenientRepeaterKeys = parseBool(v)
	}
	if v := os.Getenv("CONTENTCORE_VALIDATION_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Validation.MaxDepth = n
		}
	}

	if v := os.Getenv("CONTENTCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CONTENTCORE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("CONTENTCORE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CONTENTCORE_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("CONTENTCORE_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverMemory
	}
	if cfg.Store.DSN == "" && cfg.Store.Driver != DriverMemory {
		cfg.Store.DSN = "contentcore.db"
	}

	if cfg.Cache.FieldCacheSize == 0 {
		cfg.Cache.FieldCacheSize = 1024
	}

	if cfg.Validation.MaxDepth == 0 {
		cfg.Validation.MaxDepth = 16
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	validDrivers := map[string]bool{DriverMemory: true, DriverSQLite: true, DriverBolt: true}
	if !validDrivers[cfg.Store.Driver] {
		return fmt.Errorf("store.driver must be 'memory', 'sqlite' or 'bolt', got %q", cfg.Store.Driver)
	}

	if cfg.Validation.MaxDepth < 1 {
		return fmt.Errorf("validation.max_depth must be positive, got %d", cfg.Validation.MaxDepth)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}
