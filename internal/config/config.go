// Package config loads per-environment YAML settings with ${VAR} and
// ${VAR:-default} substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the prodsearch API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Index    IndexConfig    `yaml:"index"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// Catalog drivers.
const (
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// DatabaseConfig holds catalog backend settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// CatalogConfig holds the catalog snapshot location for the memory driver.
type CatalogConfig struct {
	Path string `yaml:"path"` // parquet file
}

// IndexConfig holds text index artifact settings.
type IndexConfig struct {
	Path       string `yaml:"path"`
	Watch      bool   `yaml:"watch"`
	DebounceMs int    `yaml:"debounce_ms"`
}

// ReadTimeout is the server read timeout.
func (h HTTPConfig) ReadTimeout() time.Duration { return seconds(h.ReadTimeoutSec) }

// WriteTimeout is the server write timeout.
func (h HTTPConfig) WriteTimeout() time.Duration { return seconds(h.WriteTimeoutSec) }

// ShutdownTimeout bounds graceful shutdown.
func (h HTTPConfig) ShutdownTimeout() time.Duration { return seconds(h.ShutdownSec) }

// ReadinessWait bounds the startup wait for the database.
func (d DatabaseConfig) ReadinessWait() time.Duration { return seconds(d.ReadinessTimeout) }

// Debounce is the quiet period before a changed index file is reloaded.
func (i IndexConfig) Debounce() time.Duration { return time.Duration(i.DebounceMs) * time.Millisecond }

// CacheTTL is the result cache entry lifetime.
func (s SearchConfig) CacheTTL() time.Duration { return seconds(s.CacheTTLSec) }

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

// Upper bounds mirrored from the request validators.
const (
	maxTopK          = 100
	maxTrendingLimit = 50
	maxProductsLimit = 500
)

// SearchConfig holds ranking engine settings.
type SearchConfig struct {
	NeighborDepth int `yaml:"neighbor_depth"`
	CacheSize     int `yaml:"cache_size"` // 0 disables the result cache
	CacheTTLSec   int `yaml:"cache_ttl_sec"`
	DefaultTopK   int `yaml:"default_top_k"`
	TrendingLimit int `yaml:"trending_limit"`
	ProductsLimit int `yaml:"products_limit"`
}

// Load reads config/<env>.yaml, expands environment references, applies
// defaults and validates the result.
func Load(env string) (Config, error) {
	path := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// GetEnv returns $ENV, or "local" when unset.
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills zero values. CacheSize stays 0, which disables the cache.
func (c *Config) ApplyDefaults() {
	orDefault(&c.HTTP.ReadTimeoutSec, 10)
	orDefault(&c.HTTP.WriteTimeoutSec, 10)
	orDefault(&c.HTTP.ShutdownSec, 10)
	orDefault(&c.Database.Driver, DriverRedis)
	orDefault(&c.Database.ReadinessTimeout, 10)
	orDefault(&c.Storage.KeyPrefix, "prodsearch:")
	orDefault(&c.Index.DebounceMs, 500)
	orDefault(&c.Search.NeighborDepth, 500)
	orDefault(&c.Search.CacheTTLSec, 60)
	orDefault(&c.Search.DefaultTopK, 10)
	orDefault(&c.Search.TrendingLimit, 10)
	orDefault(&c.Search.ProductsLimit, 50)
}

// orDefault sets *v to def when *v is the zero value or a negative number.
func orDefault[T int | string](v *T, def T) {
	var zero T
	if *v <= zero {
		*v = def
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTP.Port > 0 && c.HTTP.Port <= 65535, "http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	switch c.Database.Driver {
	case DriverRedis:
		check(len(c.Database.Addrs) > 0, "database.addrs is required for the %s driver", DriverRedis)
	case DriverMemory:
		check(c.Catalog.Path != "", "catalog.path is required for the %s driver", DriverMemory)
	default:
		check(false, "database.driver must be %q or %q, got %q", DriverRedis, DriverMemory, c.Database.Driver)
	}
	check(c.Index.Path != "", "index.path is required")
	check(c.Search.CacheSize >= 0, "search.cache_size must be >= 0, got %d", c.Search.CacheSize)
	check(c.Search.DefaultTopK <= maxTopK,
		"search.default_top_k must be at most %d, got %d", maxTopK, c.Search.DefaultTopK)
	check(c.Search.TrendingLimit <= maxTrendingLimit,
		"search.trending_limit must be at most %d, got %d", maxTrendingLimit, c.Search.TrendingLimit)
	check(c.Search.ProductsLimit <= maxProductsLimit,
		"search.products_limit must be at most %d, got %d", maxProductsLimit, c.Search.ProductsLimit)

	return errors.Join(errs...)
}

// findConfigPath looks in $CONFIG_DIR, then ./config, then the repository's
// config directory next to this source file.
func findConfigPath(env string) string {
	name := env + ".yaml"

	if dir := os.Getenv("CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, name)
	}
	local := filepath.Join("config", name)
	if fileExists(local) {
		return local
	}
	if _, src, _, ok := runtime.Caller(0); ok {
		root := filepath.Dir(filepath.Dir(filepath.Dir(src)))
		if p := filepath.Join(root, "config", name); fileExists(p) {
			return p
		}
	}
	return local
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars substitutes ${VAR} and ${VAR:-default}.
func expandEnvVars(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name, def, hasDef := strings.Cut(string(m[2:len(m)-1]), ":-")
		val := os.Getenv(name)
		if val == "" && hasDef {
			val = def
		}
		return []byte(val)
	})
}
