package prodsearch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	// Redis catalog
	addrs     []string
	password  string
	keyPrefix string

	// In-memory catalog
	snapshot string

	indexPath     string
	neighborDepth int
	cacheSize     int
	cacheTTL      time.Duration

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis serves the catalog from a Redis instance with the search module.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the Redis key namespace. Default: "prodsearch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithSnapshot serves the catalog from a parquet snapshot held in memory.
// Ignored when WithRedis is set.
func WithSnapshot(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshot = path
	})
}

// WithIndexFile loads the text index artifact at startup.
// Without it the client answers ErrNotReady until ReloadIndex succeeds.
func WithIndexFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexPath = path
	})
}

// WithNeighborDepth caps how many neighbours are retrieved per query. Default: 500.
func WithNeighborDepth(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.neighborDepth = n
	})
}

// WithResultCache enables the search result cache.
func WithResultCache(size int, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
		c.cacheTTL = ttl
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
