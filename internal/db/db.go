// Package db defines the storage contract for the Redis-backed catalog:
// product hashes plus a RediSearch index over them.
package db

import (
	"context"
	"time"
)

// Store is everything the catalog and its tooling need from the backend.
//
//nolint:interfacebloat // facade; consumers declare narrow interfaces
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashSetItem is one hash written by a pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore reads and writes product hashes.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// KVStore reads and bumps plain string counters.
type KVStore interface {
	// Get returns ErrKeyNotFound for a missing key.
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// IndexManager manages the FT index lifecycle.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher queries an FT index.
type Searcher interface {
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	TagVals(ctx context.Context, index, field string) ([]string, error)
	Aggregate(ctx context.Context, q *AggregateQuery) ([]map[string]string, error)
}
