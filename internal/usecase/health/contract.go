package health

import "context"

// DBPinger is satisfied by the Redis store.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker is satisfied by the search service.
type IndexChecker interface {
	IndexStatus() (size int, version string, ready bool)
}
