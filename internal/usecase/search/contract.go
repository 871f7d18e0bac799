package search

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
)

// Index is a loaded text-vector snapshot: vectorizer, neighbour retriever
// and cluster model. Implementations must be safe for concurrent reads.
type Index interface {
	Transform(cleaned string) domain.SparseVector
	Neighbors(ctx context.Context, q domain.SparseVector, n int) ([]candidate.Candidate, error)
	PredictCluster(v domain.SparseVector) (int, bool)
	Size() int
	Version() string
}

// Catalog reads product records.
type Catalog interface {
	// FetchByIDs returns the products among ids that satisfy pred, in ids order.
	FetchByIDs(ctx context.Context, ids []string, pred predicate.Predicate) ([]product.Product, error)
	// FetchTrending returns up to n products by popularity descending, id ascending.
	FetchTrending(ctx context.Context, n int) ([]product.Product, error)
	FetchByID(ctx context.Context, id string) (product.Product, error)
	DistinctCategories(ctx context.Context) ([]string, error)
	AggregateStats(ctx context.Context) (product.Stats, error)
	List(ctx context.Context, limit int) ([]product.Product, error)
	// Version changes whenever the catalog is rebuilt.
	Version(ctx context.Context) (string, error)
}
