package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

const testPrefix = "ps:"

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetMultiFn   func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	getFn         func(ctx context.Context, key string) (string, error)
	incrFn        func(ctx context.Context, key string) (int64, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn   func(ctx context.Context, name string) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchListFn  func(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	tagValsFn     func(ctx context.Context, index, field string) ([]string, error)
	aggregateFn   func(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return "", db.ErrKeyNotFound
}

func (m *mockStore) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrFn != nil {
		return m.incrFn(ctx, key)
	}
	return 1, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, name string) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, name)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if m.searchListFn != nil {
		return m.searchListFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) TagVals(ctx context.Context, index, field string) ([]string, error) {
	if m.tagValsFn != nil {
		return m.tagValsFn(ctx, index, field)
	}
	return nil, nil
}

func (m *mockStore) Aggregate(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error) {
	if m.aggregateFn != nil {
		return m.aggregateFn(ctx, q)
	}
	return nil, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, testPrefix), ms
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func intp(v int) *int        { return &v }

func mustProduct(t *testing.T, id string, a product.Attrs) product.Product {
	t.Helper()
	p, err := product.New(id, a)
	require.NoError(t, err)
	return p
}

// testCatalog is a small catalog with one product of each popularity kind.
func testCatalog(t *testing.T) []product.Product {
	t.Helper()
	return []product.Product{
		mustProduct(t, "m1", product.Attrs{
			Title: "Wireless Mouse", Category: "Electronics",
			Price: f64(25), Rating: f64(4.5), Reviews: i64(1200), Cluster: intp(0),
		}),
		mustProduct(t, "m2", product.Attrs{
			Title: "Ergonomic Mouse", Category: "Electronics",
			Price: f64(40), Rating: f64(4.0), Reviews: i64(300), Cluster: intp(0),
		}),
		mustProduct(t, "s1", product.Attrs{
			Title: "Trail Running Shoes", Category: "Shoes",
			Price: f64(90), Stock: i64(20), Cluster: intp(2),
		}),
		mustProduct(t, "x1", product.Attrs{Title: "Mystery Box"}),
	}
}

func hashEntry(p *product.Product) db.SearchEntry {
	return db.SearchEntry{Key: productKey(testPrefix, p.ID()), Fields: productToHash(p)}
}
