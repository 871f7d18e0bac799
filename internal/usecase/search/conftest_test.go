package search

import (
	"context"
	"sort"
	"testing"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/index/indextest"
)

// --- Mocks ---

type mockCatalog struct {
	products []product.Product
	version  string

	fetchErr    error
	trendingErr error
	byIDErr     error
	versionErr  error

	fetchCalls    int
	trendingCalls int
	lastIDs       []string
	lastPred      predicate.Predicate
}

func (m *mockCatalog) FetchByIDs(_ context.Context, ids []string, pred predicate.Predicate) ([]product.Product, error) {
	m.fetchCalls++
	m.lastIDs = append([]string(nil), ids...)
	m.lastPred = pred
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []product.Product
	for _, id := range ids {
		for i := range m.products {
			if m.products[i].ID() == id && pred.Matches(&m.products[i]) {
				out = append(out, m.products[i])
			}
		}
	}
	return out, nil
}

func (m *mockCatalog) FetchTrending(_ context.Context, n int) ([]product.Product, error) {
	m.trendingCalls++
	if m.trendingErr != nil {
		return nil, m.trendingErr
	}
	var out []product.Product
	for _, p := range m.products {
		if _, ok := p.Popularity(); ok {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Popularity()
		b, _ := out[j].Popularity()
		if a != b {
			return a > b
		}
		return out[i].ID() < out[j].ID()
	})
	return out[:min(n, len(out))], nil
}

func (m *mockCatalog) FetchByID(_ context.Context, id string) (product.Product, error) {
	if m.byIDErr != nil {
		return product.Product{}, m.byIDErr
	}
	for _, p := range m.products {
		if p.ID() == id {
			return p, nil
		}
	}
	return product.Product{}, domain.ErrNotFound
}

func (m *mockCatalog) DistinctCategories(_ context.Context) ([]string, error) {
	set := map[string]bool{}
	var out []string
	for _, p := range m.products {
		if c := p.Category(); c != "" && !set[c] {
			set[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *mockCatalog) AggregateStats(_ context.Context) (product.Stats, error) {
	return product.Stats{TotalProducts: len(m.products)}, nil
}

func (m *mockCatalog) List(_ context.Context, limit int) ([]product.Product, error) {
	return m.products[:min(limit, len(m.products))], nil
}

func (m *mockCatalog) Version(context.Context) (string, error) {
	if m.versionErr != nil {
		return "", m.versionErr
	}
	return m.version, nil
}

// rebuild replaces the catalog contents and starts a new generation.
func (m *mockCatalog) rebuild(products []product.Product, version string) {
	m.products = products
	m.version = version
}

// mockIndex returns fixed candidates for any non-empty query vector.
type mockIndex struct {
	vec        domain.SparseVector
	candidates []candidate.Candidate
	cluster    int
	hasCluster bool
	err        error
	size       int

	lastN int
}

func (m *mockIndex) Transform(string) domain.SparseVector { return m.vec }

func (m *mockIndex) Neighbors(_ context.Context, _ domain.SparseVector, n int) ([]candidate.Candidate, error) {
	m.lastN = n
	if m.err != nil {
		return nil, m.err
	}
	return m.candidates[:min(n, len(m.candidates))], nil
}

func (m *mockIndex) PredictCluster(domain.SparseVector) (int, bool) { return m.cluster, m.hasCluster }

func (m *mockIndex) Size() int {
	if m.size > 0 {
		return m.size
	}
	return len(m.candidates)
}

func (m *mockIndex) Version() string { return "mock" }

// nonZero is a query vector that is never treated as unknown words.
var nonZero = domain.SparseVector{Indices: []int32{0}, Values: []float32{1}}

// --- Fixtures ---

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
func intp(v int) *int        { return &v }

type fixtureRow struct {
	id, title, category string
	price, rating       float64
	reviews             int64
	cluster             int
}

var fixtureRows = []fixtureRow{
	{"m1", "Wireless Mouse", "Electronics", 25, 4.5, 1200, 0},
	{"m2", "Ergonomic Wireless Mouse with USB Receiver", "Electronics", 40, 4.0, 300, 0},
	{"m3", "Gaming Mouse RGB", "Electronics", 60, 4.7, 5000, 0},
	{"m4", "Silent Wireless Mouse for Laptop", "Electronics", 19, 4.2, 800, 0},
	{"m5", "Bluetooth Mouse Pad Combo", "Accessories", 15, 3.9, 50, 0},
	{"k1", "Mechanical Gaming Keyboard", "Electronics", 80, 4.6, 900, 1},
	{"k2", "Wireless Keyboard", "Electronics", 45, 4.3, 2000, 1},
	{"s1", "Running Shoes", "Shoes", 120, 4.4, 3000, 2},
	{"s2", "Trail Running Shoes Waterproof", "Shoes", 150, 4.1, 700, 2},
}

// fixtureTrending is the popularity order of fixtureRows.
var fixtureTrending = []string{"m3", "s1", "k2", "m1", "k1", "m4", "s2", "m2", "m5"}

func fixtureProducts(t *testing.T) []product.Product {
	t.Helper()
	out := make([]product.Product, 0, len(fixtureRows)+1)
	for _, r := range fixtureRows {
		out = append(out, mustProduct(t, r.id, product.Attrs{
			Title:    r.title,
			Category: r.category,
			Price:    f64(r.price),
			Rating:   f64(r.rating),
			Reviews:  i64(r.reviews),
			Cluster:  intp(r.cluster),
		}))
	}
	// No popularity: never trending.
	out = append(out, mustProduct(t, "x1", product.Attrs{Title: "Mystery Box"}))
	return out
}

func fixtureDocs() []indextest.Doc {
	docs := make([]indextest.Doc, 0, len(fixtureRows)+1)
	for _, r := range fixtureRows {
		docs = append(docs, indextest.Doc{ID: r.id, Title: r.title, Cluster: r.cluster})
	}
	return append(docs, indextest.Doc{ID: "x1", Title: "Mystery Box", Cluster: -1})
}

func mustProduct(t *testing.T, id string, a product.Attrs) product.Product {
	t.Helper()
	p, err := product.New(id, a)
	if err != nil {
		t.Fatalf("product %s: %v", id, err)
	}
	return p
}

// newTestService wires the engine over the fixture catalog and a fitted index.
func newTestService(t *testing.T, cfg Config) (*Service, *mockCatalog) {
	t.Helper()
	cat := &mockCatalog{products: fixtureProducts(t), version: "1"}
	svc := New(cat, cfg, nil)
	svc.SetIndex(indextest.New(t, fixtureDocs()))
	return svc, cat
}

func itemIDs(items []result.Item) []string {
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID()
	}
	return ids
}
