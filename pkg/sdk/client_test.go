package prodsearch

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/index/indextest"
	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
)

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

// writeFixture writes a catalog snapshot and a fitted text index into a temp dir.
func writeFixture(t *testing.T) (snapshot, indexPath string) {
	t.Helper()
	dir := t.TempDir()

	ps := make([]product.Product, 0, len(fixtureRows))
	docs := make([]indextest.Doc, 0, len(fixtureRows))
	for _, r := range fixtureRows {
		price, rating, reviews, cluster := r.price, r.rating, r.reviews, r.cluster
		p, err := product.New(r.id, product.Attrs{
			Title:    r.title,
			Category: r.category,
			Price:    &price,
			Rating:   &rating,
			Reviews:  &reviews,
			Cluster:  &cluster,
		})
		if err != nil {
			t.Fatal(err)
		}
		ps = append(ps, p)
		docs = append(docs, indextest.Doc{ID: r.id, Title: r.title, Cluster: r.cluster})
	}

	snapshot = filepath.Join(dir, "catalog.parquet")
	if err := catalog.WriteParquet(snapshot, ps); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}
	return snapshot, indextest.WriteFile(t, dir, docs)
}

func newFixtureClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	snapshot, indexPath := writeFixture(t)
	c, err := New(context.Background(), append([]Option{WithSnapshot(snapshot), WithIndexFile(indexPath)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_NoCatalog(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("expected error when no catalog is configured")
	}
}

func TestNew_MissingIndexFile(t *testing.T) {
	snapshot, _ := writeFixture(t)
	_, err := New(context.Background(), WithSnapshot(snapshot), WithIndexFile(filepath.Join(t.TempDir(), "none")))
	if err == nil {
		t.Fatal("expected error for a missing index artifact")
	}
}

func TestClient_NotReadyWithoutIndex(t *testing.T) {
	snapshot, _ := writeFixture(t)
	c, err := New(context.Background(), WithSnapshot(snapshot))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, err := c.Search(context.Background(), SearchQuery{Query: "mouse"}); !errors.Is(err, ErrNotReady) {
		t.Errorf("Search err = %v, want ErrNotReady", err)
	}
	if err := c.ReloadIndex(context.Background()); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ReloadIndex err = %v, want ErrInvalidArgument", err)
	}
	if h := c.Health(context.Background()); h.IndexReady || h.Checks["index"] != "loading" {
		t.Errorf("health = %+v", h)
	}
}

func TestClient_Search(t *testing.T) {
	c := newFixtureClient(t)

	res, err := c.Search(context.Background(), SearchQuery{Query: "Wireless Mouse!", TopK: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.MatchType != "direct_match" || res.Reason != "Direct Search" {
		t.Errorf("match = %q / %q", res.MatchType, res.Reason)
	}
	if len(res.Items) != 5 || res.Items[0].Product.ID != "m1" {
		t.Fatalf("items = %+v", res.Items)
	}
	if p := res.Items[0].Product; p.Price == nil || *p.Price != 25 || p.Category != "Electronics" {
		t.Errorf("product = %+v", p)
	}

	res, err = c.Search(context.Background(), SearchQuery{Query: "xyzzyqqqnonsense", TopK: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.MatchType != "unknown_words" {
		t.Errorf("match = %q, want unknown_words", res.MatchType)
	}
	ids := make([]string, len(res.Items))
	for i, it := range res.Items {
		ids[i] = it.Product.ID
	}
	if !slices.Equal(ids, []string{"m3", "s1", "k2"}) {
		t.Errorf("fallback ids = %v", ids)
	}
}

func TestClient_SearchIDs(t *testing.T) {
	c := newFixtureClient(t)

	minPrice := 100.0
	ids, err := c.SearchIDs(context.Background(), SearchQuery{Query: "running shoes", MinPrice: &minPrice, Sort: SortPriceDesc})
	if err != nil {
		t.Fatalf("SearchIDs: %v", err)
	}
	if !slices.Equal(ids, []string{"s2", "s1"}) {
		t.Errorf("ids = %v, want [s2 s1]", ids)
	}
}

func TestClient_InvalidQuery(t *testing.T) {
	c := newFixtureClient(t)

	tests := []SearchQuery{
		{Query: "mouse", Sort: "newest"},
		{Query: "mouse", TopK: 101},
		{Query: "mouse", TopK: -1},
	}
	for _, q := range tests {
		if _, err := c.Search(context.Background(), q); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%+v: err = %v, want ErrInvalidArgument", q, err)
		}
	}
}

func TestClient_Recommend(t *testing.T) {
	c := newFixtureClient(t)

	ids, err := c.Recommend(context.Background(), "m1", RecommendOptions{})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if !slices.Equal(ids, []string{"m4"}) {
		t.Errorf("ids = %v, want [m4]", ids)
	}

	wide := 2.0
	ids, err = c.Recommend(context.Background(), "m1", RecommendOptions{AnyCategory: true, PriceTolerance: &wide})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if slices.Contains(ids, "m1") || len(ids) == 0 {
		t.Errorf("ids = %v", ids)
	}

	ids, err = c.Recommend(context.Background(), "unknown", RecommendOptions{})
	if err != nil || len(ids) != 0 {
		t.Errorf("unknown source: ids = %v, err = %v", ids, err)
	}
}

func TestClient_CatalogReads(t *testing.T) {
	c := newFixtureClient(t)
	ctx := context.Background()

	trending, err := c.Trending(ctx, 2)
	if err != nil || len(trending) != 2 || trending[0].Product.ID != "m3" {
		t.Errorf("Trending = %+v, %v", trending, err)
	}

	cats, err := c.Categories(ctx)
	if err != nil || !slices.Equal(cats, []string{"Accessories", "Electronics", "Shoes"}) {
		t.Errorf("Categories = %v, %v", cats, err)
	}

	st, err := c.Stats(ctx)
	if err != nil || st.TotalProducts != 9 || st.Categories != 3 {
		t.Errorf("Stats = %+v, %v", st, err)
	}

	p, err := c.Product(ctx, "s1")
	if err != nil || p.Title != "Running Shoes" || p.Cluster == nil || *p.Cluster != 2 {
		t.Errorf("Product = %+v, %v", p, err)
	}
	if _, err := c.Product(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Product(nope) err = %v, want ErrNotFound", err)
	}

	ps, err := c.Products(ctx, 3)
	if err != nil || len(ps) != 3 || ps[0].ID != "m1" {
		t.Errorf("Products = %+v, %v", ps, err)
	}
}

func TestClient_ReloadAndHealth(t *testing.T) {
	c := newFixtureClient(t)

	if err := c.ReloadIndex(context.Background()); err != nil {
		t.Fatalf("ReloadIndex: %v", err)
	}
	h := c.Health(context.Background())
	if h.Status != "ok" || !h.IndexReady || h.IndexDocs != 9 {
		t.Errorf("health = %+v", h)
	}
	if _, ok := h.Checks["database"]; ok {
		t.Error("in-memory catalog should not report a database check")
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := newFixtureClient(t, WithPrometheus(reg))

	_, _ = c.Search(context.Background(), SearchQuery{Query: "mouse"})
	_, _ = c.Product(context.Background(), "nope")

	m := c.obs.metrics
	if got := testutil.ToFloat64(m.operations.WithLabelValues("search", "ok")); got != 1 {
		t.Errorf("search ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operations.WithLabelValues("product", "not_found")); got != 1 {
		t.Errorf("product not_found = %v, want 1", got)
	}
}
