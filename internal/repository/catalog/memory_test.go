package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := NewMemory(testCatalog(t))
	require.NoError(t, err)
	return m
}

func TestNewMemory_DuplicateID(t *testing.T) {
	cat := testCatalog(t)
	_, err := NewMemory(append(cat, cat[0]))
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestMemory_FetchByIDs(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	got, err := m.FetchByIDs(ctx, []string{"s1", "nope", "m1", "s1"}, predicate.Predicate{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ID())
	assert.Equal(t, "m1", got[1].ID())
}

func TestMemory_FetchByIDs_Predicate(t *testing.T) {
	m := newTestMemory(t)
	ids := []string{"m1", "m2", "s1", "x1"}

	tests := []struct {
		name   string
		bounds predicate.Bounds
		want   []string
	}{
		{"none", predicate.Bounds{}, []string{"m1", "m2", "s1", "x1"}},
		{"max price", predicate.Bounds{MaxPrice: f64(30)}, []string{"m1"}},
		{"price window", predicate.Bounds{MinPrice: f64(30), MaxPrice: f64(100)}, []string{"m2", "s1"}},
		{"category", predicate.Bounds{Category: "Electronics"}, []string{"m1", "m2"}},
		{"rating excludes unknown", predicate.Bounds{MinRating: f64(0)}, []string{"m1", "m2"}},
		{"reviews", predicate.Bounds{MinReviews: i64(500)}, []string{"m1"}},
		{"conjunctive", predicate.Bounds{Category: "Electronics", MinPrice: f64(30)}, []string{"m2"}},
		{"nothing", predicate.Bounds{MinPrice: f64(10000)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := predicate.New(tt.bounds)
			require.NoError(t, err)

			got, err := m.FetchByIDs(context.Background(), ids, pred)
			require.NoError(t, err)
			assert.Equal(t, tt.want, productIDs(got))
		})
	}
}

func TestMemory_FetchTrending(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	got, err := m.FetchTrending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "m1", "m2"}, productIDs(got))

	got, err = m.FetchTrending(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "m1"}, productIDs(got))

	got, err = m.FetchTrending(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_FetchTrending_TieBreakByID(t *testing.T) {
	a := product.Attrs{Rating: f64(4), Reviews: i64(10)}
	m, err := NewMemory([]product.Product{
		mustProduct(t, "b", a), mustProduct(t, "c", a), mustProduct(t, "a", a),
	})
	require.NoError(t, err)

	got, err := m.FetchTrending(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, productIDs(got))
}

func TestMemory_FetchTrending_Cancelled(t *testing.T) {
	m := newTestMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.FetchTrending(ctx, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemory_FetchByID(t *testing.T) {
	m := newTestMemory(t)

	p, err := m.FetchByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Trail Running Shoes", p.Title())

	_, err = m.FetchByID(context.Background(), "zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemory_CategoriesAndStats(t *testing.T) {
	m := newTestMemory(t)
	ctx := context.Background()

	cats, err := m.DistinctCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Shoes"}, cats)

	st, err := m.AggregateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalProducts)
	assert.Equal(t, 2, st.Categories)
	assert.InDelta(t, 155.0/3, st.AvgPrice, 1e-9)
	assert.InDelta(t, 4.25, st.AvgRating, 1e-9)
}

func TestMemory_List(t *testing.T) {
	m := newTestMemory(t)

	got, err := m.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, productIDs(got))

	got, err = m.List(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, got, 4)
	assert.Equal(t, 4, m.Len())
}

func productIDs(ps []product.Product) []string {
	var ids []string
	for i := range ps {
		ids = append(ids, ps[i].ID())
	}
	return ids
}

func TestMemory_Version(t *testing.T) {
	ctx := context.Background()
	a, err := newTestMemory(t).Version(ctx)
	require.NoError(t, err)
	b, err := newTestMemory(t).Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same products, same version")

	smaller, err := NewMemory(testCatalog(t)[1:])
	require.NoError(t, err)
	c, err := smaller.Version(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
