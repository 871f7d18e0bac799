package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
)

func TestEnsureIndex_CreatesWhenMissing(t *testing.T) {
	repo, ms := newTestRepo(t)

	var created *db.IndexDefinition
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		assert.Equal(t, "ps:products:idx", name)
		return false, nil
	}
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		created = def
		return nil
	}

	require.NoError(t, repo.EnsureIndex(context.Background()))
	require.NotNil(t, created)
	assert.Equal(t, []string{"ps:product:"}, created.Prefixes)

	pid := created.Fields[0]
	assert.Equal(t, fieldID, pid.Name)
	assert.Equal(t, db.FieldTag, pid.Type)
	assert.Equal(t, idSeparator, pid.Separator)
	assert.True(t, pid.CaseSensitive, "ids must not match across case")

	last := created.Fields[len(created.Fields)-1]
	assert.Equal(t, fieldPopularity, last.Name)
	assert.True(t, last.Sortable)
}

func TestEnsureIndex_Existing(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) { return true, nil }
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error {
		t.Fatal("CreateIndex must not be called")
		return nil
	}
	require.NoError(t, repo.EnsureIndex(context.Background()))
}

func TestEnsureIndex_RaceIsTolerated(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }
	require.NoError(t, repo.EnsureIndex(context.Background()))
}

func TestEnsureIndex_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(context.Context, string) (bool, error) { return false, errors.New("conn refused") }

	err := repo.EnsureIndex(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestDropIndex(t *testing.T) {
	repo, ms := newTestRepo(t)
	var dropped string
	ms.dropIndexFn = func(_ context.Context, name string) error {
		dropped = name
		return nil
	}
	require.NoError(t, repo.DropIndex(context.Background()))
	assert.Equal(t, "ps:products:idx", dropped)
}

func TestDropIndex_MissingIsIgnored(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.dropIndexFn = func(context.Context, string) error { return db.ErrIndexNotFound }
	require.NoError(t, repo.DropIndex(context.Background()))

	ms.dropIndexFn = func(context.Context, string) error { return errors.New("READONLY") }
	assert.ErrorIs(t, repo.DropIndex(context.Background()), domain.ErrUpstreamUnavailable)
}

func TestUpsertBatch(t *testing.T) {
	repo, ms := newTestRepo(t)
	products := testCatalog(t)

	var got []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, items []db.HashSetItem) error {
		got = items
		return nil
	}

	require.NoError(t, repo.UpsertBatch(context.Background(), products))
	require.Len(t, got, len(products))
	assert.Equal(t, "ps:product:m1", got[0].Key)
	assert.Equal(t, "Wireless Mouse", got[0].Fields[fieldTitle])
	assert.NotContains(t, got[3].Fields, fieldPopularity)
}

func TestVersion(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(_ context.Context, key string) (string, error) {
		assert.Equal(t, "ps:catalog:version", key)
		return "4", nil
	}

	v, err := repo.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "4", v)
}

func TestVersion_NeverStamped(t *testing.T) {
	repo, _ := newTestRepo(t)

	v, err := repo.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestVersion_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.getFn = func(context.Context, string) (string, error) {
		return "", &db.Error{Op: db.OpGet, Err: errors.New("timeout")}
	}

	_, err := repo.Version(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestBumpVersion(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.incrFn = func(_ context.Context, key string) (int64, error) {
		assert.Equal(t, "ps:catalog:version", key)
		return 5, nil
	}

	v, err := repo.BumpVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5", v)
}

func TestUpsertBatch_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(context.Context, []db.HashSetItem) error {
		t.Fatal("HSetMulti must not be called")
		return nil
	}
	require.NoError(t, repo.UpsertBatch(context.Background(), nil))
}

func TestFetchByIDs_KeepsCandidateOrder(t *testing.T) {
	repo, ms := newTestRepo(t)
	cat := testCatalog(t)

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		assert.Equal(t, "ps:products:idx", q.IndexName)
		assert.Equal(t, 3, q.Limit)
		require.Len(t, q.Filters.Conditions(), 1)
		assert.Equal(t, []string{"m2", "s1", "m1"}, q.Filters.Conditions()[0].Values())
		// Redis returns hits in its own order.
		return &db.SearchResult{Total: 3, Entries: []db.SearchEntry{
			hashEntry(&cat[0]), hashEntry(&cat[1]), hashEntry(&cat[2]),
		}}, nil
	}

	got, err := repo.FetchByIDs(context.Background(), []string{"m2", "s1", "m1"}, predicate.Predicate{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m2", got[0].ID())
	assert.Equal(t, "s1", got[1].ID())
	assert.Equal(t, "m1", got[2].ID())
}

func TestFetchByIDs_PunctuatedIDsStayWhole(t *testing.T) {
	repo, ms := newTestRepo(t)
	comma := mustProduct(t, "SKU,1", product.Attrs{Title: "Comma"})
	upper := mustProduct(t, "ABC", product.Attrs{Title: "Upper"})

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		assert.Equal(t, 2, q.Limit)
		require.Len(t, q.Filters.Conditions(), 1)
		assert.Equal(t, []string{"SKU,1", "ABC"}, q.Filters.Conditions()[0].Values())
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{hashEntry(&upper), hashEntry(&comma)}}, nil
	}

	got, err := repo.FetchByIDs(context.Background(), []string{"SKU,1", "ABC"}, predicate.Predicate{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "SKU,1", got[0].ID())
	assert.Equal(t, "ABC", got[1].ID())
}

func TestFetchByIDs_PredicateBecomesFilter(t *testing.T) {
	repo, ms := newTestRepo(t)

	pred, err := predicate.New(predicate.Bounds{
		MinPrice: f64(10), MaxPrice: f64(50), Category: "Electronics",
		MinRating: f64(4), MinReviews: i64(100),
	})
	require.NoError(t, err)

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		conds := q.Filters.Conditions()
		require.Len(t, conds, 5)
		assert.Equal(t, filter.KindTagAny, conds[0].Kind())
		assert.Equal(t, fieldCategory, conds[1].Field())
		assert.Equal(t, []string{"Electronics"}, conds[1].Values())
		assert.Equal(t, fieldPrice, conds[2].Field())
		lo, hi := conds[2].Bounds()
		assert.InDelta(t, 10, *lo, 0)
		assert.InDelta(t, 50, *hi, 0)
		assert.Equal(t, fieldStars, conds[3].Field())
		assert.Equal(t, fieldReviews, conds[4].Field())
		return &db.SearchResult{}, nil
	}

	got, err := repo.FetchByIDs(context.Background(), []string{"m1"}, pred)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchByIDs_RechecksPredicate(t *testing.T) {
	repo, ms := newTestRepo(t)
	cat := testCatalog(t)

	pred, err := predicate.New(predicate.Bounds{Category: "Shoes"})
	require.NoError(t, err)

	ms.searchListFn = func(context.Context, *db.ListQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{hashEntry(&cat[0]), hashEntry(&cat[2])}}, nil
	}

	got, err := repo.FetchByIDs(context.Background(), []string{"m1", "s1"}, pred)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].ID())
}

func TestFetchByIDs_Empty(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.FetchByIDs(context.Background(), nil, predicate.Predicate{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchByIDs_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchListFn = func(context.Context, *db.ListQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("timeout")}
	}

	_, err := repo.FetchByIDs(context.Background(), []string{"m1"}, predicate.Predicate{})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)

	var dbErr *db.Error
	assert.ErrorAs(t, err, &dbErr)
}

func TestFetchByIDs_SkipsInvalidRecords(t *testing.T) {
	repo, ms := newTestRepo(t)
	cat := testCatalog(t)
	ms.searchListFn = func(context.Context, *db.ListQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{Key: "ps:product:bad", Fields: map[string]string{fieldID: "bad", fieldStars: "9"}},
			hashEntry(&cat[0]),
		}}, nil
	}

	got, err := repo.FetchByIDs(context.Background(), []string{"bad", "m1"}, predicate.Predicate{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].ID())
}

func TestFetchTrending(t *testing.T) {
	repo, ms := newTestRepo(t)
	cat := testCatalog(t)

	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if q.SortBy == "" {
			// Tie group at the page boundary.
			return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{hashEntry(&cat[1])}}, nil
		}
		assert.Equal(t, fieldPopularity, q.SortBy)
		assert.True(t, q.SortDesc)
		assert.Equal(t, 3, q.Limit)
		require.Len(t, q.Filters.Conditions(), 1)
		assert.Equal(t, fieldPopularity, q.Filters.Conditions()[0].Field())
		return &db.SearchResult{Total: 3, Entries: []db.SearchEntry{
			hashEntry(&cat[2]), hashEntry(&cat[0]), hashEntry(&cat[1]),
		}}, nil
	}

	got, err := repo.FetchTrending(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "s1", got[0].ID())
	assert.Equal(t, "m1", got[1].ID())
	assert.Equal(t, "m2", got[2].ID())
}

func TestFetchTrending_CompletesTieAtBoundary(t *testing.T) {
	repo, ms := newTestRepo(t)
	same := product.Attrs{Rating: f64(4), Reviews: i64(100)}
	top := mustProduct(t, "top", product.Attrs{Rating: f64(5), Reviews: i64(1000)})
	a := mustProduct(t, "a", same)
	b := mustProduct(t, "b", same)
	c := mustProduct(t, "c", same)

	var tieQuery *db.ListQuery
	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		if q.SortBy == fieldPopularity {
			// SORTBY cut the tie group and kept "c".
			return &db.SearchResult{Total: 4, Entries: []db.SearchEntry{hashEntry(&top), hashEntry(&c)}}, nil
		}
		tieQuery = q
		return &db.SearchResult{Total: 3, Entries: []db.SearchEntry{
			hashEntry(&c), hashEntry(&b), hashEntry(&a),
		}}, nil
	}

	got, err := repo.FetchTrending(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "top", got[0].ID())
	assert.Equal(t, "a", got[1].ID())

	require.NotNil(t, tieQuery)
	assert.Equal(t, maxTieGroup, tieQuery.Limit)
	conds := tieQuery.Filters.Conditions()
	require.Len(t, conds, 1)
	lo, hi := conds[0].Bounds()
	pop, _ := a.Popularity()
	assert.InDelta(t, pop, *lo, 1e-9)
	assert.InDelta(t, pop, *hi, 1e-9)
}

func TestFetchTrending_ShortPageSkipsTieQuery(t *testing.T) {
	repo, ms := newTestRepo(t)
	cat := testCatalog(t)
	calls := 0
	ms.searchListFn = func(context.Context, *db.ListQuery) (*db.SearchResult, error) {
		calls++
		return &db.SearchResult{Total: 1, Entries: []db.SearchEntry{hashEntry(&cat[0])}}, nil
	}

	got, err := repo.FetchTrending(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, calls)
}

func TestFetchTrending_NonPositive(t *testing.T) {
	repo, _ := newTestRepo(t)
	got, err := repo.FetchTrending(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFetchByID(t *testing.T) {
	repo, ms := newTestRepo(t)
	cat := testCatalog(t)

	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key == "ps:product:m1" {
			return productToHash(&cat[0]), nil
		}
		return map[string]string{}, nil
	}

	p, err := repo.FetchByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Wireless Mouse", p.Title())

	_, err = repo.FetchByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchByID_Invalid(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(context.Context, string) (map[string]string, error) {
		return map[string]string{fieldID: "m1", fieldPrice: "abc"}, nil
	}
	_, err := repo.FetchByID(context.Background(), "m1")
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestDistinctCategories(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.tagValsFn = func(_ context.Context, index, field string) ([]string, error) {
		assert.Equal(t, "ps:products:idx", index)
		assert.Equal(t, fieldCategory, field)
		return []string{"Shoes", "Electronics"}, nil
	}

	got, err := repo.DistinctCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Shoes"}, got)
}

func TestAggregateStats(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.aggregateFn = func(_ context.Context, q *db.AggregateQuery) ([]map[string]string, error) {
		assert.Len(t, q.Reducers, 4)
		return []map[string]string{{
			"total": "4", "avg_price": "51.5", "avg_rating": "4.25", "categories": "2",
		}}, nil
	}

	st, err := repo.AggregateStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalProducts)
	assert.InDelta(t, 51.5, st.AvgPrice, 1e-9)
	assert.InDelta(t, 4.25, st.AvgRating, 1e-9)
	assert.Equal(t, 2, st.Categories)
}

func TestAggregateStats_EmptyAndNaN(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.aggregateFn = func(context.Context, *db.AggregateQuery) ([]map[string]string, error) { return nil, nil }
	st, err := repo.AggregateStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st)

	ms.aggregateFn = func(context.Context, *db.AggregateQuery) ([]map[string]string, error) {
		return []map[string]string{{"total": "1", "avg_price": "nan"}}, nil
	}
	st, err = repo.AggregateStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalProducts)
	assert.Zero(t, st.AvgPrice)
}

func TestList(t *testing.T) {
	repo, ms := newTestRepo(t)
	cat := testCatalog(t)
	ms.searchListFn = func(_ context.Context, q *db.ListQuery) (*db.SearchResult, error) {
		assert.True(t, q.Filters.IsEmpty())
		assert.Equal(t, 2, q.Limit)
		return &db.SearchResult{Total: 4, Entries: []db.SearchEntry{hashEntry(&cat[0]), hashEntry(&cat[1])}}, nil
	}

	got, err := repo.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
