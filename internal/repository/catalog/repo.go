package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/prodsearch/internal/logger"
)

// maxTieGroup caps the follow-up query that completes a popularity tie at
// the trending page boundary.
const maxTieGroup = 1000

// store is the consumer interface for the catalog (ISP).
//
//nolint:interfacebloat // catalog repo needs hash, index and query operations
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Get(ctx context.Context, key string) (string, error)
	Incr(ctx context.Context, key string) (int64, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	TagVals(ctx context.Context, index, field string) ([]string, error)
	Aggregate(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error)
}

// Repo is the Redis-backed catalog accessor.
type Repo struct {
	store  store
	prefix string
}

// New creates a catalog repository. prefix namespaces every key and the index.
func New(s store, prefix string) *Repo {
	return &Repo{store: s, prefix: prefix}
}

// IndexName returns the FT index the repository queries.
func (r *Repo) IndexName() string { return indexName(r.prefix) }

// EnsureIndex creates the product index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.IndexName())
	if err != nil {
		return upstream("check index", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.prefix)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return upstream("create index", err)
	}
	return nil
}

// DropIndex removes the product index definition. Product hashes are kept,
// so a following EnsureIndex re-indexes them with the current schema.
// A missing index is not an error.
func (r *Repo) DropIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.IndexName()); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return upstream("drop index", err)
	}
	return nil
}

// UpsertBatch writes products as hashes in a single pipeline.
func (r *Repo) UpsertBatch(ctx context.Context, products []product.Product) error {
	if len(products) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(products))
	for i := range products {
		items[i] = db.HashSetItem{
			Key:    productKey(r.prefix, products[i].ID()),
			Fields: productToHash(&products[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return upstream("upsert products", err)
	}
	return nil
}

// FetchByIDs returns the products among ids that satisfy pred, in ids order.
// Unknown ids are skipped.
func (r *Repo) FetchByIDs(ctx context.Context, ids []string, pred predicate.Predicate) ([]product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	expr, err := predicateFilter(ids, pred)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}

	sr, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.IndexName(),
		Filters:   expr,
		Limit:     len(ids),
	})
	if err != nil {
		return nil, upstream("fetch products", err)
	}

	found := r.decodeEntries(ctx, sr)
	pos := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := pos[id]; !dup {
			pos[id] = i
		}
	}

	out := make([]product.Product, 0, len(found))
	for i := range found {
		if _, ok := pos[found[i].ID()]; ok && pred.Matches(&found[i]) {
			out = append(out, found[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return pos[out[a].ID()] < pos[out[b].ID()]
	})
	return out, nil
}

// FetchTrending returns up to n products with the highest popularity.
// Ties are broken by id ascending.
func (r *Repo) FetchTrending(ctx context.Context, n int) ([]product.Product, error) {
	if n <= 0 {
		return nil, nil
	}

	expr, err := popularFilter()
	if err != nil {
		return nil, err
	}

	sr, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.IndexName(),
		Filters:   expr,
		Limit:     n,
		SortBy:    fieldPopularity,
		SortDesc:  true,
	})
	if err != nil {
		return nil, upstream("fetch trending", err)
	}

	out := r.decodeEntries(ctx, sr)
	if len(sr.Entries) == n && len(out) > 0 {
		// SORTBY may cut the lowest popularity group anywhere; fetch all of
		// it so the id tie-break picks the same products as a full sort.
		if boundary, ok := out[len(out)-1].Popularity(); ok {
			ties, err := r.fetchTieGroup(ctx, boundary)
			if err != nil {
				return nil, err
			}
			out = mergeByID(out, ties)
		}
	}
	sortByPopularity(out)
	return out[:min(n, len(out))], nil
}

// fetchTieGroup returns every product whose popularity equals p.
func (r *Repo) fetchTieGroup(ctx context.Context, p float64) ([]product.Product, error) {
	expr, err := tieFilter(p)
	if err != nil {
		return nil, err
	}
	sr, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.IndexName(),
		Filters:   expr,
		Limit:     maxTieGroup,
	})
	if err != nil {
		return nil, upstream("fetch trending ties", err)
	}
	return r.decodeEntries(ctx, sr), nil
}

func mergeByID(a, b []product.Product) []product.Product {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]product.Product, 0, len(a)+len(b))
	for _, ps := range [][]product.Product{a, b} {
		for i := range ps {
			if _, dup := seen[ps[i].ID()]; dup {
				continue
			}
			seen[ps[i].ID()] = struct{}{}
			out = append(out, ps[i])
		}
	}
	return out
}

// Version identifies the loaded catalog generation. A catalog that was
// never stamped by the loader reads as "0".
func (r *Repo) Version(ctx context.Context) (string, error) {
	v, err := r.store.Get(ctx, versionKey(r.prefix))
	if errors.Is(err, db.ErrKeyNotFound) {
		return "0", nil
	}
	if err != nil {
		return "", upstream("read catalog version", err)
	}
	return v, nil
}

// BumpVersion starts a new catalog generation. Loaders call it once a
// rebuild has been written so that readers drop cached results.
func (r *Repo) BumpVersion(ctx context.Context) (string, error) {
	n, err := r.store.Incr(ctx, versionKey(r.prefix))
	if err != nil {
		return "", upstream("bump catalog version", err)
	}
	return strconv.FormatInt(n, 10), nil
}

// FetchByID returns a single product or domain.ErrNotFound.
func (r *Repo) FetchByID(ctx context.Context, id string) (product.Product, error) {
	m, err := r.store.HGetAll(ctx, productKey(r.prefix, id))
	if err != nil {
		return product.Product{}, upstream("fetch product "+id, err)
	}
	if len(m) == 0 {
		return product.Product{}, domain.ErrNotFound
	}
	p, err := productFromHash(m)
	if err != nil {
		return product.Product{}, fmt.Errorf("%w: %s: %w", domain.ErrInvalidProduct, id, err)
	}
	return p, nil
}

// DistinctCategories returns the sorted set of categories.
func (r *Repo) DistinctCategories(ctx context.Context) ([]string, error) {
	vals, err := r.store.TagVals(ctx, r.IndexName(), fieldCategory)
	if err != nil {
		return nil, upstream("list categories", err)
	}
	sort.Strings(vals)
	return vals, nil
}

// AggregateStats computes catalog totals in one FT.AGGREGATE round-trip.
func (r *Repo) AggregateStats(ctx context.Context) (product.Stats, error) {
	rows, err := r.store.Aggregate(ctx, &db.AggregateQuery{
		IndexName: r.IndexName(),
		Reducers: []db.Reducer{
			{Func: db.ReduceCount, As: "total"},
			{Func: db.ReduceAvg, Field: fieldPrice, As: "avg_price"},
			{Func: db.ReduceAvg, Field: fieldStars, As: "avg_rating"},
			{Func: db.ReduceCountDistinct, Field: fieldCategory, As: "categories"},
		},
	})
	if err != nil {
		return product.Stats{}, upstream("aggregate stats", err)
	}
	if len(rows) == 0 {
		return product.Stats{}, nil
	}
	row := rows[0]
	return product.Stats{
		TotalProducts: int(parseNumber(row["total"])),
		AvgPrice:      parseNumber(row["avg_price"]),
		AvgRating:     parseNumber(row["avg_rating"]),
		Categories:    int(parseNumber(row["categories"])),
	}, nil
}

// List returns up to limit products in index order.
func (r *Repo) List(ctx context.Context, limit int) ([]product.Product, error) {
	if limit <= 0 {
		return nil, nil
	}
	sr, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: r.IndexName(),
		Limit:     limit,
	})
	if err != nil {
		return nil, upstream("list products", err)
	}
	return r.decodeEntries(ctx, sr), nil
}

// decodeEntries hydrates search hits, dropping records that fail validation.
func (r *Repo) decodeEntries(ctx context.Context, sr *db.SearchResult) []product.Product {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]product.Product, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		p, err := productFromHash(e.Fields)
		if err != nil {
			logger.FromContext(ctx).Warn("skipping invalid catalog record",
				zap.String("key", e.Key), zap.Error(err))
			continue
		}
		out = append(out, p)
	}
	return out
}

func upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
}

// parseNumber reads an aggregate value; missing or non-finite values read as 0.
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
