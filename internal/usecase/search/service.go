package search

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/match"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/logger"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
)

// Listing limits.
const (
	DefaultTrendingLimit = 10
	MaxTrendingLimit     = 50
	DefaultProductsLimit = 50
	MaxProductsLimit     = 500
)

// Config tunes the engine.
type Config struct {
	// NeighborDepth caps how many neighbours are retrieved per query.
	NeighborDepth int
	// CacheSize is the result cache capacity; 0 disables caching.
	CacheSize int
	// CacheTTL bounds how long a cached response may lag the catalog.
	CacheTTL time.Duration
}

// snapshot wraps the active index so it can be swapped atomically.
type snapshot struct {
	idx Index
}

// Service is the retrieval and ranking engine. It holds no per-request state;
// the index snapshot is swapped wholesale by SetIndex.
type Service struct {
	catalog Catalog
	depth   int
	cache   *resultCache
	logger  *zap.Logger
	snap    atomic.Pointer[snapshot]
}

// New creates the engine. It reports ErrNotReady until SetIndex is called.
func New(catalog Catalog, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	depth := cfg.NeighborDepth
	if depth <= 0 {
		depth = DefaultNeighborDepth
	}
	return &Service{
		catalog: catalog,
		depth:   depth,
		cache:   newResultCache(cfg.CacheSize, cfg.CacheTTL),
		logger:  logger,
	}
}

// SetIndex publishes a new index snapshot and drops cached responses.
// Catalog rebuilds are picked up through Catalog.Version.
// A nil index puts the engine back into the not-ready state.
func (s *Service) SetIndex(idx Index) {
	if idx == nil {
		s.snap.Store(nil)
	} else {
		s.snap.Store(&snapshot{idx: idx})
	}
	s.cache.purge()
}

// IndexStatus reports the active snapshot, if any.
func (s *Service) IndexStatus() (size int, version string, ready bool) {
	sn := s.snap.Load()
	if sn == nil {
		return 0, "", false
	}
	return sn.idx.Size(), sn.idx.Version(), true
}

func (s *Service) index() (Index, error) {
	sn := s.snap.Load()
	if sn == nil {
		return nil, domain.ErrNotReady
	}
	return sn.idx, nil
}

func (s *Service) newCascade(idx Index, query string, pred predicate.Predicate) *cascade {
	return &cascade{idx: idx, catalog: s.catalog, depth: s.depth, query: query, pred: pred}
}

// Search runs the fallback cascade and returns a ranked response tagged with
// the branch that produced it.
func (s *Service) Search(ctx context.Context, req request.Request) (result.Response, error) {
	const op = "search"

	idx, err := s.index()
	if err != nil {
		return result.Response{}, s.fail(op, err)
	}

	key, cacheable := s.cacheKey(ctx, &req)
	if cacheable {
		if hit, ok := s.cache.get(key); ok {
			items := append([]result.Item(nil), hit.items...)
			s.observe(ctx, op, req.Query(), hit.matchType, len(items))
			return result.NewResponse(req.Query(), items, hit.matchType), nil
		}
	}

	c := s.newCascade(idx, req.Query(), req.Predicate())
	c.queryCluster = true
	if err := c.run(ctx); err != nil {
		return result.Response{}, s.fail(op, err)
	}

	var items []result.Item
	if c.outcome.IsFallback() {
		items, err = s.trendingItems(ctx, req.TopK(), c.outcome)
		if err != nil {
			return result.Response{}, s.fail(op, err)
		}
	} else {
		items = c.items
		sortItems(items, req.Order())
		items = items[:min(len(items), req.TopK())]
	}

	if cacheable {
		s.cache.add(key, items, c.outcome)
	}
	s.observe(ctx, op, req.Query(), c.outcome, len(items))
	return result.NewResponse(req.Query(), items, c.outcome), nil
}

// cacheKey resolves the result cache entry for req against the current
// catalog version. Without a readable version the search is not cached.
func (s *Service) cacheKey(ctx context.Context, req *request.Request) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	version, err := s.catalog.Version(ctx)
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("catalog version unavailable, result cache bypassed",
			zap.Error(err))
		return "", false
	}
	s.cache.sync(version)
	return cacheKey(version, req), true
}

// SearchIDs is Search reduced to the ordered product ids.
func (s *Service) SearchIDs(ctx context.Context, req request.Request) ([]string, error) {
	resp, err := s.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.IDs(), nil
}

// Trending returns the n most popular products.
func (s *Service) Trending(ctx context.Context, n int) ([]result.Item, error) {
	const op = "trending"

	if _, err := s.index(); err != nil {
		return nil, s.fail(op, err)
	}
	if n < 1 || n > MaxTrendingLimit {
		return nil, s.fail(op, fmt.Errorf("%w: n must be between 1 and %d", domain.ErrInvalidArgument, MaxTrendingLimit))
	}

	items, err := s.trendingItems(ctx, n, match.TrendingRequest)
	if err != nil {
		return nil, s.fail(op, err)
	}
	s.observe(ctx, op, "", match.TrendingRequest, len(items))
	return items, nil
}

// Categories returns the sorted distinct categories.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	const op = "categories"

	if _, err := s.index(); err != nil {
		return nil, s.fail(op, err)
	}
	cats, err := s.catalog.DistinctCategories(ctx)
	if err != nil {
		return nil, s.fail(op, collaboratorErr("list categories", err))
	}
	return cats, nil
}

// Stats returns catalog totals.
func (s *Service) Stats(ctx context.Context) (product.Stats, error) {
	const op = "stats"

	if _, err := s.index(); err != nil {
		return product.Stats{}, s.fail(op, err)
	}
	st, err := s.catalog.AggregateStats(ctx)
	if err != nil {
		return product.Stats{}, s.fail(op, collaboratorErr("aggregate stats", err))
	}
	return st, nil
}

// Product returns a single catalog record or domain.ErrNotFound.
func (s *Service) Product(ctx context.Context, id string) (product.Product, error) {
	const op = "product"

	if _, err := s.index(); err != nil {
		return product.Product{}, s.fail(op, err)
	}
	if id == "" || len(id) > product.MaxIDLength {
		return product.Product{}, s.fail(op, fmt.Errorf("%w: invalid product id", domain.ErrInvalidArgument))
	}
	p, err := s.catalog.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return product.Product{}, s.fail(op, err)
		}
		return product.Product{}, s.fail(op, collaboratorErr("fetch product", err))
	}
	return p, nil
}

// Products returns up to limit catalog records.
func (s *Service) Products(ctx context.Context, limit int) ([]product.Product, error) {
	const op = "products"

	if _, err := s.index(); err != nil {
		return nil, s.fail(op, err)
	}
	if limit < 1 || limit > MaxProductsLimit {
		return nil, s.fail(op, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidArgument, MaxProductsLimit))
	}
	ps, err := s.catalog.List(ctx, limit)
	if err != nil {
		return nil, s.fail(op, collaboratorErr("list products", err))
	}
	return ps, nil
}

// observe records the outcome of a ranked operation. Fallbacks are logged at
// warn level so unanswerable queries show up without debug logging.
func (s *Service) observe(ctx context.Context, op, query string, t match.Type, n int) {
	metrics.SearchRequestsTotal.WithLabelValues(op, string(t)).Inc()

	l := logger.FromContextOr(ctx, s.logger)
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("query", query),
		zap.String("match_type", string(t)),
		zap.Int("items", n),
	}
	if t.IsFallback() && t != match.TrendingRequest {
		l.Warn("search fell back to trending", fields...)
		return
	}
	l.Debug("search served", fields...)
}

func (s *Service) fail(op string, err error) error {
	metrics.SearchErrorsTotal.WithLabelValues(op, errorType(err)).Inc()
	return err
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotReady):
		return "not_ready"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "upstream"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
