package prodsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/db"
	dbRedis "github.com/kailas-cloud/prodsearch/internal/db/redis"
	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/index"
	"github.com/kailas-cloud/prodsearch/internal/repository/catalog"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "prodsearch:"
)

// searchUseCase is the engine surface the client drives; replaced in tests.
type searchUseCase interface {
	Search(ctx context.Context, req request.Request) (result.Response, error)
	SearchIDs(ctx context.Context, req request.Request) ([]string, error)
	Recommend(ctx context.Context, req request.Recommend) ([]string, error)
	Trending(ctx context.Context, n int) ([]result.Item, error)
	Categories(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (product.Stats, error)
	Product(ctx context.Context, id string) (product.Product, error)
	Products(ctx context.Context, limit int) ([]product.Product, error)
}

type indexReloader interface {
	Reload(ctx context.Context) (*index.Index, error)
}

// Client is the prodsearch SDK entry point.
type Client struct {
	store    db.Store // nil for the in-memory catalog
	search   searchUseCase
	health   healthUseCase
	reloader indexReloader
	obs      *observer
}

// New creates a Client. The catalog comes from Redis (WithRedis) or from a
// parquet snapshot (WithSnapshot). The provided context bounds the initial
// readiness check and index load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	cat, store, err := openCatalog(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := searchuc.New(cat, searchuc.Config{
		NeighborDepth: cfg.neighborDepth,
		CacheSize:     cfg.cacheSize,
		CacheTTL:      cfg.cacheTTL,
	}, nil)

	c := &Client{store: store, search: svc, health: healthuc.New(store, svc), obs: obs}

	if cfg.indexPath != "" {
		r := index.NewReloader(cfg.indexPath, func(ix *index.Index) { svc.SetIndex(ix) }, nil)
		c.reloader = r
		if _, err := r.Reload(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("prodsearch: %w", err)
		}
	}
	return c, nil
}

func openCatalog(ctx context.Context, cfg *clientConfig) (searchuc.Catalog, db.Store, error) {
	switch {
	case len(cfg.addrs) > 0:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("prodsearch: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, nil, fmt.Errorf("prodsearch: database not ready: %w", err)
		}
		return catalog.New(s, cfg.keyPrefix), s, nil
	case cfg.snapshot != "":
		products, _, err := catalog.ReadParquet(ctx, cfg.snapshot)
		if err != nil {
			return nil, nil, fmt.Errorf("prodsearch: read snapshot: %w", err)
		}
		mem, err := catalog.NewMemory(products)
		if err != nil {
			return nil, nil, fmt.Errorf("prodsearch: %w", err)
		}
		return mem, nil, nil
	default:
		return nil, nil, errors.New("prodsearch: catalog required (use WithRedis or WithSnapshot)")
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// ReloadIndex reloads the text index artifact configured with WithIndexFile.
// On failure the previous index keeps serving.
func (c *Client) ReloadIndex(ctx context.Context) (err error) {
	defer c.obs.track("reload_index")(&err)

	if c.reloader == nil {
		return fmt.Errorf("%w: no index file configured", domain.ErrInvalidArgument)
	}
	if _, err = c.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("reload index: %w", err)
	}
	return nil
}

// Search ranks the catalog against q.Query. Unanswerable queries return
// trending products with MatchType naming the reason.
func (c *Client) Search(ctx context.Context, q SearchQuery) (res SearchResult, err error) {
	defer c.obs.track("search")(&err)

	req, err := buildRequest(&q)
	if err != nil {
		return SearchResult{}, err
	}
	resp, err := c.search.Search(ctx, req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search: %w", err)
	}
	return SearchResult{
		Query:     resp.Query(),
		Items:     itemsFromDomain(resp.Items()),
		MatchType: string(resp.MatchType()),
		Reason:    resp.MatchType().Label(),
	}, nil
}

// SearchIDs is Search returning only the ranked product ids.
func (c *Client) SearchIDs(ctx context.Context, q SearchQuery) (ids []string, err error) {
	defer c.obs.track("search_ids")(&err)

	req, err := buildRequest(&q)
	if err != nil {
		return nil, err
	}
	ids, err = c.search.SearchIDs(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search ids: %w", err)
	}
	return ids, nil
}

// Recommend returns products similar to productID, never including it.
// An unknown productID yields an empty list.
func (c *Client) Recommend(ctx context.Context, productID string, opts RecommendOptions) (ids []string, err error) {
	defer c.obs.track("recommend")(&err)

	topK := opts.TopK
	if topK == 0 {
		topK = request.DefaultRecommendTopK
	}
	tol := request.DefaultPriceTolerance
	if opts.PriceTolerance != nil {
		tol = *opts.PriceTolerance
	}
	req, err := request.NewRecommend(productID, topK, !opts.AnyCategory, tol)
	if err != nil {
		return nil, err
	}
	ids, err = c.search.Recommend(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	return ids, nil
}

// Trending returns the n most popular products.
func (c *Client) Trending(ctx context.Context, n int) (items []Item, err error) {
	defer c.obs.track("trending")(&err)

	got, err := c.search.Trending(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}
	return itemsFromDomain(got), nil
}

// Categories returns the sorted distinct categories.
func (c *Client) Categories(ctx context.Context) (cats []string, err error) {
	defer c.obs.track("categories")(&err)

	cats, err = c.search.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	return cats, nil
}

// Stats returns catalog totals.
func (c *Client) Stats(ctx context.Context) (st Stats, err error) {
	defer c.obs.track("stats")(&err)

	got, err := c.search.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return Stats{
		TotalProducts: got.TotalProducts,
		Categories:    got.Categories,
		AvgPrice:      got.AvgPrice,
		AvgRating:     got.AvgRating,
	}, nil
}

// Product returns a single catalog record or ErrNotFound.
func (c *Client) Product(ctx context.Context, id string) (p Product, err error) {
	defer c.obs.track("product")(&err)

	got, err := c.search.Product(ctx, id)
	if err != nil {
		return Product{}, fmt.Errorf("product: %w", err)
	}
	return productFromDomain(&got), nil
}

// Products returns up to limit catalog records.
func (c *Client) Products(ctx context.Context, limit int) (ps []Product, err error) {
	defer c.obs.track("products")(&err)

	got, err := c.search.Products(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("products: %w", err)
	}
	ps = make([]Product, len(got))
	for i := range got {
		ps[i] = productFromDomain(&got[i])
	}
	return ps, nil
}

func buildRequest(q *SearchQuery) (request.Request, error) {
	pred, err := predicate.New(predicate.Bounds{
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		Category:   q.Category,
		MinRating:  q.MinRating,
		MinReviews: q.MinReviews,
	})
	if err != nil {
		return request.Request{}, err
	}
	o, ok := order.Parse(q.Sort)
	if !ok {
		return request.Request{}, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidArgument, q.Sort)
	}
	topK := q.TopK
	if topK == 0 {
		topK = request.DefaultTopK
	}
	return request.New(q.Query, pred, topK, o)
}
