package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/index"
	"github.com/kailas-cloud/prodsearch/internal/logger"
	healthuc "github.com/kailas-cloud/prodsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/prodsearch/internal/usecase/search"
)

// Defaults applied when a listing parameter is omitted.
type Defaults struct {
	TopK          int
	TrendingLimit int
	ProductsLimit int
}

// IndexReloader reloads the text index artifact on demand.
type IndexReloader interface {
	Reload(ctx context.Context) (*index.Index, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the product search HTTP API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	reloader      IndexReloader
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. reloader can be nil, which disables
// the admin reload route.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	reloader IndexReloader,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.TopK <= 0 {
		defaults.TopK = request.DefaultTopK
	}
	if defaults.TrendingLimit <= 0 {
		defaults.TrendingLimit = searchuc.DefaultTrendingLimit
	}
	if defaults.ProductsLimit <= 0 {
		defaults.ProductsLimit = searchuc.DefaultProductsLimit
	}
	s := &Server{
		search:   search,
		health:   health,
		reloader: reloader,
		defaults: defaults,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable, ErrorCodeNotReady),
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrUpstreamUnavailable, http.StatusBadGateway, ErrorCodeUpstreamUnavailable),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r gochi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeBadRequest, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/stats", s.Stats)
	r.Get("/categories", s.Categories)
	r.Get("/search", s.Search)
	r.Get("/search/ids", s.SearchIDs)
	r.Get("/trending", s.Trending)
	r.Get("/recommend/{product_id}", s.Recommend)
	r.Get("/api/recommendations/{product_id}", s.IntegrationRecommendations)
	r.Get("/products", s.ListProducts)
	r.Get("/products/{product_id}", s.GetProduct)
	if s.reloader != nil {
		r.Post("/admin/index/reload", s.ReloadIndex)
	}
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	req, err := s.searchRequest(&params)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchToAPI(&resp))
}

// SearchIDs handles GET /search/ids.
func (s *Server) SearchIDs(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	req, err := s.searchRequest(&params)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	ids, err := s.search.SearchIDs(r.Context(), req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchIDsResponse{ProductIDs: ids, Count: len(ids), Query: req.Query()})
}

// Trending handles GET /trending.
func (s *Server) Trending(w http.ResponseWriter, r *http.Request) {
	params, err := bindTrendingParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	items, err := s.search.Trending(r.Context(), derefInt(params.N, s.defaults.TrendingLimit))
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, TrendingResponse{
		Products: itemsToAPI(items),
		Count:    len(items),
		Reason:   trendingReason(),
	})
}

// Recommend handles GET /recommend/{product_id}.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	id, err := bindProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	params, err := bindRecommendParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	req, err := request.NewRecommend(
		id,
		derefInt(params.TopK, request.DefaultRecommendTopK),
		derefBool(params.SameCategory, true),
		derefFloat(params.PriceTolerance, request.DefaultPriceTolerance),
	)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}

	ids, err := s.search.Recommend(r.Context(), req)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendResponse{
		SourceProductID: id,
		RecommendedIDs:  ids,
		Count:           len(ids),
		Filters: RecommendFilters{
			SameCategory:   req.SameCategory(),
			PriceTolerance: req.PriceTolerance(),
		},
	})
}

// IntegrationRecommendations handles GET /api/recommendations/{product_id}.
// Storefront clients expect a bare id array, so every failure degrades to [].
func (s *Server) IntegrationRecommendations(w http.ResponseWriter, r *http.Request) {
	ids := []string{}

	id, err := bindProductID(r)
	if err == nil {
		var req request.Recommend
		req, err = request.NewRecommend(id, request.DefaultRecommendTopK, true, request.DefaultPriceTolerance)
		if err == nil {
			var got []string
			got, err = s.search.Recommend(r.Context(), req)
			if err == nil {
				ids = got
			}
		}
	}
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Warn("recommendations degraded to empty list",
			zap.String("product_id", id), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, ids)
}

// Categories handles GET /categories.
func (s *Server) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.search.Categories(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, CategoriesResponse{Categories: cats})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.search.Stats(r.Context())
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToAPI(st))
}

// ListProducts handles GET /products.
func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, err := bindProductsParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	ps, err := s.search.Products(r.Context(), derefInt(params.Limit, s.defaults.ProductsLimit))
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductListResponse{Products: productsToAPI(ps), Count: len(ps)})
}

// GetProduct handles GET /products/{product_id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := bindProductID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}

	p, err := s.search.Product(r.Context(), id)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, productToAPI(&p))
}

// ReloadIndex handles POST /admin/index/reload.
func (s *Server) ReloadIndex(w http.ResponseWriter, r *http.Request) {
	ix, err := s.reloader.Reload(r.Context())
	if err != nil {
		logger.FromContextOr(r.Context(), s.logger).Error("index reload failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "index reload failed")
		return
	}
	writeJSON(w, http.StatusOK, ReloadResponse{
		Status: "reloaded",
		Index:  IndexStatus{Documents: ix.Size(), Version: ix.Version()},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:       string(report.Status),
		Checks:       checks,
		EngineLoaded: report.Index.Ready,
		Index:        IndexStatus{Documents: report.Index.Documents, Version: report.Index.Version},
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) searchRequest(p *SearchParams) (request.Request, error) {
	pred, err := predicate.New(predicate.Bounds{
		MinPrice:   p.MinPrice,
		MaxPrice:   p.MaxPrice,
		Category:   derefString(p.Category),
		MinRating:  p.MinStars,
		MinReviews: p.MinReviews,
	})
	if err != nil {
		return request.Request{}, fmt.Errorf("build predicate: %w", err)
	}

	o, ok := order.Parse(derefString(p.SortBy))
	if !ok {
		return request.Request{}, fmt.Errorf("%w: unknown sort_by %q", domain.ErrInvalidArgument, derefString(p.SortBy))
	}

	return request.New(derefString(p.Q), pred, derefInt(p.TopK, s.defaults.TopK), o)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotReady,
		domain.ErrNotFound,
		domain.ErrUpstreamUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports invalid arguments with their full message.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidArgument) {
		return false
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
	return true
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	l := logger.FromContextOr(ctx, s.logger)
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
