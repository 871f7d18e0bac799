package chi

import (
	"math"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/match"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// ErrorCode is the machine-readable error kind returned to clients.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeNotReady            ErrorCode = "not_ready"
	ErrorCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Product is a catalog record. Unknown numeric attributes are null.
type Product struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Price         *float64 `json:"price"`
	Stars         *float64 `json:"stars"`
	Reviews       *int64   `json:"reviews"`
	StockQuantity *int64   `json:"stock_quantity"`
	Cluster       *int     `json:"cluster"`
	ImageURL      string   `json:"image_url,omitempty"`
	ProductURL    string   `json:"product_url,omitempty"`
}

// SearchItem is a ranked product.
type SearchItem struct {
	Product
	Similarity   float64 `json:"similarity"`
	FinalScore   float64 `json:"final_score"`
	ClusterMatch bool    `json:"cluster_match"`
	MatchType    string  `json:"match_type"`
}

// SearchResponse is returned by GET /search.
type SearchResponse struct {
	Products  []SearchItem `json:"products"`
	Count     int          `json:"count"`
	Query     string       `json:"query"`
	MatchType string       `json:"match_type"`
	Reason    string       `json:"reason"`
}

// SearchIDsResponse is returned by GET /search/ids.
type SearchIDsResponse struct {
	ProductIDs []string `json:"product_ids"`
	Count      int      `json:"count"`
	Query      string   `json:"query"`
}

// TrendingResponse is returned by GET /trending.
type TrendingResponse struct {
	Products []SearchItem `json:"products"`
	Count    int          `json:"count"`
	Reason   string       `json:"reason"`
}

// RecommendFilters echoes the constraints a recommendation ran with.
type RecommendFilters struct {
	SameCategory   bool    `json:"same_category"`
	PriceTolerance float64 `json:"price_tolerance"`
}

// RecommendResponse is returned by GET /recommend/{product_id}.
type RecommendResponse struct {
	SourceProductID string           `json:"source_product_id"`
	RecommendedIDs  []string         `json:"recommended_ids"`
	Count           int              `json:"count"`
	Filters         RecommendFilters `json:"filters"`
}

// CategoriesResponse is returned by GET /categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	TotalProducts int     `json:"total_products"`
	Categories    int     `json:"categories"`
	AvgPrice      float64 `json:"avg_price"`
	AvgRating     float64 `json:"avg_rating"`
}

// ProductListResponse is returned by GET /products.
type ProductListResponse struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}

// IndexStatus describes the served text index.
type IndexStatus struct {
	Documents int    `json:"documents"`
	Version   string `json:"version,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Checks       map[string]string `json:"checks"`
	EngineLoaded bool              `json:"engine_loaded"`
	Index        IndexStatus       `json:"index"`
}

// ReloadResponse is returned by POST /admin/index/reload.
type ReloadResponse struct {
	Status string      `json:"status"`
	Index  IndexStatus `json:"index"`
}

func productToAPI(p *product.Product) Product {
	a := p.Attrs()
	return Product{
		ID:            p.ID(),
		Title:         a.Title,
		Category:      a.Category,
		Price:         a.Price,
		Stars:         a.Rating,
		Reviews:       a.Reviews,
		StockQuantity: a.Stock,
		Cluster:       a.Cluster,
		ImageURL:      a.ImageURL,
		ProductURL:    a.ProductURL,
	}
}

func productsToAPI(ps []product.Product) []Product {
	out := make([]Product, len(ps))
	for i := range ps {
		out[i] = productToAPI(&ps[i])
	}
	return out
}

func itemToAPI(it *result.Item) SearchItem {
	p := it.Product()
	s := it.Scores()
	return SearchItem{
		Product:      productToAPI(&p),
		Similarity:   round2(s.Similarity),
		FinalScore:   round2(s.Final),
		ClusterMatch: s.ClusterMatch,
		MatchType:    string(it.MatchType()),
	}
}

func itemsToAPI(items []result.Item) []SearchItem {
	out := make([]SearchItem, len(items))
	for i := range items {
		out[i] = itemToAPI(&items[i])
	}
	return out
}

func searchToAPI(resp *result.Response) SearchResponse {
	items := resp.Items()
	return SearchResponse{
		Products:  itemsToAPI(items),
		Count:     len(items),
		Query:     resp.Query(),
		MatchType: string(resp.MatchType()),
		Reason:    resp.MatchType().Label(),
	}
}

func statsToAPI(st product.Stats) StatsResponse {
	return StatsResponse{
		TotalProducts: st.TotalProducts,
		Categories:    st.Categories,
		AvgPrice:      round2(st.AvgPrice),
		AvgRating:     round2(st.AvgRating),
	}
}

func trendingReason() string { return match.TrendingRequest.Label() }

// round2 rounds scores and averages for presentation only.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
