package chi

import (
	"fmt"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// SearchParams defines parameters for GET /search and GET /search/ids.
type SearchParams struct {
	Q          *string
	TopK       *int
	MinPrice   *float64
	MaxPrice   *float64
	Category   *string
	MinStars   *float64
	MinReviews *int64
	SortBy     *string
}

// TrendingParams defines parameters for GET /trending.
type TrendingParams struct {
	N *int
}

// RecommendParams defines parameters for GET /recommend/{product_id}.
type RecommendParams struct {
	TopK           *int
	SameCategory   *bool
	PriceTolerance *float64
}

// ProductsParams defines parameters for GET /products.
type ProductsParams struct {
	Limit *int
}

// InvalidParamFormatError reports a parameter that could not be decoded.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// bindQuery binds one optional form-style query parameter into dest.
func bindQuery(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return &InvalidParamFormatError{ParamName: name, Err: err}
	}
	return nil
}

func bindSearchParams(r *http.Request) (SearchParams, error) {
	var p SearchParams
	bindings := []struct {
		name string
		dest any
	}{
		{"q", &p.Q},
		{"top_k", &p.TopK},
		{"min_price", &p.MinPrice},
		{"max_price", &p.MaxPrice},
		{"category", &p.Category},
		{"min_stars", &p.MinStars},
		{"min_reviews", &p.MinReviews},
		{"sort_by", &p.SortBy},
	}
	for _, b := range bindings {
		if err := bindQuery(r, b.name, b.dest); err != nil {
			return SearchParams{}, err
		}
	}
	return p, nil
}

func bindTrendingParams(r *http.Request) (TrendingParams, error) {
	var p TrendingParams
	if err := bindQuery(r, "n", &p.N); err != nil {
		return TrendingParams{}, err
	}
	return p, nil
}

func bindRecommendParams(r *http.Request) (RecommendParams, error) {
	var p RecommendParams
	if err := bindQuery(r, "top_k", &p.TopK); err != nil {
		return RecommendParams{}, err
	}
	if err := bindQuery(r, "same_category", &p.SameCategory); err != nil {
		return RecommendParams{}, err
	}
	if err := bindQuery(r, "price_tolerance", &p.PriceTolerance); err != nil {
		return RecommendParams{}, err
	}
	return p, nil
}

func bindProductsParams(r *http.Request) (ProductsParams, error) {
	var p ProductsParams
	if err := bindQuery(r, "limit", &p.Limit); err != nil {
		return ProductsParams{}, err
	}
	return p, nil
}

// bindProductID binds the {product_id} path segment.
func bindProductID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "product_id", gochi.URLParam(r, "product_id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", &InvalidParamFormatError{ParamName: "product_id", Err: err}
	}
	return id, nil
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefFloat(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
