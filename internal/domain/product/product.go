package product

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// MaxIDLength bounds product identifiers.
const MaxIDLength = 128

// Attrs carries the optional catalog attributes of a product.
// A nil pointer means the value is unknown, which is not the same as zero.
type Attrs struct {
	Title      string
	Category   string
	ImageURL   string
	ProductURL string
	Price      *float64
	Rating     *float64
	Reviews    *int64
	Stock      *int64
	Cluster    *int
}

// Product is a catalog record (immutable value object).
type Product struct {
	id    string
	attrs Attrs
}

// New validates and creates a Product.
// Ids are stored verbatim as exact-match tags, so they may not carry control
// characters or surrounding whitespace. Price, reviews and stock must be
// non-negative, rating must lie in [0, 5].
func New(id string, a Attrs) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product id is required")
	}
	if len(id) > MaxIDLength {
		return Product{}, fmt.Errorf("product id too long (max %d)", MaxIDLength)
	}
	if strings.TrimSpace(id) != id {
		return Product{}, fmt.Errorf("product id %q has surrounding whitespace", id)
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return Product{}, fmt.Errorf("product id %q contains control characters", id)
	}
	if a.Price != nil && (*a.Price < 0 || math.IsNaN(*a.Price) || math.IsInf(*a.Price, 0)) {
		return Product{}, fmt.Errorf("price must be a non-negative number, got %v", *a.Price)
	}
	if a.Rating != nil && (*a.Rating < 0 || *a.Rating > 5 || math.IsNaN(*a.Rating)) {
		return Product{}, fmt.Errorf("rating must be between 0 and 5, got %v", *a.Rating)
	}
	if a.Reviews != nil && *a.Reviews < 0 {
		return Product{}, fmt.Errorf("review count must be non-negative, got %d", *a.Reviews)
	}
	if a.Stock != nil && *a.Stock < 0 {
		return Product{}, fmt.Errorf("stock must be non-negative, got %d", *a.Stock)
	}
	if a.Cluster != nil && *a.Cluster < 0 {
		return Product{}, fmt.Errorf("cluster must be non-negative, got %d", *a.Cluster)
	}
	return Product{id: id, attrs: cloneAttrs(a)}, nil
}

// ID returns the stable product identifier.
func (p *Product) ID() string { return p.id }

// Title returns the product title.
func (p *Product) Title() string { return p.attrs.Title }

// Category returns the category name ("" when unknown).
func (p *Product) Category() string { return p.attrs.Category }

// ImageURL returns the product image link.
func (p *Product) ImageURL() string { return p.attrs.ImageURL }

// ProductURL returns the product page link.
func (p *Product) ProductURL() string { return p.attrs.ProductURL }

// Price returns the price and whether it is known.
func (p *Product) Price() (float64, bool) { return derefFloat(p.attrs.Price) }

// Rating returns the star rating and whether it is known.
func (p *Product) Rating() (float64, bool) { return derefFloat(p.attrs.Rating) }

// Reviews returns the review count and whether it is known.
func (p *Product) Reviews() (int64, bool) { return derefInt(p.attrs.Reviews) }

// Stock returns the units in stock and whether it is known.
func (p *Product) Stock() (int64, bool) { return derefInt(p.attrs.Stock) }

// Cluster returns the product's topical cluster and whether it is known.
func (p *Product) Cluster() (int, bool) {
	if p.attrs.Cluster == nil {
		return 0, false
	}
	return *p.attrs.Cluster, true
}

// Attrs returns a copy of the product attributes.
func (p *Product) Attrs() Attrs { return cloneAttrs(p.attrs) }

// Popularity is the trending proxy: rating × ln(1+reviews) when both are
// known, otherwise price × ln(1+stock). ok is false when neither pair is known.
func (p *Product) Popularity() (score float64, ok bool) {
	rating, hasRating := p.Rating()
	reviews, hasReviews := p.Reviews()
	if hasRating && hasReviews {
		return rating * math.Log1p(float64(reviews)), true
	}
	price, hasPrice := p.Price()
	stock, hasStock := p.Stock()
	if hasPrice && hasStock {
		return price * math.Log1p(float64(stock)), true
	}
	return 0, false
}

func derefFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func derefInt(v *int64) (int64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func cloneAttrs(a Attrs) Attrs {
	out := a
	if a.Price != nil {
		v := *a.Price
		out.Price = &v
	}
	if a.Rating != nil {
		v := *a.Rating
		out.Rating = &v
	}
	if a.Reviews != nil {
		v := *a.Reviews
		out.Reviews = &v
	}
	if a.Stock != nil {
		v := *a.Stock
		out.Stock = &v
	}
	if a.Cluster != nil {
		v := *a.Cluster
		out.Cluster = &v
	}
	return out
}
