package request

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/prodsearch/internal/domain"
)

// Recommendation limits.
const (
	DefaultRecommendTopK     = 10
	MaxRecommendTopK         = 50
	DefaultPriceTolerance    = 0.5
	MaxPriceTolerance        = 2.0
	recommendDepthMultiplier = 3
)

// Recommend is a validated item-to-item recommendation query.
type Recommend struct {
	productID      string
	topK           int
	sameCategory   bool
	priceTolerance float64
}

// NewRecommend validates recommendation parameters.
func NewRecommend(productID string, topK int, sameCategory bool, priceTolerance float64) (Recommend, error) {
	if productID == "" {
		return Recommend{}, fmt.Errorf("%w: product id is required", domain.ErrInvalidArgument)
	}
	if topK < 1 || topK > MaxRecommendTopK {
		return Recommend{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidArgument, MaxRecommendTopK)
	}
	if math.IsNaN(priceTolerance) || priceTolerance < 0 || priceTolerance > MaxPriceTolerance {
		return Recommend{}, fmt.Errorf(
			"%w: price_tolerance must be between 0 and %g", domain.ErrInvalidArgument, MaxPriceTolerance)
	}
	return Recommend{
		productID:      productID,
		topK:           topK,
		sameCategory:   sameCategory,
		priceTolerance: priceTolerance,
	}, nil
}

// ProductID returns the source product.
func (r *Recommend) ProductID() string { return r.productID }

// TopK returns the maximum number of recommendations.
func (r *Recommend) TopK() int { return r.topK }

// SameCategory reports whether results must share the source category.
func (r *Recommend) SameCategory() bool { return r.sameCategory }

// PriceTolerance returns the relative price window around the source price.
func (r *Recommend) PriceTolerance() float64 { return r.priceTolerance }

// Depth is the number of direct matches requested from the ranking pipeline.
func (r *Recommend) Depth() int { return r.topK * recommendDepthMultiplier }
