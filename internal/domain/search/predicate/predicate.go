package predicate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// Bounds is the raw, unvalidated form of a Predicate. Nil or empty means no constraint.
type Bounds struct {
	MinPrice   *float64
	MaxPrice   *float64
	Category   string
	MinRating  *float64
	MinReviews *int64
}

// Predicate is a conjunctive filter over catalog records.
type Predicate struct {
	b Bounds
}

// New validates b and creates a Predicate.
func New(b Bounds) (Predicate, error) {
	if b.MinPrice != nil && !nonNegative(*b.MinPrice) {
		return Predicate{}, fmt.Errorf("%w: min_price must be >= 0", domain.ErrInvalidArgument)
	}
	if b.MaxPrice != nil && !nonNegative(*b.MaxPrice) {
		return Predicate{}, fmt.Errorf("%w: max_price must be >= 0", domain.ErrInvalidArgument)
	}
	if b.MinPrice != nil && b.MaxPrice != nil && *b.MinPrice > *b.MaxPrice {
		return Predicate{}, fmt.Errorf("%w: min_price must not exceed max_price", domain.ErrInvalidArgument)
	}
	if b.MinRating != nil && (*b.MinRating < 0 || *b.MinRating > 5 || math.IsNaN(*b.MinRating)) {
		return Predicate{}, fmt.Errorf("%w: min_rating must be between 0 and 5", domain.ErrInvalidArgument)
	}
	if b.MinReviews != nil && *b.MinReviews < 0 {
		return Predicate{}, fmt.Errorf("%w: min_reviews must be >= 0", domain.ErrInvalidArgument)
	}
	return Predicate{b: copyBounds(b)}, nil
}

// MinPrice returns the inclusive lower price bound.
func (p Predicate) MinPrice() (float64, bool) { return deref(p.b.MinPrice) }

// MaxPrice returns the inclusive upper price bound.
func (p Predicate) MaxPrice() (float64, bool) { return deref(p.b.MaxPrice) }

// Category returns the required category ("" = any).
func (p Predicate) Category() string { return p.b.Category }

// MinRating returns the inclusive rating floor.
func (p Predicate) MinRating() (float64, bool) { return deref(p.b.MinRating) }

// MinReviews returns the inclusive review-count floor.
func (p Predicate) MinReviews() (int64, bool) {
	if p.b.MinReviews == nil {
		return 0, false
	}
	return *p.b.MinReviews, true
}

// IsEmpty reports whether the predicate constrains nothing.
func (p Predicate) IsEmpty() bool {
	return p.b.MinPrice == nil && p.b.MaxPrice == nil && p.b.Category == "" &&
		p.b.MinRating == nil && p.b.MinReviews == nil
}

// Matches reports whether pr satisfies every constraint.
// A record with an unknown value never satisfies a bound on that value.
func (p Predicate) Matches(pr *product.Product) bool {
	if p.b.MinPrice != nil || p.b.MaxPrice != nil {
		price, ok := pr.Price()
		if !ok {
			return false
		}
		if p.b.MinPrice != nil && price < *p.b.MinPrice {
			return false
		}
		if p.b.MaxPrice != nil && price > *p.b.MaxPrice {
			return false
		}
	}
	if p.b.Category != "" && pr.Category() != p.b.Category {
		return false
	}
	if p.b.MinRating != nil {
		rating, ok := pr.Rating()
		if !ok || rating < *p.b.MinRating {
			return false
		}
	}
	if p.b.MinReviews != nil {
		reviews, ok := pr.Reviews()
		if !ok || reviews < *p.b.MinReviews {
			return false
		}
	}
	return true
}

// Key returns a canonical string form, used for cache keys.
func (p Predicate) Key() string {
	var sb strings.Builder
	writeFloat(&sb, "min_price", p.b.MinPrice)
	writeFloat(&sb, "max_price", p.b.MaxPrice)
	if p.b.Category != "" {
		sb.WriteString("category=")
		sb.WriteString(strconv.Quote(p.b.Category))
		sb.WriteByte(';')
	}
	writeFloat(&sb, "min_rating", p.b.MinRating)
	if p.b.MinReviews != nil {
		sb.WriteString("min_reviews=")
		sb.WriteString(strconv.FormatInt(*p.b.MinReviews, 10))
		sb.WriteByte(';')
	}
	return sb.String()
}

func writeFloat(sb *strings.Builder, name string, v *float64) {
	if v == nil {
		return
	}
	sb.WriteString(name)
	sb.WriteByte('=')
	sb.WriteString(strconv.FormatFloat(*v, 'g', -1, 64))
	sb.WriteByte(';')
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func copyBounds(b Bounds) Bounds {
	out := Bounds{Category: b.Category}
	if b.MinPrice != nil {
		v := *b.MinPrice
		out.MinPrice = &v
	}
	if b.MaxPrice != nil {
		v := *b.MaxPrice
		out.MaxPrice = &v
	}
	if b.MinRating != nil {
		v := *b.MinRating
		out.MinRating = &v
	}
	if b.MinReviews != nil {
		v := *b.MinReviews
		out.MinReviews = &v
	}
	return out
}
