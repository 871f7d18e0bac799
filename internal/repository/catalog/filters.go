package catalog

import (
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
)

// predicateFilter turns an id set and a predicate into an FT pre-filter.
// Conditions are ordered: ids, category, price, stars, reviews.
func predicateFilter(ids []string, p predicate.Predicate) (filter.Expression, error) {
	var conds []filter.Condition
	add := func(c filter.Condition, err error) error {
		if err != nil {
			return err
		}
		conds = append(conds, c)
		return nil
	}

	if len(ids) > 0 {
		if err := add(filter.TagAny(fieldID, ids...)); err != nil {
			return filter.Expression{}, fmt.Errorf("id filter: %w", err)
		}
	}
	if c := p.Category(); c != "" {
		if err := add(filter.Tag(fieldCategory, c)); err != nil {
			return filter.Expression{}, fmt.Errorf("category filter: %w", err)
		}
	}

	minPrice, hasMin := p.MinPrice()
	maxPrice, hasMax := p.MaxPrice()
	if hasMin || hasMax {
		if err := add(filter.Between(fieldPrice, optional(minPrice, hasMin), optional(maxPrice, hasMax))); err != nil {
			return filter.Expression{}, err
		}
	}
	if v, ok := p.MinRating(); ok {
		if err := add(filter.Between(fieldStars, &v, nil)); err != nil {
			return filter.Expression{}, err
		}
	}
	if v, ok := p.MinReviews(); ok {
		f := float64(v)
		if err := add(filter.Between(fieldReviews, &f, nil)); err != nil {
			return filter.Expression{}, err
		}
	}

	return filter.And(conds...), nil
}

// popularFilter keeps only products that have a popularity score.
func popularFilter() (filter.Expression, error) {
	zero := 0.0
	c, err := filter.Between(fieldPopularity, &zero, nil)
	if err != nil {
		return filter.Expression{}, err
	}
	return filter.And(c), nil
}

// tieFilter matches products whose popularity equals p exactly.
func tieFilter(p float64) (filter.Expression, error) {
	c, err := filter.Between(fieldPopularity, &p, &p)
	if err != nil {
		return filter.Expression{}, err
	}
	return filter.And(c), nil
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
