package catalog

import (
	"fmt"
	"strconv"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// Hash field names of a stored product.
const (
	fieldID         = "pid"
	fieldTitle      = "title"
	fieldCategory   = "category"
	fieldImageURL   = "image_url"
	fieldProductURL = "product_url"
	fieldPrice      = "price"
	fieldStars      = "stars"
	fieldReviews    = "reviews"
	fieldStock      = "stock"
	fieldCluster    = "cluster"
	fieldPopularity = "popularity"
)

// productToHash converts a product to a flat map for HSET.
// Unknown optional values are left out so numeric filters skip them.
func productToHash(p *product.Product) map[string]string {
	m := map[string]string{
		fieldID:    p.ID(),
		fieldTitle: p.Title(),
	}
	if c := p.Category(); c != "" {
		m[fieldCategory] = c
	}
	if u := p.ImageURL(); u != "" {
		m[fieldImageURL] = u
	}
	if u := p.ProductURL(); u != "" {
		m[fieldProductURL] = u
	}
	if v, ok := p.Price(); ok {
		m[fieldPrice] = formatFloat(v)
	}
	if v, ok := p.Rating(); ok {
		m[fieldStars] = formatFloat(v)
	}
	if v, ok := p.Reviews(); ok {
		m[fieldReviews] = strconv.FormatInt(v, 10)
	}
	if v, ok := p.Stock(); ok {
		m[fieldStock] = strconv.FormatInt(v, 10)
	}
	if v, ok := p.Cluster(); ok {
		m[fieldCluster] = strconv.Itoa(v)
	}
	if v, ok := p.Popularity(); ok {
		m[fieldPopularity] = formatFloat(v)
	}
	return m
}

// productFromHash hydrates a product from an HGETALL or FT.SEARCH field map.
func productFromHash(m map[string]string) (product.Product, error) {
	id := m[fieldID]

	var a product.Attrs
	a.Title = m[fieldTitle]
	a.Category = m[fieldCategory]
	a.ImageURL = m[fieldImageURL]
	a.ProductURL = m[fieldProductURL]

	var err error
	if a.Price, err = parseOptFloat(m, fieldPrice); err != nil {
		return product.Product{}, err
	}
	if a.Rating, err = parseOptFloat(m, fieldStars); err != nil {
		return product.Product{}, err
	}
	if a.Reviews, err = parseOptInt(m, fieldReviews); err != nil {
		return product.Product{}, err
	}
	if a.Stock, err = parseOptInt(m, fieldStock); err != nil {
		return product.Product{}, err
	}
	cluster, err := parseOptInt(m, fieldCluster)
	if err != nil {
		return product.Product{}, err
	}
	if cluster != nil {
		c := int(*cluster)
		a.Cluster = &c
	}

	return product.New(id, a)
}

func parseOptFloat(m map[string]string, key string) (*float64, error) {
	s, ok := m[key]
	if !ok || s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return &v, nil
}

func parseOptInt(m map[string]string, key string) (*int64, error) {
	s, ok := m[key]
	if !ok || s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return &v, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
