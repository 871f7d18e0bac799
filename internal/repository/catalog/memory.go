package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
)

// Memory is an immutable in-process catalog snapshot.
// It is safe for concurrent use.
type Memory struct {
	products []product.Product
	byID     map[string]int
	trending []int // indexes into products, popularity order
	stats    product.Stats
	cats     []string
	version  string
}

// NewMemory builds a snapshot. Duplicate ids are rejected.
func NewMemory(products []product.Product) (*Memory, error) {
	m := &Memory{
		products: append([]product.Product(nil), products...),
		byID:     make(map[string]int, len(products)),
	}

	h := fnv.New64a()
	catSet := make(map[string]struct{})
	var priceSum, ratingSum float64
	var priced, rated int

	for i := range m.products {
		p := &m.products[i]
		if _, dup := m.byID[p.ID()]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", domain.ErrInvalidProduct, p.ID())
		}
		m.byID[p.ID()] = i
		_, _ = h.Write([]byte(p.ID()))
		_, _ = h.Write([]byte{0})

		if _, ok := p.Popularity(); ok {
			m.trending = append(m.trending, i)
		}
		if c := p.Category(); c != "" {
			catSet[c] = struct{}{}
		}
		if v, ok := p.Price(); ok {
			priceSum += v
			priced++
		}
		if v, ok := p.Rating(); ok {
			ratingSum += v
			rated++
		}
	}

	sort.SliceStable(m.trending, func(a, b int) bool {
		return popularityLess(&m.products[m.trending[a]], &m.products[m.trending[b]])
	})

	m.cats = make([]string, 0, len(catSet))
	for c := range catSet {
		m.cats = append(m.cats, c)
	}
	sort.Strings(m.cats)

	m.version = strconv.FormatUint(h.Sum64(), 16)
	m.stats = product.Stats{TotalProducts: len(m.products), Categories: len(m.cats)}
	if priced > 0 {
		m.stats.AvgPrice = priceSum / float64(priced)
	}
	if rated > 0 {
		m.stats.AvgRating = ratingSum / float64(rated)
	}
	return m, nil
}

// Len returns the number of products in the snapshot.
func (m *Memory) Len() int { return len(m.products) }

// Version fingerprints the snapshot's id set. The snapshot never changes,
// so neither does its version.
func (m *Memory) Version(context.Context) (string, error) { return m.version, nil }

// FetchByIDs returns the products among ids that satisfy pred, in ids order.
func (m *Memory) FetchByIDs(ctx context.Context, ids []string, pred predicate.Predicate) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]product.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		i, ok := m.byID[id]
		if !ok || !pred.Matches(&m.products[i]) {
			continue
		}
		out = append(out, m.products[i])
	}
	return out, nil
}

// FetchTrending returns up to n products with the highest popularity.
func (m *Memory) FetchTrending(ctx context.Context, n int) ([]product.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n = min(max(n, 0), len(m.trending))
	out := make([]product.Product, n)
	for i := range n {
		out[i] = m.products[m.trending[i]]
	}
	return out, nil
}

// FetchByID returns a single product or domain.ErrNotFound.
func (m *Memory) FetchByID(_ context.Context, id string) (product.Product, error) {
	i, ok := m.byID[id]
	if !ok {
		return product.Product{}, domain.ErrNotFound
	}
	return m.products[i], nil
}

// DistinctCategories returns the sorted set of categories.
func (m *Memory) DistinctCategories(context.Context) ([]string, error) {
	return append([]string(nil), m.cats...), nil
}

// AggregateStats returns totals computed at construction.
func (m *Memory) AggregateStats(context.Context) (product.Stats, error) {
	return m.stats, nil
}

// List returns up to limit products in snapshot order.
func (m *Memory) List(_ context.Context, limit int) ([]product.Product, error) {
	limit = min(max(limit, 0), len(m.products))
	return append([]product.Product(nil), m.products[:limit]...), nil
}
