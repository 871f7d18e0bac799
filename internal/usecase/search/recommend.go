package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// Recommend returns ids of products similar to the source product. It runs
// the ranking pipeline on the source title, boosts the source cluster and
// never returns the source itself. An unknown source yields an empty list.
func (s *Service) Recommend(ctx context.Context, req request.Recommend) ([]string, error) {
	const op = "recommend"

	idx, err := s.index()
	if err != nil {
		return nil, s.fail(op, err)
	}

	src, err := s.catalog.FetchByID(ctx, req.ProductID())
	if errors.Is(err, domain.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, s.fail(op, collaboratorErr("fetch source", err))
	}

	pred, err := recommendPredicate(&src, &req)
	if err != nil {
		return nil, s.fail(op, err)
	}

	c := s.newCascade(idx, src.Title(), pred)
	if cl, ok := src.Cluster(); ok {
		c.ref = clusterRef{id: cl, ok: true}
	}
	if err := c.run(ctx); err != nil {
		return nil, s.fail(op, err)
	}

	var items []result.Item
	if c.outcome.IsFallback() {
		items, err = s.trendingItems(ctx, req.TopK()+1, c.outcome)
		if err != nil {
			return nil, s.fail(op, err)
		}
	} else {
		items = c.items
		sortItems(items, order.Relevance)
		items = items[:min(len(items), req.Depth())]
	}

	ids := make([]string, 0, req.TopK())
	for i := range items {
		if items[i].ID() == src.ID() {
			continue
		}
		ids = append(ids, items[i].ID())
		if len(ids) == req.TopK() {
			break
		}
	}

	s.observe(ctx, op, src.Title(), c.outcome, len(ids))
	return ids, nil
}

// recommendPredicate derives the candidate constraints from the source product.
func recommendPredicate(src *product.Product, req *request.Recommend) (predicate.Predicate, error) {
	var b predicate.Bounds

	if t := req.PriceTolerance(); t > 0 {
		if price, ok := src.Price(); ok {
			lo := max(price*(1-t), 0)
			hi := price * (1 + t)
			b.MinPrice = &lo
			b.MaxPrice = &hi
		}
	}
	if req.SameCategory() && src.Category() != "" {
		b.Category = src.Category()
	}

	pred, err := predicate.New(b)
	if err != nil {
		return predicate.Predicate{}, fmt.Errorf("source %s: %w", src.ID(), err)
	}
	return pred, nil
}
