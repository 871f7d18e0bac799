package search

import (
	"context"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/match"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// trendingItems returns up to n qualifying popular products tagged with t.
// Products without a popularity score are never returned.
func (s *Service) trendingItems(ctx context.Context, n int, t match.Type) ([]result.Item, error) {
	products, err := s.catalog.FetchTrending(ctx, n)
	if err != nil {
		return nil, collaboratorErr("fetch trending", err)
	}

	items := make([]result.Item, 0, len(products))
	for _, p := range products {
		pop, ok := p.Popularity()
		if !ok {
			continue
		}
		items = append(items, result.NewTrending(p, pop, t))
		if len(items) == n {
			break
		}
	}
	return items, nil
}
