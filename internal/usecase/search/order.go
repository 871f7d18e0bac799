package search

import (
	"sort"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

type fieldFunc func(p *product.Product) (float64, bool)

func priceOf(p *product.Product) (float64, bool) { return p.Price() }

func ratingOf(p *product.Product) (float64, bool) { return p.Rating() }

func reviewsOf(p *product.Product) (float64, bool) {
	v, ok := p.Reviews()
	return float64(v), ok
}

// sortItems orders direct matches in place. All sorts are stable, so equal
// keys keep candidate order.
func sortItems(items []result.Item, o order.Order) {
	switch o {
	case order.PriceAsc:
		sortByField(items, priceOf, true)
	case order.PriceDesc:
		sortByField(items, priceOf, false)
	case order.Rating:
		sortByField(items, ratingOf, false)
	case order.Reviews:
		sortByField(items, reviewsOf, false)
	default:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].FinalScore() > items[j].FinalScore()
		})
	}
}

// sortByField sorts by a raw product field. Items missing the field go last.
func sortByField(items []result.Item, get fieldFunc, asc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := items[i].Product(), items[j].Product()
		a, okA := get(&pi)
		b, okB := get(&pj)
		if okA != okB {
			return okA
		}
		if !okA || a == b {
			return false
		}
		if asc {
			return a < b
		}
		return a > b
	})
}
