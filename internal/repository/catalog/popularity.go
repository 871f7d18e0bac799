package catalog

import (
	"sort"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
)

// popularityLess orders by popularity descending, then id ascending.
// Products without a popularity score sort last.
func popularityLess(a, b *product.Product) bool {
	pa, okA := a.Popularity()
	pb, okB := b.Popularity()
	if okA != okB {
		return okA
	}
	if pa != pb {
		return pa > pb
	}
	return a.ID() < b.ID()
}

func sortByPopularity(ps []product.Product) {
	sort.SliceStable(ps, func(i, j int) bool {
		return popularityLess(&ps[i], &ps[j])
	})
}
