package prodsearch

import (
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// Sort orders accepted by SearchQuery.Sort.
const (
	SortRelevance = "relevance"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortReviews   = "reviews"
)

// Product is a catalog record. Nil numeric fields are unknown.
type Product struct {
	ID         string
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

// SearchQuery is a ranked search request. Zero values mean "no constraint"
// except TopK, which defaults to 10.
type SearchQuery struct {
	Query      string
	TopK       int
	Sort       string
	MinPrice   *float64
	MaxPrice   *float64
	Category   string
	MinRating  *float64
	MinReviews *int64
}

// Item is a ranked product with its scores. Fallback items carry zero similarity.
type Item struct {
	Product      Product
	Similarity   float64
	FinalScore   float64
	ClusterMatch bool
	MatchType    string
}

// SearchResult is the outcome of Search.
type SearchResult struct {
	Query     string
	Items     []Item
	MatchType string // direct_match or the fallback reason
	Reason    string // human label, e.g. "Unknown Words"
}

// RecommendOptions tunes item-to-item recommendations.
// Zero TopK means 10 and a nil PriceTolerance means 0.5.
type RecommendOptions struct {
	TopK           int
	AnyCategory    bool
	PriceTolerance *float64
}

// Stats summarizes the catalog.
type Stats struct {
	TotalProducts int
	Categories    int
	AvgPrice      float64
	AvgRating     float64
}

func productFromDomain(p *product.Product) Product {
	a := p.Attrs()
	return Product{
		ID:         p.ID(),
		Title:      a.Title,
		Category:   a.Category,
		ImageURL:   a.ImageURL,
		ProductURL: a.ProductURL,
		Price:      a.Price,
		Rating:     a.Rating,
		Reviews:    a.Reviews,
		Stock:      a.Stock,
		Cluster:    a.Cluster,
	}
}

func itemsFromDomain(items []result.Item) []Item {
	out := make([]Item, len(items))
	for i := range items {
		it := &items[i]
		p := it.Product()
		out[i] = Item{
			Product:      productFromDomain(&p),
			Similarity:   it.Similarity(),
			FinalScore:   it.FinalScore(),
			ClusterMatch: it.Scores().ClusterMatch,
			MatchType:    string(it.MatchType()),
		}
	}
	return out
}
