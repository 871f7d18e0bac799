package result

import (
	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/match"
)

// Scores holds the per-item ranking signals.
type Scores struct {
	Similarity        float64
	StarScore         float64
	ReviewScore       float64
	ClusterMatch      bool
	ClusterMultiplier float64
	Final             float64
}

// Item is a single ranked product.
type Item struct {
	product   product.Product
	scores    Scores
	matchType match.Type
}

// New creates a ranked item.
func New(p product.Product, s Scores, t match.Type) Item {
	return Item{product: p, scores: s, matchType: t}
}

// NewTrending creates a fallback item: similarity 0, final score = popularity.
func NewTrending(p product.Product, popularity float64, t match.Type) Item {
	return Item{
		product:   p,
		scores:    Scores{ClusterMultiplier: 1, Final: popularity},
		matchType: t,
	}
}

// ID returns the product identifier.
func (i *Item) ID() string { return i.product.ID() }

// Product returns the catalog record.
func (i *Item) Product() product.Product { return i.product }

// Scores returns the ranking signals.
func (i *Item) Scores() Scores { return i.scores }

// Similarity returns the text similarity (0 for fallback items).
func (i *Item) Similarity() float64 { return i.scores.Similarity }

// FinalScore returns the value the item was ranked by.
func (i *Item) FinalScore() float64 { return i.scores.Final }

// MatchType returns the cascade branch that produced the item.
func (i *Item) MatchType() match.Type { return i.matchType }

// Response is the ordered outcome of a search.
type Response struct {
	query     string
	items     []Item
	matchType match.Type
}

// NewResponse creates a search response.
func NewResponse(query string, items []Item, t match.Type) Response {
	return Response{query: query, items: items, matchType: t}
}

// Query returns the raw query the response answers.
func (r *Response) Query() string { return r.query }

// Items returns the ranked items.
func (r *Response) Items() []Item { return r.items }

// MatchType returns the cascade branch taken.
func (r *Response) MatchType() match.Type { return r.matchType }

// IDs returns the item identifiers in rank order.
func (r *Response) IDs() []string {
	ids := make([]string, len(r.items))
	for i := range r.items {
		ids[i] = r.items[i].ID()
	}
	return ids
}
