package request

import (
	"fmt"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/order"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed raw query length in bytes.
	MaxQueryLength = 512
	DefaultTopK    = 10
	MaxTopK        = 100
)

// Request is a validated search query.
type Request struct {
	query     string
	predicate predicate.Predicate
	topK      int
	order     order.Order
}

// New validates search parameters. An empty query is legal and selects the
// trending fallback. An empty order means relevance.
func New(query string, pred predicate.Predicate, topK int, o order.Order) (Request, error) {
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidArgument, MaxQueryLength)
	}
	if topK < 1 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidArgument, MaxTopK)
	}
	if o == "" {
		o = order.Relevance
	}
	if !o.IsValid() {
		return Request{}, fmt.Errorf("%w: invalid sort order %q", domain.ErrInvalidArgument, o)
	}
	return Request{query: query, predicate: pred, topK: topK, order: o}, nil
}

// Query returns the raw query text.
func (r *Request) Query() string { return r.query }

// Predicate returns the catalog filter.
func (r *Request) Predicate() predicate.Predicate { return r.predicate }

// TopK returns the maximum number of items to return.
func (r *Request) TopK() int { return r.topK }

// Order returns the ranking order for direct matches.
func (r *Request) Order() order.Order { return r.order }
