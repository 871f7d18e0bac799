package order

// Order selects how direct matches are ranked.
type Order string

// Order constants.
const (
	// Relevance ranks by the hybrid final score.
	Relevance Order = "relevance"
	PriceAsc  Order = "price_asc"
	PriceDesc Order = "price_desc"
	Rating    Order = "rating"
	Reviews   Order = "reviews"
)

// aliases accepted on input for compatibility with older clients.
var aliases = map[string]Order{
	"price_low":  PriceAsc,
	"price_high": PriceDesc,
}

// Parse resolves s (including legacy aliases). Empty input yields Relevance.
func Parse(s string) (Order, bool) {
	if s == "" {
		return Relevance, true
	}
	if o, ok := aliases[s]; ok {
		return o, true
	}
	o := Order(s)
	return o, o.IsValid()
}

// IsValid checks if the order is one of the supported values.
func (o Order) IsValid() bool {
	return o == Relevance || o == PriceAsc || o == PriceDesc || o == Rating || o == Reviews
}
