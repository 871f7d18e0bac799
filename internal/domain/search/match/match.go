package match

// Type tells which cascade branch produced a response.
type Type string

// Match types, exactly one per response.
const (
	DirectMatch          Type = "direct_match"
	EmptyQuery           Type = "empty_query"
	UnknownWords         Type = "unknown_words"
	LowRelevance         Type = "low_relevance"
	NoMatchesAfterFilter Type = "no_matches_after_filter"
	TrendingRequest      Type = "trending_request"
)

var labels = map[Type]string{
	DirectMatch:          "Direct Search",
	EmptyQuery:           "Empty Query",
	UnknownWords:         "Unknown Words",
	LowRelevance:         "Low Relevance",
	NoMatchesAfterFilter: "No matches after filters",
	TrendingRequest:      "Trending Request",
}

// IsValid checks if the type is one of the known values.
func (t Type) IsValid() bool {
	_, ok := labels[t]
	return ok
}

// IsFallback reports whether the items came from the trending source.
func (t Type) IsFallback() bool {
	return t.IsValid() && t != DirectMatch
}

// Label returns the human-readable reason shown to clients.
func (t Type) Label() string {
	if l, ok := labels[t]; ok {
		return l
	}
	return string(t)
}
