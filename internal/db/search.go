package db

import "github.com/kailas-cloud/prodsearch/internal/domain/search/filter"

// ListQuery is one filtered FT.SEARCH page.
type ListQuery struct {
	IndexName string
	Filters   filter.Expression
	Offset    int
	Limit     int
	SortBy    string // empty = index order
	SortDesc  bool
}

// SearchResult holds the hits of a page and the total match count.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is one hit: the hash key and its fields.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// ReducerFunc names an FT.AGGREGATE GROUPBY reducer.
type ReducerFunc string

// Supported reducers.
const (
	ReduceCount         ReducerFunc = "COUNT"
	ReduceAvg           ReducerFunc = "AVG"
	ReduceCountDistinct ReducerFunc = "COUNT_DISTINCT"
)

// Reducer is one REDUCE clause. Field is ignored by COUNT.
type Reducer struct {
	Func  ReducerFunc
	Field string
	As    string
}

// AggregateQuery is a global (GROUPBY 0) aggregation over the documents matching Filters.
type AggregateQuery struct {
	IndexName string
	Filters   filter.Expression
	Reducers  []Reducer
}
