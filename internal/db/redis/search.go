package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/prodsearch/internal/db"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

// SearchList runs one FT.SEARCH page.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, errors.New("redis: index name is required")
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, errors.New("redis: offset and limit must not be negative")
	}

	args := []string{q.IndexName, queryString(q.Filters)}
	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}
	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	raw, err := s.do(ctx, s.ft("FT.SEARCH", args...)).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	return parseSearchReply(raw)
}

// parseSearchReply decodes [total, key1, fields1, key2, fields2, ...].
// Hits whose key or fields are malformed are skipped.
func parseSearchReply(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("redis: search total: %w", err)
	}

	res := &db.SearchResult{Total: int(total)}
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		res.Entries = append(res.Entries, db.SearchEntry{Key: key, Fields: parseFieldPairs(pairs)})
	}
	return res, nil
}

func parseFieldPairs(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		k, err := pairs[i].ToString()
		if err != nil {
			continue
		}
		v, err := pairs[i+1].ToString()
		if err != nil {
			continue
		}
		m[k] = v
	}
	return m
}

// queryString renders a conjunctive filter as DIALECT 2 query syntax.
// An empty expression matches everything.
func queryString(expr filter.Expression) string {
	conds := expr.Conditions()
	if len(conds) == 0 {
		return "*"
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		switch c.Kind() {
		case filter.KindTag, filter.KindTagAny:
			vals := make([]string, len(c.Values()))
			for i, v := range c.Values() {
				vals[i] = escapeTag(v)
			}
			parts = append(parts, "@"+c.Field()+":{"+strings.Join(vals, " | ")+"}")
		case filter.KindRange:
			lo, hi := c.Bounds()
			parts = append(parts, "@"+c.Field()+":["+bound(lo, "-inf")+" "+bound(hi, "+inf")+"]")
		}
	}
	return strings.Join(parts, " ")
}

func bound(v *float64, open string) string {
	if v == nil {
		return open
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// escapeTag backslash-escapes every rune that is not a letter, digit or
// underscore, so tag values with spaces and punctuation match literally.
func escapeTag(v string) string {
	var sb strings.Builder
	sb.Grow(len(v))
	for _, r := range v {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
