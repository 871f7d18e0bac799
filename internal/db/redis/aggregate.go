package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/prodsearch/internal/db"
)

// TagVals returns the distinct values of a TAG field via FT.TAGVALS.
func (s *Store) TagVals(ctx context.Context, index, field string) ([]string, error) {
	cmd := s.ft("FT.TAGVALS", index, field)
	vals, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpTagVals, Err: err}
	}
	return vals, nil
}

// Aggregate runs FT.AGGREGATE ... GROUPBY 0 with the given reducers and
// returns one map per result row.
func (s *Store) Aggregate(ctx context.Context, q *db.AggregateQuery) ([]map[string]string, error) {
	args, err := buildAggregateArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.ft("FT.AGGREGATE", args...)
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	// [count, row1, row2, ...] where each row is a flat field/value array.
	if len(raw) < 2 {
		return nil, nil
	}
	rows := make([]map[string]string, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		pairs, err := msg.ToArray()
		if err != nil {
			continue
		}
		rows = append(rows, parseFieldPairs(pairs))
	}
	return rows, nil
}

func buildAggregateArgs(q *db.AggregateQuery) ([]string, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Reducers) == 0 {
		return nil, fmt.Errorf("at least one reducer is required")
	}

	args := []string{q.IndexName, queryString(q.Filters), "GROUPBY", "0"}
	for _, r := range q.Reducers {
		if r.As == "" {
			return nil, fmt.Errorf("reducer %s needs an alias", r.Func)
		}
		switch r.Func {
		case db.ReduceCount:
			args = append(args, "REDUCE", string(r.Func), "0", "AS", r.As)
		case db.ReduceAvg, db.ReduceCountDistinct:
			if r.Field == "" {
				return nil, fmt.Errorf("reducer %s needs a field", r.Func)
			}
			args = append(args, "REDUCE", string(r.Func), strconv.Itoa(1), "@"+r.Field, "AS", r.As)
		default:
			return nil, fmt.Errorf("unsupported reducer %q", r.Func)
		}
	}
	return append(args, "DIALECT", "2"), nil
}
