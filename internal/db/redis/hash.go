package redis

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/prodsearch/internal/db"
)

// HSetMulti pipelines one HSET per item. Fields are written in sorted order
// so the command for a given item is deterministic.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(items))
	for _, item := range items {
		if len(item.Fields) == 0 {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("%s: no fields", item.Key)}
		}
		names := make([]string, 0, len(item.Fields))
		for name := range item.Fields {
			names = append(names, name)
		}
		slices.Sort(names)

		fv := s.b().Hset().Key(item.Key).FieldValue()
		for _, name := range names {
			fv = fv.FieldValue(name, item.Fields[name])
		}
		cmds = append(cmds, fv.Build())
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("%s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// HGetAll reads one hash. A missing key yields an empty map.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return m, nil
}
