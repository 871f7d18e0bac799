package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/prodsearch/internal/db"
)

// CreateIndex issues FT.CREATE for a hash index.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}
	if err := s.do(ctx, s.ft("FT.CREATE", args...)).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes the index definition; the hashes stay.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	if err := s.do(ctx, s.ft("FT.DROPINDEX", name)).Error(); err != nil {
		if isUnknownIndex(err) {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	if err := s.do(ctx, s.ft("FT.INFO", name)).Error(); err != nil {
		if isUnknownIndex(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

// createArgs renders: name ON HASH [PREFIX n p...] SCHEMA field...
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if def == nil {
		return nil, fmt.Errorf("redis: nil index definition")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for i := range def.Fields {
		f, err := fieldArgs(&def.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, f...)
	}
	return args, nil
}

func fieldArgs(f *db.IndexField) ([]string, error) {
	var args []string
	switch f.Type {
	case db.FieldNumeric:
		args = []string{f.Name, "NUMERIC"}
	case db.FieldTag:
		args = []string{f.Name, "TAG"}
		if f.Separator != "" {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}
	default:
		return nil, fmt.Errorf("redis: field %s: unsupported type %d", f.Name, f.Type)
	}
	if f.Sortable {
		args = append(args, "SORTABLE")
	}
	return args, nil
}
