package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is the artifact layout this build reads and writes.
const FormatVersion = 1

// Row is one fitted catalog row in sparse form.
type Row struct {
	Indices []int32   `msgpack:"i"`
	Values  []float32 `msgpack:"v"`
}

// Artifact is the on-disk text index: a fitted TF-IDF vocabulary, the
// vectorized catalog rows with their product ids, and k-means centroids over
// the same feature space.
type Artifact struct {
	Version    int              `msgpack:"version"`
	Build      string           `msgpack:"build"`
	Vocabulary map[string]int32 `msgpack:"vocabulary"`
	IDF        []float32        `msgpack:"idf"`
	NgramMin   int              `msgpack:"ngram_min"`
	NgramMax   int              `msgpack:"ngram_max"`
	Sublinear  bool             `msgpack:"sublinear_tf"`
	IDs        []string         `msgpack:"ids"`
	Rows       []Row            `msgpack:"rows"`
	Centroids  [][]float32      `msgpack:"centroids"`
}

// Validate checks internal consistency.
func (a *Artifact) Validate() error {
	if a.Version != FormatVersion {
		return fmt.Errorf("unsupported artifact version %d (want %d)", a.Version, FormatVersion)
	}
	if len(a.Vocabulary) == 0 {
		return errors.New("vocabulary is empty")
	}
	if len(a.IDF) != len(a.Vocabulary) {
		return fmt.Errorf("idf has %d weights for %d terms", len(a.IDF), len(a.Vocabulary))
	}
	dim := int32(len(a.IDF))
	for term, col := range a.Vocabulary {
		if col < 0 || col >= dim {
			return fmt.Errorf("term %q maps to column %d outside [0, %d)", term, col, dim)
		}
	}
	if a.NgramMin < 1 || a.NgramMax < a.NgramMin {
		return fmt.Errorf("invalid ngram range (%d, %d)", a.NgramMin, a.NgramMax)
	}
	if len(a.IDs) != len(a.Rows) {
		return fmt.Errorf("%d ids for %d rows", len(a.IDs), len(a.Rows))
	}
	seen := make(map[string]struct{}, len(a.IDs))
	for i, id := range a.IDs {
		if id == "" {
			return fmt.Errorf("row %d has empty id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	for i, r := range a.Rows {
		if len(r.Indices) != len(r.Values) {
			return fmt.Errorf("row %d: %d indices for %d values", i, len(r.Indices), len(r.Values))
		}
		for j, col := range r.Indices {
			if col < 0 || col >= dim {
				return fmt.Errorf("row %d: column %d out of range", i, col)
			}
			if j > 0 && col <= r.Indices[j-1] {
				return fmt.Errorf("row %d: columns not strictly increasing", i)
			}
		}
	}
	for k, c := range a.Centroids {
		if len(c) != len(a.IDF) {
			return fmt.Errorf("centroid %d has %d dims, want %d", k, len(c), len(a.IDF))
		}
	}
	return nil
}

// ReadArtifact decodes and validates an artifact file.
func ReadArtifact(path string) (*Artifact, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer func() { _ = f.Close() }()

	var a Artifact
	if err := msgpack.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return &a, nil
}

// WriteArtifact encodes a to path, creating parent directories. The file is
// written next to path and renamed into place so watchers never see a partial file.
func WriteArtifact(path string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refusing to write invalid artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".artifact-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := msgpack.NewEncoder(tmp).Encode(a); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}
