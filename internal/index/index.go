// Package index serves nearest-neighbour lookups over a precomputed sparse
// TF-IDF artifact. An Index is immutable once built and safe for concurrent use.
package index

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/candidate"
)

// minTokenRunes mirrors the fitting tokenizer: single-character tokens are never terms.
const minTokenRunes = 2

type posting struct {
	row    int32
	weight float32
}

// Index is a loaded text index snapshot.
type Index struct {
	build     string
	vocab     map[string]int32
	idf       []float32
	ngramMin  int
	ngramMax  int
	sublinear bool

	ids      []string
	postings [][]posting // per column, rows ascending

	centroids  [][]float32
	centroidSq []float64
}

// New builds an Index from a validated artifact.
func New(a *Artifact) (*Index, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}

	ix := &Index{
		build:     a.Build,
		vocab:     a.Vocabulary,
		idf:       a.IDF,
		ngramMin:  a.NgramMin,
		ngramMax:  a.NgramMax,
		sublinear: a.Sublinear,
		ids:       a.IDs,
		postings:  make([][]posting, len(a.IDF)),
		centroids: a.Centroids,
	}

	for r, row := range a.Rows {
		var norm float64
		for _, v := range row.Values {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for j, col := range row.Indices {
			if row.Values[j] == 0 {
				continue
			}
			ix.postings[col] = append(ix.postings[col], posting{
				row:    int32(r), //nolint:gosec // row count bounded by artifact size
				weight: float32(float64(row.Values[j]) / norm),
			})
		}
	}

	ix.centroidSq = make([]float64, len(a.Centroids))
	for k, c := range a.Centroids {
		var sq float64
		for _, x := range c {
			sq += float64(x) * float64(x)
		}
		ix.centroidSq[k] = sq
	}

	return ix, nil
}

// Load reads an artifact file and builds an Index from it.
func Load(path string) (*Index, error) {
	a, err := ReadArtifact(path)
	if err != nil {
		return nil, err
	}
	return New(a)
}

// Size returns the number of indexed rows.
func (ix *Index) Size() int { return len(ix.ids) }

// Version identifies the snapshot.
func (ix *Index) Version() string {
	if ix.build != "" {
		return ix.build
	}
	return fmt.Sprintf("rows-%d-terms-%d", len(ix.ids), len(ix.idf))
}

// Clusters returns the number of k-means centroids.
func (ix *Index) Clusters() int { return len(ix.centroids) }

// Transform vectorizes cleaned text with the fitted vocabulary and IDF weights.
// The result is l2-normalized; unknown terms contribute nothing, so a query made
// only of unknown terms yields the zero vector.
func (ix *Index) Transform(cleaned string) domain.SparseVector {
	var tokens []string
	for _, f := range strings.Fields(cleaned) {
		if utf8.RuneCountInString(f) >= minTokenRunes {
			tokens = append(tokens, f)
		}
	}

	counts := make(map[int32]float64)
	for n := ix.ngramMin; n <= ix.ngramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := strings.Join(tokens[i:i+n], " ")
			if col, ok := ix.vocab[term]; ok {
				counts[col]++
			}
		}
	}
	if len(counts) == 0 {
		return domain.SparseVector{}
	}

	cols := make([]int32, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	slices.Sort(cols)

	vals := make([]float32, len(cols))
	var norm float64
	weights := make([]float64, len(cols))
	for i, col := range cols {
		tf := counts[col]
		if ix.sublinear {
			tf = 1 + math.Log(tf)
		}
		w := tf * float64(ix.idf[col])
		weights[i] = w
		norm += w * w
	}
	if norm == 0 {
		return domain.SparseVector{}
	}
	norm = math.Sqrt(norm)
	for i, w := range weights {
		vals[i] = float32(w / norm)
	}
	return domain.SparseVector{Indices: cols, Values: vals}
}

type hit struct {
	row int32
	cos float64
}

// Neighbors returns up to n rows sharing at least one term with q, ordered by
// cosine distance ascending and then by row order. Rows with no overlap sit at
// distance 1 and are never returned.
func (ix *Index) Neighbors(ctx context.Context, q domain.SparseVector, n int) ([]candidate.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}
	if n <= 0 || q.IsZero() {
		return nil, nil
	}
	qn := q.Norm()

	scores := make(map[int32]float64)
	for k, col := range q.Indices {
		if col < 0 || int(col) >= len(ix.postings) || q.Values[k] == 0 {
			continue
		}
		w := float64(q.Values[k]) / qn
		for _, p := range ix.postings[col] {
			scores[p.row] += w * float64(p.weight)
		}
	}

	hits := make([]hit, 0, len(scores))
	for row, cos := range scores {
		hits = append(hits, hit{row: row, cos: min(cos, 1)})
	}
	slices.SortFunc(hits, func(a, b hit) int {
		if c := cmp.Compare(b.cos, a.cos); c != 0 {
			return c
		}
		return cmp.Compare(a.row, b.row)
	})
	if len(hits) > n {
		hits = hits[:n]
	}

	out := make([]candidate.Candidate, len(hits))
	for i, h := range hits {
		out[i] = candidate.New(ix.ids[h.row], 1-h.cos)
	}
	return out, nil
}

// PredictCluster returns the nearest centroid by Euclidean distance (lowest
// index on ties). ok is false when the artifact carries no centroids.
func (ix *Index) PredictCluster(v domain.SparseVector) (cluster int, ok bool) {
	if len(ix.centroids) == 0 {
		return 0, false
	}
	best, bestDist := 0, math.Inf(1)
	for k, c := range ix.centroids {
		// ||c - v||^2 without the constant ||v||^2 term
		d := ix.centroidSq[k]
		for j, col := range v.Indices {
			if int(col) < len(c) {
				d -= 2 * float64(c[col]) * float64(v.Values[j])
			}
		}
		if d < bestDist {
			best, bestDist = k, d
		}
	}
	return best, true
}
