// Package indextest fits tiny TF-IDF artifacts for tests.
package indextest

import (
	"math"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kailas-cloud/prodsearch/internal/index"
	"github.com/kailas-cloud/prodsearch/internal/textnorm"
)

// Doc is a catalog row to fit. Cluster < 0 leaves the row out of every centroid.
type Doc struct {
	ID      string
	Title   string
	Cluster int
}

// Fit builds a unigram TF-IDF artifact over the normalized titles with smooth
// IDF (ln((1+n)/(1+df)) + 1). Centroids are per-cluster means of the
// l2-normalized rows; clusters are numbered from 0.
func Fit(docs []Doc) *index.Artifact {
	tokenized := make([][]string, len(docs))
	df := make(map[string]int)
	for i, d := range docs {
		seen := make(map[string]bool)
		for _, tok := range strings.Fields(textnorm.Clean(d.Title)) {
			if utf8.RuneCountInString(tok) < 2 {
				continue
			}
			tokenized[i] = append(tokenized[i], tok)
			if !seen[tok] {
				df[tok]++
				seen[tok] = true
			}
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	slices.Sort(terms)

	vocab := make(map[string]int32, len(terms))
	idf := make([]float32, len(terms))
	n := float64(len(docs))
	for col, t := range terms {
		vocab[t] = int32(col) //nolint:gosec // test fixture
		idf[col] = float32(math.Log((1+n)/(1+float64(df[t]))) + 1)
	}

	a := &index.Artifact{
		Version:    index.FormatVersion,
		Build:      "indextest",
		Vocabulary: vocab,
		IDF:        idf,
		NgramMin:   1,
		NgramMax:   1,
		IDs:        make([]string, len(docs)),
		Rows:       make([]index.Row, len(docs)),
	}

	clusters := 0
	for _, d := range docs {
		clusters = max(clusters, d.Cluster+1)
	}
	sums := make([][]float64, clusters)
	members := make([]int, clusters)
	for k := range sums {
		sums[k] = make([]float64, len(terms))
	}

	for i, d := range docs {
		a.IDs[i] = d.ID
		counts := make(map[int32]float64)
		for _, tok := range tokenized[i] {
			counts[vocab[tok]]++
		}
		cols := make([]int32, 0, len(counts))
		for c := range counts {
			cols = append(cols, c)
		}
		slices.Sort(cols)

		var norm float64
		for _, c := range cols {
			w := counts[c] * float64(idf[c])
			norm += w * w
		}
		norm = math.Sqrt(norm)

		row := index.Row{Indices: cols, Values: make([]float32, len(cols))}
		for j, c := range cols {
			v := counts[c] * float64(idf[c]) / norm
			row.Values[j] = float32(v)
			if d.Cluster >= 0 {
				sums[d.Cluster][c] += v
			}
		}
		a.Rows[i] = row
		if d.Cluster >= 0 {
			members[d.Cluster]++
		}
	}

	for k := range sums {
		c := make([]float32, len(terms))
		if members[k] > 0 {
			for j, s := range sums[k] {
				c[j] = float32(s / float64(members[k]))
			}
		}
		a.Centroids = append(a.Centroids, c)
	}

	return a
}

// New fits docs and builds an Index.
func New(t testing.TB, docs []Doc) *index.Index {
	t.Helper()
	ix, err := index.New(Fit(docs))
	if err != nil {
		t.Fatalf("indextest: build index: %v", err)
	}
	return ix
}

// WriteFile fits docs and writes the artifact into dir, returning its path.
func WriteFile(t testing.TB, dir string, docs []Doc) string {
	t.Helper()
	path := filepath.Join(dir, "index.msgpack")
	if err := index.WriteArtifact(path, Fit(docs)); err != nil {
		t.Fatalf("indextest: write artifact: %v", err)
	}
	return path
}
