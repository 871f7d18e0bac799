package search

import (
	"math"
	"sort"

	"github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/match"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
)

// Hybrid score weights. Similarity is on a 0..100 scale, percentiles on 0..1.
const (
	similarityWeight = 0.6
	starWeight       = 0.2
	reviewWeight     = 0.2
)

// Relevance thresholds and boosts.
const (
	// MinSimilarity is the relevance floor: a retrieval whose best candidate is
	// below it falls back to trending, and only candidates strictly above it survive.
	MinSimilarity = 5.0
	// ClusterBoost multiplies the similarity of items sharing the reference cluster.
	ClusterBoost = 1.5
	// DefaultNeighborDepth caps the number of neighbours pulled from the index.
	DefaultNeighborDepth = 500
)

// Missing-value policy for the percentile signals.
const (
	missingRating            = 0.0
	missingReviews           = 0
	singleSurvivorPercentile = 0.5
)

// survivor is a fetched product with its retrieval similarity.
type survivor struct {
	product    product.Product
	similarity float64
}

// clusterRef is the cluster items are boosted towards. A zero value never matches.
type clusterRef struct {
	id int
	ok bool
}

func (r clusterRef) matches(p *product.Product) bool {
	if !r.ok {
		return false
	}
	c, ok := p.Cluster()
	return ok && c == r.id
}

// scoreSurvivors computes the hybrid score for every survivor, preserving order.
func scoreSurvivors(survivors []survivor, ref clusterRef) []result.Item {
	n := len(survivors)
	if n == 0 {
		return nil
	}

	stars := make([]float64, n)
	reviews := make([]float64, n)
	for i := range survivors {
		p := &survivors[i].product
		rating, ok := p.Rating()
		if !ok {
			rating = missingRating
		}
		count, ok := p.Reviews()
		if !ok {
			count = missingReviews
		}
		stars[i] = rating
		reviews[i] = math.Log1p(float64(count))
	}

	var starPct, reviewPct []float64
	if n == 1 {
		starPct = []float64{singleSurvivorPercentile}
		reviewPct = []float64{singleSurvivorPercentile}
	} else {
		starPct = percentileRanks(stars)
		reviewPct = percentileRanks(reviews)
	}

	items := make([]result.Item, n)
	for i := range survivors {
		p := survivors[i].product
		s := result.Scores{
			Similarity:        survivors[i].similarity,
			StarScore:         starPct[i],
			ReviewScore:       reviewPct[i],
			ClusterMultiplier: 1,
		}
		if ref.matches(&p) {
			s.ClusterMatch = true
			s.ClusterMultiplier = ClusterBoost
		}
		s.Final = finalScore(s)
		items[i] = result.New(p, s, match.DirectMatch)
	}
	return items
}

func finalScore(s result.Scores) float64 {
	return s.Similarity*s.ClusterMultiplier*similarityWeight +
		s.StarScore*100*starWeight +
		s.ReviewScore*100*reviewWeight
}

// percentileRanks returns rank/n for each value, where tied values share the
// average of the ranks they span (ranks start at 1).
func percentileRanks(vals []float64) []float64 {
	n := len(vals)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return vals[idx[a]] < vals[idx[b]] })

	out := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && vals[idx[j+1]] == vals[idx[i]] {
			j++
		}
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			out[idx[k]] = avg / float64(n)
		}
		i = j + 1
	}
	return out
}
