package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/prodsearch/internal/domain"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/candidate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/match"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/predicate"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/textnorm"
)

// stage names a cascade state. States run in declaration order and the first
// one that settles the outcome ends the run.
type stage string

const (
	stageEmptyQuery   stage = "empty_query"
	stageUnknownWords stage = "unknown_words"
	stageRetrieve     stage = "retrieve"
	stageLowRelevance stage = "low_relevance"
	stageFilter       stage = "filter"
	stageNoMatches    stage = "no_matches_after_filter"
	stageScore        stage = "score"
	stageDone         stage = "done"
)

// cascade is one run of the ranking pipeline over a fixed index snapshot.
type cascade struct {
	idx     Index
	catalog Catalog
	depth   int

	query string
	pred  predicate.Predicate
	// queryCluster selects the query's predicted cluster as the boost
	// reference; otherwise ref is used as given.
	queryCluster bool
	ref          clusterRef

	cleaned    string
	vec        domain.SparseVector
	candidates []candidate.Candidate
	survivors  []survivor

	outcome match.Type
	items   []result.Item
}

func (c *cascade) run(ctx context.Context) error {
	for st := stageEmptyQuery; st != stageDone; {
		start := time.Now()
		next, err := c.step(ctx, st)
		metrics.SearchStageDuration.WithLabelValues(string(st)).Observe(time.Since(start).Seconds())
		if err != nil {
			return err
		}
		st = next
	}
	return nil
}

func (c *cascade) step(ctx context.Context, st stage) (stage, error) {
	switch st {
	case stageEmptyQuery:
		return c.emptyQuery(), nil
	case stageUnknownWords:
		return c.unknownWords(), nil
	case stageRetrieve:
		return c.retrieve(ctx)
	case stageLowRelevance:
		return c.lowRelevance(), nil
	case stageFilter:
		return c.filter(ctx)
	case stageNoMatches:
		return c.noMatches(), nil
	case stageScore:
		return c.score(), nil
	default:
		return stageDone, fmt.Errorf("unknown cascade stage %q", st)
	}
}

func (c *cascade) settle(t match.Type) stage {
	c.outcome = t
	return stageDone
}

func (c *cascade) emptyQuery() stage {
	if strings.TrimSpace(c.query) == "" {
		return c.settle(match.EmptyQuery)
	}
	return stageUnknownWords
}

func (c *cascade) unknownWords() stage {
	c.cleaned = textnorm.Clean(c.query)
	c.vec = c.idx.Transform(c.cleaned)
	if c.vec.IsZero() {
		return c.settle(match.UnknownWords)
	}
	return stageRetrieve
}

func (c *cascade) retrieve(ctx context.Context) (stage, error) {
	n := min(c.depth, c.idx.Size())
	cands, err := c.idx.Neighbors(ctx, c.vec, n)
	if err != nil {
		return stageDone, collaboratorErr("retrieve neighbours", err)
	}
	c.candidates = cands

	if c.queryCluster {
		id, ok := c.idx.PredictCluster(c.vec)
		c.ref = clusterRef{id: id, ok: ok}
	}
	return stageLowRelevance, nil
}

func (c *cascade) lowRelevance() stage {
	if len(c.candidates) == 0 || candidate.MaxSimilarity(c.candidates) < MinSimilarity {
		return c.settle(match.LowRelevance)
	}
	return stageFilter
}

func (c *cascade) filter(ctx context.Context) (stage, error) {
	sims := make(map[string]float64, len(c.candidates))
	ids := make([]string, 0, len(c.candidates))
	for _, cand := range c.candidates {
		sim := cand.Similarity()
		if sim <= MinSimilarity {
			continue
		}
		if _, dup := sims[cand.ID()]; dup {
			continue
		}
		sims[cand.ID()] = sim
		ids = append(ids, cand.ID())
	}

	products, err := c.catalog.FetchByIDs(ctx, ids, c.pred)
	if err != nil {
		return stageDone, collaboratorErr("fetch candidates", err)
	}

	c.survivors = make([]survivor, 0, len(products))
	for _, p := range products {
		sim, ok := sims[p.ID()]
		if !ok {
			continue
		}
		c.survivors = append(c.survivors, survivor{product: p, similarity: sim})
	}
	return stageNoMatches, nil
}

func (c *cascade) noMatches() stage {
	if len(c.survivors) == 0 {
		return c.settle(match.NoMatchesAfterFilter)
	}
	return stageScore
}

func (c *cascade) score() stage {
	c.items = scoreSurvivors(c.survivors, c.ref)
	return c.settle(match.DirectMatch)
}

// collaboratorErr marks index and catalog failures as upstream errors unless
// they already carry a classification or come from the caller's context.
func collaboratorErr(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrInvalidArgument):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrUpstreamUnavailable, err)
	}
}
