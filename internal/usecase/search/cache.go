package search

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/match"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/request"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/result"
	"github.com/kailas-cloud/prodsearch/internal/metrics"
	"github.com/kailas-cloud/prodsearch/internal/textnorm"
)

type cachedResult struct {
	items     []result.Item
	matchType match.Type
}

// resultCache memoizes ranked responses for one catalog generation.
// A nil cache is valid and never hits.
type resultCache struct {
	lru *expirable.LRU[string, cachedResult]

	mu      sync.Mutex
	version string
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	if size <= 0 {
		return nil
	}
	return &resultCache{lru: expirable.NewLRU[string, cachedResult](size, nil, ttl)}
}

func (c *resultCache) get(key string) (cachedResult, bool) {
	if c == nil {
		return cachedResult{}, false
	}
	v, ok := c.lru.Get(key)
	if ok {
		metrics.ResultCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.ResultCacheTotal.WithLabelValues("miss").Inc()
	}
	return v, ok
}

func (c *resultCache) add(key string, items []result.Item, t match.Type) {
	if c == nil {
		return
	}
	c.lru.Add(key, cachedResult{items: append([]result.Item(nil), items...), matchType: t})
}

// sync drops every entry once the catalog version moves on.
func (c *resultCache) sync(version string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	changed := c.version != version
	c.version = version
	c.mu.Unlock()
	if changed {
		c.lru.Purge()
	}
}

func (c *resultCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

func (c *resultCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// cacheKey identifies a search by everything that can change its outcome,
// including the catalog version it ran against. Blank queries are kept apart
// from queries that merely clean to nothing, since they settle in different
// cascade states.
func cacheKey(version string, req *request.Request) string {
	var sb strings.Builder
	sb.WriteString("v=")
	sb.WriteString(strconv.Quote(version))
	sb.WriteByte('|')
	if strings.TrimSpace(req.Query()) == "" {
		sb.WriteString("blank")
	} else {
		sb.WriteString("q=")
		sb.WriteString(strconv.Quote(textnorm.Clean(req.Query())))
	}
	sb.WriteString("|p=")
	sb.WriteString(req.Predicate().Key())
	sb.WriteString("|k=")
	sb.WriteString(strconv.Itoa(req.TopK()))
	sb.WriteString("|o=")
	sb.WriteString(string(req.Order()))
	return sb.String()
}
