package graphcbo

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// ---------------------------------------------------------------------------
// Catalog cache: avoids repeated lookups for the same canonical pattern.
//
// Plan search estimates the same handful of sub-patterns over and over while
// it compares candidate orders. CachedCatalog is a bounded LRU in front of
// any Catalog, keyed by canonical key. Concurrent misses for one key are
// collapsed into a single backend lookup.
// ---------------------------------------------------------------------------

const defaultCatalogCacheCapacity = 10_000

// CacheStats holds catalog cache statistics for observability.
type CacheStats struct {
	Entries  int    `json:"entries"`  // current number of cached counts
	Capacity int    `json:"capacity"` // max entries before eviction
	Hits     uint64 `json:"hits"`     // total cache hits
	Misses   uint64 `json:"misses"`   // total cache misses
}

// CachedCatalog wraps a Catalog with an LRU of row counts and deltas.
type CachedCatalog struct {
	backend  Catalog
	metrics  *Metrics
	group    singleflight.Group
	lru      *lru.Cache[string, float64]
	capacity int
	hits     atomic.Uint64
	misses   atomic.Uint64
}

// NewCachedCatalog returns backend behind an LRU holding capacity entries.
// metrics may be nil.
func NewCachedCatalog(backend Catalog, capacity int, metrics *Metrics) *CachedCatalog {
	if capacity <= 0 {
		capacity = defaultCatalogCacheCapacity
	}
	cache, err := lru.New[string, float64](capacity)
	precondition(err == nil, "graphcbo: catalog cache: %v", err)
	return &CachedCatalog{
		backend:  backend,
		metrics:  metrics,
		lru:      cache,
		capacity: capacity,
	}
}

// RowCount implements Catalog.
func (c *CachedCatalog) RowCount(p CanonicalPattern) float64 {
	return c.load("c:"+p.Key(), func() float64 { return c.backend.RowCount(p) })
}

// MaxPatternSize implements Catalog.
func (c *CachedCatalog) MaxPatternSize() int { return c.backend.MaxPatternSize() }

// LabelConstraintDelta implements Catalog. Entries are keyed by the side of
// the edge being reached, so direction-aware backends keep their answers.
func (c *CachedCatalog) LabelConstraintDelta(edge PatternEdge, target PatternVertex) float64 {
	return c.load("d:"+labelDeltaKey(edge, target), func() float64 {
		return c.backend.LabelConstraintDelta(edge, target)
	})
}

func (c *CachedCatalog) load(key string, fetch func() float64) float64 {
	if v, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		c.metrics.cacheHit()
		return v
	}
	c.misses.Add(1)
	c.metrics.cacheMiss()
	v, _, _ := c.group.Do(key, func() (any, error) {
		val := fetch()
		c.lru.Add(key, val)
		return val, nil
	})
	return v.(float64)
}

// Stats returns current cache statistics.
func (c *CachedCatalog) Stats() CacheStats {
	return CacheStats{
		Entries:  c.lru.Len(),
		Capacity: c.capacity,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}
