package graphcbo

import (
	"sync"
)

// MemoryCatalog is an in-memory Catalog loaded with precomputed counts.
// Safe for concurrent use; Set calls may interleave with lookups.
type MemoryCatalog struct {
	mu      sync.RWMutex
	maxSize int
	counts  map[string]float64
	deltas  map[string]float64
}

// NewMemoryCatalog returns an empty catalog indexing patterns of up to
// maxPatternSize vertices.
func NewMemoryCatalog(maxPatternSize int) *MemoryCatalog {
	return &MemoryCatalog{
		maxSize: maxPatternSize,
		counts:  make(map[string]float64),
		deltas:  make(map[string]float64),
	}
}

// Set records the row count of p. A fuzzy or undirected p is not split: the
// count is stored under p's own key and shadows the sum of its instances.
func (c *MemoryCatalog) Set(p *Pattern, count float64) *MemoryCatalog {
	key := p.Reordering().Key()
	c.mu.Lock()
	c.counts[key] = count
	c.mu.Unlock()
	return c
}

// SetLabelDelta records the label-constraint correction for expanding edge
// towards target.
func (c *MemoryCatalog) SetLabelDelta(edge PatternEdge, target PatternVertex, delta float64) *MemoryCatalog {
	precondition(delta >= 0, "graphcbo: label constraint delta %v is negative", delta)
	key := labelDeltaKey(edge, target)
	c.mu.Lock()
	c.deltas[key] = delta
	c.mu.Unlock()
	return c
}

// Len returns the number of stored pattern counts.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.counts)
}

// RowCount implements Catalog. Unknown patterns count as zero; fuzzy or
// undirected patterns without an explicit entry sum their instances.
func (c *MemoryCatalog) RowCount(p CanonicalPattern) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.counts[p.Key()]; ok {
		return v
	}
	var total float64
	for _, k := range instanceKeys(p) {
		total += c.counts[k]
	}
	return total
}

func (c *MemoryCatalog) MaxPatternSize() int { return c.maxSize }

// LabelConstraintDelta implements Catalog.
func (c *MemoryCatalog) LabelConstraintDelta(edge PatternEdge, target PatternVertex) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deltas[labelDeltaKey(edge, target)]
}

// labelDeltaKey identifies an expansion by the canonical one-edge pattern,
// the side of the edge being reached and the types of the vertex there. An
// undirected edge has no sides, so only the target types tell its two
// expansions apart.
func labelDeltaKey(edge PatternEdge, target PatternVertex) string {
	side := "dst"
	switch {
	case edge.both:
		side = "both"
	case target.id != edge.dst.id:
		side = "src"
	}
	return SingleEdgePattern(edge.StripPredicate()).Reordering().Key() + "@" + side + ":" + typesKey(target.types)
}
