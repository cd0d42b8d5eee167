package graphcbo

import (
	"log/slog"

	"github.com/samber/lo"
)

// CountEstimator estimates the cardinality of patterns, vertices and edges
// from catalog lookups, decomposing star-shaped patterns that are too large
// to be looked up directly.
type CountEstimator struct {
	catalog Catalog
	maxSize int
	log     *slog.Logger
	metrics *Metrics
}

// NewCountEstimator returns an estimator over catalog.
func NewCountEstimator(catalog Catalog, opts Options) *CountEstimator {
	maxSize := catalog.MaxPatternSize()
	if opts.MaxPatternSizeOverride > 0 && opts.MaxPatternSizeOverride < maxSize {
		maxSize = opts.MaxPatternSizeOverride
	}
	return &CountEstimator{
		catalog: catalog,
		maxSize: maxSize,
		log:     opts.logger(),
		metrics: opts.Metrics,
	}
}

// MaxPatternSize is the direct-lookup bound in effect.
func (c *CountEstimator) MaxPatternSize() int { return c.maxSize }

// rowCount canonicalizes p and asks the catalog for its raw count.
func (c *CountEstimator) rowCount(p *Pattern) float64 {
	canon, tried := canonicalize(p)
	c.metrics.canonicalized(tried)
	c.metrics.catalogLookup()
	return c.catalog.RowCount(canon)
}

// EstimatePattern returns the estimated row count of p with every predicate
// applied. The boolean is false when p is larger than the catalog bound and
// has no intersection vertex; the count is then unknown, not zero.
func (c *CountEstimator) EstimatePattern(p *Pattern) (float64, bool) {
	c.metrics.estimate("pattern")
	if p.VertexCount() <= c.maxSize {
		switch {
		case p.VertexCount() == 1 && p.EdgeCount() == 0:
			return c.EstimateVertex(p.vertices[0]), true
		case p.EdgeCount() == 1 && p.VertexCount() == distinctEndpoints(p.edges[0]):
			return c.EstimateEdge(p.edges[0]), true
		}
		return c.rowCount(p) * p.Selectivity(), true
	}

	hub, ok := c.intersectionVertex(p)
	if !ok {
		c.metrics.undecomposable()
		c.log.Debug("pattern not decomposable", "pattern", p.String(), "max_pattern_size", c.maxSize)
		return 0, false
	}
	if p.EdgeCount() == 0 {
		return c.EstimateVertex(hub), true
	}

	c.metrics.decomposed()
	edgeCounts := lo.Map(p.edges, func(e PatternEdge, _ int) float64 { return c.EstimateEdge(e) })
	hubCount := c.EstimateVertex(hub)
	if p.EdgeCount() > 1 {
		nonZero(hubCount, "intersection vertex "+hub.String(), p)
	}
	return product(edgeCounts) / powInt(hubCount, p.EdgeCount()-1), true
}

// intersectionVertex returns the lowest-id vertex touched by every edge.
func (c *CountEstimator) intersectionVertex(p *Pattern) (PatternVertex, bool) {
	return lo.Find(p.vertices, func(v PatternVertex) bool {
		return p.Degree(v.id) == p.EdgeCount()
	})
}

// EstimateVertex sums the catalog count of every admissible type and applies
// the vertex predicate. A fuzzy vertex counts as the union of its types.
func (c *CountEstimator) EstimateVertex(v PatternVertex) float64 {
	c.metrics.estimate("vertex")
	counts := lo.Map(v.types, func(t TypeID, _ int) float64 {
		return c.rowCount(SingleVertexPattern(NewVertex(v.id, []TypeID{t})))
	})
	return sum(counts) * v.Selectivity()
}

// EstimateEdge sums the catalog count of every admissible triple, doubles it
// for an undirected edge and applies the edge and endpoint predicates.
func (c *CountEstimator) EstimateEdge(e PatternEdge) float64 {
	c.metrics.estimate("edge")
	counts := lo.Map(e.triples, func(t EdgeTypeTriple, _ int) float64 {
		src := NewVertex(e.src.id, []TypeID{t.Src})
		b := NewPatternBuilder().AddVertex(src)
		dst := src
		if e.dst.id != e.src.id {
			dst = NewVertex(e.dst.id, []TypeID{t.Dst})
			b.AddVertex(dst)
		}
		b.AddEdge(NewEdge(e.id, src, dst, []EdgeTypeTriple{t}))
		return c.rowCount(b.MustBuild())
	})
	total := sum(counts)
	if e.both {
		total *= 2
	}
	sel := e.Selectivity() * e.src.Selectivity()
	if e.dst.id != e.src.id {
		sel *= e.dst.Selectivity()
	}
	return total * sel
}

func distinctEndpoints(e PatternEdge) int {
	if e.src.id == e.dst.id {
		return 1
	}
	return 2
}
