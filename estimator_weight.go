package graphcbo

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// WeightEstimator ranks and prices the edges of an intersect extension: a
// new vertex reached by several edges at once, each supplying candidates
// that are intersected.
type WeightEstimator struct {
	counts *CountEstimator
	extend *ExtendCostEstimator
}

// NewWeightEstimator returns a weight estimator over the given estimators.
func NewWeightEstimator(counts *CountEstimator, extend *ExtendCostEstimator) *WeightEstimator {
	return &WeightEstimator{counts: counts, extend: extend}
}

// EdgeWeight is the marginal selectivity of reaching target through edge
// alone: the one-edge pattern's count per extend-from vertex.
func (w *WeightEstimator) EdgeWeight(edge PatternEdge, target PatternVertex) float64 {
	from := w.extend.extendFrom(nil, edge, target)
	p := SingleEdgePattern(edge)
	edgeCount, _ := w.counts.EstimatePattern(p)
	fromCount := nonZero(w.counts.EstimateVertex(from), "extend-from vertex "+from.String(), p)
	return edgeCount / fromCount
}

// Order returns edges sorted by ascending EdgeWeight, most selective first.
// Ties keep their input order.
func (w *WeightEstimator) Order(edges []PatternEdge, target PatternVertex) []PatternEdge {
	type weighted struct {
		edge   PatternEdge
		weight float64
	}
	ws := lo.Map(edges, func(e PatternEdge, _ int) weighted {
		return weighted{edge: e, weight: w.EdgeWeight(e, target)}
	})
	sort.SliceStable(ws, func(i, j int) bool { return ws[i].weight < ws[j].weight })
	return lo.Map(ws, func(x weighted, _ int) PatternEdge { return x.edge })
}

// Weight returns the total expected work of reaching target through all of
// edges. A single edge costs its expand rows. Several edges are applied in
// Order; after each one the accumulated star around target is estimated and
// divided by the counts of every extend-from vertex added so far, and these
// per-step results are summed.
//
// Weight panics if edges is empty or a divisor estimates to zero, and
// returns ErrCostUnavailable if an accumulated pattern cannot be estimated.
func (w *WeightEstimator) Weight(edges []PatternEdge, target PatternVertex) (float64, error) {
	precondition(len(edges) > 0, "graphcbo: weight of an empty extension towards %s", target)
	w.counts.metrics.estimate("weight")
	if len(edges) == 1 {
		cost, err := w.extend.Estimate(nil, edges[0], target)
		if err != nil {
			return 0, err
		}
		return cost.ExpandRows, nil
	}

	b := NewPatternBuilder().AddVertex(target)
	var (
		total     float64
		fromCount = 1.0
		seen      = make(map[VertexID]struct{})
	)
	for _, e := range w.Order(edges, target) {
		from := e.Other(target.id)
		b.AddVertex(from).AddEdge(e.withEndpoints(endpointsFor(e, from, target)))
		if _, dup := seen[from.id]; !dup {
			seen[from.id] = struct{}{}
			fromCount *= nonZero(w.counts.EstimateVertex(from), "extend-from vertex "+from.String(), e)
		}
		acc := b.MustBuild()
		count, ok := w.counts.EstimatePattern(acc.Reordering().Pattern())
		if !ok {
			return 0, errors.Wrapf(ErrCostUnavailable, "accumulated extension %s", acc)
		}
		total += count / fromCount
	}
	return total, nil
}
