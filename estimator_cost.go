package graphcbo

import (
	"github.com/cockroachdb/errors"
)

// CostKind identifies a cost estimation strategy.
type CostKind int

const (
	// KindExtend costs extending a partial match by one edge and vertex.
	KindExtend CostKind = iota
	// KindJoin costs a binary join of two partial matches. Not implemented.
	KindJoin
)

func (k CostKind) String() string {
	switch k {
	case KindExtend:
		return "Extend"
	case KindJoin:
		return "Join"
	default:
		return "Unknown"
	}
}

// CostEstimator is the closed set of cost strategies. Only this package can
// implement it, so a planner switching on the concrete type sees every
// strategy:
//
//	switch ce := est.(type) {
//	case *ExtendCostEstimator:
//	case *JoinCostEstimator:
//	}
type CostEstimator interface {
	Kind() CostKind
	costEstimator()
}

// ---------------------------------------------------------------------------
// Extend
// ---------------------------------------------------------------------------

// ExtendCostEstimator prices the physical "expand along the edge, then
// materialize and filter the landed vertex" strategy for one extend step.
type ExtendCostEstimator struct {
	counts       *CountEstimator
	catalog      Catalog
	disableDelta bool
}

// NewExtendCostEstimator returns an extend-cost estimator sharing counts'
// catalog.
func NewExtendCostEstimator(counts *CountEstimator, opts Options) *ExtendCostEstimator {
	return &ExtendCostEstimator{counts: counts, catalog: counts.catalog, disableDelta: opts.DisableLabelDelta}
}

func (*ExtendCostEstimator) Kind() CostKind { return KindExtend }
func (*ExtendCostEstimator) costEstimator() {}

// Estimate returns the detailed cost of reaching target through edge.
//
// src is the already matched pattern, or nil when edge starts a new match.
// The extend-from vertex is the endpoint of edge that is not target. With a
// non-nil src the four numbers are scaled from the two-vertex pattern to the
// whole of src. Every field is at least 1.
//
// Estimate panics on caller defects: target is not an endpoint of edge, edge
// is a self loop, the extend-from vertex is missing from src, or a divisor
// estimates to zero. It returns ErrCostUnavailable if src cannot be
// estimated.
func (ce *ExtendCostEstimator) Estimate(src *Pattern, edge PatternEdge, target PatternVertex) (DetailedExpandCost, error) {
	ce.counts.metrics.estimate("extend_cost")
	from := ce.extendFrom(src, edge, target)

	rawEdge := edge.StripPredicate()
	rawTarget := target.StripPredicate()
	base := NewPatternBuilder().
		AddVertex(from).
		AddVertex(rawTarget).
		AddEdge(rawEdge.withEndpoints(endpointsFor(rawEdge, from, rawTarget))).
		MustBuild()
	edgeBase, _ := ce.counts.EstimatePattern(base) // two vertices, always decomposable

	var delta float64
	if !ce.disableDelta {
		delta = ce.catalog.LabelConstraintDelta(rawEdge, rawTarget)
		precondition(delta >= 0, "graphcbo: catalog returned negative label constraint delta %v for %s", delta, edge)
	}

	cost := DetailedExpandCost{}
	cost.ExpandRows = edgeBase + delta*from.Selectivity()
	cost.ExpandFilteringRows = cost.ExpandRows * edge.Selectivity()
	cost.GetVRows = edgeBase * edge.Selectivity()
	cost.GetVFilteringRows = cost.GetVRows * target.Selectivity()

	if src != nil {
		srcCount, ok := ce.counts.EstimatePattern(src)
		if !ok {
			return DetailedExpandCost{}, errors.Wrapf(ErrCostUnavailable, "source pattern %s", src)
		}
		fromCount := nonZero(ce.counts.EstimateVertex(from), "extend-from vertex "+from.String(), src)
		intersect := 1.0
		if member, ok := src.Vertex(target.id); ok {
			intersect = nonZero(ce.counts.EstimateVertex(member), "target vertex "+member.String(), src)
		}
		cost = scaleCost(cost, srcCount/(fromCount*intersect))
	}
	return floorCost(cost), nil
}

// extendFrom returns the endpoint of edge opposite to target, taken from src
// when src is given so its details match the matched pattern.
func (ce *ExtendCostEstimator) extendFrom(src *Pattern, edge PatternEdge, target PatternVertex) PatternVertex {
	precondition(edge.Touches(target.id), "graphcbo: target %s is not an endpoint of %s", target, edge)
	precondition(edge.src.id != edge.dst.id, "graphcbo: cannot extend along self loop %s", edge)
	from := edge.Other(target.id)
	if src == nil {
		return from
	}
	member, ok := src.Vertex(from.id)
	precondition(ok && member.Equal(from), "graphcbo: extend-from vertex %s of %s is not in source pattern %s", from, edge, src)
	return member
}

// endpointsFor orders from and target to match edge's direction.
func endpointsFor(edge PatternEdge, from, target PatternVertex) (PatternVertex, PatternVertex) {
	if edge.src.id == from.id {
		return from, target
	}
	return target, from
}

// ---------------------------------------------------------------------------
// Join
// ---------------------------------------------------------------------------

// JoinCostEstimator is reserved for binary-join plans. Every call returns
// ErrJoinNotSupported.
type JoinCostEstimator struct{}

func (*JoinCostEstimator) Kind() CostKind { return KindJoin }
func (*JoinCostEstimator) costEstimator() {}

// Estimate always fails with ErrJoinNotSupported.
func (*JoinCostEstimator) Estimate(left, right *Pattern) (DetailedExpandCost, error) {
	return DetailedExpandCost{}, errors.Wrapf(ErrJoinNotSupported, "join of %s and %s", left, right)
}
