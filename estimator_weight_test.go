package graphcbo

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intersectStep reaches X (id 0) from A through knows and from B through likes:
// {A knows X, X likes B}.
func intersectStep() (x PatternVertex, knowsEdge, likesEdge PatternEdge) {
	x, a, b := person(0), person(1), post(2)
	return x, knows(0, a, x), likes(1, x, b)
}

func TestSocialScenarioWeights(t *testing.T) {
	w := testEstimator(t).Weights()
	x, a, b := person(0), person(1), post(2)

	// (d) knows: 5000/1000, likes: 2000/1000.
	assert.InDelta(t, 5.0, w.EdgeWeight(knows(0, x, a), a), 1e-12)
	assert.InDelta(t, 2.0, w.EdgeWeight(likes(1, x, b), b), 1e-12)
}

func TestOrderPlacesMostSelectiveFirst(t *testing.T) {
	w := testEstimator(t).Weights()
	x, k, l := intersectStep()

	assert.InDelta(t, 5.0, w.EdgeWeight(k, x), 1e-12)
	assert.InDelta(t, 2.0, w.EdgeWeight(l, x), 1e-12)

	order := w.Order([]PatternEdge{k, l}, x)
	assert.Equal(t, []EdgeID{1, 0}, lo.Map(order, func(e PatternEdge, _ int) EdgeID { return e.ID() }))
}

func TestOrderKeepsTies(t *testing.T) {
	w := testEstimator(t).Weights()
	x := person(0)
	edges := []PatternEdge{knows(3, person(1), x), knows(1, person(2), x), knows(2, x, person(3))}

	order := w.Order(edges, x)
	assert.Equal(t, []EdgeID{3, 1, 2}, lo.Map(order, func(e PatternEdge, _ int) EdgeID { return e.ID() }))
}

func TestWeightSingleEdgeIsExpandRows(t *testing.T) {
	est := testEstimator(t)
	x, a := person(0), person(1, WithSelectivity(0.2))
	e := knows(0, x, a, WithEdgeDetails(WithSelectivity(0.5)))

	weight, err := est.Weights().Weight([]PatternEdge{e}, a)
	require.NoError(t, err)
	cost, err := est.Extend().Estimate(nil, e, a)
	require.NoError(t, err)
	assert.Equal(t, cost.ExpandRows, weight)
	assert.Equal(t, 5000.0, weight)
}

func TestWeightIntersect(t *testing.T) {
	w := testEstimator(t).Weights()
	x, k, l := intersectStep()

	// likes first: {X likes B} = 2000 over B's 1000.
	// then knows: star {A knows X, X likes B} = 5000*2000/1000 = 10000 over
	// B and A, 1000*1000.
	weight, err := w.Weight([]PatternEdge{k, l}, x)
	require.NoError(t, err)
	assert.InDelta(t, 2.0+0.01, weight, 1e-12)

	// Input order does not matter.
	again, err := w.Weight([]PatternEdge{l, k}, x)
	require.NoError(t, err)
	assert.InDelta(t, weight, again, 1e-12)
}

func TestWeightSharedExtendFromVertex(t *testing.T) {
	w := testEstimator(t).Weights()
	x, a := person(0), person(1)
	first, second := knows(0, a, x), knows(1, x, a)

	// Both edges leave A; its count is divided out once.
	// Step 1: 5000/1000. Step 2: two-vertex pattern A<->X with two edges is
	// looked up directly and the catalog has no entry for it.
	weight, err := w.Weight([]PatternEdge{first, second}, x)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, weight, 1e-12)
}

func TestWeightParallelEdgesDecomposed(t *testing.T) {
	w := testEstimator(t, func(o *Options) { o.MaxPatternSizeOverride = 1 }).Weights()
	x, a := person(0), person(1)

	// Step 1: 5000/1000. Step 2: both vertices touch both edges, so the
	// accumulated pattern decomposes: 5000*5000/1000 over A's 1000.
	weight, err := w.Weight([]PatternEdge{knows(0, a, x), knows(1, x, a)}, x)
	require.NoError(t, err)
	assert.InDelta(t, 5.0+25.0, weight, 1e-12)
}

func TestWeightEmptyExtensionPanics(t *testing.T) {
	w := testEstimator(t).Weights()
	assert.Panics(t, func() { _, _ = w.Weight(nil, person(0)) })

	err := Safe(func() error {
		_, err := w.Weight(nil, person(0))
		return err
	})
	assert.True(t, IsPreconditionViolation(err))
}
