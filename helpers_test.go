package graphcbo

import (
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// Type ids of the social fixture.
const (
	tPerson TypeID = 1
	tPost   TypeID = 2
	tKnows  TypeID = 10
	tLikes  TypeID = 11
)

var (
	knowsTriple = EdgeTypeTriple{Src: tPerson, Dst: tPerson, Edge: tKnows}
	likesTriple = EdgeTypeTriple{Src: tPerson, Dst: tPost, Edge: tLikes}
)

func person(id VertexID, opts ...DetailOption) PatternVertex {
	return NewVertex(id, []TypeID{tPerson}, opts...)
}

func post(id VertexID, opts ...DetailOption) PatternVertex {
	return NewVertex(id, []TypeID{tPost}, opts...)
}

func knows(id EdgeID, src, dst PatternVertex, opts ...EdgeOption) PatternEdge {
	return NewEdge(id, src, dst, []EdgeTypeTriple{knowsTriple}, opts...)
}

func likes(id EdgeID, src, dst PatternVertex, opts ...EdgeOption) PatternEdge {
	return NewEdge(id, src, dst, []EdgeTypeTriple{likesTriple}, opts...)
}

// socialCatalog holds row_count(person) = 1000, row_count(post) = 1000,
// row_count(person-knows->person) = 5000 and row_count(person-likes->post) = 2000,
// indexing patterns of up to two vertices.
func socialCatalog() *MemoryCatalog {
	return NewMemoryCatalog(2).
		Set(SingleVertexPattern(person(0)), 1000).
		Set(SingleVertexPattern(post(0)), 1000).
		Set(SingleEdgePattern(knows(0, person(0), person(1))), 5000).
		Set(SingleEdgePattern(likes(0, person(0), post(1))), 2000)
}

// testEstimator returns an estimator over the social catalog without a cache.
func testEstimator(t *testing.T, mutate ...func(*Options)) *Estimator {
	t.Helper()
	opts := DefaultOptions()
	opts.CacheCapacity = 0
	for _, m := range mutate {
		m(&opts)
	}
	return New(socialCatalog(), opts)
}

// starPattern is {X knows A, X likes B} centered at X (id 0).
func starPattern(t *testing.T) *Pattern {
	t.Helper()
	x, a, b := person(0), person(1), post(2)
	p, err := NewPatternBuilder().
		AddVertex(x).AddVertex(a).AddVertex(b).
		AddEdge(knows(0, x, a)).
		AddEdge(likes(1, x, b)).
		Build()
	require.NoError(t, err)
	return p
}

// testCatalogFile imports the social catalog into a bbolt file and opens it.
func testCatalogFile(t *testing.T, deltas ...LabelDeltaEntry) *BoltCatalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.db")
	entries := []CatalogEntry{
		{Pattern: SingleVertexPattern(person(0)), Count: 1000},
		{Pattern: SingleVertexPattern(post(0)), Count: 1000},
		{Pattern: SingleEdgePattern(knows(0, person(0), person(1))), Count: 5000},
		{Pattern: SingleEdgePattern(likes(0, person(0), post(1))), Count: 2000},
	}
	require.NoError(t, ImportCatalog(path, 2, entries, deltas))

	cat, err := OpenBoltCatalog(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

// countingCatalog counts backend calls.
type countingCatalog struct {
	Catalog
	rowCounts atomic.Int64
	deltas    atomic.Int64
}

func (c *countingCatalog) RowCount(p CanonicalPattern) float64 {
	c.rowCounts.Add(1)
	return c.Catalog.RowCount(p)
}

func (c *countingCatalog) LabelConstraintDelta(edge PatternEdge, target PatternVertex) float64 {
	c.deltas.Add(1)
	return c.Catalog.LabelConstraintDelta(edge, target)
}

// fixedDeltaCatalog answers every label-constraint lookup with delta.
type fixedDeltaCatalog struct {
	Catalog
	delta float64
}

func (c fixedDeltaCatalog) LabelConstraintDelta(PatternEdge, PatternVertex) float64 { return c.delta }

// directionalDeltaCatalog answers delta when the expansion reaches the edge's
// destination and zero when it walks the edge backwards.
type directionalDeltaCatalog struct {
	Catalog
	delta float64
}

func (c directionalDeltaCatalog) LabelConstraintDelta(edge PatternEdge, target PatternVertex) float64 {
	if target.ID() == edge.Dst().ID() {
		return c.delta
	}
	return 0
}

// cancellingCatalog calls cancel on its first row count lookup.
type cancellingCatalog struct {
	Catalog
	cancel func()
}

func (c cancellingCatalog) RowCount(p CanonicalPattern) float64 {
	c.cancel()
	return c.Catalog.RowCount(p)
}
