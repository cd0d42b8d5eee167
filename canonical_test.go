package graphcbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReorderingIgnoresVertexIDs(t *testing.T) {
	// {X knows A, X likes B} under two different numberings.
	p1 := starPattern(t)

	x, a, b := person(7), person(3), post(5)
	p2 := NewPatternBuilder().
		AddVertex(b).AddVertex(a).AddVertex(x).
		AddEdge(likes(9, x, b)).
		AddEdge(knows(4, x, a)).
		MustBuild()

	c1, c2 := p1.Reordering(), p2.Reordering()
	assert.True(t, c1.Equal(c2))
	assert.Equal(t, c1.Key(), c2.Key())
	assert.Equal(t, c1.Fingerprint(), c2.Fingerprint())
	assert.Equal(t, 3, c1.Size())
}

func TestReorderingDistinguishesStructure(t *testing.T) {
	x, a, b := person(0), person(1), person(2)

	// Out-star vs in-star vs chain over the same types and triple.
	out := NewPatternBuilder().AddVertex(x).AddVertex(a).AddVertex(b).
		AddEdge(knows(0, x, a)).AddEdge(knows(1, x, b)).MustBuild()
	in := NewPatternBuilder().AddVertex(x).AddVertex(a).AddVertex(b).
		AddEdge(knows(0, a, x)).AddEdge(knows(1, b, x)).MustBuild()
	chain := NewPatternBuilder().AddVertex(x).AddVertex(a).AddVertex(b).
		AddEdge(knows(0, a, x)).AddEdge(knows(1, x, b)).MustBuild()

	keys := map[string]string{
		"out":   out.Reordering().Key(),
		"in":    in.Reordering().Key(),
		"chain": chain.Reordering().Key(),
	}
	assert.NotEqual(t, keys["out"], keys["in"])
	assert.NotEqual(t, keys["out"], keys["chain"])
	assert.NotEqual(t, keys["in"], keys["chain"])

	directed := SingleEdgePattern(knows(0, x, a)).Reordering()
	undirected := SingleEdgePattern(knows(0, x, a, Undirected())).Reordering()
	assert.NotEqual(t, directed.Key(), undirected.Key())
}

func TestReorderingUndirectedOrientation(t *testing.T) {
	x, b := person(0), post(1)
	fwd := SingleEdgePattern(NewEdge(0, x, b, []EdgeTypeTriple{likesTriple}, Undirected()))
	rev := SingleEdgePattern(NewEdge(0, b, x, []EdgeTypeTriple{likesTriple.flip()}, Undirected()))
	assert.Equal(t, fwd.Reordering().Key(), rev.Reordering().Key())
}

func TestReorderingIgnoresDetails(t *testing.T) {
	plain := SingleEdgePattern(knows(0, person(0), person(1)))
	filtered := SingleEdgePattern(knows(0, person(0, WithSelectivity(0.1)), person(1),
		WithEdgeDetails(WithSelectivity(0.5))))
	assert.Equal(t, plain.Reordering().Key(), filtered.Reordering().Key())

	// Details travel with the renumbered pattern.
	assert.InDelta(t, 0.05, filtered.Reordering().Pattern().Selectivity(), 1e-12)
}

func TestReorderingIsIdempotent(t *testing.T) {
	c := starPattern(t).Reordering()
	again := c.Pattern().Reordering()
	assert.Equal(t, c.Key(), again.Key())

	p := c.Pattern()
	for i, v := range p.Vertices() {
		assert.Equal(t, VertexID(i), v.ID())
	}
	for i, e := range p.Edges() {
		assert.Equal(t, EdgeID(i), e.ID())
	}
}

func TestReorderingSymmetricPatterns(t *testing.T) {
	// A directed triangle and a 2-cycle plus self loop: every vertex in one
	// refinement cell, so the permutation search decides.
	v0, v1, v2 := person(0), person(1), person(2)
	tri1 := NewPatternBuilder().AddVertex(v0).AddVertex(v1).AddVertex(v2).
		AddEdge(knows(0, v0, v1)).AddEdge(knows(1, v1, v2)).AddEdge(knows(2, v2, v0)).MustBuild()
	tri2 := NewPatternBuilder().AddVertex(v0).AddVertex(v1).AddVertex(v2).
		AddEdge(knows(0, v0, v2)).AddEdge(knows(1, v2, v1)).AddEdge(knows(2, v1, v0)).MustBuild()
	assert.Equal(t, tri1.Reordering().Key(), tri2.Reordering().Key())

	c, tried := canonicalize(tri1)
	require.NotNil(t, c.Pattern())
	assert.Equal(t, 6, tried, "one cell of three vertices")

	loop := NewPatternBuilder().AddVertex(v0).AddVertex(v1).
		AddEdge(knows(0, v0, v1)).AddEdge(knows(1, v1, v0)).AddEdge(knows(2, v1, v1)).MustBuild()
	loopSwapped := NewPatternBuilder().AddVertex(v0).AddVertex(v1).
		AddEdge(knows(0, v1, v0)).AddEdge(knows(1, v0, v1)).AddEdge(knows(2, v0, v0)).MustBuild()
	assert.Equal(t, loop.Reordering().Key(), loopSwapped.Reordering().Key())
}

func TestForEachInstance(t *testing.T) {
	fuzzy := NewVertex(0, []TypeID{tPerson, tPost})
	var keys []string
	ForEachInstance(SingleVertexPattern(fuzzy), func(p *Pattern) {
		keys = append(keys, p.Reordering().Key())
	})
	assert.ElementsMatch(t, []string{
		SingleVertexPattern(person(0)).Reordering().Key(),
		SingleVertexPattern(post(0)).Reordering().Key(),
	}, keys)

	// An undirected edge expands into one directed instance per direction.
	x, b := person(0), post(1)
	var n int
	ForEachInstance(SingleEdgePattern(likes(0, x, b, Undirected())), func(p *Pattern) {
		n++
		assert.False(t, p.Edges()[0].Both())
	})
	assert.Equal(t, 2, n)

	// Only triples fitting the endpoint types produce instances.
	n = 0
	fuzzyEdge := NewEdge(0, x, b, []EdgeTypeTriple{knowsTriple, likesTriple})
	ForEachInstance(SingleEdgePattern(fuzzyEdge), func(p *Pattern) {
		n++
		assert.Equal(t, []EdgeTypeTriple{likesTriple}, p.Edges()[0].Triples())
	})
	assert.Equal(t, 1, n)
}
