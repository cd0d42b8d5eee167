package graphcbo

import "github.com/samber/lo"

// Catalog is the read-only statistics source the estimators consult.
//
// Implementations must be safe for concurrent reads. The estimators never
// write to a catalog and never retry a lookup; whatever a catalog answers for
// an unindexed pattern (zero, a guess) is forwarded as is.
type Catalog interface {
	// RowCount returns the best-known row count of an exact canonical
	// pattern, without any predicate applied.
	RowCount(p CanonicalPattern) float64
	// MaxPatternSize is the largest vertex count the catalog indexes
	// directly. Larger patterns are decomposed before lookup.
	MaxPatternSize() int
	// LabelConstraintDelta is an additive, non-negative correction for
	// label-constrained expansions of edge towards target that the plain
	// edge count does not reflect. Return 0 for no correction.
	LabelConstraintDelta(edge PatternEdge, target PatternVertex) float64
}

// needsExpansion reports whether p is not yet a plain instance: some member
// admits more than one type, or some edge is undirected.
func (p *Pattern) needsExpansion() bool {
	return lo.SomeBy(p.vertices, func(v PatternVertex) bool { return v.IsFuzzy() }) ||
		lo.SomeBy(p.edges, func(e PatternEdge) bool { return e.IsFuzzy() || e.both })
}

// ForEachInstance calls fn with every plain instantiation of p: one type per
// vertex, one matching triple per edge, and one direction per undirected
// edge. A fuzzy or undirected pattern denotes the disjoint union of its
// instances, so its count is the sum of theirs. A plain pattern is its own
// only instance.
//
// An undirected edge between X and Y yields the directed instance X->Y with
// its triple and the directed instance Y->X with the flipped triple, so a
// symmetric edge type is counted once per traversal direction.
func ForEachInstance(p *Pattern, fn func(*Pattern)) {
	if !p.needsExpansion() {
		fn(p)
		return
	}
	chosen := make([]PatternVertex, len(p.vertices))
	var pickVertex func(i int)
	pickVertex = func(i int) {
		if i == len(p.vertices) {
			forEachEdgeInstance(p, chosen, fn)
			return
		}
		v := p.vertices[i]
		for _, t := range v.types {
			chosen[i] = PatternVertex{id: v.id, types: []TypeID{t}, details: v.details}
			pickVertex(i + 1)
		}
	}
	pickVertex(0)
}

func forEachEdgeInstance(p *Pattern, vertices []PatternVertex, fn func(*Pattern)) {
	edges := make([]PatternEdge, len(p.edges))
	var pickEdge func(i int)
	pickEdge = func(i int) {
		if i == len(p.edges) {
			b := NewPatternBuilder()
			for _, v := range vertices {
				b.AddVertex(v)
			}
			for _, e := range edges {
				b.AddEdge(e)
			}
			fn(b.MustBuild())
			return
		}
		e := p.edges[i]
		src := vertices[p.index[e.src.id]]
		dst := vertices[p.index[e.dst.id]]
		for _, t := range matchingTriples(e, src.types[0], dst.types[0]) {
			edges[i] = PatternEdge{id: e.id, src: src, dst: dst, triples: []EdgeTypeTriple{t}, details: e.details}
			pickEdge(i + 1)
			if e.both {
				edges[i] = PatternEdge{id: e.id, src: dst, dst: src, triples: []EdgeTypeTriple{t.flip()}, details: e.details}
				pickEdge(i + 1)
			}
		}
	}
	pickEdge(0)
}

// matchingTriples returns the triples of e admissible between the given
// endpoint types. An undirected edge also accepts triples stated from the
// other side; those are returned flipped.
func matchingTriples(e PatternEdge, srcType, dstType TypeID) []EdgeTypeTriple {
	var out []EdgeTypeTriple
	for _, t := range e.triples {
		switch {
		case t.Src == srcType && t.Dst == dstType:
			out = append(out, t)
		case e.both && t.Src == dstType && t.Dst == srcType:
			out = append(out, t.flip())
		}
	}
	return lo.Uniq(out)
}

// instanceKeys returns the canonical keys of the single-typed instances of c.
func instanceKeys(c CanonicalPattern) []string {
	if !c.pattern.needsExpansion() {
		return []string{c.key}
	}
	var keys []string
	ForEachInstance(c.pattern, func(inst *Pattern) {
		keys = append(keys, inst.Reordering().key)
	})
	return keys
}
