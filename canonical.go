package graphcbo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/lo"
)

// ---------------------------------------------------------------------------
// Canonical pattern identity ("reordering").
//
// Reordering renumbers vertices 0..n-1 and edges 0..m-1 so that structurally
// identical patterns produce the same key regardless of the ids the front end
// chose. The key covers type sets, type triples, direction and the both flag.
// ElementDetails travel with the renumbered pattern but are not identity.
//
// Algorithm:
//
//  1. Color every vertex by its type set.
//  2. Refine colors by the multiset of (edge kind, triples, neighbor color)
//     until the partition stops splitting. The partition is invariant under
//     relabelling, so vertices in different cells can never be swapped by an
//     isomorphism.
//  3. Enumerate every ordering that respects the cell order (permutations
//     inside each cell) and keep the one whose sorted edge encoding is
//     lexicographically smallest.
//
// Step 3 is exact; its cost is the product of the factorials of the cell
// sizes, which stays small for query patterns.
// ---------------------------------------------------------------------------

// CanonicalPattern is a pattern renumbered into canonical form together with
// its identity key. Only catalog lookups need one.
type CanonicalPattern struct {
	pattern *Pattern
	key     string
	hash    uint64
}

// Pattern returns the renumbered pattern.
func (c CanonicalPattern) Pattern() *Pattern { return c.pattern }

// Key returns the canonical identity string.
func (c CanonicalPattern) Key() string { return c.key }

// Fingerprint returns a 64-bit hash of Key.
func (c CanonicalPattern) Fingerprint() uint64 { return c.hash }

// Size returns the vertex count, the unit of Catalog.MaxPatternSize.
func (c CanonicalPattern) Size() int { return c.pattern.VertexCount() }

// Equal reports whether both patterns are isomorphic.
func (c CanonicalPattern) Equal(o CanonicalPattern) bool {
	return c.hash == o.hash && c.key == o.key
}

func (c CanonicalPattern) String() string { return c.key }

// Reordering returns the canonical form of p.
func (p *Pattern) Reordering() CanonicalPattern {
	c, _ := canonicalize(p)
	return c
}

// canonicalize also reports how many candidate orderings were compared.
func canonicalize(p *Pattern) (CanonicalPattern, int) {
	n := len(p.vertices)
	colors := refineColors(p)

	// Cells ordered by color; members ordered by original position.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return colors[order[a]] < colors[order[b]] })
	var cells [][]int
	for i := 0; i < n; {
		j := i
		for j < n && colors[order[j]] == colors[order[i]] {
			j++
		}
		cells = append(cells, append([]int(nil), order[i:j]...))
		i = j
	}

	var (
		best      []int
		bestCodes []edgeCode
		bestKey   string
		tried     int
	)
	forEachCellOrdering(cells, func(perm []int) {
		tried++
		codes := encodeEdges(p, perm)
		k := joinEdgeCodes(codes)
		if best == nil || k < bestKey {
			best = append(best[:0], perm...)
			bestCodes = codes
			bestKey = k
		}
	})

	var sb strings.Builder
	for i, old := range best {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(typesKey(p.vertices[old].types))
	}
	sb.WriteByte('#')
	sb.WriteString(bestKey)
	key := sb.String()

	return CanonicalPattern{
		pattern: rebuild(p, best, bestCodes),
		key:     key,
		hash:    xxhash.Sum64String(key),
	}, tried
}

// refineColors returns a stable vertex coloring indexed by position in
// p.vertices. Colors are ranks of signature strings, so they do not depend on
// vertex ids.
func refineColors(p *Pattern) []int {
	n := len(p.vertices)
	sigs := make([]string, n)
	for i, v := range p.vertices {
		sigs[i] = typesKey(v.types)
	}
	colors, distinct := rankStrings(sigs)

	for {
		for i, v := range p.vertices {
			var parts []string
			for _, e := range p.edges {
				switch {
				case e.src.id == v.id && e.dst.id == v.id:
					parts = append(parts, "s"+triplesKey(e.triples))
				case e.src.id == v.id:
					kind := "o"
					if e.both {
						kind = "b"
					}
					parts = append(parts, kind+triplesKey(e.triples)+">"+strconv.Itoa(colors[p.index[e.dst.id]]))
				case e.dst.id == v.id:
					kind, ts := "i", e.triples
					if e.both {
						kind, ts = "b", flipTriples(e.triples)
					}
					parts = append(parts, kind+triplesKey(ts)+">"+strconv.Itoa(colors[p.index[e.src.id]]))
				}
			}
			sort.Strings(parts)
			sigs[i] = strconv.Itoa(colors[i]) + "|" + strings.Join(parts, ";")
		}
		next, nextDistinct := rankStrings(sigs)
		colors = next
		if nextDistinct == distinct {
			return colors
		}
		distinct = nextDistinct
	}
}

func rankStrings(ss []string) ([]int, int) {
	uniq := lo.Uniq(ss)
	sort.Strings(uniq)
	rank := make(map[string]int, len(uniq))
	for i, s := range uniq {
		rank[s] = i
	}
	out := make([]int, len(ss))
	for i, s := range ss {
		out[i] = rank[s]
	}
	return out, len(uniq)
}

// forEachCellOrdering calls fn with every ordering (new position -> old
// position) that keeps cells in order and permutes members inside each cell.
// fn must not retain perm.
func forEachCellOrdering(cells [][]int, fn func(perm []int)) {
	perm := make([]int, 0)
	var rec func(ci int)
	rec = func(ci int) {
		if ci == len(cells) {
			fn(perm)
			return
		}
		cell := append([]int(nil), cells[ci]...)
		permute(cell, 0, func(c []int) {
			base := len(perm)
			perm = append(perm, c...)
			rec(ci + 1)
			perm = perm[:base]
		})
	}
	rec(0)
}

func permute(a []int, k int, fn func([]int)) {
	if k == len(a) {
		fn(a)
		return
	}
	for i := k; i < len(a); i++ {
		a[k], a[i] = a[i], a[k]
		permute(a, k+1, fn)
		a[k], a[i] = a[i], a[k]
	}
}

// edgeCode is one edge encoded under a candidate ordering.
type edgeCode struct {
	code    string
	edge    int // position in p.edges
	flipped bool
	src     int // new position
	dst     int
}

func encodeEdges(p *Pattern, perm []int) []edgeCode {
	pos := make([]int, len(perm))
	for newPos, old := range perm {
		pos[old] = newPos
	}
	codes := make([]edgeCode, len(p.edges))
	for i, e := range p.edges {
		s, d := pos[p.index[e.src.id]], pos[p.index[e.dst.id]]
		if !e.both {
			codes[i] = edgeCode{code: fmt.Sprintf("%d>%d:%s", s, d, triplesKey(e.triples)), edge: i, src: s, dst: d}
			continue
		}
		fwd := fmt.Sprintf("%d-%d:%s", s, d, triplesKey(e.triples))
		rev := fmt.Sprintf("%d-%d:%s", d, s, triplesKey(flipTriples(e.triples)))
		if rev < fwd {
			codes[i] = edgeCode{code: rev, edge: i, flipped: true, src: d, dst: s}
		} else {
			codes[i] = edgeCode{code: fwd, edge: i, src: s, dst: d}
		}
	}
	sort.SliceStable(codes, func(a, b int) bool { return codes[a].code < codes[b].code })
	return codes
}

func joinEdgeCodes(codes []edgeCode) string {
	parts := lo.Map(codes, func(c edgeCode, _ int) string { return c.code })
	return strings.Join(parts, ",")
}

// rebuild materializes the renumbered pattern for the chosen ordering.
func rebuild(p *Pattern, perm []int, codes []edgeCode) *Pattern {
	b := NewPatternBuilder()
	renumbered := make([]PatternVertex, len(perm))
	for newPos, old := range perm {
		v := p.vertices[old]
		renumbered[newPos] = PatternVertex{id: VertexID(newPos), types: v.types, details: v.details}
		b.AddVertex(renumbered[newPos])
	}
	for newID, c := range codes {
		e := p.edges[c.edge]
		ts := e.triples
		if c.flipped {
			ts = flipTriples(ts)
		}
		b.AddEdge(PatternEdge{
			id:      EdgeID(newID),
			src:     renumbered[c.src],
			dst:     renumbered[c.dst],
			triples: ts,
			both:    e.both,
			details: e.details,
		})
	}
	return b.MustBuild()
}

func typesKey(ts []TypeID) string {
	parts := lo.Map(ts, func(t TypeID, _ int) string { return strconv.Itoa(int(t)) })
	return "[" + strings.Join(parts, "|") + "]"
}

func triplesKey(ts []EdgeTypeTriple) string {
	parts := lo.Map(ts, func(t EdgeTypeTriple, _ int) string {
		return fmt.Sprintf("%d.%d.%d", t.Src, t.Dst, t.Edge)
	})
	return "[" + strings.Join(parts, "|") + "]"
}

func flipTriples(ts []EdgeTypeTriple) []EdgeTypeTriple {
	out := lo.Map(ts, func(t EdgeTypeTriple, _ int) EdgeTypeTriple { return t.flip() })
	sort.Slice(out, func(i, j int) bool { return tripleLess(out[i], out[j]) })
	return out
}
