package graphcbo

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ---------------------------------------------------------------------------
// Pattern graph model: immutable vertices, edges and patterns.
//
// Values are never mutated after construction. Rewrites (stripping a
// predicate, replacing details) return new values, so a scratch pattern built
// inside an estimator can never be observed half-updated by another caller.
// ---------------------------------------------------------------------------

// PatternVertex is a query vertex with one or more admissible types.
// A vertex with exactly one type is "single"; with several it is "fuzzy" and
// matches the union of its alternatives.
type PatternVertex struct {
	id      VertexID
	types   []TypeID // sorted, distinct, never empty
	details ElementDetails
}

// NewVertex returns a vertex admitting the given types. It panics if types
// is empty or a detail option sets an invalid selectivity.
func NewVertex(id VertexID, types []TypeID, opts ...DetailOption) PatternVertex {
	precondition(len(types) > 0, "graphcbo: vertex %d has no admissible types", id)
	ts := lo.Uniq(types)
	slices.Sort(ts)
	return PatternVertex{id: id, types: ts, details: NewElementDetails(opts...)}
}

func (v PatternVertex) ID() VertexID            { return v.id }
func (v PatternVertex) Details() ElementDetails { return v.details }
func (v PatternVertex) Selectivity() float64    { return v.details.Selectivity() }
func (v PatternVertex) IsFuzzy() bool           { return len(v.types) > 1 }

// Types returns a copy of the admissible type ids in ascending order.
func (v PatternVertex) Types() []TypeID { return slices.Clone(v.types) }

// Equal reports whether both vertices have the same id and type set.
func (v PatternVertex) Equal(o PatternVertex) bool {
	return v.id == o.id && slices.Equal(v.types, o.types)
}

// WithDetails returns a copy of the vertex carrying d.
func (v PatternVertex) WithDetails(d ElementDetails) PatternVertex {
	return PatternVertex{id: v.id, types: v.types, details: d}
}

// StripPredicate returns the vertex with selectivity 1.0. Idempotent.
func (v PatternVertex) StripPredicate() PatternVertex {
	if !v.details.HasPredicate() {
		return v
	}
	return v.WithDetails(v.details.WithSelectivity(1.0))
}

func (v PatternVertex) String() string {
	return fmt.Sprintf("(%d:%s)", v.id, joinTypes(v.types))
}

// PatternEdge is a query edge between two pattern vertices with one or more
// admissible (src, dst, edge) type triples.
type PatternEdge struct {
	id      EdgeID
	src     PatternVertex
	dst     PatternVertex
	triples []EdgeTypeTriple // sorted, distinct, never empty
	both    bool
	details ElementDetails
}

// EdgeOption customizes a PatternEdge at construction.
type EdgeOption func(*edgeConfig)

type edgeConfig struct {
	both    bool
	details []DetailOption
}

// Undirected marks the edge as traversable in either direction.
func Undirected() EdgeOption {
	return func(c *edgeConfig) { c.both = true }
}

// WithEdgeDetails applies detail options to the edge.
func WithEdgeDetails(opts ...DetailOption) EdgeOption {
	return func(c *edgeConfig) { c.details = append(c.details, opts...) }
}

// NewEdge returns an edge from src to dst admitting the given triples.
// It panics if triples is empty.
func NewEdge(id EdgeID, src, dst PatternVertex, triples []EdgeTypeTriple, opts ...EdgeOption) PatternEdge {
	precondition(len(triples) > 0, "graphcbo: edge %d has no admissible type triples", id)
	var cfg edgeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	ts := lo.Uniq(triples)
	sort.Slice(ts, func(i, j int) bool { return tripleLess(ts[i], ts[j]) })
	return PatternEdge{
		id:      id,
		src:     src,
		dst:     dst,
		triples: ts,
		both:    cfg.both,
		details: NewElementDetails(cfg.details...),
	}
}

func (e PatternEdge) ID() EdgeID              { return e.id }
func (e PatternEdge) Src() PatternVertex      { return e.src }
func (e PatternEdge) Dst() PatternVertex      { return e.dst }
func (e PatternEdge) Both() bool              { return e.both }
func (e PatternEdge) Details() ElementDetails { return e.details }
func (e PatternEdge) Selectivity() float64    { return e.details.Selectivity() }
func (e PatternEdge) IsFuzzy() bool           { return len(e.triples) > 1 }

// Triples returns a copy of the admissible type triples.
func (e PatternEdge) Triples() []EdgeTypeTriple { return slices.Clone(e.triples) }

// Touches reports whether v (by id) is an endpoint of e.
func (e PatternEdge) Touches(id VertexID) bool {
	return e.src.id == id || e.dst.id == id
}

// Other returns the endpoint opposite to the vertex with the given id.
func (e PatternEdge) Other(id VertexID) PatternVertex {
	if e.src.id == id {
		return e.dst
	}
	return e.src
}

// WithDetails returns a copy of the edge carrying d.
func (e PatternEdge) WithDetails(d ElementDetails) PatternEdge {
	out := e
	out.details = d
	return out
}

// StripPredicate returns the edge with selectivity 1.0. Idempotent.
func (e PatternEdge) StripPredicate() PatternEdge {
	if !e.details.HasPredicate() {
		return e
	}
	return e.WithDetails(e.details.WithSelectivity(1.0))
}

// withEndpoints rebinds the endpoint values, keeping ids.
func (e PatternEdge) withEndpoints(src, dst PatternVertex) PatternEdge {
	out := e
	out.src = src
	out.dst = dst
	return out
}

func (e PatternEdge) String() string {
	arrow := "->"
	if e.both {
		arrow = "-"
	}
	parts := lo.Map(e.triples, func(t EdgeTypeTriple, _ int) string {
		return fmt.Sprintf("%d", t.Edge)
	})
	return fmt.Sprintf("(%d)-[%d:%s]%s(%d)", e.src.id, e.id, strings.Join(parts, "|"), arrow, e.dst.id)
}

// ---------------------------------------------------------------------------
// Pattern
// ---------------------------------------------------------------------------

// Pattern is an immutable query graph: vertices unique by id and edges unique
// by id, parallel edges between the same pair allowed. Build one with
// PatternBuilder.
type Pattern struct {
	vertices []PatternVertex // sorted by id
	index    map[VertexID]int
	edges    []PatternEdge // sorted by id
}

func (p *Pattern) VertexCount() int { return len(p.vertices) }
func (p *Pattern) EdgeCount() int   { return len(p.edges) }

// Vertices returns the member vertices ordered by id.
func (p *Pattern) Vertices() []PatternVertex { return slices.Clone(p.vertices) }

// Edges returns the member edges ordered by id.
func (p *Pattern) Edges() []PatternEdge { return slices.Clone(p.edges) }

// Vertex looks up a member vertex by id.
func (p *Pattern) Vertex(id VertexID) (PatternVertex, bool) {
	i, ok := p.index[id]
	if !ok {
		return PatternVertex{}, false
	}
	return p.vertices[i], true
}

// ContainsVertex reports whether a vertex equal to v is a member.
func (p *Pattern) ContainsVertex(v PatternVertex) bool {
	m, ok := p.Vertex(v.id)
	return ok && m.Equal(v)
}

// Degree returns the number of edges incident to the vertex with the given id.
// A self loop counts once.
func (p *Pattern) Degree(id VertexID) int {
	return lo.CountBy(p.edges, func(e PatternEdge) bool { return e.Touches(id) })
}

// EdgesOf returns the edges incident to the vertex with the given id.
func (p *Pattern) EdgesOf(id VertexID) []PatternEdge {
	return lo.Filter(p.edges, func(e PatternEdge, _ int) bool { return e.Touches(id) })
}

// EdgesBetween returns the edges joining a and b in either direction.
func (p *Pattern) EdgesBetween(a, b VertexID) []PatternEdge {
	return lo.Filter(p.edges, func(e PatternEdge, _ int) bool {
		return (e.src.id == a && e.dst.id == b) || (e.src.id == b && e.dst.id == a)
	})
}

// Selectivity is the product of every member's predicate selectivity.
func (p *Pattern) Selectivity() float64 {
	sels := make([]float64, 0, len(p.vertices)+len(p.edges))
	for _, v := range p.vertices {
		sels = append(sels, v.Selectivity())
	}
	for _, e := range p.edges {
		sels = append(sels, e.Selectivity())
	}
	return product(sels)
}

func (p *Pattern) String() string {
	var sb strings.Builder
	sb.WriteString("Pattern{")
	for i, v := range p.vertices {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	for _, e := range p.edges {
		sb.WriteString(", ")
		sb.WriteString(e.String())
	}
	sb.WriteString("}")
	return sb.String()
}

// PatternBuilder accumulates vertices and edges for a new Pattern.
// Vertices must be added before the edges that reference them.
type PatternBuilder struct {
	vertices []PatternVertex
	index    map[VertexID]int
	edges    []PatternEdge
	edgeIDs  map[EdgeID]struct{}
	errs     []error
}

// NewPatternBuilder returns an empty builder.
func NewPatternBuilder() *PatternBuilder {
	return &PatternBuilder{
		index:   make(map[VertexID]int),
		edgeIDs: make(map[EdgeID]struct{}),
	}
}

// AddVertex adds v. Adding a vertex that is already present (same id and
// type set) is a no-op; the first details win.
func (b *PatternBuilder) AddVertex(v PatternVertex) *PatternBuilder {
	if i, ok := b.index[v.id]; ok {
		if !b.vertices[i].Equal(v) {
			b.errs = append(b.errs, errors.Newf("vertex %d added twice with different types", v.id))
		}
		return b
	}
	b.index[v.id] = len(b.vertices)
	b.vertices = append(b.vertices, v)
	return b
}

// AddEdge adds e. Both endpoints must already be members; the stored edge is
// rebound to the member vertex values so endpoint details always match the
// pattern's own vertices.
func (b *PatternBuilder) AddEdge(e PatternEdge) *PatternBuilder {
	si, sok := b.index[e.src.id]
	di, dok := b.index[e.dst.id]
	switch {
	case !sok || !dok:
		b.errs = append(b.errs, errors.Newf("edge %s references a vertex outside the pattern", e))
		return b
	case !b.vertices[si].Equal(e.src) || !b.vertices[di].Equal(e.dst):
		b.errs = append(b.errs, errors.Newf("edge %s endpoint types differ from the member vertices", e))
		return b
	}
	if _, dup := b.edgeIDs[e.id]; dup {
		b.errs = append(b.errs, errors.Newf("edge id %d added twice", e.id))
		return b
	}
	b.edgeIDs[e.id] = struct{}{}
	b.edges = append(b.edges, e.withEndpoints(b.vertices[si], b.vertices[di]))
	return b
}

// Build returns the pattern, or an error wrapping ErrInvalidPattern listing
// every structural problem found.
func (b *PatternBuilder) Build() (*Pattern, error) {
	if len(b.vertices) == 0 {
		b.errs = append(b.errs, errors.New("pattern has no vertices"))
	}
	if len(b.errs) > 0 {
		msgs := lo.Map(b.errs, func(err error, _ int) string { return err.Error() })
		return nil, errors.Mark(errors.Newf("graphcbo: invalid pattern: %s", strings.Join(msgs, "; ")), ErrInvalidPattern)
	}
	vertices := slices.Clone(b.vertices)
	sort.Slice(vertices, func(i, j int) bool { return vertices[i].id < vertices[j].id })
	index := make(map[VertexID]int, len(vertices))
	for i, v := range vertices {
		index[v.id] = i
	}
	edges := slices.Clone(b.edges)
	sort.Slice(edges, func(i, j int) bool { return edges[i].id < edges[j].id })
	return &Pattern{vertices: vertices, index: index, edges: edges}, nil
}

// MustBuild is Build for patterns assembled by the estimators themselves,
// where a structural error is a programming defect.
func (b *PatternBuilder) MustBuild() *Pattern {
	p, err := b.Build()
	precondition(err == nil, "graphcbo: building scratch pattern: %v", err)
	return p
}

// SingleVertexPattern returns the pattern holding only v.
func SingleVertexPattern(v PatternVertex) *Pattern {
	return NewPatternBuilder().AddVertex(v).MustBuild()
}

// SingleEdgePattern returns the two-vertex pattern made of e and its endpoints.
func SingleEdgePattern(e PatternEdge) *Pattern {
	return NewPatternBuilder().AddVertex(e.src).AddVertex(e.dst).AddEdge(e).MustBuild()
}

func joinTypes(ts []TypeID) string {
	parts := lo.Map(ts, func(t TypeID, _ int) string { return fmt.Sprintf("%d", t) })
	return strings.Join(parts, "|")
}
