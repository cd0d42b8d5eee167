package graphcbo

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ExtendRequest describes one extend step against a whole query pattern:
// Target is reached through the Edges listed by id, and the matched source
// pattern is what remains of Pattern once those edges (and Target, when no
// other edge touches it) are removed. Fresh drops the source pattern so the
// step is priced as the start of a new match.
type ExtendRequest struct {
	Pattern *Pattern `json:"pattern"`
	Target  VertexID `json:"target"`
	Edges   []EdgeID `json:"edges"`
	Fresh   bool     `json:"fresh,omitempty"`
}

// ParseExtendRequest decodes an ExtendRequest document.
func ParseExtendRequest(data []byte) (ExtendRequest, error) {
	var req ExtendRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ExtendRequest{}, errors.Wrap(err, "graphcbo: decode extend request")
	}
	if req.Pattern == nil {
		return ExtendRequest{}, errors.New("graphcbo: extend request has no pattern")
	}
	return req, nil
}

// Candidate resolves the request into the source pattern, edges and target.
func (r ExtendRequest) Candidate() (ExtendCandidate, error) {
	if r.Pattern == nil {
		return ExtendCandidate{}, errors.New("graphcbo: extend request has no pattern")
	}
	target, ok := r.Pattern.Vertex(r.Target)
	if !ok {
		return ExtendCandidate{}, errors.Newf("graphcbo: target vertex %d not in pattern", r.Target)
	}
	if len(r.Edges) == 0 {
		return ExtendCandidate{}, errors.Newf("graphcbo: no edges reach target vertex %d", r.Target)
	}

	wanted := lo.Associate(r.Edges, func(id EdgeID) (EdgeID, struct{}) { return id, struct{}{} })
	edges := lo.Filter(r.Pattern.edges, func(e PatternEdge, _ int) bool {
		_, ok := wanted[e.id]
		return ok
	})
	if len(edges) != len(wanted) {
		return ExtendCandidate{}, errors.Newf("graphcbo: extend request names edges %v not all in pattern", r.Edges)
	}
	for _, e := range edges {
		if !e.Touches(target.id) {
			return ExtendCandidate{}, errors.Newf("graphcbo: edge %d does not reach target vertex %d", e.id, target.id)
		}
	}

	c := ExtendCandidate{Edges: edges, Target: target}
	if !r.Fresh {
		c.Src = r.Pattern.without(wanted, target.id)
	}
	return c, nil
}

// without returns p minus the given edges, also dropping vertex drop when the
// remaining edges no longer touch it. It returns nil when nothing remains.
func (p *Pattern) without(edges map[EdgeID]struct{}, drop VertexID) *Pattern {
	b := NewPatternBuilder()
	keepDrop := false
	for _, e := range p.edges {
		if _, gone := edges[e.id]; !gone && e.Touches(drop) {
			keepDrop = true
		}
	}
	n := 0
	for _, v := range p.vertices {
		if v.id == drop && !keepDrop {
			continue
		}
		b.AddVertex(v)
		n++
	}
	if n == 0 {
		return nil
	}
	for _, e := range p.edges {
		if _, gone := edges[e.id]; !gone {
			b.AddEdge(e)
		}
	}
	return b.MustBuild()
}

// CatalogDocument is the JSON import format of a statistics catalog file.
//
//	{
//	  "max_pattern_size": 3,
//	  "entries": [{"pattern": {...}, "count": 1000}],
//	  "label_deltas": [{"pattern": {...one edge...}, "target": 1, "delta": 12}]
//	}
type CatalogDocument struct {
	MaxPatternSize int                 `json:"max_pattern_size"`
	Entries        []catalogEntryDoc   `json:"entries"`
	LabelDeltas    []labelDeltaDocItem `json:"label_deltas,omitempty"`
}

type catalogEntryDoc struct {
	Pattern *Pattern `json:"pattern"`
	Count   float64  `json:"count"`
}

type labelDeltaDocItem struct {
	Pattern *Pattern `json:"pattern"`
	Target  VertexID `json:"target"`
	Delta   float64  `json:"delta"`
}

// ParseCatalogDocument decodes a catalog document into import entries.
func ParseCatalogDocument(data []byte) (int, []CatalogEntry, []LabelDeltaEntry, error) {
	var doc CatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, nil, nil, errors.Wrap(err, "graphcbo: decode catalog document")
	}
	if doc.MaxPatternSize <= 0 {
		return 0, nil, nil, errors.Newf("graphcbo: max_pattern_size must be positive, got %d", doc.MaxPatternSize)
	}

	entries := make([]CatalogEntry, 0, len(doc.Entries))
	for i, e := range doc.Entries {
		if e.Pattern == nil {
			return 0, nil, nil, errors.Newf("graphcbo: catalog entry %d has no pattern", i)
		}
		if e.Pattern.VertexCount() > doc.MaxPatternSize {
			return 0, nil, nil, errors.Newf("graphcbo: catalog entry %d has %d vertices, above max_pattern_size %d",
				i, e.Pattern.VertexCount(), doc.MaxPatternSize)
		}
		entries = append(entries, CatalogEntry{Pattern: e.Pattern, Count: e.Count})
	}

	deltas := make([]LabelDeltaEntry, 0, len(doc.LabelDeltas))
	for i, d := range doc.LabelDeltas {
		if d.Pattern == nil || d.Pattern.EdgeCount() != 1 {
			return 0, nil, nil, errors.Newf("graphcbo: label delta %d must hold a single-edge pattern", i)
		}
		edge := d.Pattern.edges[0]
		target, ok := d.Pattern.Vertex(d.Target)
		if !ok || !edge.Touches(target.id) {
			return 0, nil, nil, errors.Newf("graphcbo: label delta %d target %d is not an endpoint", i, d.Target)
		}
		deltas = append(deltas, LabelDeltaEntry{Edge: edge, Target: target, Delta: d.Delta})
	}
	return doc.MaxPatternSize, entries, deltas, nil
}
