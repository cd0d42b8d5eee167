package graphcbo

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// JSON documents exchanged with front ends and the command line tool.
//
//	{
//	  "vertices": [{"id": 0, "types": [1]}, {"id": 1, "types": [1], "selectivity": 0.1}],
//	  "edges":    [{"id": 0, "src": 0, "dst": 1, "triples": [{"src": 1, "dst": 1, "edge": 7}]}]
//	}

type detailsDoc struct {
	Selectivity *float64    `json:"selectivity,omitempty"`
	Range       *CountRange `json:"range,omitempty"`
	ResultOpt   ResultOpt   `json:"result_opt,omitempty"`
	PathOpt     PathOpt     `json:"path_opt,omitempty"`
	Optional    bool        `json:"optional,omitempty"`
}

type vertexDoc struct {
	ID    VertexID `json:"id"`
	Types []TypeID `json:"types"`
	detailsDoc
}

type edgeDoc struct {
	ID      EdgeID           `json:"id"`
	Src     VertexID         `json:"src"`
	Dst     VertexID         `json:"dst"`
	Triples []EdgeTypeTriple `json:"triples"`
	Both    bool             `json:"both,omitempty"`
	detailsDoc
}

type patternDoc struct {
	Vertices []vertexDoc `json:"vertices"`
	Edges    []edgeDoc   `json:"edges,omitempty"`
}

func docFromDetails(d ElementDetails) detailsDoc {
	doc := detailsDoc{ResultOpt: d.resultOpt, PathOpt: d.pathOpt, Optional: d.optional}
	if d.HasPredicate() {
		s := d.Selectivity()
		doc.Selectivity = &s
	}
	if r, ok := d.CountRange(); ok {
		doc.Range = &r
	}
	return doc
}

func (doc detailsDoc) options() ([]DetailOption, error) {
	var opts []DetailOption
	if doc.Selectivity != nil {
		s := *doc.Selectivity
		if !(s > 0 && s <= 1) {
			return nil, errors.Newf("selectivity %v outside (0,1]", s)
		}
		opts = append(opts, WithSelectivity(s))
	}
	if doc.Range != nil {
		opts = append(opts, WithCountRange(doc.Range.Lower, doc.Range.Upper))
	}
	if doc.ResultOpt != "" {
		opts = append(opts, WithResultOpt(doc.ResultOpt))
	}
	if doc.PathOpt != "" {
		opts = append(opts, WithPathOpt(doc.PathOpt))
	}
	if doc.Optional {
		opts = append(opts, AsOptional())
	}
	return opts, nil
}

// MarshalJSON encodes the pattern as a vertices/edges document.
func (p *Pattern) MarshalJSON() ([]byte, error) {
	doc := patternDoc{
		Vertices: lo.Map(p.vertices, func(v PatternVertex, _ int) vertexDoc {
			return vertexDoc{ID: v.id, Types: v.Types(), detailsDoc: docFromDetails(v.details)}
		}),
		Edges: lo.Map(p.edges, func(e PatternEdge, _ int) edgeDoc {
			return edgeDoc{
				ID: e.id, Src: e.src.id, Dst: e.dst.id, Triples: e.Triples(), Both: e.both,
				detailsDoc: docFromDetails(e.details),
			}
		}),
	}
	return json.Marshal(doc)
}

// ParsePattern decodes a vertices/edges document. Invalid documents (empty
// type sets, dangling edge endpoints, bad selectivities) are reported as
// errors, never panics.
func ParsePattern(data []byte) (*Pattern, error) {
	var doc patternDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "graphcbo: decode pattern")
	}
	return doc.build()
}

func (doc patternDoc) build() (*Pattern, error) {
	b := NewPatternBuilder()
	vertices := make(map[VertexID]PatternVertex, len(doc.Vertices))
	for _, vd := range doc.Vertices {
		if len(vd.Types) == 0 {
			return nil, errors.Newf("graphcbo: vertex %d has no types", vd.ID)
		}
		opts, err := vd.options()
		if err != nil {
			return nil, errors.Wrapf(err, "graphcbo: vertex %d", vd.ID)
		}
		v := NewVertex(vd.ID, vd.Types, opts...)
		vertices[v.id] = v
		b.AddVertex(v)
	}
	for _, ed := range doc.Edges {
		if len(ed.Triples) == 0 {
			return nil, errors.Newf("graphcbo: edge %d has no triples", ed.ID)
		}
		src, sok := vertices[ed.Src]
		dst, dok := vertices[ed.Dst]
		if !sok || !dok {
			return nil, errors.Mark(errors.Newf("graphcbo: edge %d references unknown vertex", ed.ID), ErrInvalidPattern)
		}
		opts, err := ed.options()
		if err != nil {
			return nil, errors.Wrapf(err, "graphcbo: edge %d", ed.ID)
		}
		edgeOpts := []EdgeOption{WithEdgeDetails(opts...)}
		if ed.Both {
			edgeOpts = append(edgeOpts, Undirected())
		}
		b.AddEdge(NewEdge(ed.ID, src, dst, ed.Triples, edgeOpts...))
	}
	return b.Build()
}

// UnmarshalJSON lets patterns appear inside larger documents. It replaces
// the receiver's contents and is meant for freshly declared values only.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePattern(data)
	if err != nil {
		return err
	}
	*p = *parsed
	return nil
}
