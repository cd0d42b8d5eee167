package graphcbo

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ---------------------------------------------------------------------------
// Extend plan: tree of physical operators for one extend step, annotated
// with estimated rows. Returned by Estimator.Explain.
// ---------------------------------------------------------------------------

// PlanOperator identifies the type of a plan node.
type PlanOperator string

const (
	OpSource    PlanOperator = "Source"
	OpExpand    PlanOperator = "Expand"
	OpFilter    PlanOperator = "Filter"
	OpGetV      PlanOperator = "GetV"
	OpIntersect PlanOperator = "Intersect"
)

// PlanNode is a single operator in the plan tree.
type PlanNode struct {
	Operator PlanOperator // operator type
	Details  string       // human-readable detail (e.g. "(1)-[2:7]->(3)")
	EstRows  float64      // estimated rows produced by this operator
	Children []*PlanNode  // child operators (input sources)
}

// ExtendPlan is the explained extend step.
type ExtendPlan struct {
	Root   *PlanNode
	Weight float64 // total weight of the step
}

// String returns a human-readable multi-line representation of the plan.
func (ep *ExtendPlan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "EXPLAIN (weight=%.2f):\n", ep.Weight)
	fmt.Fprintln(&sb, ep.Root.label())
	writeChildren(&sb, ep.Root, " ")
	return sb.String()
}

// label renders one operator without tree decoration.
func (n *PlanNode) label() string {
	if n.Details == "" {
		return fmt.Sprintf("%s [est. rows=%.2f]", n.Operator, n.EstRows)
	}
	return fmt.Sprintf("%s (%s) [est. rows=%.2f]", n.Operator, n.Details, n.EstRows)
}

// writeChildren writes the subtrees below n, one line per node, each line
// starting with indent.
func writeChildren(sb *strings.Builder, n *PlanNode, indent string) {
	for i, child := range n.Children {
		branch, rail := "├── ", "│   "
		if i == len(n.Children)-1 {
			branch, rail = "└── ", "    "
		}
		fmt.Fprintf(sb, "%s%s%s\n", indent, branch, child.label())
		writeChildren(sb, child, indent+rail)
	}
}

// Explain builds the operator tree for reaching target from src through
// edges. A single edge renders as GetV/Filter over Expand/Filter; several
// edges render as an Intersect of one expand branch per edge in application
// order.
func (e *Estimator) Explain(src *Pattern, edges []PatternEdge, target PatternVertex) (*ExtendPlan, error) {
	weight, err := e.weights.Weight(edges, target)
	if err != nil {
		return nil, err
	}

	source := &PlanNode{Operator: OpSource, Details: "start", EstRows: 1}
	if src != nil {
		rows, ok := e.counts.EstimatePattern(src)
		if !ok {
			return nil, errors.Wrapf(ErrCostUnavailable, "source pattern %s", src)
		}
		source = &PlanNode{Operator: OpSource, Details: src.String(), EstRows: rows}
	}

	if len(edges) == 1 {
		branch, err := e.explainBranch(src, source, edges[0], target)
		if err != nil {
			return nil, err
		}
		return &ExtendPlan{Root: branch, Weight: weight}, nil
	}

	root := &PlanNode{Operator: OpIntersect, Details: target.String(), EstRows: weight}
	for _, edge := range e.weights.Order(edges, target) {
		branch, err := e.explainBranch(src, source, edge, target)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, branch)
	}
	return &ExtendPlan{Root: root, Weight: weight}, nil
}

func (e *Estimator) explainBranch(src *Pattern, source *PlanNode, edge PatternEdge, target PatternVertex) (*PlanNode, error) {
	// Branches of an intersect extend a fresh match when src does not hold
	// the extend-from vertex.
	from := edge.Other(target.id)
	if src != nil {
		if _, ok := src.Vertex(from.id); !ok {
			src = nil
		}
	}
	cost, err := e.extend.Estimate(src, edge, target)
	if err != nil {
		return nil, err
	}

	top := &PlanNode{Operator: OpExpand, Details: edge.String(), EstRows: cost.ExpandRows, Children: []*PlanNode{source}}
	if edge.Details().HasPredicate() {
		top = &PlanNode{
			Operator: OpFilter,
			Details:  fmt.Sprintf("edge %d %s", edge.ID(), edge.Details()),
			EstRows:  cost.ExpandFilteringRows,
			Children: []*PlanNode{top},
		}
	}
	top = &PlanNode{Operator: OpGetV, Details: target.String(), EstRows: cost.GetVRows, Children: []*PlanNode{top}}
	if target.Details().HasPredicate() {
		top = &PlanNode{
			Operator: OpFilter,
			Details:  fmt.Sprintf("vertex %d %s", target.ID(), target.Details()),
			EstRows:  cost.GetVFilteringRows,
			Children: []*PlanNode{top},
		}
	}
	return top, nil
}
