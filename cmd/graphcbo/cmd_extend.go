package main

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	graphcbo "github.com/mstrYoda/graphcbo"
)

// loadCandidate reads an extend request document and opens the estimator.
func loadCandidate(name string) (graphcbo.ExtendCandidate, *graphcbo.Estimator, func(), error) {
	data, err := readInput(name)
	if err != nil {
		return graphcbo.ExtendCandidate{}, nil, nil, err
	}
	req, err := graphcbo.ParseExtendRequest(data)
	if err != nil {
		return graphcbo.ExtendCandidate{}, nil, nil, err
	}
	c, err := req.Candidate()
	if err != nil {
		return graphcbo.ExtendCandidate{}, nil, nil, err
	}
	est, closeFn, err := openEstimator()
	if err != nil {
		return graphcbo.ExtendCandidate{}, nil, nil, err
	}
	return c, est, closeFn, nil
}

func newCostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cost <step.json|->",
		Short: "Detailed cost of a single-edge extend step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, est, closeFn, err := loadCandidate(args[0])
			if err != nil {
				return err
			}
			defer closeFn()
			if len(c.Edges) != 1 {
				return errors.Newf("cost takes exactly one edge, got %d; use weight for intersect steps", len(c.Edges))
			}

			var cost graphcbo.DetailedExpandCost
			err = est.Guard(func() error {
				var err error
				cost, err = est.Extend().Estimate(c.Src, c.Edges[0], c.Target)
				return err
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, cost)
		},
	}
}

type weightOutput struct {
	Order  []graphcbo.EdgeID `json:"order"`
	Weight float64           `json:"weight"`
}

func newWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight <step.json|->",
		Short: "Edge application order and total weight of an extend step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, est, closeFn, err := loadCandidate(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			var out weightOutput
			err = est.Guard(func() error {
				order := est.Weights().Order(c.Edges, c.Target)
				w, err := est.Weights().Weight(c.Edges, c.Target)
				if err != nil {
					return err
				}
				out = weightOutput{
					Order:  lo.Map(order, func(e graphcbo.PatternEdge, _ int) graphcbo.EdgeID { return e.ID() }),
					Weight: w,
				}
				return nil
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}

func newExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <step.json|->",
		Short: "Render the operator tree of an extend step with estimated rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, est, closeFn, err := loadCandidate(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			var plan *graphcbo.ExtendPlan
			err = est.Guard(func() error {
				var err error
				plan, err = est.Explain(c.Src, c.Edges, c.Target)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), plan.String())
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling output")
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
