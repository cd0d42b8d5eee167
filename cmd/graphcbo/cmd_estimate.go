package main

import (
	"github.com/spf13/cobra"

	graphcbo "github.com/mstrYoda/graphcbo"
)

type estimateOutput struct {
	Pattern string  `json:"pattern"`
	Count   float64 `json:"count"`
	Known   bool    `json:"known"`
}

func newEstimateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <pattern.json|->",
		Short: "Estimate the row count of a pattern",
		Long: `Estimate prints the estimated cardinality of a pattern. "known" is false
when the pattern is larger than the catalog bound and is not a star, in which
case no estimate exists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			p, err := graphcbo.ParsePattern(data)
			if err != nil {
				return err
			}
			est, closeFn, err := openEstimator()
			if err != nil {
				return err
			}
			defer closeFn()

			var out estimateOutput
			err = est.Guard(func() error {
				count, ok := est.Counts().EstimatePattern(p)
				out = estimateOutput{Pattern: p.String(), Count: count, Known: ok}
				return nil
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
}
