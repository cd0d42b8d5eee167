package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	graphcbo "github.com/mstrYoda/graphcbo"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.json|->",
		Short: "Build a catalog file from a JSON document of precomputed counts",
		Long: `Import writes the pattern counts and label-constraint corrections of a
JSON catalog document into a new bbolt catalog file, replacing any file that
already exists at --catalog. Counts are taken as given; nothing is sampled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.CatalogPath == "" {
				return errors.New("no catalog: pass --catalog or set [catalog] path")
			}
			data, err := readInput(args[0])
			if err != nil {
				return err
			}
			maxSize, entries, deltas, err := graphcbo.ParseCatalogDocument(data)
			if err != nil {
				return err
			}
			if err := graphcbo.ImportCatalog(config.CatalogPath, maxSize, entries, deltas); err != nil {
				return errors.Wrap(err, "import failed")
			}
			logger.Info("catalog imported", "path", config.CatalogPath, "entries", len(entries), "label_deltas", len(deltas))
			fmt.Fprintf(os.Stderr, "Imported %d counts, %d label deltas to %s\n", len(entries), len(deltas), config.CatalogPath)
			return nil
		},
	}
}
