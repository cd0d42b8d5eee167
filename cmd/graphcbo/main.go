// Command graphcbo estimates pattern cardinalities and extend-step costs
// against a statistics catalog file.
//
//	graphcbo import stats.json --catalog stats.db
//	graphcbo estimate pattern.json --catalog stats.db
//	graphcbo cost step.json --catalog stats.db
//	graphcbo weight step.json --catalog stats.db
//	graphcbo explain step.json --catalog stats.db
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	graphcbo "github.com/mstrYoda/graphcbo"
)

var (
	flagConfig   string
	flagCatalog  string
	flagLogLevel string

	logger *slog.Logger
	config graphcbo.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "graphcbo",
		Short: "Cardinality and extend-cost estimation for graph patterns",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(flagLogLevel)); err != nil {
				return errors.Wrapf(err, "invalid --log-level %q", flagLogLevel)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			config = graphcbo.Config{Options: graphcbo.DefaultOptions()}
			if flagConfig != "" {
				cfg, err := graphcbo.LoadConfig(flagConfig)
				if err != nil {
					return err
				}
				config = cfg
			}
			if flagCatalog != "" {
				config.CatalogPath = flagCatalog
			}
			config.Options.Logger = logger
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Catalog file (overrides [catalog] path)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level: debug|info|warn|error")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newEstimateCmd())
	rootCmd.AddCommand(newCostCmd())
	rootCmd.AddCommand(newWeightCmd())
	rootCmd.AddCommand(newExplainCmd())
	return rootCmd
}

// openEstimator opens the configured catalog read-only. The returned close
// function releases the catalog file.
func openEstimator() (*graphcbo.Estimator, func(), error) {
	if config.CatalogPath == "" {
		return nil, nil, errors.New("no catalog: pass --catalog or set [catalog] path")
	}
	cat, err := graphcbo.OpenBoltCatalog(config.CatalogPath, logger)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := cat.Close(); err != nil {
			logger.Warn("close catalog", "path", config.CatalogPath, "error", err.Error())
		}
	}
	return graphcbo.New(cat, config.Options), closeFn, nil
}

// readInput reads the named file, or stdin for "-".
func readInput(name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "reading stdin")
	}
	data, err := os.ReadFile(name)
	return data, errors.Wrapf(err, "reading %s", name)
}
