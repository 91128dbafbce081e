// Package main provides the recommender CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/smarttravel/recommender/internal/app"
	"github.com/smarttravel/recommender/internal/config"
	"github.com/smarttravel/recommender/internal/observability"
)

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration, logger and output, set by the root command.
	cfg    *config.Config
	logger *observability.Logger
	ui     *UI
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recommender-cli",
		Short: "Restaurant recommender CLI for queries, imports and catalog inspection",
		Long: `recommender-cli answers free-text Vietnamese restaurant questions against
the configured store, imports scraped restaurant dumps and reports on the
in-memory catalog.

All commands support --json for automation.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logFormat := "console"
			if outputJSON {
				logFormat = "json"
			}
			logger = observability.NewLogger(observability.LogConfig{
				Level:       level,
				Format:      logFormat,
				Output:      cmd.ErrOrStderr(),
				ServiceName: "recommender-cli",
			})

			ui = NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), outputJSON, noColor)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newRecommendCmd())
	root.AddCommand(newImportCmd())
	root.AddCommand(newCatalogCmd())

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp wires the services for a command and returns a release func.
func openApp(ctx context.Context) (*app.App, func(), error) {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close resources")
		}
	}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
