package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/smarttravel/recommender/internal/importer"
)

func newImportCmd() *cobra.Command {
	var (
		dryRun      bool
		prune       bool
		maxFailures int
	)

	cmd := &cobra.Command{
		Use:   "import <places.json>",
		Short: "Import a scraped restaurant dump into the store",
		Long: `Import reads a JSON array of scraped places and upserts them as active
restaurants. Restaurant ids are derived from the place id, so running the
same dump twice updates rows instead of duplicating them. With --prune,
active restaurants missing from the dump are deactivated.

Cached replies are purged from the configured cache afterwards. With the
redis cache driver this reaches a running API; with the memory driver a
running API keeps its cached replies and catalog snapshot until they expire
(cache.ttl and catalog.ttl).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open dump: %w", err)
			}
			defer f.Close()

			places, err := importer.ReadPlaces(f)
			if err != nil {
				return err
			}

			if dryRun {
				return previewImport(cmd, args[0], places)
			}

			a, release, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer release()

			im := importer.New(a.Restaurants, logger)
			im.MaxFailures = maxFailures
			if bar := ui.NewProgressBar(len(places), "Importing"); bar != nil {
				im.WithProgress(bar)
				defer bar.Finish()
			}

			res, err := im.Import(ctx, places)
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}

			deactivated := 0
			if prune {
				if deactivated, err = im.Prune(ctx, a.Restaurants, places); err != nil {
					return err
				}
			}

			if err := a.Responses.Purge(ctx); err != nil {
				logger.Warn().Err(err).Msg("Failed to purge cached replies")
			}

			active, err := a.Restaurants.Count(ctx, true)
			if err != nil {
				return fmt.Errorf("count restaurants: %w", err)
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), importSummary{
					File:        args[0],
					Places:      len(places),
					Upserted:    res.Upserted,
					Skipped:     res.Skipped,
					Failed:      res.Failed,
					Deactivated: deactivated,
					Active:      active,
				})
			}

			ui.Success("Imported %d of %d places from %s", res.Upserted, len(places), args[0])
			if res.Skipped > 0 {
				ui.Warning("Skipped %d places without a name or marked as failed", res.Skipped)
			}
			if res.Failed > 0 {
				ui.Warning("%d places failed to save, rerun with --verbose for details", res.Failed)
			}
			if deactivated > 0 {
				ui.Info("Deactivated %d restaurants missing from the dump", deactivated)
			}
			ui.KeyValue("Active total", active)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and convert without writing")
	cmd.Flags().BoolVar(&prune, "prune", false, "deactivate active restaurants missing from the dump")
	cmd.Flags().IntVar(&maxFailures, "max-failures", 0, "abort after this many failed rows (0 = never)")
	return cmd
}

type importSummary struct {
	File        string `json:"file"`
	Places      int    `json:"places"`
	Upserted    int    `json:"upserted"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Deactivated int    `json:"deactivated"`
	Active      int    `json:"active"`
	DryRun      bool   `json:"dry_run,omitempty"`
}

func previewImport(cmd *cobra.Command, file string, places []importer.Place) error {
	summary := importSummary{File: file, Places: len(places), DryRun: true}
	for _, p := range places {
		rest, ok := importer.ToRestaurant(p)
		if !ok {
			summary.Skipped++
			continue
		}
		summary.Upserted++
		if verbose {
			ui.KeyValue(rest.Name, rest.Description)
		}
	}

	if outputJSON {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	ui.Info("Dry run: %d places would be imported, %d skipped", summary.Upserted, summary.Skipped)
	return nil
}
