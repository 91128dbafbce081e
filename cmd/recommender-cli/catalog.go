package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smarttravel/recommender/internal/recommend"
)

func newCatalogCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Build the in-memory catalog and print its statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			a, release, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer release()

			var snap *recommend.Snapshot
			err = ui.Spin("Building catalog", func() error {
				var err error
				snap, err = a.Catalog.Refresh(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("build catalog: %w", err)
			}

			total, err := a.Restaurants.Count(ctx, false)
			if err != nil {
				return fmt.Errorf("count restaurants: %w", err)
			}

			st := snap.Stats(top)
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), toCatalogReport(st, total))
			}

			ui.Section("Catalog")
			ui.KeyValue("Built at", st.BuiltAt.Format(time.RFC3339))
			ui.KeyValue("Active", st.Items)
			ui.KeyValue("Inactive", total-st.Items)
			ui.KeyValue("With image", st.WithImage)
			ui.KeyValue("With location", st.WithLocation)
			ui.KeyValue("Price levels", formatPriceLevels(st.PriceLevels))

			if len(st.TopCuisines) > 0 {
				ui.Section("Top cuisines")
				for _, c := range st.TopCuisines {
					ui.KeyValue(c.Cuisine, c.Count)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 5, "number of cuisines to list")
	return cmd
}

type catalogReport struct {
	BuiltAt      time.Time      `json:"built_at"`
	Active       int            `json:"active"`
	Inactive     int            `json:"inactive"`
	WithImage    int            `json:"with_image"`
	WithLocation int            `json:"with_location"`
	PriceLevels  map[string]int `json:"price_levels"`
	TopCuisines  []cuisineCount `json:"top_cuisines"`
}

type cuisineCount struct {
	Cuisine string `json:"cuisine"`
	Count   int    `json:"count"`
}

func toCatalogReport(st recommend.Stats, total int) catalogReport {
	r := catalogReport{
		BuiltAt:      st.BuiltAt,
		Active:       st.Items,
		Inactive:     total - st.Items,
		WithImage:    st.WithImage,
		WithLocation: st.WithLocation,
		PriceLevels:  make(map[string]int, len(st.PriceLevels)),
		TopCuisines:  make([]cuisineCount, 0, len(st.TopCuisines)),
	}
	for level, n := range st.PriceLevels {
		r.PriceLevels[strings.Repeat("$", level)] = n
	}
	for _, c := range st.TopCuisines {
		r.TopCuisines = append(r.TopCuisines, cuisineCount{Cuisine: c.Cuisine, Count: c.Count})
	}
	return r
}

func formatPriceLevels(levels map[int]int) string {
	keys := make([]int, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.Repeat("$", k), levels[k]))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}
