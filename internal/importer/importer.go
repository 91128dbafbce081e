package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/smarttravel/recommender/internal/metrics"
	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/storage"
)

// Writer persists restaurants.
type Writer interface {
	Upsert(ctx context.Context, rest *storage.Restaurant) error
}

// Pruner lists and deactivates stored restaurants.
type Pruner interface {
	ListActive(ctx context.Context) ([]storage.RestaurantRow, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// Progress receives one tick per processed place.
type Progress interface {
	Add(n int) error
}

// Result summarizes an import run.
type Result struct {
	Upserted int
	Skipped  int
	Failed   int
}

// Importer writes places to the store.
type Importer struct {
	writer   Writer
	logger   *observability.Logger
	progress Progress
	// MaxFailures aborts the run once exceeded. Zero means no limit.
	MaxFailures int
}

// New creates an importer.
func New(writer Writer, logger *observability.Logger) *Importer {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Importer{
		writer: writer,
		logger: logger.WithComponent("importer"),
	}
}

// WithProgress reports progress to p.
func (im *Importer) WithProgress(p Progress) *Importer {
	im.progress = p
	return im
}

// Import upserts every usable place. A failing row is logged and counted;
// the run stops only on context cancellation or when MaxFailures is exceeded.
func (im *Importer) Import(ctx context.Context, places []Place) (Result, error) {
	var res Result

	for i, p := range places {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("import canceled after %d places: %w", i, err)
		}

		rest, ok := ToRestaurant(p)
		switch {
		case !ok:
			res.Skipped++
			metrics.RecordImport("skipped")
		default:
			if err := im.writer.Upsert(ctx, rest); err != nil {
				res.Failed++
				metrics.RecordImport("failed")
				im.logger.Warn().Err(err).Str("name", rest.Name).Int("index", i).Msg("Failed to import restaurant")
				if im.MaxFailures > 0 && res.Failed > im.MaxFailures {
					return res, fmt.Errorf("too many failures (%d): %w", res.Failed, err)
				}
			} else {
				res.Upserted++
				metrics.RecordImport("upserted")
			}
		}

		if im.progress != nil {
			_ = im.progress.Add(1)
		}
	}

	im.logger.Info().
		Int("upserted", res.Upserted).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Import finished")
	return res, nil
}

// Prune deactivates every active restaurant that places no longer lists,
// so the dump becomes the whole served catalog. Rows are kept, not deleted.
func (im *Importer) Prune(ctx context.Context, pruner Pruner, places []Place) (int, error) {
	keep := make(map[string]struct{}, len(places))
	for _, p := range places {
		if rest, ok := ToRestaurant(p); ok {
			keep[rest.ID] = struct{}{}
		}
	}
	if len(keep) == 0 {
		return 0, errors.New("refusing to prune: dump has no usable places")
	}

	active, err := pruner.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}

	deactivated := 0
	for _, row := range active {
		if _, ok := keep[row.ID]; ok {
			continue
		}
		if err := pruner.SetActive(ctx, row.ID, false); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return deactivated, fmt.Errorf("prune %s: %w", row.ID, err)
		}
		deactivated++
		im.logger.Debug().Str("id", row.ID).Str("name", row.Name).Msg("Deactivated restaurant missing from dump")
	}

	im.logger.Info().Int("deactivated", deactivated).Msg("Prune finished")
	return deactivated, nil
}
