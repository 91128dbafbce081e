package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/smarttravel/recommender/internal/metrics"
	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/storage"
)

// DefaultCatalogTTL is how long a catalog snapshot is served before rebuild.
const DefaultCatalogTTL = 300 * time.Second

// Source lists the active restaurants the catalog is built from.
type Source interface {
	ListActive(ctx context.Context) ([]storage.RestaurantRow, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]storage.RestaurantRow, error)

// ListActive calls f.
func (f SourceFunc) ListActive(ctx context.Context) ([]storage.RestaurantRow, error) {
	return f(ctx)
}

// Snapshot is an immutable catalog build.
type Snapshot struct {
	Items   []*RestaurantRecord
	BuiltAt time.Time
}

// CatalogConfig configures the catalog index.
type CatalogConfig struct {
	TTL         time.Duration
	LoadTimeout time.Duration
	Breaker     BreakerConfig
}

// BreakerConfig configures the circuit breaker around the source.
type BreakerConfig struct {
	Enabled          bool
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultCatalogConfig returns the production defaults.
func DefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		TTL:         DefaultCatalogTTL,
		LoadTimeout: 10 * time.Second,
		Breaker: BreakerConfig{
			Enabled:          true,
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
		},
	}
}

// Catalog serves time-bounded snapshots of the active restaurants. Readers
// never block on each other; a stale or missing snapshot triggers one
// rebuild shared by every caller that needs it.
type Catalog struct {
	source  Source
	config  CatalogConfig
	logger  *observability.Logger
	now     func() time.Time
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	breaker *gobreaker.CircuitBreaker[[]storage.RestaurantRow]
}

// CatalogOption customizes a Catalog.
type CatalogOption func(*Catalog)

// WithClock sets the time source.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *Catalog) { c.now = now }
}

// NewCatalog creates a catalog over source. Nothing is loaded until the
// first call to Items.
func NewCatalog(source Source, logger *observability.Logger, config CatalogConfig, opts ...CatalogOption) *Catalog {
	if config.TTL <= 0 {
		config.TTL = DefaultCatalogTTL
	}
	if logger == nil {
		logger = observability.Nop()
	}

	c := &Catalog{
		source: source,
		config: config,
		logger: logger.WithComponent("catalog"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if config.Breaker.Enabled {
		c.breaker = newSourceBreaker(config.Breaker, c.logger)
	}
	return c
}

func newSourceBreaker(cfg BreakerConfig, logger *observability.Logger) *gobreaker.CircuitBreaker[[]storage.RestaurantRow] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	metrics.SetBreakerState(int(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[[]storage.RestaurantRow](gobreaker.Settings{
		Name:        "catalog-source",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Catalog source breaker state change")
			metrics.SetBreakerState(int(to))
		},
	})
}

// Items returns the records of a fresh snapshot, rebuilding when needed.
func (c *Catalog) Items(ctx context.Context) []*RestaurantRecord {
	return c.Snapshot(ctx).Items
}

// Snapshot returns a snapshot no older than the TTL when the source is
// healthy. On source failure it returns the previous snapshot, or an empty
// one if nothing was ever built.
func (c *Catalog) Snapshot(ctx context.Context) *Snapshot {
	if snap := c.current.Load(); snap != nil && c.fresh(snap) {
		return snap
	}

	snap, err := c.rebuild(ctx)
	if err == nil {
		return snap
	}

	if prev := c.current.Load(); prev != nil {
		c.logger.Warn().Err(err).
			Time("built_at", prev.BuiltAt).
			Int("items", len(prev.Items)).
			Msg("Catalog rebuild failed, serving stale snapshot")
		return prev
	}

	c.logger.Error().Err(err).Msg("Catalog rebuild failed, no snapshot available")
	return &Snapshot{}
}

// Current returns the last built snapshot without triggering a rebuild.
func (c *Catalog) Current() *Snapshot {
	return c.current.Load()
}

// Refresh rebuilds the snapshot now, ignoring the TTL.
func (c *Catalog) Refresh(ctx context.Context) (*Snapshot, error) {
	return c.load(ctx)
}

func (c *Catalog) fresh(snap *Snapshot) bool {
	return c.now().Sub(snap.BuiltAt) < c.config.TTL
}

// rebuild collapses concurrent rebuilds into one load. Late arrivals
// re-check freshness so a build that just finished is reused.
func (c *Catalog) rebuild(ctx context.Context) (*Snapshot, error) {
	v, err, _ := c.group.Do("catalog", func() (interface{}, error) {
		if snap := c.current.Load(); snap != nil && c.fresh(snap) {
			return snap, nil
		}
		// The shared load must not die with the first caller's request.
		return c.load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (c *Catalog) load(ctx context.Context) (*Snapshot, error) {
	if c.config.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.LoadTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := c.fetch(ctx)
	if err != nil {
		metrics.RecordCatalogRebuild(0, time.Since(start), err)
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	items := make([]*RestaurantRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, NewRecord(row))
	}

	snap := &Snapshot{Items: items, BuiltAt: c.now()}
	c.current.Store(snap)

	metrics.RecordCatalogRebuild(len(items), time.Since(start), nil)
	c.logger.Info().
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Catalog rebuilt")
	return snap, nil
}

func (c *Catalog) fetch(ctx context.Context) ([]storage.RestaurantRow, error) {
	if c.breaker == nil {
		return c.source.ListActive(ctx)
	}
	rows, err := c.breaker.Execute(func() ([]storage.RestaurantRow, error) {
		return c.source.ListActive(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("catalog source unavailable: %w", err)
	}
	return rows, err
}

// Stats summarizes a snapshot.
type Stats struct {
	Items        int
	WithImage    int
	WithLocation int
	BuiltAt      time.Time
	PriceLevels  map[int]int
	TopCuisines  []CuisineCount
}

// CuisineCount is the number of records sharing a cuisine label.
type CuisineCount struct {
	Cuisine string
	Count   int
}

// Stats computes summary counts, listing at most topN cuisines.
func (s *Snapshot) Stats(topN int) Stats {
	st := Stats{
		Items:       len(s.Items),
		BuiltAt:     s.BuiltAt,
		PriceLevels: make(map[int]int),
	}

	cuisines := make(map[string]int)
	for _, rec := range s.Items {
		if rec.HasImage() {
			st.WithImage++
		}
		if rec.Latitude != nil && rec.Longitude != nil {
			st.WithLocation++
		}
		st.PriceLevels[rec.PriceLevel]++
		if rec.Cuisine != "" {
			cuisines[rec.Cuisine]++
		}
	}

	for cuisine, n := range cuisines {
		st.TopCuisines = append(st.TopCuisines, CuisineCount{Cuisine: cuisine, Count: n})
	}
	sort.Slice(st.TopCuisines, func(i, j int) bool {
		if st.TopCuisines[i].Count != st.TopCuisines[j].Count {
			return st.TopCuisines[i].Count > st.TopCuisines[j].Count
		}
		return st.TopCuisines[i].Cuisine < st.TopCuisines[j].Cuisine
	})
	if topN >= 0 && len(st.TopCuisines) > topN {
		st.TopCuisines = st.TopCuisines[:topN]
	}
	return st
}
