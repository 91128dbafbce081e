package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/smarttravel/recommender/internal/storage"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

type rowOption func(*storage.RestaurantRow)

func newRow(id, name string, opts ...rowOption) storage.RestaurantRow {
	row := storage.RestaurantRow{
		ID:          id,
		Name:        name,
		PriceLevel:  intPtr(2),
		Rating:      floatPtr(4.0),
		ReviewCount: intPtr(10),
		Image:       id + ".jpg",
	}
	for _, opt := range opts {
		opt(&row)
	}
	return row
}

func withCuisine(c string) rowOption { return func(r *storage.RestaurantRow) { r.Cuisine = c } }
func withAddress(a string) rowOption { return func(r *storage.RestaurantRow) { r.Address = a } }
func withPrice(level int) rowOption  { return func(r *storage.RestaurantRow) { r.PriceLevel = intPtr(level) } }
func withNoImage() rowOption         { return func(r *storage.RestaurantRow) { r.Image = ""; r.Images = nil } }

func withImages(urls ...string) rowOption {
	return func(r *storage.RestaurantRow) { r.Image = ""; r.Images = urls }
}
func withPopularity(rating float64, reviews int) rowOption {
	return func(r *storage.RestaurantRow) {
		r.Rating = floatPtr(rating)
		r.ReviewCount = intPtr(reviews)
	}
}

// phoHaNoi is the reference restaurant used by the end-to-end scenarios.
func phoHaNoi() storage.RestaurantRow {
	return storage.RestaurantRow{
		ID:          "pho-ha-noi",
		Name:        "Phở Hà Nội",
		Cuisine:     "Phở & Bún",
		Rating:      floatPtr(4.8),
		ReviewCount: intPtr(234),
		PriceLevel:  intPtr(2),
		Image:       "x.jpg",
	}
}

func records(rows ...storage.RestaurantRow) []*RestaurantRecord {
	out := make([]*RestaurantRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewRecord(row))
	}
	return out
}

// numbered returns n rows named "<prefix> <i>" sharing the given options.
func numbered(n int, prefix string, opts ...rowOption) []storage.RestaurantRow {
	rows := make([]storage.RestaurantRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, newRow(fmt.Sprintf("%s-%d", prefix, i), fmt.Sprintf("%s %d", prefix, i), opts...))
	}
	return rows
}

// staticItems serves a fixed record list and counts reads.
type staticItems struct {
	items []*RestaurantRecord
	reads atomic.Int32
}

func (s *staticItems) Items(context.Context) []*RestaurantRecord {
	s.reads.Add(1)
	return s.items
}

// countingSource is a Source whose result and error can be swapped between calls.
type countingSource struct {
	mu    sync.Mutex
	rows  []storage.RestaurantRow
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *countingSource) ListActive(ctx context.Context) ([]storage.RestaurantRow, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]storage.RestaurantRow(nil), s.rows...), nil
}

func (s *countingSource) set(rows []storage.RestaurantRow, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.err = err
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
