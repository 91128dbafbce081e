package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dump = `[
  {
    "name": "Phở Hà Nội",
    "address": "12 Lê Lợi, Quận 1",
    "food_tags": ["phở bò"],
    "rating": 4.8,
    "rating_count": 234,
    "price_level": "PRICE_LEVEL_MODERATE",
    "hosted_images": ["x.jpg"],
    "coordinates": {"lat": 10.776, "lon": 106.7},
    "place_id": "ChIJpho"
  },
  {
    "name": "Cơm Tấm Cali",
    "address": "Quận 3",
    "food_tags": ["cơm tấm"],
    "rating": "4.2",
    "images": ["c.jpg"],
    "place_id": "ChIJcom"
  },
  {"name": "", "place_id": "ChIJempty"}
]`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_URL", "sqlite:"+filepath.Join(dir, "recommender.db"))
	t.Setenv("LOG_LEVEL", "error")

	path := filepath.Join(dir, "places.json")
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o600))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	require.NoError(t, cmd.Execute(), "args %v", args)
	return out.String()
}

func TestCLI_ImportThenRecommend(t *testing.T) {
	path := setupEnv(t)

	var summary importSummary
	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "import", path)), &summary))
	assert.Equal(t, 3, summary.Places)
	assert.Equal(t, 2, summary.Upserted)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 2, summary.Active)

	// Re-importing updates in place.
	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "import", path)), &summary))
	assert.Equal(t, 2, summary.Active)

	var resp struct {
		Reply           string `json:"reply"`
		NormalizedQuery string `json:"normalized_query"`
		Restaurants     []struct {
			Name          string `json:"name"`
			GoogleMapsURL string `json:"google_maps_url"`
		} `json:"restaurants"`
	}
	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "recommend", "--limit", "1", "tìm", "quán", "phở")), &resp))
	require.Len(t, resp.Restaurants, 1)
	assert.Equal(t, "Phở Hà Nội", resp.Restaurants[0].Name)
	assert.Contains(t, resp.Restaurants[0].GoogleMapsURL, "query_place_id=ChIJpho")
	assert.Equal(t, "tim quan pho", resp.NormalizedQuery)
}

func TestCLI_ImportPrune(t *testing.T) {
	path := setupEnv(t)
	run(t, "--json", "import", path)

	smaller := filepath.Join(filepath.Dir(path), "smaller.json")
	require.NoError(t, os.WriteFile(smaller, []byte(`[
  {"name": "Phở Hà Nội", "hosted_images": ["x.jpg"], "place_id": "ChIJpho"}
]`), 0o600))

	var summary importSummary
	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "import", smaller)), &summary))
	assert.Zero(t, summary.Deactivated)
	assert.Equal(t, 2, summary.Active, "without --prune missing rows stay active")

	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "import", "--prune", smaller)), &summary))
	assert.Equal(t, 1, summary.Deactivated)
	assert.Equal(t, 1, summary.Active)
}

func TestCLI_DryRun(t *testing.T) {
	path := setupEnv(t)

	var summary importSummary
	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "import", "--dry-run", path)), &summary))
	assert.True(t, summary.DryRun)
	assert.Equal(t, 2, summary.Upserted)

	var report catalogReport
	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "catalog")), &report))
	assert.Zero(t, report.Active, "dry run writes nothing")
}

func TestCLI_Catalog(t *testing.T) {
	path := setupEnv(t)
	run(t, "--json", "import", path)

	var report catalogReport
	require.NoError(t, json.Unmarshal([]byte(run(t, "--json", "catalog", "--top", "1")), &report))
	assert.Equal(t, 2, report.Active)
	assert.Equal(t, 2, report.WithImage)
	assert.Equal(t, 1, report.WithLocation)
	assert.Equal(t, map[string]int{"$$": 2}, report.PriceLevels)
	assert.Len(t, report.TopCuisines, 1)
}

func TestCLI_TextOutput(t *testing.T) {
	path := setupEnv(t)
	run(t, "--no-color", "import", path)

	out := run(t, "--no-color", "recommend", "com tam")
	assert.Contains(t, out, "Cơm Tấm Cali")
	assert.Contains(t, out, "4.2⭐")

	out = run(t, "--no-color", "recommend", "?!")
	assert.Contains(t, out, "Mình chưa tìm thấy quán phù hợp")
}

func TestFormatPriceLevels(t *testing.T) {
	assert.Equal(t, "$=1 $$=3 $$$$=2", formatPriceLevels(map[int]int{4: 2, 1: 1, 2: 3}))
	assert.Equal(t, "-", formatPriceLevels(nil))
}

func TestCLI_RecommendAgainstServer(t *testing.T) {
	setupEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reply":"1. Bún Chả","normalized_query":"bun cha",
			"restaurants":[{"id":"b1","name":"Bún Chả Hương Liên","rating":4.6,"review_count":90,"price_level":1}]}`))
	}))
	defer srv.Close()

	out := run(t, "--no-color", "recommend", "--server", srv.URL, "bún", "chả")
	assert.Contains(t, out, "Bún Chả Hương Liên")
	assert.Contains(t, out, "4.6⭐ (90)")
	assert.Contains(t, out, "bun cha")
}
