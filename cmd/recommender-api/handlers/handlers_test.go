package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/recommend"
)

type stubEngine struct {
	message string
	limit   int
}

func (s *stubEngine) Recommend(_ context.Context, message string, limit int) *recommend.Response {
	s.message, s.limit = message, limit
	if strings.TrimSpace(message) == "" {
		return &recommend.Response{Reply: recommend.NoResultsReply, Restaurants: []recommend.ResultItem{}}
	}
	return &recommend.Response{
		Reply:           "1. Phở Hà Nội",
		Restaurants:     []recommend.ResultItem{{ID: "pho-ha-noi", Name: "Phở Hà Nội", PriceLevel: 2}},
		NormalizedQuery: "pho",
	}
}

func postRecommend(t *testing.T, h *RecommendHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/recommend", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Recommend(rec, req)
	return rec
}

func TestRecommend_OK(t *testing.T) {
	engine := &stubEngine{}
	h := NewRecommendHandler(observability.Nop(), engine, 6, 12)

	rec := postRecommend(t, h, `{"message": "phở", "limit": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "phở", engine.message)
	assert.Equal(t, 3, engine.limit)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1. Phở Hà Nội", body["reply"])
	assert.Equal(t, "pho", body["normalized_query"])
	restaurants, ok := body["restaurants"].([]interface{})
	require.True(t, ok)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "pho-ha-noi", restaurants[0].(map[string]interface{})["id"])
}

func TestRecommend_DefaultLimit(t *testing.T) {
	engine := &stubEngine{}
	h := NewRecommendHandler(observability.Nop(), engine, 0, 0)

	rec := postRecommend(t, h, `{"message": "bún"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, engine.limit)
}

func TestRecommend_ConfiguredMaxLimit(t *testing.T) {
	engine := &stubEngine{}
	h := NewRecommendHandler(observability.Nop(), engine, 6, 3)

	rec := postRecommend(t, h, `{"message": "phở", "limit": 4}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit failed max (3)")
	assert.Empty(t, engine.message, "engine not called")

	rec = postRecommend(t, h, `{"message": "phở", "limit": 3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, engine.limit)

	rec = postRecommend(t, h, `{"message": "phở"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, engine.limit, "default limit capped by max")
}

func TestRecommend_EmptyMessageIsNoResults(t *testing.T) {
	h := NewRecommendHandler(observability.Nop(), &stubEngine{}, 6, 12)

	rec := postRecommend(t, h, `{"message": ""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"restaurants":[]`)
}

func TestRecommend_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"malformed json", `{"message": `, http.StatusBadRequest, ""},
		{"wrong type", `{"message": 5}`, http.StatusBadRequest, ""},
		{"limit too high", `{"message": "phở", "limit": 13}`, http.StatusUnprocessableEntity, "limit failed max"},
		{"negative limit", `{"message": "phở", "limit": -1}`, http.StatusUnprocessableEntity, "limit failed min"},
		{"message too long", `{"message": "` + strings.Repeat("a", 1001) + `"}`, http.StatusUnprocessableEntity, "message failed max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewRecommendHandler(observability.Nop(), &stubEngine{}, 6, 12)
			rec := postRecommend(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			if tt.detail != "" {
				assert.Contains(t, body["detail"], tt.detail)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(observability.Nop(), "recommender", nil, nil)
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"recommender"}`, rec.Body.String())
}

func TestReady(t *testing.T) {
	builtAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	snap := &recommend.Snapshot{Items: make([]*recommend.RestaurantRecord, 3), BuiltAt: builtAt}

	t.Run("ready", func(t *testing.T) {
		h := NewHealthHandler(observability.Nop(), "recommender",
			func(context.Context) error { return nil },
			func() *recommend.Snapshot { return snap })
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready","catalog_items":3,"catalog_built_at":"2026-03-01T08:00:00Z"}`, rec.Body.String())
	})

	t.Run("store down", func(t *testing.T) {
		h := NewHealthHandler(observability.Nop(), "recommender",
			func(context.Context) error { return errors.New("database is locked") },
			func() *recommend.Snapshot { return nil })
		rec := httptest.NewRecorder()
		h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "database is locked")
	})
}
