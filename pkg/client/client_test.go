package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Recommend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/chat/recommend", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var req RecommendRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, RecommendRequest{Message: "phở", Limit: 2}, req)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"reply":"1. Phở Hà Nội","normalized_query":"pho",
			"restaurants":[{"id":"p1","name":"Phở Hà Nội","rating":4.8,"review_count":234,"price_level":2}]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/"})
	resp, err := c.Recommend(context.Background(), RecommendRequest{Message: "phở", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, "pho", resp.NormalizedQuery)
	require.Len(t, resp.Restaurants, 1)
	assert.Equal(t, 234, resp.Restaurants[0].ReviewCount)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"validation failed","detail":"limit failed max"}`))
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL}).Recommend(context.Background(), RecommendRequest{Message: "x", Limit: 99})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "validation failed", apiErr.Message)
	assert.Contains(t, err.Error(), "limit failed max")
}

func TestClient_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(Config{BaseURL: srv.URL, Retry: &RetryConfig{}}).Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"recommender"}`))
	}))
	defer srv.Close()

	resp, err := New(Config{BaseURL: srv.URL}).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", resp.Status)
}

func TestClient_RetriesThrottledCalls(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"message":"lẩu"}`, string(body), "body is replayed on retry")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"reply":"ok","restaurants":[]}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Retry: &RetryConfig{MaxRetries: 3, InitialBackoff: time.Millisecond}})
	resp, err := c.Recommend(context.Background(), RecommendRequest{Message: "lẩu"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Reply)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Retry: &RetryConfig{MaxRetries: 2, InitialBackoff: time.Millisecond}})
	_, err := c.Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, backoff(0, cfg))
	assert.Equal(t, 200*time.Millisecond, backoff(1, cfg))
	assert.Equal(t, 300*time.Millisecond, backoff(2, cfg))
	assert.Equal(t, 300*time.Millisecond, backoff(70, cfg))
}
