package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/recommend"
)

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	logger  *observability.Logger
	service string
	ping    func(ctx context.Context) error
	catalog func() *recommend.Snapshot
}

// NewHealthHandler creates a health handler. ping checks the store; catalog
// may be nil.
func NewHealthHandler(logger *observability.Logger, service string, ping func(ctx context.Context) error, catalog func() *recommend.Snapshot) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		service: service,
		ping:    ping,
		catalog: catalog,
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.service,
	})
}

// ReadyResponseDTO is the body of GET /ready.
type ReadyResponseDTO struct {
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	CatalogItems   int    `json:"catalog_items"`
	CatalogBuiltAt string `json:"catalog_built_at,omitempty"`
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := ReadyResponseDTO{Status: "ready"}
	if h.catalog != nil {
		if snap := h.catalog(); snap != nil {
			resp.CatalogItems = len(snap.Items)
			resp.CatalogBuiltAt = snap.BuiltAt.UTC().Format(time.RFC3339)
		}
	}

	if err := h.ping(ctx); err != nil {
		h.logger.Warn().Err(err).Msg("Readiness check failed")
		resp.Status = "unavailable"
		resp.Error = err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
