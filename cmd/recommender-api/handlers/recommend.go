// Package handlers provides HTTP handlers for the recommender API.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/recommend"
)

const maxBodyBytes = 64 << 10

var validate = validator.New()

// Recommender answers free-text restaurant questions.
type Recommender interface {
	Recommend(ctx context.Context, message string, limit int) *recommend.Response
}

// RecommendHandler serves chat recommendations.
type RecommendHandler struct {
	logger       *observability.Logger
	engine       Recommender
	defaultLimit int
	maxLimit     int
}

// NewRecommendHandler creates a new recommend handler. Requests asking for
// more than maxLimit restaurants are rejected.
func NewRecommendHandler(logger *observability.Logger, engine Recommender, defaultLimit, maxLimit int) *RecommendHandler {
	if maxLimit < 1 || maxLimit > recommend.MaxLimit {
		maxLimit = recommend.MaxLimit
	}
	if defaultLimit < 1 {
		defaultLimit = 6
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &RecommendHandler{
		logger:       logger,
		engine:       engine,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// RecommendRequestDTO is the body of POST /chat/recommend. An empty message
// is valid and yields the no-results reply.
type RecommendRequestDTO struct {
	Message string `json:"message" validate:"max=1000"`
	Limit   int    `json:"limit,omitempty" validate:"omitempty,min=1,max=12"`
}

// Recommend handles POST /chat/recommend.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequestDTO
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation failed", validationDetail(err))
		return
	}
	if req.Limit > h.maxLimit {
		writeError(w, http.StatusUnprocessableEntity, "validation failed",
			fmt.Sprintf("limit failed max (%d)", h.maxLimit))
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	resp := h.engine.Recommend(r.Context(), req.Message, limit)

	h.logger.WithContext(r.Context()).Info().
		Int("limit", limit).
		Int("results", len(resp.Restaurants)).
		Str("normalized_query", resp.NormalizedQuery).
		Msg("Recommendation request")

	writeJSON(w, http.StatusOK, resp)
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" failed "+fe.Tag())
	}
	return strings.Join(fields, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	resp := map[string]string{
		"error":   message,
		"message": message,
	}
	if detail != "" {
		resp["detail"] = detail
	}
	writeJSON(w, status, resp)
}
