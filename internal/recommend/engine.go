package recommend

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/smarttravel/recommender/internal/metrics"
	"github.com/smarttravel/recommender/internal/observability"
	"github.com/smarttravel/recommender/internal/textnorm"
)

// Response is the result of one recommendation.
type Response struct {
	Reply           string       `json:"reply"`
	Restaurants     []ResultItem `json:"restaurants"`
	NormalizedQuery string       `json:"normalized_query"`
}

// Query is the parsed form of a user message.
type Query struct {
	Raw string
	// Normalized is the accent-free, lowercased text with collapsed spaces.
	Normalized string
	// Canonical is the lowercased NFC text with collapsed spaces. It keeps
	// diacritics.
	Canonical string

	ASCII         textnorm.Set
	VI            textnorm.Set
	FilteredASCII textnorm.Set
	FilteredVI    textnorm.Set

	Mode  Mode
	Price PriceRange
}

// ParseQuery tokenizes message in both token spaces and detects the
// matching mode and price preference.
func ParseQuery(message string) Query {
	ascii := textnorm.TokenizeASCII(message)
	vi := textnorm.TokenizeVI(message)

	q := Query{
		Raw:           message,
		Normalized:    strings.Join(strings.Fields(textnorm.Normalize(message)), " "),
		Canonical:     strings.Join(strings.Fields(norm.NFC.String(strings.ToLower(message))), " "),
		ASCII:         ascii,
		VI:            vi,
		FilteredASCII: textnorm.StripFiller(ascii, textnorm.QueryFillerASCII),
		FilteredVI:    textnorm.StripFiller(vi, textnorm.QueryFillerVI),
		Price:         DetectPrice(ascii),
	}
	if textnorm.HasDiacritics(message) {
		q.Mode = ModeVI
	}
	return q
}

// Empty reports whether the message carried no usable token.
func (q Query) Empty() bool {
	return len(q.ASCII) == 0 && len(q.VI) == 0
}

// MatchTokens returns the filtered tokens of the query's mode.
func (q Query) MatchTokens() textnorm.Set {
	if q.Mode == ModeVI {
		return q.FilteredVI
	}
	return q.FilteredASCII
}

// Items is the read side of the catalog used by the engine.
type Items interface {
	Items(ctx context.Context) []*RestaurantRecord
}

// Engine answers recommendation requests against a catalog.
type Engine struct {
	catalog       Items
	cache         *ResponseCache
	logger        *observability.Logger
	minCandidates int
	maxLimit      int
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithResponseCache enables response caching.
func WithResponseCache(c *ResponseCache) EngineOption {
	return func(e *Engine) { e.cache = c }
}

// WithMinCandidates overrides the food-filter fallback threshold.
func WithMinCandidates(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.minCandidates = n
		}
	}
}

// WithMaxLimit lowers the per-reply cap below MaxLimit.
func WithMaxLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 && n < MaxLimit {
			e.maxLimit = n
		}
	}
}

// NewEngine creates an engine reading from catalog.
func NewEngine(catalog Items, logger *observability.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = observability.Nop()
	}
	e := &Engine{
		catalog:       catalog,
		logger:        logger.WithComponent("recommend"),
		minCandidates: DefaultMinCandidates,
		maxLimit:      MaxLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Recommend ranks the catalog against message and returns at most limit
// restaurants. It never fails: degenerate input, an empty catalog or an
// unavailable store all produce the no-results reply.
func (e *Engine) Recommend(ctx context.Context, message string, limit int) *Response {
	start := time.Now()
	limit = min(ClampLimit(limit), e.maxLimit)
	q := ParseQuery(message)

	if q.Empty() {
		metrics.RecordRecommendation("empty", 0, time.Since(start))
		return noResults(q)
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, q, limit); ok {
			metrics.RecordRecommendation(q.Mode.String(), len(cached.Restaurants), time.Since(start))
			return cached
		}
	}

	items := e.catalog.Items(ctx)
	candidates := FilterCandidates(items, q.FilteredASCII, e.minCandidates)
	ranked := Rank(candidates, q.MatchTokens(), q.Mode, q.Price)
	results := SelectResults(ranked, limit)

	resp := &Response{
		Reply:           FormatReply(results),
		Restaurants:     results,
		NormalizedQuery: q.Normalized,
	}

	// An empty catalog usually means the store is down; do not pin that.
	if e.cache != nil && len(items) > 0 {
		e.cache.Set(ctx, q, limit, resp)
	}

	metrics.RecordRecommendation(q.Mode.String(), len(results), time.Since(start))
	e.logger.WithContext(ctx).Debug().
		Str("mode", q.Mode.String()).
		Strs("tokens", q.MatchTokens().Sorted()).
		Int("price_min", q.Price.Min).
		Int("price_max", q.Price.Max).
		Int("catalog", len(items)).
		Int("candidates", len(candidates)).
		Int("results", len(results)).
		Dur("duration", time.Since(start)).
		Msg("Recommendation served")

	return resp
}

func noResults(q Query) *Response {
	return &Response{
		Reply:           NoResultsReply,
		Restaurants:     []ResultItem{},
		NormalizedQuery: q.Normalized,
	}
}
