package recommend

import (
	"math"
	"sort"

	"github.com/smarttravel/recommender/internal/textnorm"
)

// Mode selects which token space a query is matched in.
type Mode int

const (
	ModeASCII Mode = iota
	ModeVI
)

func (m Mode) String() string {
	if m == ModeVI {
		return "vi"
	}
	return "ascii"
}

// Match weights differ on purpose: diacritics tokens are more precise.
const (
	viMatchWeight    = 3.0
	asciiMatchWeight = 2.5
	pricePenalty     = 15.0
)

// Scored pairs a record with its composite score.
type Scored struct {
	Record *RestaurantRecord
	Match  float64
	Score  float64
}

// MatchScore is the share of query tokens found in the record, scaled to
// 0..100, minus the price penalties.
func MatchScore(rec *RestaurantRecord, query textnorm.Set, mode Mode, price PriceRange) float64 {
	var match float64
	if len(query) > 0 {
		match = float64(query.Overlap(rec.tokens(mode))) / float64(len(query)) * 100
	}
	if price.Min > 0 && rec.PriceLevel < price.Min {
		match -= pricePenalty
	}
	if price.Max > 0 && rec.PriceLevel > price.Max {
		match -= pricePenalty
	}
	return match
}

// Popularity blends rating and the log of the review count.
func Popularity(rec *RestaurantRecord) float64 {
	return rec.Rating*10 + math.Log10(float64(rec.ReviewCount)+1)*8
}

// Score returns the composite relevance of rec for the query.
func Score(rec *RestaurantRecord, query textnorm.Set, mode Mode, price PriceRange) Scored {
	match := MatchScore(rec, query, mode, price)
	weight := asciiMatchWeight
	if mode == ModeVI {
		weight = viMatchWeight
	}
	return Scored{
		Record: rec,
		Match:  match,
		Score:  match*weight + Popularity(rec),
	}
}

// Rank scores every candidate and orders them by descending score. Equal
// scores keep catalog order.
func Rank(candidates []*RestaurantRecord, query textnorm.Set, mode Mode, price PriceRange) []Scored {
	ranked := make([]Scored, len(candidates))
	for i, rec := range candidates {
		ranked[i] = Score(rec, query, mode, price)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func (r *RestaurantRecord) tokens(mode Mode) textnorm.Set {
	if mode == ModeVI {
		return r.TokensVI
	}
	return r.TokensASCII
}
