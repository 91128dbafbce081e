package recommend

import "github.com/smarttravel/recommender/internal/textnorm"

// DefaultMinCandidates is the smallest food-filtered pool worth ranking.
const DefaultMinCandidates = 25

// FilterCandidates narrows items to those sharing a food keyword with the
// query. The narrowing is dropped when it would leave fewer than
// minCandidates items, so niche dishes still get a full pool to rank.
func FilterCandidates(items []*RestaurantRecord, queryASCII textnorm.Set, minCandidates int) []*RestaurantRecord {
	food := textnorm.FoodTokens(queryASCII)
	if len(food) == 0 {
		return items
	}

	filtered := make([]*RestaurantRecord, 0, len(items))
	for _, rec := range items {
		if rec.FoodTokensASCII.Intersects(food) {
			filtered = append(filtered, rec)
		}
	}

	if len(filtered) < minCandidates {
		return items
	}
	return filtered
}
