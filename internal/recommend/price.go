package recommend

import "github.com/smarttravel/recommender/internal/textnorm"

var (
	cheapWords   = textnorm.NewSet("re", "binh", "dan", "gia", "tiet")
	upscaleWords = textnorm.NewSet("cao", "cap", "sang", "trong", "fine", "dining")
)

// PriceRange bounds the acceptable price level. Zero means unbounded.
type PriceRange struct {
	Min int
	Max int
}

// IsZero reports whether no price preference was detected.
func (p PriceRange) IsZero() bool {
	return p.Min == 0 && p.Max == 0
}

// DetectPrice infers a price preference from ASCII query tokens. A cheap
// word wins over an upscale word when both appear.
func DetectPrice(tokens textnorm.Set) PriceRange {
	if tokens.Intersects(cheapWords) {
		return PriceRange{Max: 2}
	}
	if tokens.Intersects(upscaleWords) {
		return PriceRange{Min: 3}
	}
	return PriceRange{}
}
