// Package recommend ranks restaurants from the in-memory catalog against a
// free-text Vietnamese request.
package recommend

import (
	"math"
	"strings"

	"github.com/smarttravel/recommender/internal/storage"
	"github.com/smarttravel/recommender/internal/textnorm"
)

const (
	minPriceLevel     = 1
	maxPriceLevel     = 4
	defaultPriceLevel = 2
	maxRating         = 5.0
)

// RestaurantRecord is the immutable, token-enriched view of one active
// restaurant. Records are shared between goroutines once built.
type RestaurantRecord struct {
	ID          string
	Name        string
	Cuisine     string
	Address     string
	Description string
	Specialty   []string
	PriceLevel  int
	Rating      float64
	ReviewCount int
	Image       string
	Images      []string
	Latitude    *float64
	Longitude   *float64
	PlaceID     string

	// TokensASCII and TokensVI cover name, cuisine, description and
	// specialty plus the address with city boilerplate removed.
	TokensASCII textnorm.Set
	TokensVI    textnorm.Set
	// FoodTokensASCII excludes the address so a street name never counts
	// as a dish.
	FoodTokensASCII textnorm.Set
}

// NewRecord projects a store row into a record, coercing missing or
// out-of-range values and deriving the token sets.
func NewRecord(row storage.RestaurantRow) *RestaurantRecord {
	rec := &RestaurantRecord{
		ID:          row.ID,
		Name:        row.Name,
		Cuisine:     row.Cuisine,
		Address:     row.Address,
		Description: row.Description,
		Specialty:   nonEmpty(row.Specialty),
		PriceLevel:  coercePriceLevel(row.PriceLevel),
		Rating:      coerceRating(row.Rating),
		ReviewCount: coerceReviewCount(row.ReviewCount),
		Image:       strings.TrimSpace(row.Image),
		Images:      nonEmpty(row.Images),
		Latitude:    finite(row.Latitude),
		Longitude:   finite(row.Longitude),
		PlaceID:     strings.TrimSpace(row.PlaceID),
	}
	rec.deriveTokens()
	return rec
}

func (r *RestaurantRecord) deriveTokens() {
	content := strings.Join(append([]string{r.Name, r.Cuisine, r.Description}, r.Specialty...), " ")

	contentASCII := textnorm.TokenizeASCII(content)
	contentVI := textnorm.TokenizeVI(content)
	addressASCII := textnorm.TokenizeASCII(r.Address).Without(textnorm.AddressNoiseASCII)
	addressVI := textnorm.TokenizeVI(r.Address).Without(textnorm.AddressNoiseVI)

	r.FoodTokensASCII = contentASCII
	r.TokensASCII = textnorm.Union(contentASCII, addressASCII)
	r.TokensVI = textnorm.Union(contentVI, addressVI)
}

// HasImage reports whether the record can be shown with a picture.
func (r *RestaurantRecord) HasImage() bool {
	return r.PrimaryImage() != ""
}

// PrimaryImage returns image, else the first entry of images, else "".
func (r *RestaurantRecord) PrimaryImage() string {
	if r.Image != "" {
		return r.Image
	}
	if len(r.Images) > 0 {
		return r.Images[0]
	}
	return ""
}

func coercePriceLevel(v *int) int {
	if v == nil {
		return defaultPriceLevel
	}
	switch {
	case *v < minPriceLevel:
		return minPriceLevel
	case *v > maxPriceLevel:
		return maxPriceLevel
	default:
		return *v
	}
}

func coerceRating(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return 0
	}
	return math.Min(*v, maxRating)
}

func coerceReviewCount(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	f := *v
	return &f
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
