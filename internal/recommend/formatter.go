package recommend

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// MaxLimit is the largest number of restaurants a reply may carry.
	MaxLimit = 12

	mapsSearchURL = "https://www.google.com/maps/search/?api=1"

	// NoResultsReply is sent when nothing survives ranking and image filtering.
	NoResultsReply = "Mình chưa tìm thấy quán phù hợp. Bạn thử mô tả rõ hơn món ăn, khu vực hoặc mức giá nhé!"
	// FollowUpPrompt closes every non-empty reply.
	FollowUpPrompt = "Bạn muốn mình lọc thêm theo khu vực, mức giá hay món ăn không?"
)

// ResultItem is one restaurant in a recommendation reply.
type ResultItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Cuisine       string  `json:"cuisine"`
	Address       string  `json:"address"`
	Rating        float64 `json:"rating"`
	ReviewCount   int     `json:"review_count"`
	PriceLevel    int     `json:"price_level"`
	Image         string  `json:"image"`
	GoogleMapsURL string  `json:"google_maps_url"`
}

// SelectResults walks the ranking and keeps up to limit records that have
// an image.
func SelectResults(ranked []Scored, limit int) []ResultItem {
	limit = ClampLimit(limit)
	out := make([]ResultItem, 0, limit)
	for _, s := range ranked {
		if len(out) == limit {
			break
		}
		rec := s.Record
		if !rec.HasImage() {
			continue
		}
		out = append(out, ResultItem{
			ID:            rec.ID,
			Name:          rec.Name,
			Cuisine:       rec.Cuisine,
			Address:       rec.Address,
			Rating:        rec.Rating,
			ReviewCount:   rec.ReviewCount,
			PriceLevel:    rec.PriceLevel,
			Image:         rec.PrimaryImage(),
			GoogleMapsURL: MapsURL(rec),
		})
	}
	return out
}

// ClampLimit forces limit into 1..MaxLimit.
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// MapsURL links to the place when its id is known, else to its
// coordinates, else returns "".
func MapsURL(rec *RestaurantRecord) string {
	if rec.PlaceID != "" {
		return mapsSearchURL + "&query_place_id=" + url.QueryEscape(rec.PlaceID)
	}
	if rec.Latitude != nil && rec.Longitude != nil {
		return mapsSearchURL + "&query=" +
			strconv.FormatFloat(*rec.Latitude, 'f', -1, 64) + "," +
			strconv.FormatFloat(*rec.Longitude, 'f', -1, 64)
	}
	return ""
}

// FormatReply renders the chat reply for the selected restaurants.
func FormatReply(items []ResultItem) string {
	if len(items) == 0 {
		return NoResultsReply
	}

	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s • %.1f⭐ (%d đánh giá) • %s\n",
			i+1, item.Name, item.Rating, item.ReviewCount, strings.Repeat("$", item.PriceLevel))
	}
	b.WriteString("\n")
	b.WriteString(FollowUpPrompt)
	return b.String()
}
