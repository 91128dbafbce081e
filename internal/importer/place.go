// Package importer loads scraped restaurant dumps into the store.
package importer

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/smarttravel/recommender/internal/storage"
)

const maxImages = 5

// placeNamespace scopes the deterministic restaurant ids derived from places.
var placeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://smarttravel.vn/restaurants"))

// Place is one entry of the scraped JSON dump.
type Place struct {
	Name         string            `json:"name"`
	Address      string            `json:"address"`
	Category     string            `json:"category"`
	FoodTags     []string          `json:"food_tags"`
	Rating       FlexFloat         `json:"rating"`
	RatingCount  FlexFloat         `json:"rating_count"`
	PriceLevel   string            `json:"price_level"`
	Images       []string          `json:"images"`
	HostedImages []string          `json:"hosted_images"`
	Coordinates  *Coordinates      `json:"coordinates"`
	PlaceID      string            `json:"place_id"`
	OpeningHours map[string]string `json:"opening_hours"`
	Success      *bool             `json:"success"`
}

// Coordinates is a scraped lat/lon pair.
type Coordinates struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// FlexFloat accepts a JSON number, a numeric string, or null.
type FlexFloat struct {
	Value float64
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = FlexFloat{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
		if err != nil {
			*f = FlexFloat{}
			return nil
		}
		*f = FlexFloat{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("flex float: %w", err)
	}
	*f = FlexFloat{Value: v, Valid: true}
	return nil
}

// ReadPlaces decodes a JSON array of places.
func ReadPlaces(r io.Reader) ([]Place, error) {
	var places []Place
	if err := json.NewDecoder(r).Decode(&places); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}
	return places, nil
}

// ParsePriceLevel maps a Places API price level to 1..4, defaulting to 2.
func ParsePriceLevel(level string) int {
	switch level {
	case "PRICE_LEVEL_FREE", "PRICE_LEVEL_INEXPENSIVE":
		return 1
	case "PRICE_LEVEL_MODERATE":
		return 2
	case "PRICE_LEVEL_EXPENSIVE":
		return 3
	case "PRICE_LEVEL_VERY_EXPENSIVE":
		return 4
	default:
		return 2
	}
}

// tagCuisines is checked in order; the first substring hit wins.
var tagCuisines = []struct {
	tag     string
	cuisine string
}{
	{"phở", "Phở & Bún"},
	{"bún", "Phở & Bún"},
	{"bánh mì", "Bánh mì"},
	{"cơm", "Cơm Việt Nam"},
	{"hải sản", "Hải sản"},
	{"lẩu", "Lẩu & Nướng"},
	{"nướng", "Lẩu & Nướng"},
	{"chay", "Chay"},
	{"bình dân", "Bình dân"},
	{"kem", "Tráng miệng"},
	{"café", "Cafe & Đồ uống"},
	{"cafe", "Cafe & Đồ uống"},
	{"trà", "Cafe & Đồ uống"},
}

// Cuisine derives a display cuisine from food tags, then the category.
func Cuisine(category string, foodTags []string) string {
	for _, tag := range foodTags {
		lower := strings.ToLower(tag)
		for _, tc := range tagCuisines {
			if strings.Contains(lower, tc.tag) {
				return tc.cuisine
			}
		}
	}

	lower := strings.ToLower(category)
	switch {
	case strings.Contains(lower, "cafe"), strings.Contains(lower, "cà phê"):
		return "Cafe & Đồ uống"
	case strings.Contains(lower, "nhà hàng"):
		return "Nhà hàng Việt"
	}
	return "Ẩm thực Việt Nam"
}

// OpeningHours returns the first "open–close" range found, scanning days
// in key order, or the 07:00-22:00 default.
func OpeningHours(hours map[string]string) (open, close string) {
	days := make([]string, 0, len(hours))
	for day := range hours {
		days = append(days, day)
	}
	sort.Strings(days)

	for _, day := range days {
		parts := strings.SplitN(hours[day], "–", 2)
		if len(parts) != 2 {
			continue
		}
		return truncate(strings.TrimSpace(parts[0]), 5), truncate(strings.TrimSpace(parts[1]), 5)
	}
	return "07:00", "22:00"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

// Description builds the generated summary shown for imported places.
func Description(cuisine string, priceLevel int, open, close string, specialty []string) string {
	label := strings.TrimSpace(cuisine)
	if label == "" {
		label = "Nhà hàng"
	}
	parts := []string{label}

	if open, close = strings.TrimSpace(open), strings.TrimSpace(close); open != "" && close != "" {
		parts = append(parts, fmt.Sprintf("Giờ mở cửa %s - %s", open, close))
	}
	if priceLevel >= 1 && priceLevel <= 4 {
		parts = append(parts, "Mức giá "+strings.Repeat("$", priceLevel))
	}

	var highlights []string
	seen := make(map[string]bool)
	for _, tag := range specialty {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		highlights = append(highlights, tag)
		if len(highlights) == 4 {
			break
		}
	}
	if len(highlights) > 0 {
		parts = append(parts, "Nổi bật: "+strings.Join(highlights, ", "))
	}

	return strings.Join(parts, " • ")
}

// RestaurantID returns a stable id for the place so re-imports update rows
// instead of duplicating them.
func RestaurantID(p Place) string {
	key := "place:" + strings.TrimSpace(p.PlaceID)
	if strings.TrimSpace(p.PlaceID) == "" {
		key = "name:" + strings.ToLower(strings.TrimSpace(p.Name)) + "|" + strings.ToLower(strings.TrimSpace(p.Address))
	}
	return uuid.NewSHA1(placeNamespace, []byte(key)).String()
}

// ToRestaurant converts a place to a storage row. ok is false for entries
// the scraper marked as failed or that have no name.
func ToRestaurant(p Place) (rest *storage.Restaurant, ok bool) {
	if p.Success != nil && !*p.Success {
		return nil, false
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, false
	}

	images := cleanList(p.HostedImages)
	if len(images) == 0 {
		images = cleanList(p.Images)
	}
	if len(images) > maxImages {
		images = images[:maxImages]
	}
	var mainImage string
	if len(images) > 0 {
		mainImage = images[0]
	}

	cuisine := Cuisine(p.Category, p.FoodTags)
	priceLevel := ParsePriceLevel(p.PriceLevel)
	specialty := cleanList(p.FoodTags)
	open, close := OpeningHours(p.OpeningHours)

	rest = &storage.Restaurant{
		ID:          RestaurantID(p),
		Name:        name,
		Image:       mainImage,
		Images:      images,
		Cuisine:     cuisine,
		PriceLevel:  priceLevel,
		Specialty:   specialty,
		Description: Description(cuisine, priceLevel, open, close, specialty),
		Address:     strings.TrimSpace(p.Address),
		PlaceID:     strings.TrimSpace(p.PlaceID),
		IsActive:    true,
	}
	if p.Rating.Valid {
		rest.Rating = p.Rating.Value
	}
	if p.RatingCount.Valid && p.RatingCount.Value > 0 {
		rest.ReviewCount = int(p.RatingCount.Value)
	}
	if p.Coordinates != nil {
		rest.Latitude = p.Coordinates.Lat
		rest.Longitude = p.Coordinates.Lon
	}
	return rest, true
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
