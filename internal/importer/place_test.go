package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDump = `[
  {
    "name": "Phở Hà Nội",
    "address": "12 Lê Lợi, Quận 1, TP.HCM",
    "category": "Nhà hàng phở",
    "food_tags": ["phở bò", "phở gà", " ", "phở bò"],
    "rating": 4.8,
    "rating_count": 234,
    "price_level": "PRICE_LEVEL_INEXPENSIVE",
    "images": ["a.jpg"],
    "hosted_images": ["h1.jpg", "h2.jpg", "h3.jpg", "h4.jpg", "h5.jpg", "h6.jpg"],
    "coordinates": {"lat": 10.776, "lon": 106.700},
    "place_id": "ChIJ123",
    "opening_hours": {"Tuesday": "06:00–21:30", "Monday": "Closed"}
  },
  {
    "name": "Cà Phê Vợt",
    "category": "Quán cà phê",
    "rating": "4,3",
    "rating_count": null,
    "images": ["c.jpg"],
    "success": true
  },
  {"name": "Broken", "success": false}
]`

func TestReadPlaces(t *testing.T) {
	places, err := ReadPlaces(strings.NewReader(sampleDump))
	require.NoError(t, err)
	require.Len(t, places, 3)

	pho := places[0]
	assert.Equal(t, "Phở Hà Nội", pho.Name)
	assert.True(t, pho.Rating.Valid)
	assert.InDelta(t, 4.8, pho.Rating.Value, 1e-9)
	assert.InDelta(t, 234, pho.RatingCount.Value, 1e-9)
	require.NotNil(t, pho.Coordinates)
	assert.InDelta(t, 10.776, *pho.Coordinates.Lat, 1e-9)

	cafe := places[1]
	assert.True(t, cafe.Rating.Valid)
	assert.InDelta(t, 4.3, cafe.Rating.Value, 1e-9)
	assert.False(t, cafe.RatingCount.Valid)
	require.NotNil(t, places[2].Success)
	assert.False(t, *places[2].Success)
}

func TestReadPlaces_Invalid(t *testing.T) {
	_, err := ReadPlaces(strings.NewReader(`{"name": "not a list"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode places")
}

func TestFlexFloat_UnparseableStringIsInvalid(t *testing.T) {
	var f FlexFloat
	require.NoError(t, f.UnmarshalJSON([]byte(`"N/A"`)))
	assert.False(t, f.Valid)
	require.Error(t, f.UnmarshalJSON([]byte(`{}`)))
}

func TestParsePriceLevel(t *testing.T) {
	tests := map[string]int{
		"PRICE_LEVEL_FREE":           1,
		"PRICE_LEVEL_INEXPENSIVE":    1,
		"PRICE_LEVEL_MODERATE":       2,
		"PRICE_LEVEL_EXPENSIVE":      3,
		"PRICE_LEVEL_VERY_EXPENSIVE": 4,
		"":                           2,
		"PRICE_LEVEL_UNSPECIFIED":    2,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParsePriceLevel(in), in)
	}
}

func TestCuisine(t *testing.T) {
	tests := []struct {
		name     string
		category string
		tags     []string
		want     string
	}{
		{"tag wins", "Nhà hàng", []string{"Bún chả"}, "Phở & Bún"},
		{"first matching tag", "", []string{"gỏi cuốn", "Lẩu thái"}, "Lẩu & Nướng"},
		{"drink tag", "", []string{"trà sữa"}, "Cafe & Đồ uống"},
		{"cafe category", "Quán Cà Phê", nil, "Cafe & Đồ uống"},
		{"restaurant category", "Nhà hàng", []string{"gỏi cuốn"}, "Nhà hàng Việt"},
		{"fallback", "", nil, "Ẩm thực Việt Nam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Cuisine(tt.category, tt.tags))
		})
	}
}

func TestOpeningHours(t *testing.T) {
	open, close := OpeningHours(map[string]string{
		"Wednesday": "08:00–20:00",
		"Monday":    "Closed",
		"Tuesday":   "06:30–22:15 (holiday)",
	})
	assert.Equal(t, "06:30", open)
	assert.Equal(t, "22:15", close)

	open, close = OpeningHours(nil)
	assert.Equal(t, "07:00", open)
	assert.Equal(t, "22:00", close)
}

func TestDescription(t *testing.T) {
	got := Description("Phở & Bún", 2, "06:00", "21:00", []string{"phở bò", "phở gà", "phở bò", "quẩy", "trà đá", "chè"})
	assert.Equal(t, "Phở & Bún • Giờ mở cửa 06:00 - 21:00 • Mức giá $$ • Nổi bật: phở bò, phở gà, quẩy, trà đá", got)

	assert.Equal(t, "Nhà hàng", Description(" ", 0, "", "", nil))
}

func TestRestaurantID_Stable(t *testing.T) {
	a := RestaurantID(Place{PlaceID: "ChIJ123", Name: "A"})
	assert.Equal(t, a, RestaurantID(Place{PlaceID: "ChIJ123", Name: "renamed"}))
	assert.NotEqual(t, a, RestaurantID(Place{PlaceID: "ChIJ456"}))

	b := RestaurantID(Place{Name: "Quán Ốc", Address: "Quận 4"})
	assert.Equal(t, b, RestaurantID(Place{Name: " quán ốc ", Address: "quận 4"}))
	assert.Len(t, b, 36)
}

func TestToRestaurant(t *testing.T) {
	places, err := ReadPlaces(strings.NewReader(sampleDump))
	require.NoError(t, err)

	rest, ok := ToRestaurant(places[0])
	require.True(t, ok)
	assert.Equal(t, "Phở Hà Nội", rest.Name)
	assert.Equal(t, "Phở & Bún", rest.Cuisine)
	assert.Equal(t, 1, rest.PriceLevel)
	assert.Equal(t, 234, rest.ReviewCount)
	assert.Equal(t, []string{"h1.jpg", "h2.jpg", "h3.jpg", "h4.jpg", "h5.jpg"}, rest.Images)
	assert.Equal(t, "h1.jpg", rest.Image)
	assert.Equal(t, []string{"phở bò", "phở gà", "phở bò"}, rest.Specialty)
	assert.Equal(t, "Phở & Bún • Giờ mở cửa 06:00 - 21:30 • Mức giá $ • Nổi bật: phở bò, phở gà", rest.Description)
	assert.Equal(t, "ChIJ123", rest.PlaceID)
	assert.True(t, rest.IsActive)
	require.NotNil(t, rest.Longitude)
	assert.InDelta(t, 106.7, *rest.Longitude, 1e-9)

	cafe, ok := ToRestaurant(places[1])
	require.True(t, ok)
	assert.Equal(t, "c.jpg", cafe.Image)
	assert.Equal(t, "Cafe & Đồ uống", cafe.Cuisine)
	assert.Zero(t, cafe.ReviewCount)
	assert.Nil(t, cafe.Latitude)

	_, ok = ToRestaurant(places[2])
	assert.False(t, ok, "scraper failures are skipped")

	_, ok = ToRestaurant(Place{Name: "  "})
	assert.False(t, ok)
}
