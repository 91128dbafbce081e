package recommend

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttravel/recommender/internal/storage"
	"github.com/smarttravel/recommender/internal/textnorm"
)

func scoredAll(items []*RestaurantRecord) []Scored {
	return Rank(items, textnorm.Set{}, ModeASCII, PriceRange{})
}

func TestSelectResults_SkipsItemsWithoutImages(t *testing.T) {
	items := records(
		newRow("a", "A", withNoImage()),
		newRow("b", "B"),
		newRow("c", "C", withImages("c1.jpg", "c2.jpg")),
		newRow("d", "D", withImages()),
	)

	got := SelectResults(scoredAll(items), 12)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "b.jpg", got[0].Image)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "c1.jpg", got[1].Image)
}

func TestSelectResults_RespectsLimit(t *testing.T) {
	items := records(numbered(20, "Quán")...)
	ranked := scoredAll(items)

	for limit := -2; limit <= 15; limit++ {
		got := SelectResults(ranked, limit)
		assert.LessOrEqual(t, len(got), ClampLimit(limit), "limit=%d", limit)
		assert.GreaterOrEqual(t, len(got), 1)
	}
	assert.Len(t, SelectResults(ranked, 12), 12)
	assert.Len(t, SelectResults(ranked, 100), MaxLimit)
}

func TestSelectResults_CopiesFields(t *testing.T) {
	row := phoHaNoi()
	row.Address = "12 Lý Tự Trọng, Quận 1"
	row.PlaceID = "ChIJabc"

	got := SelectResults(scoredAll(records(row)), 6)
	require.Len(t, got, 1)
	assert.Equal(t, ResultItem{
		ID:            "pho-ha-noi",
		Name:          "Phở Hà Nội",
		Cuisine:       "Phở & Bún",
		Address:       "12 Lý Tự Trọng, Quận 1",
		Rating:        4.8,
		ReviewCount:   234,
		PriceLevel:    2,
		Image:         "x.jpg",
		GoogleMapsURL: "https://www.google.com/maps/search/?api=1&query_place_id=ChIJabc",
	}, got[0])
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1, ClampLimit(0))
	assert.Equal(t, 1, ClampLimit(-5))
	assert.Equal(t, 6, ClampLimit(6))
	assert.Equal(t, 12, ClampLimit(13))
}

func TestMapsURL(t *testing.T) {
	tests := []struct {
		name string
		row  storage.RestaurantRow
		want string
	}{
		{
			"place id wins",
			storage.RestaurantRow{PlaceID: "ChIJ123", Latitude: floatPtr(10.5), Longitude: floatPtr(106.7)},
			"https://www.google.com/maps/search/?api=1&query_place_id=ChIJ123",
		},
		{
			"coordinates",
			storage.RestaurantRow{Latitude: floatPtr(10.7769), Longitude: floatPtr(106.7009)},
			"https://www.google.com/maps/search/?api=1&query=10.7769,106.7009",
		},
		{
			"only latitude",
			storage.RestaurantRow{Latitude: floatPtr(10.7769)},
			"",
		},
		{"nothing", storage.RestaurantRow{}, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapsURL(NewRecord(tc.row)))
		})
	}
}

func TestFormatReply(t *testing.T) {
	assert.Equal(t, NoResultsReply, FormatReply(nil))

	reply := FormatReply([]ResultItem{
		{Name: "Phở Hà Nội", Rating: 4.8, ReviewCount: 234, PriceLevel: 2},
		{Name: "Sushi Hokkaido", Rating: 4, ReviewCount: 12, PriceLevel: 4},
	})

	want := fmt.Sprintf("1. Phở Hà Nội • 4.8⭐ (234 đánh giá) • $$\n"+
		"2. Sushi Hokkaido • 4.0⭐ (12 đánh giá) • $$$$\n\n%s", FollowUpPrompt)
	assert.Equal(t, want, reply)
	assert.True(t, strings.HasSuffix(reply, FollowUpPrompt))
}
