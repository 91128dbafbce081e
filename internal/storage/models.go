// Package storage provides database models and repositories for the restaurant catalog.
package storage

import (
	"strings"

	"github.com/goccy/go-json"
)

// Restaurant is a full restaurant row as written by the importer.
type Restaurant struct {
	ID          string
	Name        string
	Image       string
	Images      []string
	Cuisine     string
	Rating      float64
	ReviewCount int
	PriceLevel  int
	Specialty   []string
	Description string
	Address     string
	Latitude    *float64
	Longitude   *float64
	PlaceID     string
	IsActive    bool
}

// RestaurantRow is the read projection of an active restaurant. Every
// column the store allows to be NULL is a pointer or an empty slice so the
// caller decides the defaults.
type RestaurantRow struct {
	ID          string
	Name        string
	Cuisine     string
	Address     string
	Description string
	Specialty   []string
	PriceLevel  *int
	Rating      *float64
	ReviewCount *int
	Image       string
	Images      []string
	Latitude    *float64
	Longitude   *float64
	PlaceID     string
}

// decodeStringList reads a JSON column leniently. Lists keep their non-empty
// string entries, a bare string becomes a one element list, and anything
// else, malformed JSON included, yields nil.
func decodeStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	}

	var single string
	if err := json.Unmarshal([]byte(raw), &single); err == nil && strings.TrimSpace(single) != "" {
		return []string{single}
	}
	return nil
}

func encodeStringList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
