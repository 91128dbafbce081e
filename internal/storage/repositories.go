package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrNotFound = errors.New("record not found")
	ErrInvalid  = errors.New("invalid record")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// RestaurantRepository handles restaurant reads and importer writes.
type RestaurantRepository struct {
	db DB
}

// NewRestaurantRepository creates a new restaurant repository.
func NewRestaurantRepository(db DB) *RestaurantRepository {
	return &RestaurantRepository{db: db}
}

// ListActive returns every active restaurant ordered by name then id.
func (r *RestaurantRepository) ListActive(ctx context.Context) ([]RestaurantRow, error) {
	query := `
		SELECT id, name, cuisine, address, description, specialty, price_level,
			rating, review_count, image, images, latitude, longitude, place_id
		FROM restaurants
		WHERE is_active = $1
		ORDER BY name, id
	`
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("list active restaurants: %w", err)
	}
	defer rows.Close()

	var out []RestaurantRow
	for rows.Next() {
		var (
			row                                  RestaurantRow
			cuisine, address, description, image sql.NullString
			specialty, images, placeID           sql.NullString
			priceLevel, reviewCount              sql.NullInt64
			rating, latitude, longitude          sql.NullFloat64
		)
		if err := rows.Scan(
			&row.ID, &row.Name, &cuisine, &address, &description, &specialty, &priceLevel,
			&rating, &reviewCount, &image, &images, &latitude, &longitude, &placeID,
		); err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}

		row.Cuisine = cuisine.String
		row.Address = address.String
		row.Description = description.String
		row.Image = image.String
		row.PlaceID = placeID.String
		row.Specialty = decodeStringList(specialty.String)
		row.Images = decodeStringList(images.String)
		row.PriceLevel = nullIntPtr(priceLevel)
		row.ReviewCount = nullIntPtr(reviewCount)
		row.Rating = nullFloatPtr(rating)
		row.Latitude = nullFloatPtr(latitude)
		row.Longitude = nullFloatPtr(longitude)

		out = append(out, row)
	}
	return out, rows.Err()
}

// Upsert inserts a restaurant or updates the row with the same id.
func (r *RestaurantRepository) Upsert(ctx context.Context, rest *Restaurant) error {
	if rest.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if rest.ID == "" {
		rest.ID = uuid.NewString()
	}

	images, err := encodeStringList(rest.Images)
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}
	specialty, err := encodeStringList(rest.Specialty)
	if err != nil {
		return fmt.Errorf("encode specialty: %w", err)
	}

	query := `
		INSERT INTO restaurants (id, name, image, images, cuisine, rating, review_count,
			price_level, specialty, description, address, latitude, longitude, place_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			image = excluded.image,
			images = excluded.images,
			cuisine = excluded.cuisine,
			rating = excluded.rating,
			review_count = excluded.review_count,
			price_level = excluded.price_level,
			specialty = excluded.specialty,
			description = excluded.description,
			address = excluded.address,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			place_id = excluded.place_id,
			is_active = excluded.is_active,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err = r.db.ExecContext(ctx, query,
		rest.ID, rest.Name, nullString(rest.Image), images, nullString(rest.Cuisine),
		rest.Rating, rest.ReviewCount, rest.PriceLevel, specialty,
		nullString(rest.Description), nullString(rest.Address),
		rest.Latitude, rest.Longitude, nullString(rest.PlaceID), rest.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upsert restaurant %s: %w", rest.ID, err)
	}
	return nil
}

// SetActive toggles whether a restaurant is served to the recommender.
func (r *RestaurantRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE restaurants SET is_active = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of restaurants, optionally only active ones.
func (r *RestaurantRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM restaurants`
	args := []interface{}{}
	if activeOnly {
		query += ` WHERE is_active = $1`
		args = append(args, true)
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
