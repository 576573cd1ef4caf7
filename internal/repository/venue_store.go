// Package repository contains the MySQL implementation of the engine's
// booking-store port, plus an in-memory implementation used in tests and
// local development.  Persisted layout is owned here: times of day are
// stored as zero-padded "HH:MM" strings so lexicographic comparison in
// SQL matches temporal order, and sports/facilities live in JSON columns.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fieldpass/venue-booking/internal/engine"
	"github.com/fieldpass/venue-booking/internal/model"
)

// Store implements engine.Store on top of a MySQL database.
type Store struct {
	db *sql.DB
}

var _ engine.Store = (*Store)(nil)

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB exposes the underlying handle for the few callers that need it
// (health checks, migrations).
func (s *Store) DB() *sql.DB { return s.db }

// CreateVenueWithSlots inserts the venue row and its full weekly slot
// template in a single transaction.  On success the venue's generated
// fields (ID, rating default, timestamps) are populated.
func (s *Store) CreateVenueWithSlots(ctx context.Context, v *model.Venue, slots []model.TimeSlot) error {
	sports, err := json.Marshal(v.Sports)
	if err != nil {
		return err
	}
	facilities, err := json.Marshal(v.Facilities)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const qInsert = `INSERT INTO venues
		(name, slug, description, address, city, latitude, longitude,
		 sports, facilities, price_per_hour, open_time, close_time, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert,
		v.Name, v.Slug, v.Description, v.Address, v.City, v.Latitude, v.Longitude,
		sports, facilities, v.PricePerHour, v.OpenTime, v.CloseTime, v.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)

	if len(slots) > 0 {
		query := `INSERT INTO time_slots
			(venue_id, day_of_week, start_time, end_time, is_peak_hour, price_multiplier) VALUES `
		args := make([]interface{}, 0, len(slots)*6)
		for i := range slots {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?, ?, ?, ?)"
			args = append(args, v.ID, slots[i].DayOfWeek, slots[i].StartTime,
				slots[i].EndTime, slots[i].IsPeakHour, slots[i].PriceMultiplier)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	// Query back defaults so the caller gets a fully populated record.
	const qSelect = `SELECT rating, created_at, updated_at FROM venues WHERE id = ?`
	if err := tx.QueryRowContext(ctx, qSelect, v.ID).Scan(&v.Rating, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const venueColumns = `id, name, slug, description, address, city, latitude, longitude,
	sports, facilities, price_per_hour, open_time, close_time, rating, is_active,
	created_at, updated_at`

func scanVenue(row interface{ Scan(...any) error }) (*model.Venue, error) {
	var v model.Venue
	var sports, facilities []byte
	if err := row.Scan(
		&v.ID, &v.Name, &v.Slug, &v.Description, &v.Address, &v.City,
		&v.Latitude, &v.Longitude, &sports, &facilities, &v.PricePerHour,
		&v.OpenTime, &v.CloseTime, &v.Rating, &v.IsActive,
		&v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sports, &v.Sports); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(facilities, &v.Facilities); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVenue fetches a venue by id.  Inactive venues are returned too; the
// engine decides what an inactive venue may do.
func (s *Store) GetVenue(ctx context.Context, id uint64) (*model.Venue, error) {
	const q = `SELECT ` + venueColumns + ` FROM venues WHERE id = ?`
	v, err := scanVenue(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrVenueNotFound
		}
		return nil, err
	}
	return v, nil
}

// ListVenues returns active venues matching the filter ordered by rating
// descending.  The WHERE clause is assembled from the recognized filter
// fields only.
func (s *Store) ListVenues(ctx context.Context, f engine.VenueFilter) ([]*model.Venue, error) {
	where := []string{"is_active = 1"}
	args := []any{}

	if f.City != "" {
		where = append(where, "LOWER(city) = LOWER(?)")
		args = append(args, f.City)
	}
	if f.Sport != "" {
		where = append(where, "JSON_CONTAINS(sports, JSON_QUOTE(?))")
		args = append(args, f.Sport)
	}
	if f.MinPrice != nil {
		where = append(where, "price_per_hour >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "price_per_hour <= ?")
		args = append(args, *f.MaxPrice)
	}

	q := `SELECT ` + venueColumns + ` FROM venues WHERE ` +
		joinAnd(where) + ` ORDER BY rating DESC, id`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSlotTemplate returns the venue's template rows for one day of week
// ordered by start time.
func (s *Store) ListSlotTemplate(ctx context.Context, venueID uint64, dayOfWeek int) ([]model.TimeSlot, error) {
	const q = `SELECT id, venue_id, day_of_week, start_time, end_time,
			is_peak_hour, price_multiplier, created_at
		FROM time_slots
		WHERE venue_id = ? AND day_of_week = ?
		ORDER BY start_time`
	rows, err := s.db.QueryContext(ctx, q, venueID, dayOfWeek)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TimeSlot, 0)
	for rows.Next() {
		var t model.TimeSlot
		if err := rows.Scan(&t.ID, &t.VenueID, &t.DayOfWeek, &t.StartTime,
			&t.EndTime, &t.IsPeakHour, &t.PriceMultiplier, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func joinAnd(conds []string) string {
	out := conds[0]
	for _, c := range conds[1:] {
		out += " AND " + c
	}
	return out
}

// scanDate normalizes a DATE column (scanned as time.Time with
// parseTime=true) back into the wire format.
func scanDate(t time.Time) string { return t.Format("2006-01-02") }
