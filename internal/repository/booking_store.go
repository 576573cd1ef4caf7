package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fieldpass/venue-booking/internal/engine"
	"github.com/fieldpass/venue-booking/internal/model"
)

const bookingColumns = `id, booking_code, user_id, venue_id, date, start_time,
	end_time, duration_minutes, total_price, status, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
	var b model.Booking
	var date time.Time
	if err := row.Scan(
		&b.ID, &b.BookingCode, &b.UserID, &b.VenueID, &date, &b.StartTime,
		&b.EndTime, &b.Duration, &b.TotalPrice, &b.Status,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	b.Date = scanDate(date)
	return &b, nil
}

// ListBookings returns the venue's bookings on a date whose status is in
// statuses, ordered by start time.
func (s *Store) ListBookings(ctx context.Context, venueID uint64, date string, statuses []string) ([]model.Booking, error) {
	if len(statuses) == 0 {
		return []model.Booking{}, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(statuses)), ",")
	q := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE venue_id = ? AND date = ? AND status IN (` + placeholders + `)
		ORDER BY start_time`
	args := make([]any, 0, 2+len(statuses))
	args = append(args, venueID, date)
	for _, st := range statuses {
		args = append(args, st)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBookingAtomic performs the check-then-insert of a booking as one
// indivisible unit.  The venue row is locked FOR UPDATE for the duration
// of the transaction, which serializes all booking transactions on the
// same venue while leaving other venues fully concurrent.  The overlap
// re-check runs under that lock, so two conflicting requests can never
// both observe a free interval.
// TODO: if per-venue contention ever shows up, move the lock to a row
// keyed by (venue_id, date) so different dates stop queueing.
func (s *Store) CreateBookingAtomic(ctx context.Context, b *model.Booking) error {
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

	// Take the per-venue lock.  Also re-verifies the venue still exists
	// and is active at reserve time.
	var active bool
	const qLock = `SELECT is_active FROM venues WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, qLock, b.VenueID).Scan(&active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.ErrVenueNotFound
		}
		return err
	}
	if !active {
		return engine.ErrVenueInactive
	}

	// Booking codes are generated by the caller; collisions are detected
	// here and retried with a fresh code.
	var codeCount int
	const qCode = `SELECT COUNT(*) FROM bookings WHERE booking_code = ?`
	if err := tx.QueryRowContext(ctx, qCode, b.BookingCode).Scan(&codeCount); err != nil {
		return err
	}
	if codeCount > 0 {
		return engine.ErrBookingCodeTaken
	}

	// Half-open overlap test: an existing row conflicts iff it starts
	// before the new end and ends after the new start.  "HH:MM" strings
	// compare lexicographically in temporal order.
	var conflicts int
	const qOverlap = `SELECT COUNT(*) FROM bookings
		WHERE venue_id = ? AND date = ?
		  AND status IN ('PENDING', 'CONFIRMED')
		  AND start_time < ? AND end_time > ?`
	if err := tx.QueryRowContext(ctx, qOverlap,
		b.VenueID, b.Date, b.EndTime, b.StartTime).Scan(&conflicts); err != nil {
		return err
	}
	if conflicts > 0 {
		return engine.ErrSlotUnavailable
	}

	const qInsert = `INSERT INTO bookings
		(booking_code, user_id, venue_id, date, start_time, end_time,
		 duration_minutes, total_price, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert,
		b.BookingCode, b.UserID, b.VenueID, b.Date, b.StartTime, b.EndTime,
		b.Duration, b.TotalPrice, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	const qSelect = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, qSelect, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetBookingByCode fetches a booking by its unique code.
func (s *Store) GetBookingByCode(ctx context.Context, code string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_code = ?`
	b, err := scanBooking(s.db.QueryRowContext(ctx, q, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engine.ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// UpdateBookingStatus transitions the booking identified by code.
func (s *Store) UpdateBookingStatus(ctx context.Context, code, status string) error {
	const q = `UPDATE bookings
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE booking_code = ?`
	res, err := s.db.ExecContext(ctx, q, status, code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrBookingNotFound
	}
	return nil
}
