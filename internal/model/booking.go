package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking status values.  A booking is created PENDING and moves to
// CONFIRMED when the payment collaborator reports success, or to
// CANCELLED.  PENDING and CONFIRMED bookings both block their interval.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Booking records a user's reservation of a venue for a concrete date and
// time interval.  This struct corresponds to a row in the `bookings` table.
//
// Fields:
//  ID          – primary key identifier.
//  BookingCode – unique human-shareable reference code.
//  UserID      – user who made the booking.
//  VenueID     – venue being booked.
//  Date        – calendar date of the booking, "YYYY-MM-DD".
//  StartTime   – start time of day, "HH:MM".
//  EndTime     – end time of day, "HH:MM".
//  Duration    – interval length in minutes.
//  TotalPrice  – total price for the whole interval.
//  Status      – PENDING, CONFIRMED or CANCELLED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Booking struct {
	ID          uint64          `json:"id"`           // bookings.id
	BookingCode string          `json:"booking_code"` // bookings.booking_code
	UserID      uint64          `json:"user_id"`      // bookings.user_id
	VenueID     uint64          `json:"venue_id"`     // bookings.venue_id
	Date        string          `json:"date"`         // bookings.date
	StartTime   string          `json:"start_time"`   // bookings.start_time
	EndTime     string          `json:"end_time"`     // bookings.end_time
	Duration    int             `json:"duration"`     // bookings.duration_minutes
	TotalPrice  decimal.Decimal `json:"total_price"`  // bookings.total_price
	Status      string          `json:"status"`       // bookings.status
	CreatedAt   time.Time       `json:"created_at"`   // bookings.created_at
	UpdatedAt   time.Time       `json:"updated_at"`   // bookings.updated_at
}

// Blocking reports whether the booking occupies its interval for
// availability purposes.
func (b *Booking) Blocking() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
