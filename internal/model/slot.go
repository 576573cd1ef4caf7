package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeSlot is one row of a venue's recurring weekly slot template.
// Slots are fixed one-hour granules generated once at venue creation for
// every whole hour between the venue's open and close times; template rows
// are immutable afterwards.
//
// Fields:
//  ID              – primary key identifier.
//  VenueID         – venue the slot belongs to.
//  DayOfWeek       – 0=Sunday .. 6=Saturday.
//  StartTime       – slot start time of day, "HH:MM".
//  EndTime         – slot end time of day, "HH:MM".
//  IsPeakHour      – whether the peak pricing rule applies.
//  PriceMultiplier – 1.5 for peak slots, 1.0 otherwise.
//  CreatedAt       – timestamp when the row was created.
type TimeSlot struct {
	ID              uint64          `json:"id"`               // time_slots.id
	VenueID         uint64          `json:"venue_id"`         // time_slots.venue_id
	DayOfWeek       int             `json:"day_of_week"`      // time_slots.day_of_week
	StartTime       string          `json:"start_time"`       // time_slots.start_time
	EndTime         string          `json:"end_time"`         // time_slots.end_time
	IsPeakHour      bool            `json:"is_peak_hour"`     // time_slots.is_peak_hour
	PriceMultiplier decimal.Decimal `json:"price_multiplier"` // time_slots.price_multiplier
	CreatedAt       time.Time       `json:"created_at"`       // time_slots.created_at
}
