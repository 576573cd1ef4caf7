// Package slots generates the recurring weekly slot template for a venue.
// The template is produced once at venue creation time and persisted as
// immutable rows; regenerating it against a venue with existing bookings is
// not supported.
package slots

import (
	"github.com/shopspring/decimal"

	"github.com/fieldpass/venue-booking/internal/interval"
	"github.com/fieldpass/venue-booking/internal/model"
)

var (
	peakMultiplier   = decimal.NewFromFloat(1.5)
	normalMultiplier = decimal.NewFromInt(1)
)

// IsPeakHour implements the peak pricing rule: weekday evenings
// (Mon-Fri, 18:00-21:59) and weekend daytime (Sat/Sun, 08:00-20:59).
// day is 0=Sunday..6=Saturday; hour is the slot's starting hour.
func IsPeakHour(day, hour int) bool {
	if day >= 1 && day <= 5 {
		return hour >= 18 && hour <= 21
	}
	return hour >= 8 && hour <= 20
}

// Multiplier returns the price multiplier for a slot at the given day and
// starting hour.
func Multiplier(day, hour int) decimal.Decimal {
	if IsPeakHour(day, hour) {
		return peakMultiplier
	}
	return normalMultiplier
}

// Generate builds the full weekly template for a venue: one one-hour slot
// per (day, hour) for every whole hour whose interval fits inside
// [openTime, closeTime).  The venue's ID may be zero when the caller
// persists the slots together with the venue row.
func Generate(venueID uint64, openTime, closeTime string) ([]model.TimeSlot, error) {
	open, close, err := interval.ParseInterval(openTime, closeTime)
	if err != nil {
		return nil, err
	}
	firstHour := (open + 59) / 60 // first whole hour at or after opening
	lastHour := close / 60        // slots must end by closing time

	out := make([]model.TimeSlot, 0, 7*(lastHour-firstHour))
	for day := 0; day < 7; day++ {
		for hour := firstHour; hour < lastHour; hour++ {
			out = append(out, model.TimeSlot{
				VenueID:         venueID,
				DayOfWeek:       day,
				StartTime:       interval.FormatTimeOfDay(hour * 60),
				EndTime:         interval.FormatTimeOfDay((hour + 1) * 60),
				IsPeakHour:      IsPeakHour(day, hour),
				PriceMultiplier: Multiplier(day, hour),
			})
		}
	}
	return out, nil
}

// Price computes the effective hourly price of a slot given the venue's
// base hourly price.
func Price(basePrice decimal.Decimal, slot model.TimeSlot) decimal.Decimal {
	return basePrice.Mul(slot.PriceMultiplier)
}
