package engine

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/fieldpass/venue-booking/internal/interval"
	"github.com/fieldpass/venue-booking/internal/model"
	"github.com/fieldpass/venue-booking/internal/monitoring"
	"github.com/fieldpass/venue-booking/internal/slots"
)

// AvailableSlot is one free template slot for a concrete date, priced
// with the venue's base rate and the slot's multiplier.
type AvailableSlot struct {
	StartTime string          `json:"start_time"`
	EndTime   string          `json:"end_time"`
	Price     decimal.Decimal `json:"price"`
}

var blockingStatuses = []string{model.BookingPending, model.BookingConfirmed}

// ListAvailableSlots merges the venue's slot template for the date's day
// of week with the bookings already taken on that date and returns the
// template rows whose interval is still free, ascending by start time.
// A venue with no template rows for that day yields an empty list.
// Results are read through the availability cache.
func (e *Engine) ListAvailableSlots(ctx context.Context, venueID uint64, date string) ([]AvailableSlot, error) {
	day, dow, err := parseDate(date)
	if err != nil {
		return nil, err
	}

	key := AvailabilityKey(venueID, day)
	if payload, ok := e.cache.Get(ctx, key); ok {
		var cached []AvailableSlot
		if err := json.Unmarshal(payload, &cached); err == nil {
			monitoring.RecordCacheLookup("availability", true)
			return cached, nil
		}
	}
	monitoring.RecordCacheLookup("availability", false)

	venue, err := e.store.GetVenue(ctx, venueID)
	if err != nil {
		return nil, storeErr(err)
	}
	template, err := e.store.ListSlotTemplate(ctx, venueID, dow)
	if err != nil {
		return nil, storeErr(err)
	}
	bookings, err := e.store.ListBookings(ctx, venueID, day, blockingStatuses)
	if err != nil {
		return nil, storeErr(err)
	}

	out := make([]AvailableSlot, 0, len(template))
	for _, slot := range template {
		ss, se, err := interval.ParseInterval(slot.StartTime, slot.EndTime)
		if err != nil {
			return nil, err
		}
		if anyOverlap(bookings, ss, se) {
			continue
		}
		out = append(out, AvailableSlot{
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Price:     slots.Price(venue.PricePerHour, slot),
		})
	}

	if payload, err := json.Marshal(out); err == nil {
		e.cache.Set(ctx, key, payload, availabilityTTL)
	}
	return out, nil
}

// IsAvailable reports whether the requested interval is free of PENDING
// and CONFIRMED bookings for (venue, date).  This is a read-only
// pre-check only: two callers can both see true and then race, which is
// why CreateBooking re-checks inside the atomic reserve step.
func (e *Engine) IsAvailable(ctx context.Context, venueID uint64, date, startTime, endTime string) (bool, error) {
	day, _, err := parseDate(date)
	if err != nil {
		return false, err
	}
	start, end, err := interval.ParseInterval(startTime, endTime)
	if err != nil {
		return false, err
	}
	bookings, err := e.store.ListBookings(ctx, venueID, day, blockingStatuses)
	if err != nil {
		return false, storeErr(err)
	}
	return !anyOverlap(bookings, start, end), nil
}

// anyOverlap reports whether [start,end) intersects any of the bookings.
// Booking times come from the store in "HH:MM" form; rows that fail to
// parse are treated as blocking rather than silently ignored.
func anyOverlap(bookings []model.Booking, start, end int) bool {
	for _, b := range bookings {
		bs, be, err := interval.ParseInterval(b.StartTime, b.EndTime)
		if err != nil {
			return true
		}
		if interval.Overlaps(start, end, bs, be) {
			return true
		}
	}
	return false
}
