package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldpass/venue-booking/internal/interval"
	"github.com/fieldpass/venue-booking/internal/model"
	"github.com/fieldpass/venue-booking/internal/monitoring"
	"github.com/fieldpass/venue-booking/internal/slots"
	"github.com/fieldpass/venue-booking/internal/utils"
)

// CreateBookingInput carries a booking request.  Date is "YYYY-MM-DD",
// times are "HH:MM".
type CreateBookingInput struct {
	UserID    uint64 `json:"user_id"`
	VenueID   uint64 `json:"venue_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// codeAttempts bounds booking-code collision retries.  Codes carry 48
// bits of randomness, so a second collision in a row means something is
// broken rather than unlucky.
const codeAttempts = 3

// CreateBooking runs the booking transaction:
//
//	VALIDATING – canonicalize date and interval, reject unknown or
//	             inactive venues and malformed intervals.
//	RESERVING  – Store.CreateBookingAtomic re-checks overlap against all
//	             PENDING/CONFIRMED bookings for (venue, date) and inserts
//	             the row in the same indivisible unit.
//	COMMITTED  – row persisted PENDING with a fresh unique code; the
//	             venue's availability cache entries are invalidated
//	             asynchronously.
//	REJECTED   – no row written; ErrSlotUnavailable on conflict.
//
// A separate "query then insert" sequence would race between the check
// and the write, so all overlap enforcement lives behind the store port.
func (e *Engine) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	started := time.Now()

	day, dow, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	start, end, err := interval.ParseInterval(in.StartTime, in.EndTime)
	if err != nil {
		return nil, err
	}

	venue, err := e.store.GetVenue(ctx, in.VenueID)
	if err != nil {
		return nil, storeErr(err)
	}
	if !venue.IsActive {
		return nil, ErrVenueInactive
	}

	template, err := e.store.ListSlotTemplate(ctx, in.VenueID, dow)
	if err != nil {
		return nil, storeErr(err)
	}
	total := totalPrice(venue.PricePerHour, template, start, end)

	booking := &model.Booking{
		UserID:     in.UserID,
		VenueID:    in.VenueID,
		Date:       day,
		StartTime:  interval.FormatTimeOfDay(start),
		EndTime:    interval.FormatTimeOfDay(end),
		Duration:   end - start,
		TotalPrice: total,
		Status:     model.BookingPending,
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := utils.GenerateBookingCode()
		if err != nil {
			return nil, storeErr(err)
		}
		booking.BookingCode = code

		err = e.store.CreateBookingAtomic(ctx, booking)
		if errors.Is(err, ErrBookingCodeTaken) {
			continue
		}
		if err != nil {
			if errors.Is(err, ErrSlotUnavailable) {
				monitoring.RecordBooking("rejected")
				e.log.Info("booking rejected",
					"venue_id", in.VenueID, "date", day,
					"interval", booking.StartTime+"-"+booking.EndTime)
			} else {
				monitoring.RecordBooking("error")
			}
			return nil, storeErr(err)
		}

		monitoring.RecordBooking("committed")
		monitoring.ObserveBookingDuration(time.Since(started))
		e.log.Info("booking committed",
			"booking_code", booking.BookingCode, "venue_id", in.VenueID,
			"date", day, "interval", booking.StartTime+"-"+booking.EndTime,
			"total_price", total.String())
		e.invalidateVenueAsync(in.VenueID)
		return booking, nil
	}
	monitoring.RecordBooking("error")
	return nil, fmt.Errorf("%w: could not allocate a unique booking code", ErrStoreUnavailable)
}

// GetBooking returns a booking by its code.
func (e *Engine) GetBooking(ctx context.Context, code string) (*model.Booking, error) {
	b, err := e.store.GetBookingByCode(ctx, code)
	if err != nil {
		return nil, storeErr(err)
	}
	return b, nil
}

// ConfirmBooking transitions a PENDING booking to CONFIRMED.  It is
// driven by the payment collaborator; availability does not change since
// PENDING bookings already block their interval.
func (e *Engine) ConfirmBooking(ctx context.Context, code string) error {
	if _, err := e.store.GetBookingByCode(ctx, code); err != nil {
		return storeErr(err)
	}
	if err := e.store.UpdateBookingStatus(ctx, code, model.BookingConfirmed); err != nil {
		return storeErr(err)
	}
	e.log.Info("booking confirmed", "booking_code", code)
	return nil
}

// totalPrice computes the booking total.  Hour-aligned intervals are
// priced per covered template slot (peak hours cost more); intervals
// that do not align to whole hours fall back to the base hourly rate
// times the duration in hours.
func totalPrice(base decimal.Decimal, template []model.TimeSlot, start, end int) decimal.Decimal {
	if start%60 != 0 || end%60 != 0 {
		minutes := decimal.NewFromInt(int64(end - start))
		return base.Mul(minutes).Div(decimal.NewFromInt(60))
	}

	byStart := make(map[string]model.TimeSlot, len(template))
	for _, s := range template {
		byStart[s.StartTime] = s
	}
	total := decimal.Zero
	for m := start; m < end; m += 60 {
		if slot, ok := byStart[interval.FormatTimeOfDay(m)]; ok {
			total = total.Add(slots.Price(base, slot))
		} else {
			// outside the template (before open / after close)
			total = total.Add(base)
		}
	}
	return total
}
