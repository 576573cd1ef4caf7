// Package engine implements the booking and availability core: venue
// publication, the weekly slot calendar, real-time availability resolution
// and the atomic booking transaction.  Storage and caching are reached
// through the narrow ports declared in ports.go so that implementations can
// be substituted with in-memory fakes in tests.
package engine

import "errors"

// ErrVenueNotFound is returned when a venue id does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrVenueNotFound = errors.New("venue not found")

// ErrVenueInactive is returned when a booking targets a venue that has
// been soft-deactivated.  Handlers should translate this into 409.
var ErrVenueInactive = errors.New("venue is not active")

// ErrSlotUnavailable is the typed rejection of a booking attempt whose
// interval overlaps an existing PENDING or CONFIRMED booking.  It is
// detected inside the atomic reserve step, so a rejected attempt leaves
// no partial state and is always safe to retry.
var ErrSlotUnavailable = errors.New("slot is not available for the requested time")

// ErrBookingNotFound is returned when a booking code does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrBookingCodeTaken signals a booking-code collision inside the store.
// The engine regenerates the code and retries; if retries exhaust, the
// failure surfaces as ErrStoreUnavailable, so callers never see this
// sentinel.
var ErrBookingCodeTaken = errors.New("booking code already exists")

// ErrStoreUnavailable wraps transport or storage failures (including
// timeouts).  The engine performs no internal retries: retrying a commit
// without re-checking availability is unsafe, so retry policy belongs to
// the caller.
var ErrStoreUnavailable = errors.New("storage unavailable")
