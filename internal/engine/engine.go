package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Cache TTLs.  Listings may be served up to five minutes stale; availability
// entries are short-lived because they are invalidated on every commit
// anyway and only shield repeated reads between writes.
const (
	listingTTL      = 5 * time.Minute
	availabilityTTL = time.Minute
)

// Engine wires the availability resolver, the booking transaction and the
// cache coordinator around a Store and a Cache port.  It holds no mutable
// state of its own and is safe for concurrent use; all mutual exclusion
// lives behind Store.CreateBookingAtomic.
type Engine struct {
	store Store
	cache Cache
	log   *slog.Logger
}

// New constructs an Engine.  store must be non-nil; cache may be a no-op
// implementation when caching is disabled.
func New(store Store, cache Cache, log *slog.Logger) *Engine {
	if store == nil {
		panic("nil store passed to engine.New")
	}
	if cache == nil {
		panic("nil cache passed to engine.New")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: store, cache: cache, log: log}
}

// parseDateTime parses a calendar date in the wire format used across the
// API.  Dates carry no timezone; UTC keeps day-of-week resolution stable.
func parseDateTime(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, time.UTC)
}

// storeErr wraps infrastructure failures from the store as
// ErrStoreUnavailable.  Domain sentinels pass through untouched so
// callers can branch on them with errors.Is.
func storeErr(err error) error {
	switch {
	case errors.Is(err, ErrVenueNotFound),
		errors.Is(err, ErrVenueInactive),
		errors.Is(err, ErrSlotUnavailable),
		errors.Is(err, ErrBookingNotFound):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

// invalidateVenueAsync fires a cache invalidation for the venue without
// blocking the caller.  Invalidation must never fail a commit: a failure
// degrades to serving stale reads for up to the TTL.
func (e *Engine) invalidateVenueAsync(venueID uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.cache.InvalidateVenue(ctx, venueID); err != nil {
			e.log.Warn("availability cache invalidation failed",
				"venue_id", venueID, "error", err)
		}
	}()
}

// invalidateListingsAsync drops the listing cache without blocking the
// caller.
func (e *Engine) invalidateListingsAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := e.cache.InvalidateListings(ctx); err != nil {
			e.log.Warn("listing cache invalidation failed", "error", err)
		}
	}()
}
