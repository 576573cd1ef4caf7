package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fieldpass/venue-booking/internal/model"
)

// Store is the booking-store port.  Implementations own the persisted
// layout; the engine only relies on the behaviour documented per method.
// Every method must honor context cancellation and deadlines.
type Store interface {
	// CreateVenueWithSlots persists a venue together with its full weekly
	// slot template in one atomic unit, populating the venue's generated
	// fields (ID, timestamps).
	CreateVenueWithSlots(ctx context.Context, v *model.Venue, slots []model.TimeSlot) error

	// GetVenue returns a venue by id or ErrVenueNotFound.
	GetVenue(ctx context.Context, id uint64) (*model.Venue, error)

	// ListVenues returns active venues matching the filter, ordered by
	// rating descending.
	ListVenues(ctx context.Context, f VenueFilter) ([]*model.Venue, error)

	// ListSlotTemplate returns the venue's template rows for one day of
	// week, ordered by start time ascending.  A venue with no rows for
	// that day yields an empty slice, not an error.
	ListSlotTemplate(ctx context.Context, venueID uint64, dayOfWeek int) ([]model.TimeSlot, error)

	// ListBookings returns the venue's bookings on a date whose status is
	// in statuses.
	ListBookings(ctx context.Context, venueID uint64, date string, statuses []string) ([]model.Booking, error)

	// CreateBookingAtomic re-checks the booking's interval against all
	// PENDING and CONFIRMED bookings for (venue, date) and inserts the row
	// in the same indivisible unit.  Concurrent calls for the same
	// (venue, date) must be serialized against each other.
	// Implementations may serialize more coarsely (the MySQL store locks
	// per venue) as long as different venues proceed in parallel.  Returns
	// ErrSlotUnavailable on overlap and ErrBookingCodeTaken on a
	// booking-code collision; either way no row is written.
	CreateBookingAtomic(ctx context.Context, b *model.Booking) error

	// GetBookingByCode returns a booking by its code or ErrBookingNotFound.
	GetBookingByCode(ctx context.Context, code string) (*model.Booking, error)

	// UpdateBookingStatus transitions the booking identified by code to
	// the given status.
	UpdateBookingStatus(ctx context.Context, code, status string) error
}

// Cache is the cache port.  The cache is an optimization only: every
// implementation may drop writes or miss spuriously without affecting
// correctness, because the booking transaction always re-checks
// availability against the authoritative store.
type Cache interface {
	// Get returns the cached payload for key, or ok=false on miss.
	Get(ctx context.Context, key string) (payload []byte, ok bool)
	// Set stores payload under key with the given TTL.  Failures are
	// swallowed by the implementation.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration)
	// InvalidateVenue drops every availability entry derived from the
	// given venue.
	InvalidateVenue(ctx context.Context, venueID uint64) error
	// InvalidateListings drops the whole venue-listing cache.  Listing
	// results cannot be selectively invalidated by venue.
	InvalidateListings(ctx context.Context) error
}

// VenueFilter enumerates the recognized listing filters.  Nil or empty
// fields are ignored.  City and Sport match exactly; MinPrice/MaxPrice
// bound the base hourly price inclusively.
type VenueFilter struct {
	City     string
	Sport    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// ListingKey derives the canonical cache key for a venue listing query.
// Fields are serialized as sorted key=value pairs so equivalent filters
// always map to the same entry regardless of how the caller assembled
// them.
func ListingKey(f VenueFilter) string {
	pairs := make([]string, 0, 4)
	if f.City != "" {
		pairs = append(pairs, "city="+strings.ToLower(f.City))
	}
	if f.MaxPrice != nil {
		pairs = append(pairs, "max_price="+f.MaxPrice.String())
	}
	if f.MinPrice != nil {
		pairs = append(pairs, "min_price="+f.MinPrice.String())
	}
	if f.Sport != "" {
		pairs = append(pairs, "sport="+strings.ToLower(f.Sport))
	}
	sort.Strings(pairs)
	return ListingKeyPrefix + strings.Join(pairs, "&")
}

// AvailabilityKey derives the cache key for a venue's availability on a
// date.
func AvailabilityKey(venueID uint64, date string) string {
	return AvailabilityKeyPrefix(venueID) + date
}

// AvailabilityKeyPrefix is the key prefix shared by all availability
// entries of one venue; InvalidateVenue deletes by this prefix.
func AvailabilityKeyPrefix(venueID uint64) string {
	return fmt.Sprintf("availability:%d:", venueID)
}

// ListingKeyPrefix is the key prefix shared by all venue-listing entries;
// InvalidateListings deletes by this prefix.
const ListingKeyPrefix = "venues:list:"
