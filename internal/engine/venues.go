package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fieldpass/venue-booking/internal/interval"
	"github.com/fieldpass/venue-booking/internal/model"
	"github.com/fieldpass/venue-booking/internal/monitoring"
	"github.com/fieldpass/venue-booking/internal/slots"
)

// CreateVenueInput carries the validated fields for venue creation.  The
// transport layer runs its own schema validation first; the engine still
// re-checks field bounds and interval ordering here as defense in depth.
type CreateVenueInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	Sports       []string        `json:"sports"`
	Facilities   []string        `json:"facilities"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	OpenTime     string          `json:"open_time"`
	CloseTime    string          `json:"close_time"`
}

// ErrInvalidVenueInput is returned when venue creation input fails
// validation.  The wrapped message names the offending field.
var ErrInvalidVenueInput = errors.New("invalid venue input")

func (in *CreateVenueInput) validate() error {
	if l := len(strings.TrimSpace(in.Name)); l < 3 || l > 100 {
		return fmt.Errorf("%w: name must be 3-100 characters", ErrInvalidVenueInput)
	}
	if strings.TrimSpace(in.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidVenueInput)
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return fmt.Errorf("%w: latitude out of range", ErrInvalidVenueInput)
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return fmt.Errorf("%w: longitude out of range", ErrInvalidVenueInput)
	}
	if len(in.Sports) == 0 {
		return fmt.Errorf("%w: at least one sport is required", ErrInvalidVenueInput)
	}
	if !in.PricePerHour.IsPositive() {
		return fmt.Errorf("%w: price per hour must be positive", ErrInvalidVenueInput)
	}
	return nil
}

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a venue name: lowercase, runs of
// non-alphanumeric characters collapsed into single hyphens, no leading
// or trailing hyphen.
func Slugify(name string) string {
	s := slugNonAlnum.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// CreateVenue validates the input, derives the slug, generates the full
// weekly slot template and persists venue plus template in one unit.
// The listing cache is invalidated afterwards since listing results
// cannot be selectively invalidated by venue.
func (e *Engine) CreateVenue(ctx context.Context, in CreateVenueInput) (*model.Venue, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	// validates interval ordering of open/close as a side effect
	template, err := slots.Generate(0, in.OpenTime, in.CloseTime)
	if err != nil {
		return nil, err
	}

	v := &model.Venue{
		Name:         strings.TrimSpace(in.Name),
		Slug:         Slugify(in.Name),
		Description:  in.Description,
		Address:      in.Address,
		City:         in.City,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Sports:       in.Sports,
		Facilities:   in.Facilities,
		PricePerHour: in.PricePerHour,
		OpenTime:     in.OpenTime,
		CloseTime:    in.CloseTime,
		IsActive:     true,
	}
	if err := e.store.CreateVenueWithSlots(ctx, v, template); err != nil {
		return nil, storeErr(err)
	}

	e.log.Info("venue created",
		"venue_id", v.ID, "slug", v.Slug, "slots", len(template))
	e.invalidateListingsAsync()
	return v, nil
}

// GetVenue returns a venue by id.  Reads go straight to the store; only
// listing and availability queries are memoized.
func (e *Engine) GetVenue(ctx context.Context, id uint64) (*model.Venue, error) {
	v, err := e.store.GetVenue(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	return v, nil
}

// ListVenues returns active venues matching the filter, read through the
// listing cache.
func (e *Engine) ListVenues(ctx context.Context, f VenueFilter) ([]*model.Venue, error) {
	key := ListingKey(f)
	if payload, ok := e.cache.Get(ctx, key); ok {
		var cached []*model.Venue
		if err := json.Unmarshal(payload, &cached); err == nil {
			monitoring.RecordCacheLookup("listing", true)
			return cached, nil
		}
		// corrupt entry: fall through and recompute
	}
	monitoring.RecordCacheLookup("listing", false)

	out, err := e.store.ListVenues(ctx, f)
	if err != nil {
		return nil, storeErr(err)
	}
	if payload, err := json.Marshal(out); err == nil {
		e.cache.Set(ctx, key, payload, listingTTL)
	}
	return out, nil
}

// parseDate canonicalizes a "YYYY-MM-DD" date and resolves its day of
// week (0=Sunday..6=Saturday).
func parseDate(s string) (string, int, error) {
	t, err := parseDateTime(s)
	if err != nil {
		return "", 0, fmt.Errorf("%w: date %q, expected YYYY-MM-DD", interval.ErrInvalidFormat, s)
	}
	return t.Format("2006-01-02"), int(t.Weekday()), nil
}
