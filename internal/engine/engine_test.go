package engine_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldpass/venue-booking/internal/cache"
	"github.com/fieldpass/venue-booking/internal/engine"
	"github.com/fieldpass/venue-booking/internal/interval"
	"github.com/fieldpass/venue-booking/internal/model"
	"github.com/fieldpass/venue-booking/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) (*engine.Engine, *repository.MemStore) {
	t.Helper()
	store := repository.NewMemStore()
	return engine.New(store, cache.NewNopCache(), testLogger()), store
}

func courtA(t *testing.T, e *engine.Engine) *model.Venue {
	t.Helper()
	v, err := e.CreateVenue(context.Background(), engine.CreateVenueInput{
		Name:         "Court A",
		Description:  "covered futsal court",
		Address:      "Jl. Sudirman 1",
		City:         "Jakarta",
		Latitude:     -6.2,
		Longitude:    106.8,
		Sports:       []string{"futsal"},
		Facilities:   []string{"parking", "shower"},
		PricePerHour: decimal.NewFromInt(100000),
		OpenTime:     "06:00",
		CloseTime:    "23:00",
	})
	require.NoError(t, err)
	require.NotZero(t, v.ID)
	return v
}

func book(t *testing.T, e *engine.Engine, venueID uint64, date, start, end string) (*model.Booking, error) {
	t.Helper()
	return e.CreateBooking(context.Background(), engine.CreateBookingInput{
		UserID:    7,
		VenueID:   venueID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
}

func TestCreateVenue(t *testing.T) {
	e, _ := newTestEngine(t)
	v := courtA(t, e)

	assert.Equal(t, "court-a", v.Slug)
	assert.True(t, v.IsActive)

	got, err := e.GetVenue(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Name, got.Name)

	_, err = e.GetVenue(context.Background(), 9999)
	assert.ErrorIs(t, err, engine.ErrVenueNotFound)
}

func TestCreateVenueValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	base := engine.CreateVenueInput{
		Name:         "Court A",
		City:         "Jakarta",
		Sports:       []string{"futsal"},
		PricePerHour: decimal.NewFromInt(100000),
		OpenTime:     "06:00",
		CloseTime:    "23:00",
	}

	cases := []struct {
		name   string
		mutate func(*engine.CreateVenueInput)
		want   error
	}{
		{"short name", func(in *engine.CreateVenueInput) { in.Name = "ab" }, engine.ErrInvalidVenueInput},
		{"missing city", func(in *engine.CreateVenueInput) { in.City = " " }, engine.ErrInvalidVenueInput},
		{"bad latitude", func(in *engine.CreateVenueInput) { in.Latitude = 91 }, engine.ErrInvalidVenueInput},
		{"no sports", func(in *engine.CreateVenueInput) { in.Sports = nil }, engine.ErrInvalidVenueInput},
		{"zero price", func(in *engine.CreateVenueInput) { in.PricePerHour = decimal.Zero }, engine.ErrInvalidVenueInput},
		{"bad open time", func(in *engine.CreateVenueInput) { in.OpenTime = "6am" }, interval.ErrInvalidFormat},
		{"close before open", func(in *engine.CreateVenueInput) { in.OpenTime = "22:00"; in.CloseTime = "06:00" }, interval.ErrInvalidInterval},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := base
			c.mutate(&in)
			_, err := e.CreateVenue(context.Background(), in)
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Court A":              "court-a",
		"GOR  Senayan (Hall 2)": "gor-senayan-hall-2",
		"  Futsal+Arena!  ":    "futsal-arena",
		"---":                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, engine.Slugify(in), "input %q", in)
	}
}

func TestListingKeyCanonical(t *testing.T) {
	min := decimal.NewFromInt(50000)
	max := decimal.NewFromInt(200000)

	a := engine.ListingKey(engine.VenueFilter{City: "Jakarta", Sport: "Futsal", MinPrice: &min, MaxPrice: &max})
	b := engine.ListingKey(engine.VenueFilter{Sport: "futsal", MaxPrice: &max, MinPrice: &min, City: "jakarta"})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, engine.ListingKeyPrefix))

	empty := engine.ListingKey(engine.VenueFilter{})
	assert.NotEqual(t, a, empty)
}

func TestListVenuesFilter(t *testing.T) {
	e, _ := newTestEngine(t)
	courtA(t, e)
	_, err := e.CreateVenue(context.Background(), engine.CreateVenueInput{
		Name:         "Bandung Badminton Hall",
		City:         "Bandung",
		Latitude:     -6.9,
		Longitude:    107.6,
		Sports:       []string{"badminton"},
		PricePerHour: decimal.NewFromInt(60000),
		OpenTime:     "08:00",
		CloseTime:    "22:00",
	})
	require.NoError(t, err)

	all, err := e.ListVenues(context.Background(), engine.VenueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	jakarta, err := e.ListVenues(context.Background(), engine.VenueFilter{City: "jakarta"})
	require.NoError(t, err)
	require.Len(t, jakarta, 1)
	assert.Equal(t, "Court A", jakarta[0].Name)

	badminton, err := e.ListVenues(context.Background(), engine.VenueFilter{Sport: "badminton"})
	require.NoError(t, err)
	require.Len(t, badminton, 1)
	assert.Equal(t, "Bandung Badminton Hall", badminton[0].Name)

	max := decimal.NewFromInt(80000)
	cheap, err := e.ListVenues(context.Background(), engine.VenueFilter{MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "Bandung Badminton Hall", cheap[0].Name)
}

func TestIsAvailable(t *testing.T) {
	e, _ := newTestEngine(t)
	v := courtA(t, e)

	_, err := book(t, e, v.ID, "2024-02-01", "10:00", "12:00")
	require.NoError(t, err)

	cases := []struct {
		start, end string
		want       bool
	}{
		{"11:00", "13:00", false}, // overlaps tail
		{"09:00", "11:00", false}, // overlaps head
		{"10:30", "11:30", false}, // contained
		{"09:00", "13:00", false}, // contains
		{"10:00", "12:00", false}, // exact
		{"12:00", "13:00", true},  // adjacent after
		{"09:00", "10:00", true},  // adjacent before
		{"14:00", "15:00", true},  // disjoint
	}
	for _, c := range cases {
		got, err := e.IsAvailable(context.Background(), v.ID, "2024-02-01", c.start, c.end)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s-%s", c.start, c.end)
	}

	// Other dates are unaffected.
	got, err := e.IsAvailable(context.Background(), v.ID, "2024-02-02", "10:00", "12:00")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCreateBookingLifecycle(t *testing.T) {
	e, _ := newTestEngine(t)
	v := courtA(t, e)

	b, err := book(t, e, v.ID, "2024-02-01", "10:00", "11:00")
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, b.Status)
	assert.True(t, strings.HasPrefix(b.BookingCode, "BK"))
	assert.Len(t, b.BookingCode, 14)
	assert.Equal(t, 60, b.Duration)

	// Conflicting request is rejected, no row written.
	_, err = book(t, e, v.ID, "2024-02-01", "10:30", "11:30")
	assert.ErrorIs(t, err, engine.ErrSlotUnavailable)
	assert.Contains(t, err.Error(), "not available")

	// The booked hour disappears from availability.
	free, err := e.ListAvailableSlots(context.Background(), v.ID, "2024-02-01")
	require.NoError(t, err)
	for _, s := range free {
		assert.NotEqual(t, "10:00", s.StartTime)
	}
	// 06:00-23:00 template has 17 hourly slots; one is taken.
	assert.Len(t, free, 16)

	// Payment confirmation transitions PENDING to CONFIRMED.
	require.NoError(t, e.ConfirmBooking(context.Background(), b.BookingCode))
	got, err := e.GetBooking(context.Background(), b.BookingCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, got.Status)

	_, err = e.GetBooking(context.Background(), "BKDEADBEEF0000")
	assert.ErrorIs(t, err, engine.ErrBookingNotFound)
}

func TestCreateBookingRejections(t *testing.T) {
	e, store := newTestEngine(t)
	v := courtA(t, e)

	_, err := book(t, e, 9999, "2024-02-01", "10:00", "11:00")
	assert.ErrorIs(t, err, engine.ErrVenueNotFound)

	_, err = book(t, e, v.ID, "01-02-2024", "10:00", "11:00")
	assert.ErrorIs(t, err, interval.ErrInvalidFormat)

	_, err = book(t, e, v.ID, "2024-02-01", "11:00", "10:00")
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)

	_, err = book(t, e, v.ID, "2024-02-01", "10:00", "10:00")
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)

	store.SetVenueActive(v.ID, false)
	_, err = book(t, e, v.ID, "2024-02-01", "10:00", "11:00")
	assert.ErrorIs(t, err, engine.ErrVenueInactive)
}

func TestRejectionLeavesStateUnchanged(t *testing.T) {
	e, _ := newTestEngine(t)
	v := courtA(t, e)

	first, err := book(t, e, v.ID, "2024-02-01", "10:00", "12:00")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := book(t, e, v.ID, "2024-02-01", "10:00", "12:00")
		assert.ErrorIs(t, err, engine.ErrSlotUnavailable)
	}

	// The winner is untouched and the rest of the day still books fine.
	got, err := e.GetBooking(context.Background(), first.BookingCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)

	_, err = book(t, e, v.ID, "2024-02-01", "12:00", "13:00")
	assert.NoError(t, err)
}

func TestConcurrentBookingsOneWinner(t *testing.T) {
	e, _ := newTestEngine(t)
	v := courtA(t, e)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = e.CreateBooking(context.Background(), engine.CreateBookingInput{
				UserID:    uint64(i + 1),
				VenueID:   v.ID,
				Date:      "2024-02-01",
				StartTime: "10:00",
				EndTime:   "11:00",
			})
		}(i)
	}
	close(start)
	wg.Wait()

	committed, rejected := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		default:
			require.ErrorIs(t, err, engine.ErrSlotUnavailable)
			rejected++
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, n-1, rejected)
}

func TestBookingPricing(t *testing.T) {
	e, _ := newTestEngine(t)
	v := courtA(t, e)

	// 2024-02-01 is a Thursday. 10:00 is off-peak on weekdays.
	offPeak, err := book(t, e, v.ID, "2024-02-01", "10:00", "11:00")
	require.NoError(t, err)
	assert.True(t, offPeak.TotalPrice.Equal(decimal.NewFromInt(100000)),
		"got %s", offPeak.TotalPrice)

	// Weekday evening hours carry the peak multiplier.
	evening, err := book(t, e, v.ID, "2024-02-01", "18:00", "20:00")
	require.NoError(t, err)
	assert.True(t, evening.TotalPrice.Equal(decimal.NewFromInt(300000)),
		"got %s", evening.TotalPrice)

	// 2024-02-03 is a Saturday; 09:00 falls in the weekend peak window.
	weekend, err := book(t, e, v.ID, "2024-02-03", "09:00", "10:00")
	require.NoError(t, err)
	assert.True(t, weekend.TotalPrice.Equal(decimal.NewFromInt(150000)),
		"got %s", weekend.TotalPrice)

	// Unaligned intervals fall back to the base rate pro rata.
	unaligned, err := book(t, e, v.ID, "2024-02-03", "12:30", "14:00")
	require.NoError(t, err)
	assert.True(t, unaligned.TotalPrice.Equal(decimal.NewFromInt(150000)),
		"got %s", unaligned.TotalPrice)
}

func TestAvailabilityPrices(t *testing.T) {
	e, _ := newTestEngine(t)
	v := courtA(t, e)

	// Saturday: hours 08-20 are peak.
	free, err := e.ListAvailableSlots(context.Background(), v.ID, "2024-02-03")
	require.NoError(t, err)
	require.Len(t, free, 17)

	byStart := make(map[string]decimal.Decimal, len(free))
	for i, s := range free {
		byStart[s.StartTime] = s.Price
		if i > 0 {
			assert.Less(t, free[i-1].StartTime, s.StartTime, "slots sorted by start")
		}
	}
	assert.True(t, byStart["06:00"].Equal(decimal.NewFromInt(100000)))
	assert.True(t, byStart["09:00"].Equal(decimal.NewFromInt(150000)))
	assert.True(t, byStart["20:00"].Equal(decimal.NewFromInt(150000)))
	assert.True(t, byStart["21:00"].Equal(decimal.NewFromInt(100000)))
}

func TestAvailabilityEmptyTemplateDay(t *testing.T) {
	store := repository.NewMemStore()
	e := engine.New(store, cache.NewNopCache(), testLogger())

	// Seed a venue with no template rows at all.
	v := &model.Venue{
		Name: "Bare Venue", Slug: "bare-venue", City: "Jakarta",
		Sports: []string{"futsal"}, PricePerHour: decimal.NewFromInt(100000),
		OpenTime: "06:00", CloseTime: "23:00", IsActive: true,
	}
	require.NoError(t, store.CreateVenueWithSlots(context.Background(), v, nil))

	free, err := e.ListAvailableSlots(context.Background(), v.ID, "2024-02-01")
	require.NoError(t, err)
	assert.Empty(t, free)

	// Booking outside any template is still allowed and priced pro rata.
	b, err := book(t, e, v.ID, "2024-02-01", "10:00", "11:00")
	require.NoError(t, err)
	assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(100000)))
}

// collidingStore reports every booking code as taken, exhausting the
// engine's regeneration retries.
type collidingStore struct{ engine.Store }

func (s *collidingStore) CreateBookingAtomic(context.Context, *model.Booking) error {
	return engine.ErrBookingCodeTaken
}

func TestBookingCodeExhaustionSurfacesAsStoreUnavailable(t *testing.T) {
	store := &collidingStore{Store: repository.NewMemStore()}
	e := engine.New(store, cache.NewNopCache(), testLogger())
	v := courtA(t, e)

	_, err := book(t, e, v.ID, "2024-02-01", "10:00", "11:00")
	assert.ErrorIs(t, err, engine.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, engine.ErrBookingCodeTaken)
}

// memCache is a map-backed engine.Cache used to observe read-through
// behaviour without Redis.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	return p, ok
}

func (c *memCache) Set(_ context.Context, key string, payload []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = payload
}

func (c *memCache) InvalidateVenue(_ context.Context, venueID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, engine.AvailabilityKeyPrefix(venueID)) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *memCache) InvalidateListings(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, engine.ListingKeyPrefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// countingStore wraps a Store and counts availability reads, so tests can
// tell whether a result came from the cache or the store.
type countingStore struct {
	engine.Store
	mu           sync.Mutex
	listBookings int
}

func (s *countingStore) ListBookings(ctx context.Context, venueID uint64, date string, statuses []string) ([]model.Booking, error) {
	s.mu.Lock()
	s.listBookings++
	s.mu.Unlock()
	return s.Store.ListBookings(ctx, venueID, date, statuses)
}

func TestAvailabilityReadThrough(t *testing.T) {
	mem := repository.NewMemStore()
	store := &countingStore{Store: mem}
	c := newMemCache()
	e := engine.New(store, c, testLogger())
	v := courtA(t, e)

	first, err := e.ListAvailableSlots(context.Background(), v.ID, "2024-02-01")
	require.NoError(t, err)
	reads := store.listBookings

	// Second read is served from the cache.  Prices are compared with
	// decimal.Equal because the cache's JSON round-trip normalises the
	// decimal's internal exponent (REVIEW_FINDINGS F5).
	second, err := e.ListAvailableSlots(context.Background(), v.ID, "2024-02-01")
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].StartTime, second[i].StartTime)
		assert.Equal(t, first[i].EndTime, second[i].EndTime)
		assert.True(t, first[i].Price.Equal(second[i].Price),
			"slot %d price: fresh %s vs cached %s", i, first[i].Price, second[i].Price)
	}
	assert.Equal(t, reads, store.listBookings)

	// A commit invalidates the venue's availability entries; the next
	// read recomputes and no longer contains the booked hour.
	_, err = book(t, e, v.ID, "2024-02-01", "10:00", "11:00")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := c.Get(context.Background(), engine.AvailabilityKey(v.ID, "2024-02-01"))
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	third, err := e.ListAvailableSlots(context.Background(), v.ID, "2024-02-01")
	require.NoError(t, err)
	assert.Len(t, third, len(first)-1)
}

// failingCache errors on every invalidation.
type failingCache struct{ memCache }

func (c *failingCache) InvalidateVenue(context.Context, uint64) error {
	return context.DeadlineExceeded
}

func (c *failingCache) InvalidateListings(context.Context) error {
	return context.DeadlineExceeded
}

func TestInvalidationFailureDoesNotFailCommit(t *testing.T) {
	store := repository.NewMemStore()
	c := &failingCache{memCache{entries: make(map[string][]byte)}}
	e := engine.New(store, c, testLogger())
	v := courtA(t, e)

	b, err := book(t, e, v.ID, "2024-02-01", "10:00", "11:00")
	require.NoError(t, err)

	got, err := e.GetBooking(context.Background(), b.BookingCode)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPending, got.Status)
}

func TestListingReadThrough(t *testing.T) {
	mem := repository.NewMemStore()
	c := newMemCache()
	e := engine.New(mem, c, testLogger())
	courtA(t, e)

	out, err := e.ListVenues(context.Background(), engine.VenueFilter{City: "Jakarta"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Positive(t, c.len())

	// Creating a venue drops the listing cache.
	_, err = e.CreateVenue(context.Background(), engine.CreateVenueInput{
		Name:         "Court B Jakarta",
		City:         "Jakarta",
		Sports:       []string{"futsal"},
		PricePerHour: decimal.NewFromInt(90000),
		OpenTime:     "06:00",
		CloseTime:    "22:00",
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, ok := c.Get(context.Background(), engine.ListingKey(engine.VenueFilter{City: "Jakarta"}))
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	out, err = e.ListVenues(context.Background(), engine.VenueFilter{City: "Jakarta"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}
