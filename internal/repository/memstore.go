package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fieldpass/venue-booking/internal/engine"
	"github.com/fieldpass/venue-booking/internal/interval"
	"github.com/fieldpass/venue-booking/internal/model"
)

// MemStore is an in-memory implementation of engine.Store used in tests
// and local development.  Where the MySQL store relies on a row lock for
// the booking transaction, MemStore serializes with an explicit mutex
// per (venue, date): transactions for the same pair queue behind one
// lock, transactions for different pairs run in parallel.
type MemStore struct {
	mu       sync.RWMutex
	venues   map[uint64]*model.Venue
	slots    map[uint64][]model.TimeSlot
	bookings map[uint64][]model.Booking
	codes    map[string]struct{}
	nextVID  uint64
	nextBID  uint64

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

var _ engine.Store = (*MemStore)(nil)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		venues:   make(map[uint64]*model.Venue),
		slots:    make(map[uint64][]model.TimeSlot),
		bookings: make(map[uint64][]model.Booking),
		codes:    make(map[string]struct{}),
		locks:    make(map[string]*sync.Mutex),
	}
}

// reserveLock returns the mutex owning all booking transactions for one
// (venue, date) pair.
func (m *MemStore) reserveLock(venueID uint64, date string) *sync.Mutex {
	key := fmt.Sprintf("%d|%s", venueID, date)
	m.lockMu.Lock()
	defer m.lockMu.Unlock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

// CreateVenueWithSlots stores the venue and its template.
func (m *MemStore) CreateVenueWithSlots(ctx context.Context, v *model.Venue, slots []model.TimeSlot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextVID++
	v.ID = m.nextVID
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now

	cp := *v
	m.venues[v.ID] = &cp

	owned := make([]model.TimeSlot, len(slots))
	copy(owned, slots)
	for i := range owned {
		owned[i].ID = uint64(i + 1)
		owned[i].VenueID = v.ID
		owned[i].CreatedAt = now
	}
	m.slots[v.ID] = owned
	return nil
}

// GetVenue returns the venue or engine.ErrVenueNotFound.
func (m *MemStore) GetVenue(ctx context.Context, id uint64) (*model.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.venues[id]
	if !ok {
		return nil, engine.ErrVenueNotFound
	}
	cp := *v
	return &cp, nil
}

// SetVenueActive flips the active flag; used by tests to exercise the
// inactive-venue path.
func (m *MemStore) SetVenueActive(id uint64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.venues[id]; ok {
		v.IsActive = active
	}
}

// ListVenues applies the filter in memory, ordered by rating descending.
func (m *MemStore) ListVenues(ctx context.Context, f engine.VenueFilter) ([]*model.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Venue, 0)
	for _, v := range m.venues {
		if !v.IsActive {
			continue
		}
		if f.City != "" && !strings.EqualFold(f.City, v.City) {
			continue
		}
		if f.Sport != "" && !containsFold(v.Sports, f.Sport) {
			continue
		}
		if f.MinPrice != nil && v.PricePerHour.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && v.PricePerHour.GreaterThan(*f.MaxPrice) {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// ListSlotTemplate returns the venue's slots for one day, ascending by
// start time.
func (m *MemStore) ListSlotTemplate(ctx context.Context, venueID uint64, dayOfWeek int) ([]model.TimeSlot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.TimeSlot, 0)
	for _, s := range m.slots[venueID] {
		if s.DayOfWeek == dayOfWeek {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// ListBookings returns bookings for (venue, date) with a status in
// statuses, ascending by start time.
func (m *MemStore) ListBookings(ctx context.Context, venueID uint64, date string, statuses []string) ([]model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	want := make(map[string]struct{}, len(statuses))
	for _, s := range statuses {
		want[s] = struct{}{}
	}
	out := make([]model.Booking, 0)
	for _, b := range m.bookings[venueID] {
		if b.Date != date {
			continue
		}
		if _, ok := want[b.Status]; !ok {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

// CreateBookingAtomic re-checks overlap and inserts under the
// per-(venue, date) mutex, making the check-then-insert indivisible with
// respect to other booking transactions on the same pair.
func (m *MemStore) CreateBookingAtomic(ctx context.Context, b *model.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l := m.reserveLock(b.VenueID, b.Date)
	l.Lock()
	defer l.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.venues[b.VenueID]
	if !ok {
		return engine.ErrVenueNotFound
	}
	if !v.IsActive {
		return engine.ErrVenueInactive
	}
	if _, taken := m.codes[b.BookingCode]; taken {
		return engine.ErrBookingCodeTaken
	}

	start, end, err := interval.ParseInterval(b.StartTime, b.EndTime)
	if err != nil {
		return err
	}
	for _, existing := range m.bookings[b.VenueID] {
		if existing.Date != b.Date || !existing.Blocking() {
			continue
		}
		es, ee, err := interval.ParseInterval(existing.StartTime, existing.EndTime)
		if err != nil {
			return err
		}
		if interval.Overlaps(start, end, es, ee) {
			return engine.ErrSlotUnavailable
		}
	}

	m.nextBID++
	b.ID = m.nextBID
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	m.bookings[b.VenueID] = append(m.bookings[b.VenueID], *b)
	m.codes[b.BookingCode] = struct{}{}
	return nil
}

// GetBookingByCode returns the booking or engine.ErrBookingNotFound.
func (m *MemStore) GetBookingByCode(ctx context.Context, code string) (*model.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, list := range m.bookings {
		for _, b := range list {
			if b.BookingCode == code {
				cp := b
				return &cp, nil
			}
		}
	}
	return nil, engine.ErrBookingNotFound
}

// UpdateBookingStatus transitions the booking identified by code.
func (m *MemStore) UpdateBookingStatus(ctx context.Context, code, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for venueID, list := range m.bookings {
		for i := range list {
			if list[i].BookingCode == code {
				m.bookings[venueID][i].Status = status
				m.bookings[venueID][i].UpdatedAt = time.Now().UTC()
				return nil
			}
		}
	}
	return engine.ErrBookingNotFound
}
