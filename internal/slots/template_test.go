package slots

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldpass/venue-booking/internal/interval"
	"github.com/fieldpass/venue-booking/internal/model"
)

func TestGenerateFullWeek(t *testing.T) {
	got, err := Generate(1, "06:00", "23:00")
	require.NoError(t, err)

	// 7 days x 17 hourly slots (06:00..22:00 starts)
	require.Len(t, got, 7*17)

	for _, s := range got {
		start, err := interval.ParseTimeOfDay(s.StartTime)
		require.NoError(t, err)
		end, err := interval.ParseTimeOfDay(s.EndTime)
		require.NoError(t, err)
		assert.Equal(t, 60, end-start, "slot %s-%s must be one hour", s.StartTime, s.EndTime)
		assert.Equal(t, uint64(1), s.VenueID)
	}

	// first and last slot of each day
	assert.Equal(t, "06:00", got[0].StartTime)
	assert.Equal(t, 0, got[0].DayOfWeek)
	assert.Equal(t, "22:00", got[16].StartTime)
	assert.Equal(t, "23:00", got[16].EndTime)
	assert.Equal(t, 6, got[len(got)-1].DayOfWeek)
}

func TestGeneratePeakFlags(t *testing.T) {
	got, err := Generate(1, "06:00", "23:00")
	require.NoError(t, err)

	for _, s := range got {
		start, _ := interval.ParseTimeOfDay(s.StartTime)
		hour := start / 60
		var wantPeak bool
		if s.DayOfWeek >= 1 && s.DayOfWeek <= 5 {
			wantPeak = hour >= 18 && hour <= 21
		} else {
			wantPeak = hour >= 8 && hour <= 20
		}
		assert.Equal(t, wantPeak, s.IsPeakHour,
			"day %d hour %d peak flag", s.DayOfWeek, hour)
		if wantPeak {
			assert.True(t, s.PriceMultiplier.Equal(decimal.NewFromFloat(1.5)))
		} else {
			assert.True(t, s.PriceMultiplier.Equal(decimal.NewFromInt(1)))
		}
	}
}

func TestGenerateInvalidHours(t *testing.T) {
	_, err := Generate(1, "23:00", "06:00")
	assert.ErrorIs(t, err, interval.ErrInvalidInterval)

	_, err = Generate(1, "6am", "23:00")
	assert.ErrorIs(t, err, interval.ErrInvalidFormat)
}

func TestGeneratePartialHourOpening(t *testing.T) {
	// opening at 06:30 the first whole-hour slot is 07:00
	got, err := Generate(1, "06:30", "22:30")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "07:00", got[0].StartTime)
	assert.Equal(t, "22:00", got[14].EndTime)
	assert.Len(t, got, 7*15)
}

func TestPriceWeekendPeak(t *testing.T) {
	base := decimal.NewFromInt(100000)

	// Saturday (6) 09:00 is peak under the weekend rule
	require.True(t, IsPeakHour(6, 9))
	slot := mustSlot(t, 6, "09:00")
	assert.True(t, Price(base, slot).Equal(decimal.NewFromInt(150000)),
		"saturday 09:00 should cost 1.5x base")

	// Wednesday (3) 09:00 is off-peak
	require.False(t, IsPeakHour(3, 9))
	slot = mustSlot(t, 3, "09:00")
	assert.True(t, Price(base, slot).Equal(base))
}

func mustSlot(t *testing.T, day int, start string) model.TimeSlot {
	t.Helper()
	all, err := Generate(1, "06:00", "23:00")
	require.NoError(t, err)
	for _, s := range all {
		if s.DayOfWeek == day && s.StartTime == start {
			return s
		}
	}
	t.Fatalf("no slot for day %d start %s", day, start)
	return model.TimeSlot{}
}
