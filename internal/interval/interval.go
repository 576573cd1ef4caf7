// Package interval provides pure time-of-day parsing and overlap arithmetic.
// All business rules about whether two bookings conflict reduce to the single
// half-open overlap predicate defined here, so every caller agrees on the
// boundary semantics: intervals that merely touch do not conflict.
package interval

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned when a time-of-day string is not a valid
// zero-padded or single-digit-hour "HH:MM" value.
var ErrInvalidFormat = errors.New("invalid time format, expected HH:MM")

// ErrInvalidInterval is returned when an interval's end does not come
// strictly after its start.
var ErrInvalidInterval = errors.New("end time must be after start time")

// ParseTimeOfDay converts an "HH:MM" string into minutes since midnight.
// Hours must be 0-23 and minutes 0-59; a single-digit hour ("9:00") is
// accepted the same way the venue input validator accepts it.  Any other
// shape fails with ErrInvalidFormat.
func ParseTimeOfDay(s string) (int, error) {
	var hh, mm int
	switch len(s) {
	case 5:
		if s[2] != ':' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		var ok bool
		if hh, ok = twoDigits(s[0], s[1]); !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		if mm, ok = twoDigits(s[3], s[4]); !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
	case 4:
		if s[1] != ':' || s[0] < '0' || s[0] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		hh = int(s[0] - '0')
		var ok bool
		if mm, ok = twoDigits(s[2], s[3]); !ok {
			return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if hh > 23 || mm > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return hh*60 + mm, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// FormatTimeOfDay renders minutes since midnight back into "HH:MM".
func FormatTimeOfDay(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether the half-open intervals [aStart,aEnd) and
// [bStart,bEnd) share at least one instant.  Adjacent intervals (aEnd ==
// bStart) do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && bStart < aEnd
}

// ParseInterval parses a start/end pair and enforces that the end is
// strictly after the start.  It returns minutes since midnight for both
// bounds.
func ParseInterval(start, end string) (int, int, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		return 0, 0, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval, start, end)
	}
	return s, e, nil
}
