package timeutil

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// 14:30 is TimeOfDay(870). The type carries no date or timezone.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" into a TimeOfDay.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("timeutil: parse %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("timeutil: time of day %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay parses "HH:MM" and panics on error. Intended for tests and
// static configuration.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Minutes returns the value as whole minutes since midnight.
func (t TimeOfDay) Minutes() int { return int(t) }

// AddMinutes returns the time-of-day n minutes later. The result may exceed
// 24h; interval math treats the day as an open-ended axis.
func (t TimeOfDay) AddMinutes(n int) TimeOfDay { return t + TimeOfDay(n) }

// At anchors the time-of-day onto a calendar date in the date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/60, int(t)%60, 0, 0, date.Location())
}

// Span is a half-open interval [Start, End) within one day.
type Span struct {
	Start TimeOfDay
	End   TimeOfDay
}

// NewSpan builds a span from a start time and a duration in minutes.
func NewSpan(start TimeOfDay, durationMinutes int) Span {
	return Span{Start: start, End: start.AddMinutes(durationMinutes)}
}

// Overlaps reports whether two half-open intervals intersect.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && s.End > other.Start
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// DurationMinutes returns the span length in minutes.
func (s Span) DurationMinutes() int { return int(s.End - s.Start) }

func (s Span) String() string {
	return fmt.Sprintf("[%s, %s)", s.Start, s.End)
}

// Date truncates t to midnight UTC. All calendar dates in the engine are
// stored this way so date equality is plain time.Time equality.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateYMD builds a midnight-UTC date.
func DateYMD(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from a to b (negative when b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
