package recurrence

import (
	"errors"
	"time"

	"github.com/clinicore/schedengine/internal/timeutil"
)

// MaxOccurrences is the hard safety bound on a single expansion. Rules that
// need more must be split by the caller.
const MaxOccurrences = 1000

// ErrCapacityExceeded indicates an expansion would produce more than
// MaxOccurrences dates before reaching any other bound.
var ErrCapacityExceeded = errors.New("recurrence: expansion exceeds occurrence cap")

// ErrHorizonRequired indicates the caller supplied no generation horizon.
var ErrHorizonRequired = errors.New("recurrence: horizon end required")

// Expand generates the ordered sequence of dates a rule produces up to
// horizonEnd. The walk is a deterministic single forward pass from the rule's
// start date; identical inputs always yield identical sequences.
//
// Generation stops at the earliest of the rule's effective end date, its
// declared end date, horizonEnd, or the occurrence count bound. An inactive
// rule expands to an empty sequence.
func Expand(rule Rule, horizonEnd time.Time) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if horizonEnd.IsZero() {
		return nil, ErrHorizonRequired
	}
	if !rule.Active {
		return []time.Time{}, nil
	}

	start := timeutil.Date(rule.StartDate)
	end := effectiveEnd(rule, horizonEnd)
	if end.Before(start) {
		return []time.Time{}, nil
	}

	weekdays := rule.WeekdaySet()
	dates := make([]time.Time, 0)
	current := start

	for !current.After(end) {
		if qualifies(rule, weekdays, start, current) {
			if len(dates) == MaxOccurrences {
				return nil, ErrCapacityExceeded
			}
			dates = append(dates, current)
			if rule.Count != nil && len(dates) == *rule.Count {
				break
			}
		}
		current = advance(rule, current)
	}

	return dates, nil
}

// effectiveEnd picks the earliest applicable upper bound. A truncation via
// EffectiveEndDate always wins over the originally declared end date.
func effectiveEnd(rule Rule, horizonEnd time.Time) time.Time {
	end := timeutil.Date(horizonEnd)
	if rule.EndDate != nil {
		if d := timeutil.Date(*rule.EndDate); d.Before(end) {
			end = d
		}
	}
	if rule.EffectiveEndDate != nil {
		if d := timeutil.Date(*rule.EffectiveEndDate); d.Before(end) {
			end = d
		}
	}
	return end
}

func qualifies(rule Rule, weekdays map[time.Weekday]struct{}, start, current time.Time) bool {
	switch rule.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekly:
		_, ok := weekdays[current.Weekday()]
		return ok
	case FrequencyBiweekly:
		if _, ok := weekdays[current.Weekday()]; !ok {
			return false
		}
		// Week parity is anchored to the rule's start date, not to ISO
		// week numbers: the first seven days are an "on" week.
		return (timeutil.DaysBetween(start, current)/7)%2 == 0
	case FrequencyMonthly:
		clamped := rule.DayOfMonth
		if days := timeutil.DaysInMonth(current.Year(), current.Month()); clamped > days {
			clamped = days
		}
		return current.Day() == clamped
	default:
		return false
	}
}

func advance(rule Rule, current time.Time) time.Time {
	switch rule.Frequency {
	case FrequencyDaily:
		return current.AddDate(0, 0, rule.Interval)
	case FrequencyWeekly, FrequencyBiweekly:
		return current.AddDate(0, 0, 1)
	case FrequencyMonthly:
		// Re-clamp against the target month rather than stepping from the
		// clamped day, so Jan 31 -> Feb 28/29 -> Mar 31 instead of Mar 28.
		next := time.Date(current.Year(), current.Month()+time.Month(rule.Interval), 1, 0, 0, 0, 0, time.UTC)
		day := rule.DayOfMonth
		if days := timeutil.DaysInMonth(next.Year(), next.Month()); day > days {
			day = days
		}
		return time.Date(next.Year(), next.Month(), day, 0, 0, 0, 0, time.UTC)
	default:
		return current.AddDate(0, 0, 1)
	}
}
