package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/schedengine/internal/timeutil"
)

// Frequency enumerates the supported recurrence frequencies.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// TargetKind discriminates what a rule materializes into.
type TargetKind string

const (
	// TargetBooking rules produce patient bookings.
	TargetBooking TargetKind = "booking"
	// TargetBlock rules produce blocked intervals (vacation, maintenance).
	TargetBlock TargetKind = "block"
)

// ErrInvalidRule wraps all rule validation failures.
var ErrInvalidRule = errors.New("recurrence: invalid rule")

// Rule is the declarative definition of a repeating schedule. A rule is owned
// by one clinic and optionally scoped to one professional; it materializes
// either bookings or blocked intervals, never both.
type Rule struct {
	ID             uuid.UUID
	ClinicID       uuid.UUID
	ProfessionalID *uuid.UUID

	Frequency Frequency
	// Interval is the step between occurrences (every N days for daily,
	// every N months for monthly). Weekly and biweekly rules step one day
	// at a time and let weekday qualification filter.
	Interval   int
	Weekdays   []time.Weekday
	DayOfMonth int

	StartDate time.Time
	EndDate   *time.Time
	// Count bounds generation by number of occurrences. At most one of
	// EndDate and Count may be set.
	Count *int

	StartTime timeutil.TimeOfDay
	EndTime   timeutil.TimeOfDay

	// EffectiveEndDate is set by a this-and-future truncation and overrides
	// EndDate from then on.
	EffectiveEndDate *time.Time

	Active bool

	Target          TargetKind
	PatientID       *uuid.UUID
	DurationMinutes int
	BlockReason     string
}

// Validate rejects malformed rules before any expansion occurs.
func (r Rule) Validate() error {
	if r.ClinicID == uuid.Nil {
		return fmt.Errorf("%w: clinic id required", ErrInvalidRule)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: start date required", ErrInvalidRule)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be positive, got %d", ErrInvalidRule, r.Interval)
	}
	if r.EndDate != nil && r.Count != nil {
		return fmt.Errorf("%w: end date and occurrence count are mutually exclusive", ErrInvalidRule)
	}
	if r.EndDate != nil && timeutil.Date(*r.EndDate).Before(timeutil.Date(r.StartDate)) {
		return fmt.Errorf("%w: end date precedes start date", ErrInvalidRule)
	}
	if r.Count != nil && *r.Count < 1 {
		return fmt.Errorf("%w: occurrence count must be positive, got %d", ErrInvalidRule, *r.Count)
	}

	switch r.Frequency {
	case FrequencyDaily:
	case FrequencyWeekly, FrequencyBiweekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("%w: %s rule requires at least one weekday", ErrInvalidRule, r.Frequency)
		}
	case FrequencyMonthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return fmt.Errorf("%w: monthly rule requires day of month 1-31, got %d", ErrInvalidRule, r.DayOfMonth)
		}
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, r.Frequency)
	}

	switch r.Target {
	case TargetBooking:
		if r.PatientID == nil || *r.PatientID == uuid.Nil {
			return fmt.Errorf("%w: booking rule requires a patient", ErrInvalidRule)
		}
		if r.DurationMinutes < 1 {
			return fmt.Errorf("%w: booking rule requires a positive duration", ErrInvalidRule)
		}
	case TargetBlock:
		if r.BlockReason == "" {
			return fmt.Errorf("%w: block rule requires a reason", ErrInvalidRule)
		}
		if r.EndTime <= r.StartTime {
			return fmt.Errorf("%w: block rule requires end time after start time", ErrInvalidRule)
		}
	default:
		return fmt.Errorf("%w: unknown target kind %q", ErrInvalidRule, r.Target)
	}

	return nil
}

// Span returns the wall-clock interval one occurrence of this rule covers.
func (r Rule) Span() timeutil.Span {
	if r.Target == TargetBooking {
		return timeutil.NewSpan(r.StartTime, r.DurationMinutes)
	}
	return timeutil.Span{Start: r.StartTime, End: r.EndTime}
}

// WeekdaySet returns the selected weekdays as a lookup set.
func (r Rule) WeekdaySet() map[time.Weekday]struct{} {
	set := make(map[time.Weekday]struct{}, len(r.Weekdays))
	for _, day := range r.Weekdays {
		set[day] = struct{}{}
	}
	return set
}
