package bookings

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/schedengine/internal/timeutil"
)

// Status tracks a booking through its lifecycle. Completed and Cancelled are
// terminal; scheduling fields are frozen once a booking leaves
// Scheduled/Confirmed.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ErrInvalidTransition rejects a status change the lifecycle does not allow.
var ErrInvalidTransition = errors.New("bookings: invalid status transition")

// ErrNotEditable rejects scheduling-field changes on bookings past
// confirmation.
var ErrNotEditable = errors.New("bookings: booking is no longer editable")

var transitions = map[Status][]Status{
	StatusScheduled:  {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusInProgress, StatusCancelled},
	StatusCheckedIn:  {StatusInProgress, StatusCompleted},
	StatusInProgress: {StatusCompleted},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SchedulingEditable reports whether reschedule, duration and type changes
// are still permitted.
func (s Status) SchedulingEditable() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Booking is one materialized appointment occurrence. SeriesID and RuleID are
// set when the booking was generated from a recurrence rule; one-off bookings
// leave both nil and bypass the series mutation protocol.
type Booking struct {
	ID              uuid.UUID
	ClinicID        uuid.UUID
	PatientID       uuid.UUID
	ProfessionalID  uuid.UUID
	Date            time.Time
	StartTime       timeutil.TimeOfDay
	DurationMinutes int
	Status          Status
	Notes           string
	SeriesID        *uuid.UUID
	RuleID          *uuid.UUID
}

// Span returns the half-open interval the booking occupies.
func (b Booking) Span() timeutil.Span {
	return timeutil.NewSpan(b.StartTime, b.DurationMinutes)
}

// Recurring reports whether the booking belongs to a rule-generated series.
func (b Booking) Recurring() bool {
	return b.RuleID != nil
}

// Transition applies a lifecycle change in place.
func (b *Booking) Transition(next Status) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}
	b.Status = next
	return nil
}

// Reschedule moves the booking to a new date, start time and duration. Only
// bookings still in an editable status accept scheduling changes.
func (b *Booking) Reschedule(date time.Time, start timeutil.TimeOfDay, durationMinutes int) error {
	if !b.Status.SchedulingEditable() {
		return fmt.Errorf("%w: status %s", ErrNotEditable, b.Status)
	}
	if durationMinutes < 1 {
		return fmt.Errorf("bookings: duration must be positive, got %d", durationMinutes)
	}
	b.Date = timeutil.Date(date)
	b.StartTime = start
	b.DurationMinutes = durationMinutes
	return nil
}
