package availability

import (
	"github.com/clinicore/schedengine/internal/timeutil"
)

// WorkingHours is a resource's bookable window for one day.
type WorkingHours struct {
	Open  timeutil.TimeOfDay
	Close timeutil.TimeOfDay
}

// Window returns the working hours as a half-open span.
func (w WorkingHours) Window() timeutil.Span {
	return timeutil.Span{Start: w.Open, End: w.Close}
}

// Slots computes the ordered start times at which a slot of slotMinutes fits
// inside the working hours without touching any booked interval. Candidates
// advance from opening time in stepMinutes increments; a candidate is kept iff
// its half-open interval lies entirely within [open, close) and overlaps no
// booked interval.
func Slots(hours WorkingHours, booked []timeutil.Span, stepMinutes, slotMinutes int) []timeutil.TimeOfDay {
	slots := make([]timeutil.TimeOfDay, 0)
	if stepMinutes < 1 || slotMinutes < 1 {
		return slots
	}
	window := hours.Window()

	for t := hours.Open; ; t = t.AddMinutes(stepMinutes) {
		candidate := timeutil.NewSpan(t, slotMinutes)
		if candidate.End > window.End {
			break
		}
		if isFree(candidate, booked) {
			slots = append(slots, t)
		}
	}
	return slots
}

// FirstSlot returns the earliest free start time, or false when the day is
// fully booked.
func FirstSlot(hours WorkingHours, booked []timeutil.Span, stepMinutes, slotMinutes int) (timeutil.TimeOfDay, bool) {
	if stepMinutes < 1 || slotMinutes < 1 {
		return 0, false
	}
	window := hours.Window()
	for t := hours.Open; ; t = t.AddMinutes(stepMinutes) {
		candidate := timeutil.NewSpan(t, slotMinutes)
		if candidate.End > window.End {
			return 0, false
		}
		if isFree(candidate, booked) {
			return t, true
		}
	}
}

func isFree(candidate timeutil.Span, booked []timeutil.Span) bool {
	for _, b := range booked {
		if candidate.Overlaps(b) {
			return false
		}
	}
	return true
}
