package blocks

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/schedengine/internal/timeutil"
)

// BlockedInterval marks part of a professional's day as unbookable (vacation,
// maintenance, meetings). Like bookings, blocks can be one-off or generated
// from a recurrence rule, in which case SeriesID and RuleID are set.
type BlockedInterval struct {
	ID             uuid.UUID
	ClinicID       uuid.UUID
	ProfessionalID uuid.UUID
	Date           time.Time
	StartTime      timeutil.TimeOfDay
	EndTime        timeutil.TimeOfDay
	Reason         string
	SeriesID       *uuid.UUID
	RuleID         *uuid.UUID
}

// Span returns the half-open interval the block occupies.
func (b BlockedInterval) Span() timeutil.Span {
	return timeutil.Span{Start: b.StartTime, End: b.EndTime}
}

// Recurring reports whether the block belongs to a rule-generated series.
func (b BlockedInterval) Recurring() bool {
	return b.RuleID != nil
}
