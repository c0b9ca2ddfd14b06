package resources

import (
	"github.com/google/uuid"

	"github.com/clinicore/schedengine/internal/availability"
)

// Resource is a bookable professional within a clinic, together with the
// scheduling parameters the directory exposes for it.
type Resource struct {
	ID       uuid.UUID
	ClinicID uuid.UUID
	Name     string
	Hours    availability.WorkingHours
	// SlotIncrementMinutes is the step between offered slot start times.
	SlotIncrementMinutes int
	// AllowEmergency permits squeezing an emergency booking into the first
	// open slot of a day.
	AllowEmergency bool
}
