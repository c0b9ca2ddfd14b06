package scheduling

import "errors"

// ErrSchedulingConflict rejects a candidate interval that overlaps an
// existing occurrence or falls outside the resource's working hours. It is a
// business rejection; the candidate is never silently adjusted.
var ErrSchedulingConflict = errors.New("scheduling: conflict")

// ErrNoAvailableSlot indicates emergency scheduling found nothing open that
// day.
var ErrNoAvailableSlot = errors.New("scheduling: no available slot")

// ErrEmergencyNotAllowed indicates the resource does not accept emergency
// insertion.
var ErrEmergencyNotAllowed = errors.New("scheduling: emergency insertion not allowed for resource")
