package exceptions

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies why a series date deviates from its rule.
type Type string

const (
	// TypeDeleted marks a date removed from an active series; regeneration
	// must not re-create it.
	TypeDeleted Type = "deleted"
	// TypeModified marks a date whose occurrence was edited away from the
	// rule's template.
	TypeModified Type = "modified"
)

// Entry is one per-date override recorded against a series. Entries form the
// audit trail for partial series mutations and are purged when the whole
// series is deleted.
type Entry struct {
	ID           uuid.UUID
	RuleID       uuid.UUID
	SeriesID     uuid.UUID
	OriginalDate time.Time
	Type         Type
	Reason       string
	CreatedAt    time.Time
}
