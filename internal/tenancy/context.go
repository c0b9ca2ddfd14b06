// Package tenancy carries the request's clinic id through context so every
// layer below the router logs and scopes against the same tenant.
package tenancy

import (
	"context"

	"github.com/google/uuid"
)

type clinicKey struct{}

// WithClinicID stores the clinic id in context.
func WithClinicID(ctx context.Context, clinicID uuid.UUID) context.Context {
	return context.WithValue(ctx, clinicKey{}, clinicID)
}

// ClinicIDFromContext extracts the clinic id if present.
func ClinicIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	clinicID, ok := ctx.Value(clinicKey{}).(uuid.UUID)
	return clinicID, ok && clinicID != uuid.Nil
}
