package tenancy

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestClinicIDRoundTrip(t *testing.T) {
	clinicID := uuid.New()
	ctx := WithClinicID(context.Background(), clinicID)
	got, ok := ClinicIDFromContext(ctx)
	if !ok || got != clinicID {
		t.Fatalf("expected %s, got %s ok=%v", clinicID, got, ok)
	}
}

func TestClinicIDMissing(t *testing.T) {
	if _, ok := ClinicIDFromContext(context.Background()); ok {
		t.Fatal("expected no clinic id on empty context")
	}
}

func TestClinicIDNilValue(t *testing.T) {
	ctx := WithClinicID(context.Background(), uuid.Nil)
	if _, ok := ClinicIDFromContext(ctx); ok {
		t.Fatal("expected a nil clinic id to be treated as absent")
	}
}
