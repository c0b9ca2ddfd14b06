package resources

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/clinicore/schedengine/internal/timeutil"
)

func TestStoreGetScopedToClinic(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	clinicID := uuid.New()
	resourceID := uuid.New()

	mock.ExpectQuery("SELECT .* FROM resources").
		WithArgs(resourceID, clinicID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic_id", "name", "open_minutes", "close_minutes", "slot_increment_minutes", "allow_emergency",
		}).AddRow(resourceID, clinicID, "Dr. Haddad", 540, 1080, 15, true))

	res, err := store.Get(context.Background(), clinicID, resourceID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Hours.Open != timeutil.MustTimeOfDay("09:00") || res.Hours.Close != timeutil.MustTimeOfDay("18:00") {
		t.Fatalf("working hours not mapped: %+v", res.Hours)
	}
	if res.SlotIncrementMinutes != 15 || !res.AllowEmergency {
		t.Fatalf("scheduling params not mapped: %+v", res)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}

	mock.ExpectQuery("SELECT .* FROM resources").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	if _, err := store.Get(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}

func TestStoreListForClinic(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	clinicID := uuid.New()

	mock.ExpectQuery("SELECT .* FROM resources").
		WithArgs(clinicID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic_id", "name", "open_minutes", "close_minutes", "slot_increment_minutes", "allow_emergency",
		}).
			AddRow(uuid.New(), clinicID, "Room 1", 480, 1020, 30, false).
			AddRow(uuid.New(), clinicID, "Room 2", 480, 1020, 30, true))

	list, err := store.ListForClinic(context.Background(), clinicID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Room 1" {
		t.Fatalf("unexpected list: %+v", list)
	}
}
