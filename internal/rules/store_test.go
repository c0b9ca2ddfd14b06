package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/clinicore/schedengine/internal/recurrence"
	"github.com/clinicore/schedengine/internal/timeutil"
)

func weeklyRule() *recurrence.Rule {
	patient := uuid.New()
	return &recurrence.Rule{
		ClinicID:        uuid.New(),
		Frequency:       recurrence.FrequencyWeekly,
		Interval:        1,
		Weekdays:        []time.Weekday{time.Monday, time.Wednesday},
		StartDate:       timeutil.DateYMD(2024, time.January, 1),
		StartTime:       timeutil.MustTimeOfDay("14:00"),
		Active:          true,
		Target:          recurrence.TargetBooking,
		PatientID:       &patient,
		DurationMinutes: 30,
	}
}

func TestStoreInsertValidatesRule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	bad := weeklyRule()
	bad.Weekdays = nil

	err = store.Insert(context.Background(), nil, bad)
	if !errors.Is(err, recurrence.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no SQL should run for an invalid rule: %v", err)
	}
}

func TestStoreInsertRule(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	rule := weeklyRule()

	mock.ExpectExec("INSERT INTO recurrence_rules").
		WithArgs(pgxmock.AnyArg(), rule.ClinicID, (*uuid.UUID)(nil), "weekly", 1,
			[]int32{1, 3}, 0, rule.StartDate, (*time.Time)(nil), (*int)(nil),
			840, 0, (*time.Time)(nil), true, "booking", rule.PatientID, 30, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Insert(context.Background(), nil, rule); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rule.ID == uuid.Nil {
		t.Fatal("insert must assign an id")
	}
}

func TestStoreInsertNormalizesOptionalDates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	rule := weeklyRule()
	rule.Count = nil
	endDate := time.Date(2024, time.June, 9, 15, 42, 7, 0, time.UTC)
	rule.EndDate = &endDate
	effectiveEnd := time.Date(2024, time.March, 1, 8, 30, 0, 0, time.UTC)
	rule.EffectiveEndDate = &effectiveEnd

	wantEnd := timeutil.DateYMD(2024, time.June, 9)
	wantEffective := timeutil.DateYMD(2024, time.March, 1)
	mock.ExpectExec("INSERT INTO recurrence_rules").
		WithArgs(pgxmock.AnyArg(), rule.ClinicID, (*uuid.UUID)(nil), "weekly", 1,
			[]int32{1, 3}, 0, rule.StartDate, &wantEnd, (*int)(nil),
			840, 0, &wantEffective, true, "booking", rule.PatientID, 30, "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Insert(context.Background(), nil, rule); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("optional dates must be stored at midnight UTC: %v", err)
	}
}

func TestStoreSetEffectiveEndDate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	id := uuid.New()
	date := timeutil.DateYMD(2024, time.June, 9)

	mock.ExpectExec("UPDATE recurrence_rules SET effective_end_date").
		WithArgs(id, date).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.SetEffectiveEndDate(context.Background(), nil, id, date); err != nil {
		t.Fatalf("set effective end: %v", err)
	}
}

func TestStoreDeactivateNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	id := uuid.New()

	mock.ExpectExec("UPDATE recurrence_rules SET active").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := store.Deactivate(context.Background(), nil, id); !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestStoreGetByIDRoundTrip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	id := uuid.New()
	clinicID := uuid.New()
	patientID := uuid.New()
	start := timeutil.DateYMD(2024, time.January, 1)

	mock.ExpectQuery("SELECT .* FROM recurrence_rules WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "clinic_id", "professional_id", "frequency", "step_interval", "weekdays", "day_of_month",
			"start_date", "end_date", "occurrence_count", "start_minutes", "end_minutes",
			"effective_end_date", "active", "target_kind", "patient_id", "duration_minutes", "block_reason",
		}).AddRow(id, clinicID, (*uuid.UUID)(nil), "biweekly", 1, []int32{2, 4}, 0,
			start, (*time.Time)(nil), (*int)(nil), 840, 0,
			(*time.Time)(nil), true, "booking", &patientID, 45, ""))

	rule, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rule.Frequency != recurrence.FrequencyBiweekly {
		t.Fatalf("frequency mismatch: %s", rule.Frequency)
	}
	if len(rule.Weekdays) != 2 || rule.Weekdays[0] != time.Tuesday || rule.Weekdays[1] != time.Thursday {
		t.Fatalf("weekday mapping broken: %v", rule.Weekdays)
	}
	if rule.StartTime != timeutil.MustTimeOfDay("14:00") || rule.DurationMinutes != 45 {
		t.Fatalf("times not mapped: %+v", rule)
	}
}
