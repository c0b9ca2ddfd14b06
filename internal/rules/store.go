package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicore/schedengine/internal/recurrence"
	"github.com/clinicore/schedengine/internal/timeutil"
)

// ErrRuleNotFound indicates the referenced recurrence rule does not exist.
var ErrRuleNotFound = errors.New("rules: not found")

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists recurrence rules in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("rules: pgx pool required")
	}
	return &Store{pool: pool}
}

func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

const ruleColumns = `id, clinic_id, professional_id, frequency, step_interval, weekdays, day_of_month,
	start_date, end_date, occurrence_count, start_minutes, end_minutes,
	effective_end_date, active, target_kind, patient_id, duration_minutes, block_reason`

// Insert validates and writes one rule.
func (s *Store) Insert(ctx context.Context, q Querier, r *recurrence.Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if q == nil {
		q = s.pool
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	query := `
		INSERT INTO recurrence_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := q.Exec(ctx, query,
		r.ID,
		r.ClinicID,
		r.ProfessionalID,
		string(r.Frequency),
		r.Interval,
		weekdaysToInts(r.Weekdays),
		r.DayOfMonth,
		timeutil.Date(r.StartDate),
		nullableDate(r.EndDate),
		r.Count,
		r.StartTime.Minutes(),
		r.EndTime.Minutes(),
		nullableDate(r.EffectiveEndDate),
		r.Active,
		string(r.Target),
		r.PatientID,
		r.DurationMinutes,
		r.BlockReason,
	)
	if err != nil {
		return fmt.Errorf("rules: insert failed: %w", err)
	}
	return nil
}

// GetByID loads one rule.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*recurrence.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM recurrence_rules WHERE id = $1`
	row := s.pool.QueryRow(ctx, query, id)

	var (
		r            recurrence.Rule
		frequency    string
		weekdays     []int32
		startMinutes int
		endMinutes   int
		target       string
	)
	if err := row.Scan(
		&r.ID,
		&r.ClinicID,
		&r.ProfessionalID,
		&frequency,
		&r.Interval,
		&weekdays,
		&r.DayOfMonth,
		&r.StartDate,
		&r.EndDate,
		&r.Count,
		&startMinutes,
		&endMinutes,
		&r.EffectiveEndDate,
		&r.Active,
		&target,
		&r.PatientID,
		&r.DurationMinutes,
		&r.BlockReason,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("rules: select failed: %w", err)
	}
	r.Frequency = recurrence.Frequency(frequency)
	r.Weekdays = intsToWeekdays(weekdays)
	r.StartDate = timeutil.Date(r.StartDate)
	if r.EndDate != nil {
		d := timeutil.Date(*r.EndDate)
		r.EndDate = &d
	}
	if r.EffectiveEndDate != nil {
		d := timeutil.Date(*r.EffectiveEndDate)
		r.EffectiveEndDate = &d
	}
	r.StartTime = timeutil.TimeOfDay(startMinutes)
	r.EndTime = timeutil.TimeOfDay(endMinutes)
	r.Target = recurrence.TargetKind(target)
	return &r, nil
}

// SetEffectiveEndDate truncates the rule's horizon for this-and-future edits.
func (s *Store) SetEffectiveEndDate(ctx context.Context, q Querier, id uuid.UUID, date time.Time) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `UPDATE recurrence_rules SET effective_end_date = $2 WHERE id = $1`, id, timeutil.Date(date))
	if err != nil {
		return fmt.Errorf("rules: set effective end failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// Deactivate stops all future generation from the rule.
func (s *Store) Deactivate(ctx context.Context, q Querier, id uuid.UUID) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `UPDATE recurrence_rules SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("rules: deactivate failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// nullableDate normalizes an optional bound to midnight UTC for storage.
func nullableDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := timeutil.Date(*t)
	return &d
}

func weekdaysToInts(days []time.Weekday) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func intsToWeekdays(ints []int32) []time.Weekday {
	if len(ints) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(ints))
	for i, v := range ints {
		out[i] = time.Weekday(v)
	}
	return out
}
