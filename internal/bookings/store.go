package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicore/schedengine/internal/timeutil"
)

// ErrBookingNotFound indicates the referenced booking row does not exist.
var ErrBookingNotFound = errors.New("bookings: not found")

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

// Store persists bookings in Postgres. Methods that participate in
// multi-statement operations accept a Querier so callers can pass a
// transaction; nil falls back to the pool.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Store{pool: pool}
}

func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

const bookingColumns = `id, clinic_id, patient_id, professional_id, date, start_minutes, duration_minutes, status, notes, series_id, rule_id`

// Insert writes one booking row. An exclusion-constraint violation on the
// booking span surfaces through IsOverlapViolation.
func (s *Store) Insert(ctx context.Context, q Querier, b *Booking) error {
	if q == nil {
		q = s.pool
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = StatusScheduled
	}
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := q.Exec(ctx, query,
		b.ID,
		b.ClinicID,
		b.PatientID,
		b.ProfessionalID,
		timeutil.Date(b.Date),
		b.StartTime.Minutes(),
		b.DurationMinutes,
		string(b.Status),
		b.Notes,
		b.SeriesID,
		b.RuleID,
	)
	if err != nil {
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	return nil
}

// GetByID loads one booking.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return b, nil
}

// ListForDay returns the professional's bookings for a date, cancelled ones
// excluded, ordered by start time.
func (s *Store) ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE professional_id = $1 AND date = $2 AND status <> $3
		ORDER BY start_minutes
	`
	rows, err := s.pool.Query(ctx, query, professionalID, timeutil.Date(date), string(StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListBySeries returns every booking in a series ordered by date.
func (s *Store) ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE series_id = $1
		ORDER BY date, start_minutes
	`
	rows, err := s.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list series failed: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// HasOverlap reports whether any non-cancelled booking for the professional
// intersects the half-open candidate interval on the date. excludeID skips
// one booking so reschedules do not conflict with themselves.
func (s *Store) HasOverlap(ctx context.Context, q Querier, professionalID uuid.UUID, date time.Time, span timeutil.Span, excludeID *uuid.UUID) (bool, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE professional_id = $1
			  AND date = $2
			  AND status <> $3
			  AND start_minutes < $4
			  AND start_minutes + duration_minutes > $5
			  AND ($6::uuid IS NULL OR id <> $6)
		)
	`
	var exists bool
	if err := q.QueryRow(ctx, query,
		professionalID,
		timeutil.Date(date),
		string(StatusCancelled),
		span.End.Minutes(),
		span.Start.Minutes(),
		excludeID,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("bookings: overlap check failed: %w", err)
	}
	return exists, nil
}

// Update rewrites the mutable fields of a booking.
func (s *Store) Update(ctx context.Context, q Querier, b *Booking) error {
	if q == nil {
		q = s.pool
	}
	query := `
		UPDATE bookings
		SET date = $2, start_minutes = $3, duration_minutes = $4, status = $5, notes = $6
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		b.ID,
		timeutil.Date(b.Date),
		b.StartTime.Minutes(),
		b.DurationMinutes,
		string(b.Status),
		b.Notes,
	)
	if err != nil {
		return fmt.Errorf("bookings: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// Delete removes one booking row.
func (s *Store) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bookings: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// DeleteBySeries removes every booking in the series.
func (s *Store) DeleteBySeries(ctx context.Context, q Querier, seriesID uuid.UUID) (int64, error) {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM bookings WHERE series_id = $1`, seriesID)
	if err != nil {
		return 0, fmt.Errorf("bookings: delete series failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteFutureInSeries removes series bookings with date >= fromDate.
func (s *Store) DeleteFutureInSeries(ctx context.Context, q Querier, seriesID uuid.UUID, fromDate time.Time) (int64, error) {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM bookings WHERE series_id = $1 AND date >= $2`, seriesID, timeutil.Date(fromDate))
	if err != nil {
		return 0, fmt.Errorf("bookings: delete future failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// IsOverlapViolation reports whether err is the bookings_no_overlap exclusion
// constraint firing, i.e. a concurrent writer won the slot.
func IsOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01"
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var (
		b            Booking
		startMinutes int
		status       string
	)
	if err := row.Scan(
		&b.ID,
		&b.ClinicID,
		&b.PatientID,
		&b.ProfessionalID,
		&b.Date,
		&startMinutes,
		&b.DurationMinutes,
		&status,
		&b.Notes,
		&b.SeriesID,
		&b.RuleID,
	); err != nil {
		return nil, err
	}
	b.Date = timeutil.Date(b.Date)
	b.StartTime = timeutil.TimeOfDay(startMinutes)
	b.Status = Status(status)
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]Booking, error) {
	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan failed: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: rows failed: %w", err)
	}
	return out, nil
}
