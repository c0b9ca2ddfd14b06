package exceptions

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

// ErrExceptionNotFound indicates the referenced log entry does not exist.
var ErrExceptionNotFound = errors.New("exceptions: not found")

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

// Store persists the exception log in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("exceptions: pgx pool required")
	}
	return &Store{pool: pool}
}

// Add appends one entry to the log.
func (s *Store) Add(ctx context.Context, q Querier, e *Entry) error {
	if q == nil {
		q = s.pool
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	query := `
		INSERT INTO schedule_exceptions (id, rule_id, series_id, original_date, exception_type, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	if err := q.QueryRow(ctx, query,
		e.ID,
		e.RuleID,
		e.SeriesID,
		timeutil.Date(e.OriginalDate),
		string(e.Type),
		e.Reason,
	).Scan(&e.CreatedAt); err != nil {
		return fmt.Errorf("exceptions: insert failed: %w", err)
	}
	return nil
}

// ListBySeries returns the series' entries ordered by original date.
func (s *Store) ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]Entry, error) {
	query := `
		SELECT id, rule_id, series_id, original_date, exception_type, reason, created_at
		FROM schedule_exceptions
		WHERE series_id = $1
		ORDER BY original_date
	`
	rows, err := s.pool.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("exceptions: list failed: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			expType string
		)
		if err := rows.Scan(&e.ID, &e.RuleID, &e.SeriesID, &e.OriginalDate, &expType, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("exceptions: scan failed: %w", err)
		}
		e.OriginalDate = timeutil.Date(e.OriginalDate)
		e.Type = Type(expType)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exceptions: rows failed: %w", err)
	}
	return out, nil
}

// DeletedDates returns the set of dates in the series carrying a Deleted
// entry, the shape block materialization consumes.
func (s *Store) DeletedDates(ctx context.Context, seriesID uuid.UUID) (map[time.Time]struct{}, error) {
	entries, err := s.ListBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	dates := make(map[time.Time]struct{})
	for _, e := range entries {
		if e.Type == TypeDeleted {
			dates[e.OriginalDate] = struct{}{}
		}
	}
	return dates, nil
}

// DeleteByID removes one entry.
func (s *Store) DeleteByID(ctx context.Context, q Querier, id uuid.UUID) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM schedule_exceptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("exceptions: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExceptionNotFound
	}
	return nil
}

// DeleteBySeries purges every entry for the series.
func (s *Store) DeleteBySeries(ctx context.Context, q Querier, seriesID uuid.UUID) (int64, error) {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM schedule_exceptions WHERE series_id = $1`, seriesID)
	if err != nil {
		return 0, fmt.Errorf("exceptions: delete series failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
