package blocks

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

// ErrBlockNotFound indicates the referenced blocked interval does not exist.
var ErrBlockNotFound = errors.New("blocks: not found")

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

// Store persists blocked intervals in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		panic("blocks: pgx pool required")
	}
	return &Store{pool: pool}
}

func (s *Store) Begin(ctx context.Context) (pgx.Tx, error) {
	return s.pool.Begin(ctx)
}

const blockColumns = `id, clinic_id, professional_id, date, start_minutes, end_minutes, reason, series_id, rule_id`

// Insert writes one blocked interval row.
func (s *Store) Insert(ctx context.Context, q Querier, b *BlockedInterval) error {
	if q == nil {
		q = s.pool
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	query := `
		INSERT INTO blocked_intervals (` + blockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := q.Exec(ctx, query,
		b.ID,
		b.ClinicID,
		b.ProfessionalID,
		timeutil.Date(b.Date),
		b.StartTime.Minutes(),
		b.EndTime.Minutes(),
		b.Reason,
		b.SeriesID,
		b.RuleID,
	)
	if err != nil {
		return fmt.Errorf("blocks: insert failed: %w", err)
	}
	return nil
}

// GetByID loads one blocked interval.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*BlockedInterval, error) {
	query := `SELECT ` + blockColumns + ` FROM blocked_intervals WHERE id = $1`
	b, err := scanBlock(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockNotFound
		}
		return nil, fmt.Errorf("blocks: select failed: %w", err)
	}
	return b, nil
}

// ListForDay returns the professional's blocks for a date ordered by start.
func (s *Store) ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]BlockedInterval, error) {
	query := `
		SELECT ` + blockColumns + `
		FROM blocked_intervals
		WHERE professional_id = $1 AND date = $2
		ORDER BY start_minutes
	`
	rows, err := s.pool.Query(ctx, query, professionalID, timeutil.Date(date))
	if err != nil {
		return nil, fmt.Errorf("blocks: list failed: %w", err)
	}
	defer rows.Close()
	return collectBlocks(rows)
}

// Delete removes one blocked interval.
func (s *Store) Delete(ctx context.Context, q Querier, id uuid.UUID) error {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM blocked_intervals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("blocks: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockNotFound
	}
	return nil
}

// DeleteBySeries removes every block in the series.
func (s *Store) DeleteBySeries(ctx context.Context, q Querier, seriesID uuid.UUID) (int64, error) {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM blocked_intervals WHERE series_id = $1`, seriesID)
	if err != nil {
		return 0, fmt.Errorf("blocks: delete series failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteFutureInSeries removes series blocks with date >= fromDate.
func (s *Store) DeleteFutureInSeries(ctx context.Context, q Querier, seriesID uuid.UUID, fromDate time.Time) (int64, error) {
	if q == nil {
		q = s.pool
	}
	tag, err := q.Exec(ctx, `DELETE FROM blocked_intervals WHERE series_id = $1 AND date >= $2`, seriesID, timeutil.Date(fromDate))
	if err != nil {
		return 0, fmt.Errorf("blocks: delete future failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanBlock(row pgx.Row) (*BlockedInterval, error) {
	var (
		b            BlockedInterval
		startMinutes int
		endMinutes   int
	)
	if err := row.Scan(
		&b.ID,
		&b.ClinicID,
		&b.ProfessionalID,
		&b.Date,
		&startMinutes,
		&endMinutes,
		&b.Reason,
		&b.SeriesID,
		&b.RuleID,
	); err != nil {
		return nil, err
	}
	b.Date = timeutil.Date(b.Date)
	b.StartTime = timeutil.TimeOfDay(startMinutes)
	b.EndTime = timeutil.TimeOfDay(endMinutes)
	return &b, nil
}

func collectBlocks(rows pgx.Rows) ([]BlockedInterval, error) {
	var out []BlockedInterval
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("blocks: scan failed: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("blocks: rows failed: %w", err)
	}
	return out, nil
}
