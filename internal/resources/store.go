package resources

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicore/schedengine/internal/availability"
	"github.com/clinicore/schedengine/internal/timeutil"
)

// ErrResourceNotFound indicates the resource does not exist in the clinic.
var ErrResourceNotFound = errors.New("resources: not found")

type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads the resource directory from Postgres.
type Store struct {
	pool Querier
}

func NewStore(pool Querier) *Store {
	if pool == nil {
		panic("resources: pgx pool required")
	}
	return &Store{pool: pool}
}

// Get loads one resource scoped to the clinic.
func (s *Store) Get(ctx context.Context, clinicID, resourceID uuid.UUID) (*Resource, error) {
	query := `
		SELECT id, clinic_id, name, open_minutes, close_minutes, slot_increment_minutes, allow_emergency
		FROM resources
		WHERE id = $1 AND clinic_id = $2
	`
	row := s.pool.QueryRow(ctx, query, resourceID, clinicID)
	var (
		res          Resource
		openMinutes  int
		closeMinutes int
	)
	if err := row.Scan(
		&res.ID,
		&res.ClinicID,
		&res.Name,
		&openMinutes,
		&closeMinutes,
		&res.SlotIncrementMinutes,
		&res.AllowEmergency,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("resources: select failed: %w", err)
	}
	res.Hours = availability.WorkingHours{
		Open:  timeutil.TimeOfDay(openMinutes),
		Close: timeutil.TimeOfDay(closeMinutes),
	}
	return &res, nil
}

// ListForClinic returns every resource registered for the clinic.
func (s *Store) ListForClinic(ctx context.Context, clinicID uuid.UUID) ([]Resource, error) {
	query := `
		SELECT id, clinic_id, name, open_minutes, close_minutes, slot_increment_minutes, allow_emergency
		FROM resources
		WHERE clinic_id = $1
		ORDER BY name
	`
	rows, err := s.pool.Query(ctx, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("resources: list failed: %w", err)
	}
	defer rows.Close()

	var out []Resource
	for rows.Next() {
		var (
			res          Resource
			openMinutes  int
			closeMinutes int
		)
		if err := rows.Scan(&res.ID, &res.ClinicID, &res.Name, &openMinutes, &closeMinutes, &res.SlotIncrementMinutes, &res.AllowEmergency); err != nil {
			return nil, fmt.Errorf("resources: scan failed: %w", err)
		}
		res.Hours = availability.WorkingHours{Open: timeutil.TimeOfDay(openMinutes), Close: timeutil.TimeOfDay(closeMinutes)}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resources: rows failed: %w", err)
	}
	return out, nil
}
