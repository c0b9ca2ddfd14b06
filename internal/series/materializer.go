// Package series turns recurrence rules into stored occurrence rows and
// applies scoped mutations to them. A series is the set of bookings or
// blocked intervals generated from one rule, tied together by a series id.
package series

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicore/schedengine/internal/blocks"
	"github.com/clinicore/schedengine/internal/bookings"
	"github.com/clinicore/schedengine/internal/exceptions"
	"github.com/clinicore/schedengine/internal/observability/metrics"
	"github.com/clinicore/schedengine/internal/recurrence"
	"github.com/clinicore/schedengine/internal/resources"
	"github.com/clinicore/schedengine/internal/rules"
	"github.com/clinicore/schedengine/internal/timeutil"
	"github.com/clinicore/schedengine/pkg/logging"
)

var seriesTracer = otel.Tracer("schedengine.internal.series")

// ConflictError reports the first occurrence that could not be materialized.
// Materialization is all-or-nothing, so nothing was written.
type ConflictError struct {
	Date time.Time
	Span timeutil.Span
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("series: occurrence %s %s conflicts with an existing interval", e.Date.Format("2006-01-02"), e.Span)
}

// RuleStore persists recurrence rules.
type RuleStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Insert(ctx context.Context, q rules.Querier, r *recurrence.Rule) error
	GetByID(ctx context.Context, id uuid.UUID) (*recurrence.Rule, error)
	SetEffectiveEndDate(ctx context.Context, q rules.Querier, id uuid.UUID, date time.Time) error
	Deactivate(ctx context.Context, q rules.Querier, id uuid.UUID) error
}

// BookingStore is the slice of the bookings store series operations need.
type BookingStore interface {
	Insert(ctx context.Context, q bookings.Querier, b *bookings.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]bookings.Booking, error)
	HasOverlap(ctx context.Context, q bookings.Querier, professionalID uuid.UUID, date time.Time, span timeutil.Span, excludeID *uuid.UUID) (bool, error)
	Delete(ctx context.Context, q bookings.Querier, id uuid.UUID) error
	DeleteBySeries(ctx context.Context, q bookings.Querier, seriesID uuid.UUID) (int64, error)
	DeleteFutureInSeries(ctx context.Context, q bookings.Querier, seriesID uuid.UUID, fromDate time.Time) (int64, error)
}

// BlockStore is the slice of the blocks store series operations need.
type BlockStore interface {
	Insert(ctx context.Context, q blocks.Querier, b *blocks.BlockedInterval) error
	GetByID(ctx context.Context, id uuid.UUID) (*blocks.BlockedInterval, error)
	ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]blocks.BlockedInterval, error)
	Delete(ctx context.Context, q blocks.Querier, id uuid.UUID) error
	DeleteBySeries(ctx context.Context, q blocks.Querier, seriesID uuid.UUID) (int64, error)
	DeleteFutureInSeries(ctx context.Context, q blocks.Querier, seriesID uuid.UUID, fromDate time.Time) (int64, error)
}

// ExceptionStore records and reads per-occurrence deviations from a rule.
type ExceptionStore interface {
	Add(ctx context.Context, q exceptions.Querier, e *exceptions.Entry) error
	DeletedDates(ctx context.Context, seriesID uuid.UUID) (map[time.Time]struct{}, error)
	DeleteBySeries(ctx context.Context, q exceptions.Querier, seriesID uuid.UUID) (int64, error)
}

// ResourceDirectory resolves the professional's working hours.
type ResourceDirectory interface {
	Get(ctx context.Context, clinicID, resourceID uuid.UUID) (*resources.Resource, error)
}

// Service materializes recurrence rules and mutates the resulting series.
type Service struct {
	resources  ResourceDirectory
	rules      RuleStore
	bookings   BookingStore
	blocks     BlockStore
	exceptions ExceptionStore
	metrics    *metrics.SchedulingMetrics
	logger     *logging.Logger

	// defaultHorizon bounds open-ended rules when callers pass no horizon.
	defaultHorizon time.Duration
}

// Option tweaks optional service collaborators.
type Option func(*Service)

// WithMetrics records expansion and mutation counters.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultHorizon sets the expansion bound for open-ended rules.
func WithDefaultHorizon(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.defaultHorizon = d
		}
	}
}

// NewService constructs a series service.
func NewService(dir ResourceDirectory, ruleStore RuleStore, bookingStore BookingStore, blockStore BlockStore, exceptionStore ExceptionStore, logger *logging.Logger, opts ...Option) *Service {
	if dir == nil {
		panic("series: resource directory required")
	}
	if ruleStore == nil || bookingStore == nil || blockStore == nil || exceptionStore == nil {
		panic("series: all stores required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		resources:      dir,
		rules:          ruleStore,
		bookings:       bookingStore,
		blocks:         blockStore,
		exceptions:     exceptionStore,
		logger:         logger,
		defaultHorizon: 365 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaterializeResult describes what a successful materialization wrote.
type MaterializeResult struct {
	SeriesID uuid.UUID
	RuleID   uuid.UUID
	Dates    []time.Time
}

// Materialize validates the rule, expands it up to horizonEnd and writes the
// rule plus every occurrence in one transaction. Booking rules are conflict
// checked per occurrence; the first collision aborts the whole series with a
// ConflictError. A zero horizonEnd falls back to the default horizon from the
// rule's start date.
//
// Passing uuid.Nil for seriesID starts a fresh series. Regenerating an
// existing one passes its id so the identity stays stable; block occurrences
// whose dates carry a deleted exception are then skipped instead of
// reappearing.
func (s *Service) Materialize(ctx context.Context, rule *recurrence.Rule, horizonEnd time.Time, seriesID uuid.UUID) (*MaterializeResult, error) {
	ctx, span := seriesTracer.Start(ctx, "series.materialize")
	defer span.End()
	span.SetAttributes(
		attribute.String("schedengine.frequency", string(rule.Frequency)),
		attribute.String("schedengine.target", string(rule.Target)),
	)

	if horizonEnd.IsZero() {
		horizonEnd = rule.StartDate.Add(s.defaultHorizon)
	}

	dates, err := recurrence.Expand(*rule, horizonEnd)
	if err != nil {
		s.metrics.ObserveExpansion(string(rule.Frequency), "error")
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveExpansion(string(rule.Frequency), "ok")

	if rule.ProfessionalID == nil {
		return nil, fmt.Errorf("series: rule requires a professional")
	}
	res, err := s.resources.Get(ctx, rule.ClinicID, *rule.ProfessionalID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !res.Hours.Window().Contains(rule.Span()) {
		return nil, &ConflictError{Date: rule.StartDate, Span: rule.Span()}
	}

	regenerating := seriesID != uuid.Nil
	if !regenerating {
		seriesID = uuid.New()
	}
	if regenerating && rule.Target == recurrence.TargetBlock {
		deleted, err := s.exceptions.DeletedDates(ctx, seriesID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		dates = dropDeleted(dates, deleted)
	}

	tx, err := s.rules.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("series: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.rules.Insert(ctx, tx, rule); err != nil {
		span.RecordError(err)
		return nil, err
	}

	switch rule.Target {
	case recurrence.TargetBooking:
		err = s.materializeBookings(ctx, tx, rule, seriesID, dates)
	case recurrence.TargetBlock:
		err = s.materializeBlocks(ctx, tx, rule, seriesID, dates)
	default:
		err = fmt.Errorf("series: unsupported target %q", rule.Target)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("series: commit failed: %w", err)
	}

	s.logger.Info("series materialized",
		"series_id", seriesID,
		"rule_id", rule.ID,
		"target", string(rule.Target),
		"occurrences", len(dates),
	)
	return &MaterializeResult{SeriesID: seriesID, RuleID: rule.ID, Dates: dates}, nil
}

func (s *Service) materializeBookings(ctx context.Context, tx pgx.Tx, rule *recurrence.Rule, seriesID uuid.UUID, dates []time.Time) error {
	if rule.PatientID == nil {
		return fmt.Errorf("series: booking rule requires a patient")
	}
	span := rule.Span()
	for _, date := range dates {
		overlap, err := s.bookings.HasOverlap(ctx, tx, *rule.ProfessionalID, date, span, nil)
		if err != nil {
			return err
		}
		if overlap {
			return &ConflictError{Date: date, Span: span}
		}
		dayBlocks, err := s.blocks.ListForDay(ctx, *rule.ProfessionalID, date)
		if err != nil {
			return err
		}
		for _, b := range dayBlocks {
			if span.Overlaps(b.Span()) {
				return &ConflictError{Date: date, Span: span}
			}
		}
		booking := &bookings.Booking{
			ClinicID:        rule.ClinicID,
			PatientID:       *rule.PatientID,
			ProfessionalID:  *rule.ProfessionalID,
			Date:            date,
			StartTime:       rule.StartTime,
			DurationMinutes: rule.DurationMinutes,
			Status:          bookings.StatusScheduled,
			SeriesID:        &seriesID,
			RuleID:          &rule.ID,
		}
		if err := s.bookings.Insert(ctx, tx, booking); err != nil {
			if bookings.IsOverlapViolation(err) {
				return &ConflictError{Date: date, Span: span}
			}
			return err
		}
	}
	return nil
}

func (s *Service) materializeBlocks(ctx context.Context, tx pgx.Tx, rule *recurrence.Rule, seriesID uuid.UUID, dates []time.Time) error {
	for _, date := range dates {
		block := &blocks.BlockedInterval{
			ClinicID:       rule.ClinicID,
			ProfessionalID: *rule.ProfessionalID,
			Date:           date,
			StartTime:      rule.StartTime,
			EndTime:        rule.EndTime,
			Reason:         rule.BlockReason,
			SeriesID:       &seriesID,
			RuleID:         &rule.ID,
		}
		if err := s.blocks.Insert(ctx, tx, block); err != nil {
			return err
		}
	}
	return nil
}

// Occurrences re-expands a stored rule and filters out dates removed by
// single-occurrence deletions, yielding the series as it currently stands.
func (s *Service) Occurrences(ctx context.Context, ruleID, seriesID uuid.UUID, horizonEnd time.Time) ([]time.Time, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if horizonEnd.IsZero() {
		horizonEnd = rule.StartDate.Add(s.defaultHorizon)
	}
	dates, err := recurrence.Expand(*rule, horizonEnd)
	if err != nil {
		s.metrics.ObserveExpansion(string(rule.Frequency), "error")
		return nil, err
	}
	s.metrics.ObserveExpansion(string(rule.Frequency), "ok")

	deleted, err := s.exceptions.DeletedDates(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	return dropDeleted(dates, deleted), nil
}

func dropDeleted(dates []time.Time, deleted map[time.Time]struct{}) []time.Time {
	if len(deleted) == 0 {
		return dates
	}
	kept := dates[:0]
	for _, d := range dates {
		if _, gone := deleted[d]; !gone {
			kept = append(kept, d)
		}
	}
	return kept
}
