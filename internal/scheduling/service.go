package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicore/schedengine/internal/availability"
	"github.com/clinicore/schedengine/internal/blocks"
	"github.com/clinicore/schedengine/internal/bookings"
	"github.com/clinicore/schedengine/internal/observability/metrics"
	"github.com/clinicore/schedengine/internal/resources"
	"github.com/clinicore/schedengine/internal/timeutil"
	"github.com/clinicore/schedengine/pkg/logging"
)

var schedulingTracer = otel.Tracer("schedengine.internal.scheduling")

// ResourceDirectory resolves a resource's scheduling parameters.
type ResourceDirectory interface {
	Get(ctx context.Context, clinicID, resourceID uuid.UUID) (*resources.Resource, error)
}

// BookingStore is the slice of the bookings store the service needs.
type BookingStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Insert(ctx context.Context, q bookings.Querier, b *bookings.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]bookings.Booking, error)
	HasOverlap(ctx context.Context, q bookings.Querier, professionalID uuid.UUID, date time.Time, span timeutil.Span, excludeID *uuid.UUID) (bool, error)
	Update(ctx context.Context, q bookings.Querier, b *bookings.Booking) error
}

// BlockStore exposes the blocked intervals relevant to conflict checks.
type BlockStore interface {
	ListForDay(ctx context.Context, professionalID uuid.UUID, date time.Time) ([]blocks.BlockedInterval, error)
}

// Service orchestrates single-booking validation and creation against
// working hours and existing occurrences.
type Service struct {
	resources ResourceDirectory
	bookings  BookingStore
	blocks    BlockStore
	cache     *availability.SlotCache
	metrics   *metrics.SchedulingMetrics
	logger    *logging.Logger

	// defaultStepMinutes applies when a resource carries no slot increment.
	defaultStepMinutes int
}

// Option tweaks optional service collaborators.
type Option func(*Service)

// WithSlotCache memoizes day-slot computation in Redis.
func WithSlotCache(cache *availability.SlotCache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithMetrics records scheduling counters.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithDefaultSlotStep overrides the fallback slot increment.
func WithDefaultSlotStep(minutes int) Option {
	return func(s *Service) {
		if minutes > 0 {
			s.defaultStepMinutes = minutes
		}
	}
}

// NewService constructs a scheduling service.
func NewService(dir ResourceDirectory, bookingStore BookingStore, blockStore BlockStore, logger *logging.Logger, opts ...Option) *Service {
	if dir == nil {
		panic("scheduling: resource directory required")
	}
	if bookingStore == nil {
		panic("scheduling: booking store required")
	}
	if blockStore == nil {
		panic("scheduling: block store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		resources:          dir,
		bookings:           bookingStore,
		blocks:             blockStore,
		logger:             logger,
		defaultStepMinutes: 30,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAvailableSlots computes the open start times for a resource's day.
func (s *Service) GetAvailableSlots(ctx context.Context, clinicID, resourceID uuid.UUID, date time.Time, durationMinutes int) ([]timeutil.TimeOfDay, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("schedengine.resource_id", resourceID.String()),
		attribute.String("schedengine.date", timeutil.Date(date).Format("2006-01-02")),
	)

	started := time.Now()
	date = timeutil.Date(date)

	if cached, hit, err := s.cache.Get(ctx, resourceID, date, durationMinutes); err != nil {
		s.logger.Warn("slot cache read failed", "resource_id", resourceID, "error", err)
	} else if hit {
		s.metrics.ObserveSlotLatency(true, time.Since(started).Seconds())
		return cached, nil
	}

	res, err := s.resources.Get(ctx, clinicID, resourceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	booked, err := s.bookedSpans(ctx, resourceID, date)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	slots := availability.Slots(res.Hours, booked, s.stepFor(res), durationMinutes)
	if err := s.cache.Set(ctx, resourceID, date, durationMinutes, slots); err != nil {
		s.logger.Warn("slot cache write failed", "resource_id", resourceID, "error", err)
	}
	s.metrics.ObserveSlotLatency(false, time.Since(started).Seconds())
	return slots, nil
}

// CanSchedule reports whether the candidate interval is bookable: fully
// inside working hours and free of overlapping bookings and blocks.
// excludeID skips one booking, for reschedule checks.
func (s *Service) CanSchedule(ctx context.Context, clinicID, resourceID uuid.UUID, date time.Time, start timeutil.TimeOfDay, durationMinutes int, excludeID *uuid.UUID) (bool, error) {
	res, err := s.resources.Get(ctx, clinicID, resourceID)
	if err != nil {
		return false, err
	}
	return s.canScheduleWith(ctx, nil, res, date, timeutil.NewSpan(start, durationMinutes), excludeID)
}

func (s *Service) canScheduleWith(ctx context.Context, q bookings.Querier, res *resources.Resource, date time.Time, candidate timeutil.Span, excludeID *uuid.UUID) (bool, error) {
	if !res.Hours.Window().Contains(candidate) {
		s.metrics.ObserveConflict("working_hours")
		return false, nil
	}

	overlap, err := s.bookings.HasOverlap(ctx, q, res.ID, timeutil.Date(date), candidate, excludeID)
	if err != nil {
		return false, err
	}
	if overlap {
		s.metrics.ObserveConflict("booking_overlap")
		return false, nil
	}

	dayBlocks, err := s.blocks.ListForDay(ctx, res.ID, timeutil.Date(date))
	if err != nil {
		return false, err
	}
	for _, b := range dayBlocks {
		if candidate.Overlaps(b.Span()) {
			s.metrics.ObserveConflict("blocked_interval")
			return false, nil
		}
	}
	return true, nil
}

// ScheduleRequest describes one booking to create.
type ScheduleRequest struct {
	ClinicID        uuid.UUID
	ResourceID      uuid.UUID
	PatientID       uuid.UUID
	Date            time.Time
	Start           timeutil.TimeOfDay
	DurationMinutes int
	Notes           string
	SeriesID        *uuid.UUID
	RuleID          *uuid.UUID
}

// Schedule validates and persists one booking atomically. The conflict check
// and insert run in one transaction; the database exclusion constraint on
// booking spans decides races between concurrent writers, surfacing as
// ErrSchedulingConflict.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*bookings.Booking, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.schedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("schedengine.clinic_id", req.ClinicID.String()),
		attribute.String("schedengine.resource_id", req.ResourceID.String()),
	)

	if req.DurationMinutes < 1 {
		return nil, fmt.Errorf("scheduling: duration must be positive, got %d", req.DurationMinutes)
	}

	res, err := s.resources.Get(ctx, req.ClinicID, req.ResourceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	tx, err := s.bookings.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduling: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	candidate := timeutil.NewSpan(req.Start, req.DurationMinutes)
	ok, err := s.canScheduleWith(ctx, tx, res, req.Date, candidate, nil)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s %s for resource %s", ErrSchedulingConflict, timeutil.Date(req.Date).Format("2006-01-02"), candidate, req.ResourceID)
	}

	booking := &bookings.Booking{
		ClinicID:        req.ClinicID,
		PatientID:       req.PatientID,
		ProfessionalID:  req.ResourceID,
		Date:            timeutil.Date(req.Date),
		StartTime:       req.Start,
		DurationMinutes: req.DurationMinutes,
		Status:          bookings.StatusScheduled,
		Notes:           req.Notes,
		SeriesID:        req.SeriesID,
		RuleID:          req.RuleID,
	}
	if err := s.bookings.Insert(ctx, tx, booking); err != nil {
		if bookings.IsOverlapViolation(err) {
			s.metrics.ObserveConflict("constraint_race")
			return nil, fmt.Errorf("%w: lost race for %s %s", ErrSchedulingConflict, timeutil.Date(req.Date).Format("2006-01-02"), candidate)
		}
		span.RecordError(err)
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		if bookings.IsOverlapViolation(err) {
			s.metrics.ObserveConflict("constraint_race")
			return nil, fmt.Errorf("%w: lost race for %s %s", ErrSchedulingConflict, timeutil.Date(req.Date).Format("2006-01-02"), candidate)
		}
		return nil, fmt.Errorf("scheduling: commit failed: %w", err)
	}

	if err := s.cache.Invalidate(ctx, req.ResourceID, booking.Date); err != nil {
		s.logger.Warn("slot cache invalidation failed", "resource_id", req.ResourceID, "error", err)
	}
	s.logger.Info("booking scheduled",
		"booking_id", booking.ID,
		"resource_id", req.ResourceID,
		"date", booking.Date.Format("2006-01-02"),
		"start", booking.StartTime.String(),
	)
	return booking, nil
}

// ScheduleEmergency books the first open slot of the day for a resource that
// allows emergency insertion.
func (s *Service) ScheduleEmergency(ctx context.Context, clinicID, resourceID, patientID uuid.UUID, date time.Time, durationMinutes int, notes string) (*bookings.Booking, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.emergency")
	defer span.End()

	res, err := s.resources.Get(ctx, clinicID, resourceID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !res.AllowEmergency {
		return nil, fmt.Errorf("%w: %s", ErrEmergencyNotAllowed, resourceID)
	}

	booked, err := s.bookedSpans(ctx, resourceID, timeutil.Date(date))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	first, found := availability.FirstSlot(res.Hours, booked, s.stepFor(res), durationMinutes)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoAvailableSlot, timeutil.Date(date).Format("2006-01-02"))
	}

	return s.Schedule(ctx, ScheduleRequest{
		ClinicID:        clinicID,
		ResourceID:      resourceID,
		PatientID:       patientID,
		Date:            date,
		Start:           first,
		DurationMinutes: durationMinutes,
		Notes:           notes,
	})
}

// Reschedule moves an editable booking to a new date, start and duration,
// re-validating conflicts while excluding the booking itself.
func (s *Service) Reschedule(ctx context.Context, clinicID, bookingID uuid.UUID, date time.Time, start timeutil.TimeOfDay, durationMinutes int) (*bookings.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	previousDate := booking.Date

	res, err := s.resources.Get(ctx, clinicID, booking.ProfessionalID)
	if err != nil {
		return nil, err
	}

	if err := booking.Reschedule(date, start, durationMinutes); err != nil {
		return nil, err
	}

	tx, err := s.bookings.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduling: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ok, err := s.canScheduleWith(ctx, tx, res, booking.Date, booking.Span(), &booking.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s %s for resource %s", ErrSchedulingConflict, booking.Date.Format("2006-01-02"), booking.Span(), booking.ProfessionalID)
	}
	if err := s.bookings.Update(ctx, tx, booking); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("scheduling: commit failed: %w", err)
	}

	for _, d := range []time.Time{previousDate, booking.Date} {
		if err := s.cache.Invalidate(ctx, booking.ProfessionalID, d); err != nil {
			s.logger.Warn("slot cache invalidation failed", "resource_id", booking.ProfessionalID, "error", err)
		}
	}
	s.logger.Info("booking rescheduled", "booking_id", booking.ID, "date", booking.Date.Format("2006-01-02"), "start", booking.StartTime.String())
	return booking, nil
}

// UpdateStatus applies one lifecycle transition to a booking.
func (s *Service) UpdateStatus(ctx context.Context, bookingID uuid.UUID, next bookings.Status) (*bookings.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := booking.Transition(next); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, nil, booking); err != nil {
		return nil, err
	}
	if next == bookings.StatusCancelled {
		if err := s.cache.Invalidate(ctx, booking.ProfessionalID, booking.Date); err != nil {
			s.logger.Warn("slot cache invalidation failed", "resource_id", booking.ProfessionalID, "error", err)
		}
	}
	s.logger.Info("booking status updated", "booking_id", booking.ID, "status", string(next))
	return booking, nil
}

func (s *Service) bookedSpans(ctx context.Context, resourceID uuid.UUID, date time.Time) ([]timeutil.Span, error) {
	dayBookings, err := s.bookings.ListForDay(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}
	dayBlocks, err := s.blocks.ListForDay(ctx, resourceID, date)
	if err != nil {
		return nil, err
	}
	spans := make([]timeutil.Span, 0, len(dayBookings)+len(dayBlocks))
	for _, b := range dayBookings {
		spans = append(spans, b.Span())
	}
	for _, b := range dayBlocks {
		spans = append(spans, b.Span())
	}
	return spans, nil
}

func (s *Service) stepFor(res *resources.Resource) int {
	if res.SlotIncrementMinutes > 0 {
		return res.SlotIncrementMinutes
	}
	return s.defaultStepMinutes
}

// IsConflict reports whether err is any scheduling business rejection.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSchedulingConflict)
}
