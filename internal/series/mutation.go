package series

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicore/schedengine/internal/exceptions"
	"github.com/clinicore/schedengine/internal/timeutil"
)

// DeleteScope selects how much of a series a deletion touches.
type DeleteScope string

const (
	// ScopeThisOccurrence removes one date and logs a deleted exception so
	// regeneration never resurrects it.
	ScopeThisOccurrence DeleteScope = "this_occurrence"
	// ScopeThisAndFuture removes the date and everything after it, then
	// truncates the rule's effective end to the day before.
	ScopeThisAndFuture DeleteScope = "this_and_future"
	// ScopeAllInSeries removes every occurrence, deactivates the rule and
	// purges the exception log.
	ScopeAllInSeries DeleteScope = "all_in_series"
)

// ErrUnknownScope rejects a scope outside the three defined values.
var ErrUnknownScope = errors.New("series: unknown delete scope")

// ErrNotInSeries indicates a series scope was requested for a one-off
// occurrence that belongs to no rule.
var ErrNotInSeries = errors.New("series: occurrence does not belong to a series")

// Valid reports whether the scope is one of the defined values.
func (s DeleteScope) Valid() bool {
	switch s {
	case ScopeThisOccurrence, ScopeThisAndFuture, ScopeAllInSeries:
		return true
	}
	return false
}

// MutationResult summarizes what a scoped deletion removed.
type MutationResult struct {
	Scope   DeleteScope
	Removed int64
}

// DeleteBooking removes a booking under the given scope. A one-off booking is
// simply deleted regardless of scope; series bookings follow the scope
// protocol inside one transaction.
func (s *Service) DeleteBooking(ctx context.Context, bookingID uuid.UUID, scope DeleteScope, reason string) (*MutationResult, error) {
	ctx, span := seriesTracer.Start(ctx, "series.delete_booking")
	defer span.End()
	span.SetAttributes(attribute.String("schedengine.scope", string(scope)))

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.Recurring() {
		if err := s.bookings.Delete(ctx, nil, bookingID); err != nil {
			return nil, err
		}
		s.metrics.ObserveMutation("one_off", "ok")
		s.logger.Info("booking deleted", "booking_id", bookingID)
		return &MutationResult{Scope: scope, Removed: 1}, nil
	}

	if !scope.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	if booking.SeriesID == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNotInSeries, bookingID)
	}

	result, err := s.applyScope(ctx, scope, scopeTarget{
		seriesID: *booking.SeriesID,
		ruleID:   *booking.RuleID,
		date:     booking.Date,
		reason:   reason,
		deleteOne: func(ctx context.Context, tx pgx.Tx) error {
			return s.bookings.Delete(ctx, tx, bookingID)
		},
		deleteFuture: func(ctx context.Context, tx pgx.Tx, seriesID uuid.UUID, from time.Time) (int64, error) {
			return s.bookings.DeleteFutureInSeries(ctx, tx, seriesID, from)
		},
		deleteAll: func(ctx context.Context, tx pgx.Tx, seriesID uuid.UUID) (int64, error) {
			return s.bookings.DeleteBySeries(ctx, tx, seriesID)
		},
	})
	if err != nil {
		s.metrics.ObserveMutation(string(scope), "error")
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveMutation(string(scope), "ok")
	s.logger.Info("series booking deleted",
		"booking_id", bookingID,
		"series_id", *booking.SeriesID,
		"scope", string(scope),
		"removed", result.Removed,
	)
	return result, nil
}

// DeleteBlock removes a blocked interval under the given scope, mirroring
// DeleteBooking.
func (s *Service) DeleteBlock(ctx context.Context, blockID uuid.UUID, scope DeleteScope, reason string) (*MutationResult, error) {
	ctx, span := seriesTracer.Start(ctx, "series.delete_block")
	defer span.End()
	span.SetAttributes(attribute.String("schedengine.scope", string(scope)))

	block, err := s.blocks.GetByID(ctx, blockID)
	if err != nil {
		return nil, err
	}

	if !block.Recurring() {
		if err := s.blocks.Delete(ctx, nil, blockID); err != nil {
			return nil, err
		}
		s.metrics.ObserveMutation("one_off", "ok")
		s.logger.Info("block deleted", "block_id", blockID)
		return &MutationResult{Scope: scope, Removed: 1}, nil
	}

	if !scope.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	if block.SeriesID == nil {
		return nil, fmt.Errorf("%w: block %s", ErrNotInSeries, blockID)
	}

	result, err := s.applyScope(ctx, scope, scopeTarget{
		seriesID: *block.SeriesID,
		ruleID:   *block.RuleID,
		date:     block.Date,
		reason:   reason,
		deleteOne: func(ctx context.Context, tx pgx.Tx) error {
			return s.blocks.Delete(ctx, tx, blockID)
		},
		deleteFuture: func(ctx context.Context, tx pgx.Tx, seriesID uuid.UUID, from time.Time) (int64, error) {
			return s.blocks.DeleteFutureInSeries(ctx, tx, seriesID, from)
		},
		deleteAll: func(ctx context.Context, tx pgx.Tx, seriesID uuid.UUID) (int64, error) {
			return s.blocks.DeleteBySeries(ctx, tx, seriesID)
		},
	})
	if err != nil {
		s.metrics.ObserveMutation(string(scope), "error")
		span.RecordError(err)
		return nil, err
	}
	s.metrics.ObserveMutation(string(scope), "ok")
	s.logger.Info("series block deleted",
		"block_id", blockID,
		"series_id", *block.SeriesID,
		"scope", string(scope),
		"removed", result.Removed,
	)
	return result, nil
}

// scopeTarget abstracts the rows a scoped deletion operates on so bookings
// and blocks share one protocol.
type scopeTarget struct {
	seriesID uuid.UUID
	ruleID   uuid.UUID
	date     time.Time
	reason   string

	deleteOne    func(ctx context.Context, tx pgx.Tx) error
	deleteFuture func(ctx context.Context, tx pgx.Tx, seriesID uuid.UUID, from time.Time) (int64, error)
	deleteAll    func(ctx context.Context, tx pgx.Tx, seriesID uuid.UUID) (int64, error)
}

func (s *Service) applyScope(ctx context.Context, scope DeleteScope, target scopeTarget) (*MutationResult, error) {
	tx, err := s.rules.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("series: begin failed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result := &MutationResult{Scope: scope}

	switch scope {
	case ScopeThisOccurrence:
		entry := &exceptions.Entry{
			RuleID:       target.ruleID,
			SeriesID:     target.seriesID,
			OriginalDate: target.date,
			Type:         exceptions.TypeDeleted,
			Reason:       target.reason,
		}
		if err := s.exceptions.Add(ctx, tx, entry); err != nil {
			return nil, err
		}
		if err := target.deleteOne(ctx, tx); err != nil {
			return nil, err
		}
		result.Removed = 1

	case ScopeThisAndFuture:
		n, err := target.deleteFuture(ctx, tx, target.seriesID, target.date)
		if err != nil {
			return nil, err
		}
		// The rule stays active but generates nothing past the cut.
		cut := timeutil.Date(target.date).AddDate(0, 0, -1)
		if err := s.rules.SetEffectiveEndDate(ctx, tx, target.ruleID, cut); err != nil {
			return nil, err
		}
		result.Removed = n

	case ScopeAllInSeries:
		n, err := target.deleteAll(ctx, tx, target.seriesID)
		if err != nil {
			return nil, err
		}
		if err := s.rules.Deactivate(ctx, tx, target.ruleID); err != nil {
			return nil, err
		}
		if _, err := s.exceptions.DeleteBySeries(ctx, tx, target.seriesID); err != nil {
			return nil, err
		}
		result.Removed = n

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("series: commit failed: %w", err)
	}
	return result, nil
}
