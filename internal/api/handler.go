package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicore/schedengine/internal/blocks"
	"github.com/clinicore/schedengine/internal/bookings"
	"github.com/clinicore/schedengine/internal/recurrence"
	"github.com/clinicore/schedengine/internal/resources"
	"github.com/clinicore/schedengine/internal/rules"
	"github.com/clinicore/schedengine/internal/scheduling"
	"github.com/clinicore/schedengine/internal/series"
	"github.com/clinicore/schedengine/internal/tenancy"
	"github.com/clinicore/schedengine/internal/timeutil"
	"github.com/clinicore/schedengine/pkg/logging"
)

// Scheduler is the slice of the scheduling service the HTTP layer calls.
type Scheduler interface {
	GetAvailableSlots(ctx context.Context, clinicID, resourceID uuid.UUID, date time.Time, durationMinutes int) ([]timeutil.TimeOfDay, error)
	Schedule(ctx context.Context, req scheduling.ScheduleRequest) (*bookings.Booking, error)
	ScheduleEmergency(ctx context.Context, clinicID, resourceID, patientID uuid.UUID, date time.Time, durationMinutes int, notes string) (*bookings.Booking, error)
	Reschedule(ctx context.Context, clinicID, bookingID uuid.UUID, date time.Time, start timeutil.TimeOfDay, durationMinutes int) (*bookings.Booking, error)
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, next bookings.Status) (*bookings.Booking, error)
}

// SeriesManager is the slice of the series service the HTTP layer calls.
type SeriesManager interface {
	Materialize(ctx context.Context, rule *recurrence.Rule, horizonEnd time.Time, seriesID uuid.UUID) (*series.MaterializeResult, error)
	Occurrences(ctx context.Context, ruleID, seriesID uuid.UUID, horizonEnd time.Time) ([]time.Time, error)
	DeleteBooking(ctx context.Context, bookingID uuid.UUID, scope series.DeleteScope, reason string) (*series.MutationResult, error)
	DeleteBlock(ctx context.Context, blockID uuid.UUID, scope series.DeleteScope, reason string) (*series.MutationResult, error)
}

// ResourceLister lists the clinic's bookable resources.
type ResourceLister interface {
	ListForClinic(ctx context.Context, clinicID uuid.UUID) ([]resources.Resource, error)
}

// Handler provides the scheduling HTTP endpoints, all scoped to one clinic.
type Handler struct {
	scheduler Scheduler
	seriesMgr SeriesManager
	resources ResourceLister
	logger    *logging.Logger
}

// NewHandler creates the scheduling HTTP handler.
func NewHandler(scheduler Scheduler, seriesMgr SeriesManager, lister ResourceLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		scheduler: scheduler,
		seriesMgr: seriesMgr,
		resources: lister,
		logger:    logger,
	}
}

// Routes returns a chi router with all clinic-scoped scheduling routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{clinicID}", func(r chi.Router) {
		r.Use(clinicContext)

		r.Get("/resources", h.ListResources)
		r.Get("/resources/{resourceID}/slots", h.GetSlots)

		r.Post("/bookings", h.CreateBooking)
		r.Post("/bookings/emergency", h.CreateEmergencyBooking)
		r.Patch("/bookings/{bookingID}/status", h.UpdateBookingStatus)
		r.Patch("/bookings/{bookingID}/schedule", h.RescheduleBooking)
		r.Delete("/bookings/{bookingID}", h.DeleteBooking)

		r.Delete("/blocks/{blockID}", h.DeleteBlock)

		r.Post("/series", h.CreateSeries)
		r.Get("/series/{seriesID}/occurrences", h.ListOccurrences)
		r.Post("/series/preview", h.PreviewSeries)
	})
	return r
}

// clinicContext parses the clinic id once and stashes it in the request
// context; every handler and log line below reads it from there.
func clinicContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clinicID, err := uuid.Parse(chi.URLParam(r, "clinicID"))
		if err != nil {
			http.Error(w, `{"error":"invalid clinic id"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenancy.WithClinicID(r.Context(), clinicID)))
	})
}

type bookingResponse struct {
	ID              uuid.UUID  `json:"id"`
	ClinicID        uuid.UUID  `json:"clinic_id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	ProfessionalID  uuid.UUID  `json:"professional_id"`
	Date            string     `json:"date"`
	Start           string     `json:"start"`
	End             string     `json:"end"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	SeriesID        *uuid.UUID `json:"series_id,omitempty"`
	RuleID          *uuid.UUID `json:"rule_id,omitempty"`
}

func toBookingResponse(b *bookings.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		ClinicID:        b.ClinicID,
		PatientID:       b.PatientID,
		ProfessionalID:  b.ProfessionalID,
		Date:            b.Date.Format("2006-01-02"),
		Start:           b.StartTime.String(),
		End:             b.Span().End.String(),
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		Notes:           b.Notes,
		SeriesID:        b.SeriesID,
		RuleID:          b.RuleID,
	}
}

type resourceResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Open                 string    `json:"open"`
	Close                string    `json:"close"`
	SlotIncrementMinutes int       `json:"slot_increment_minutes"`
	AllowEmergency       bool      `json:"allow_emergency"`
}

// ListResources returns the clinic's bookable resources.
// GET /clinics/{clinicID}/resources
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseClinicID(w, r)
	if !ok {
		return
	}
	list, err := h.resources.ListForClinic(r.Context(), clinicID)
	if err != nil {
		h.logger.Error("failed to list resources", "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	out := make([]resourceResponse, 0, len(list))
	for _, res := range list {
		out = append(out, resourceResponse{
			ID:                   res.ID,
			Name:                 res.Name,
			Open:                 res.Hours.Open.String(),
			Close:                res.Hours.Close.String(),
			SlotIncrementMinutes: res.SlotIncrementMinutes,
			AllowEmergency:       res.AllowEmergency,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": out})
}

// GetSlots returns the open start times for a resource's day.
// GET /clinics/{clinicID}/resources/{resourceID}/slots?date=2024-06-03&duration=30
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseClinicID(w, r)
	if !ok {
		return
	}
	resourceID, err := uuid.Parse(chi.URLParam(r, "resourceID"))
	if err != nil {
		http.Error(w, `{"error":"invalid resource id"}`, http.StatusBadRequest)
		return
	}
	date, err := parseDateParam(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, `{"error":"date required, format 2006-01-02"}`, http.StatusBadRequest)
		return
	}
	duration, err := parsePositiveInt(r.URL.Query().Get("duration"), 30)
	if err != nil {
		http.Error(w, `{"error":"invalid duration"}`, http.StatusBadRequest)
		return
	}

	slots, err := h.scheduler.GetAvailableSlots(r.Context(), clinicID, resourceID, date, duration)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to compute slots")
		return
	}
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":             date.Format("2006-01-02"),
		"duration_minutes": duration,
		"slots":            out,
	})
}

type createBookingRequest struct {
	PatientID       uuid.UUID `json:"patient_id"`
	ProfessionalID  uuid.UUID `json:"professional_id"`
	Date            string    `json:"date"`
	Start           string    `json:"start"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

// CreateBooking schedules one one-off booking.
// POST /clinics/{clinicID}/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseClinicID(w, r)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		http.Error(w, `{"error":"date required, format 2006-01-02"}`, http.StatusBadRequest)
		return
	}
	start, err := timeutil.ParseTimeOfDay(req.Start)
	if err != nil {
		http.Error(w, `{"error":"start required, format HH:MM"}`, http.StatusBadRequest)
		return
	}

	booking, err := h.scheduler.Schedule(r.Context(), scheduling.ScheduleRequest{
		ClinicID:        clinicID,
		ResourceID:      req.ProfessionalID,
		PatientID:       req.PatientID,
		Date:            date,
		Start:           start,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to schedule booking")
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

type emergencyBookingRequest struct {
	PatientID       uuid.UUID `json:"patient_id"`
	ProfessionalID  uuid.UUID `json:"professional_id"`
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           string    `json:"notes"`
}

// CreateEmergencyBooking books the first open slot of the day.
// POST /clinics/{clinicID}/bookings/emergency
func (h *Handler) CreateEmergencyBooking(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseClinicID(w, r)
	if !ok {
		return
	}
	var req emergencyBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		http.Error(w, `{"error":"date required, format 2006-01-02"}`, http.StatusBadRequest)
		return
	}

	booking, err := h.scheduler.ScheduleEmergency(r.Context(), clinicID, req.ProfessionalID, req.PatientID, date, req.DurationMinutes, req.Notes)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to schedule emergency booking")
		return
	}
	writeJSON(w, http.StatusCreated, toBookingResponse(booking))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateBookingStatus applies one lifecycle transition.
// PATCH /clinics/{clinicID}/bookings/{bookingID}/status
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, `{"error":"invalid booking id"}`, http.StatusBadRequest)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	booking, err := h.scheduler.UpdateStatus(r.Context(), bookingID, bookings.Status(req.Status))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update booking status")
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

type rescheduleRequest struct {
	Date            string `json:"date"`
	Start           string `json:"start"`
	DurationMinutes int    `json:"duration_minutes"`
}

// RescheduleBooking moves an editable booking.
// PATCH /clinics/{clinicID}/bookings/{bookingID}/schedule
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseClinicID(w, r)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, `{"error":"invalid booking id"}`, http.StatusBadRequest)
		return
	}
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	date, err := parseDateParam(req.Date)
	if err != nil {
		http.Error(w, `{"error":"date required, format 2006-01-02"}`, http.StatusBadRequest)
		return
	}
	start, err := timeutil.ParseTimeOfDay(req.Start)
	if err != nil {
		http.Error(w, `{"error":"start required, format HH:MM"}`, http.StatusBadRequest)
		return
	}

	booking, err := h.scheduler.Reschedule(r.Context(), clinicID, bookingID, date, start, req.DurationMinutes)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to reschedule booking")
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(booking))
}

// DeleteBooking removes a booking under a scope.
// DELETE /clinics/{clinicID}/bookings/{bookingID}?scope=this_occurrence&reason=...
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, `{"error":"invalid booking id"}`, http.StatusBadRequest)
		return
	}
	scope := series.DeleteScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = series.ScopeThisOccurrence
	}

	result, err := h.seriesMgr.DeleteBooking(r.Context(), bookingID, scope, r.URL.Query().Get("reason"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to delete booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scope":   string(result.Scope),
		"removed": result.Removed,
	})
}

// DeleteBlock removes a blocked interval under a scope.
// DELETE /clinics/{clinicID}/blocks/{blockID}?scope=all_in_series
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	blockID, err := uuid.Parse(chi.URLParam(r, "blockID"))
	if err != nil {
		http.Error(w, `{"error":"invalid block id"}`, http.StatusBadRequest)
		return
	}
	scope := series.DeleteScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = series.ScopeThisOccurrence
	}

	result, err := h.seriesMgr.DeleteBlock(r.Context(), blockID, scope, r.URL.Query().Get("reason"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to delete block")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scope":   string(result.Scope),
		"removed": result.Removed,
	})
}

type createSeriesRequest struct {
	ProfessionalID  uuid.UUID  `json:"professional_id"`
	Frequency       string     `json:"frequency"`
	Interval        int        `json:"interval"`
	Weekdays        []int      `json:"weekdays"`
	DayOfMonth      int        `json:"day_of_month"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	Count           *int       `json:"count"`
	StartTime       string     `json:"start_time"`
	EndTime         string     `json:"end_time"`
	Target          string     `json:"target"`
	PatientID       *uuid.UUID `json:"patient_id"`
	DurationMinutes int        `json:"duration_minutes"`
	BlockReason     string     `json:"block_reason"`
	HorizonEnd      string     `json:"horizon_end"`

	// SeriesID regenerates an existing series in place of starting a new one.
	SeriesID *uuid.UUID `json:"series_id"`
}

func (req createSeriesRequest) toRule(clinicID uuid.UUID) (*recurrence.Rule, time.Time, error) {
	startDate, err := parseDateParam(req.StartDate)
	if err != nil {
		return nil, time.Time{}, errors.New("start_date required, format 2006-01-02")
	}
	rule := &recurrence.Rule{
		ClinicID:        clinicID,
		ProfessionalID:  &req.ProfessionalID,
		Frequency:       recurrence.Frequency(req.Frequency),
		Interval:        req.Interval,
		DayOfMonth:      req.DayOfMonth,
		StartDate:       startDate,
		Count:           req.Count,
		Active:          true,
		Target:          recurrence.TargetKind(req.Target),
		PatientID:       req.PatientID,
		DurationMinutes: req.DurationMinutes,
		BlockReason:     req.BlockReason,
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	for _, d := range req.Weekdays {
		if d < 0 || d > 6 {
			return nil, time.Time{}, errors.New("weekdays must be 0 (Sunday) through 6 (Saturday)")
		}
		rule.Weekdays = append(rule.Weekdays, time.Weekday(d))
	}
	if req.EndDate != "" {
		endDate, err := parseDateParam(req.EndDate)
		if err != nil {
			return nil, time.Time{}, errors.New("end_date format 2006-01-02")
		}
		rule.EndDate = &endDate
	}
	if req.StartTime != "" {
		start, err := timeutil.ParseTimeOfDay(req.StartTime)
		if err != nil {
			return nil, time.Time{}, errors.New("start_time format HH:MM")
		}
		rule.StartTime = start
	}
	if req.EndTime != "" {
		end, err := timeutil.ParseTimeOfDay(req.EndTime)
		if err != nil {
			return nil, time.Time{}, errors.New("end_time format HH:MM")
		}
		rule.EndTime = end
	}
	var horizon time.Time
	if req.HorizonEnd != "" {
		horizon, err = parseDateParam(req.HorizonEnd)
		if err != nil {
			return nil, time.Time{}, errors.New("horizon_end format 2006-01-02")
		}
	}
	return rule, horizon, nil
}

// CreateSeries materializes a recurrence rule into stored occurrences.
// POST /clinics/{clinicID}/series
func (h *Handler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseClinicID(w, r)
	if !ok {
		return
	}
	var req createSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	rule, horizon, err := req.toRule(clinicID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	seriesID := uuid.Nil
	if req.SeriesID != nil {
		seriesID = *req.SeriesID
	}
	result, err := h.seriesMgr.Materialize(r.Context(), rule, horizon, seriesID)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to materialize series")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"series_id":   result.SeriesID,
		"rule_id":     result.RuleID,
		"occurrences": formatDates(result.Dates),
	})
}

// PreviewSeries expands a rule without writing anything.
// POST /clinics/{clinicID}/series/preview
func (h *Handler) PreviewSeries(w http.ResponseWriter, r *http.Request) {
	clinicID, ok := parseClinicID(w, r)
	if !ok {
		return
	}
	var req createSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	rule, horizon, err := req.toRule(clinicID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if horizon.IsZero() {
		horizon = rule.StartDate.AddDate(1, 0, 0)
	}

	dates, err := recurrence.Expand(*rule, horizon)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to expand rule")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"occurrences": formatDates(dates)})
}

// ListOccurrences returns the series' current dates after exceptions.
// GET /clinics/{clinicID}/series/{seriesID}/occurrences?rule_id=...
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	seriesID, err := uuid.Parse(chi.URLParam(r, "seriesID"))
	if err != nil {
		http.Error(w, `{"error":"invalid series id"}`, http.StatusBadRequest)
		return
	}
	ruleID, err := uuid.Parse(r.URL.Query().Get("rule_id"))
	if err != nil {
		http.Error(w, `{"error":"rule_id required"}`, http.StatusBadRequest)
		return
	}
	var horizon time.Time
	if raw := r.URL.Query().Get("until"); raw != "" {
		horizon, err = parseDateParam(raw)
		if err != nil {
			http.Error(w, `{"error":"until format 2006-01-02"}`, http.StatusBadRequest)
			return
		}
	}

	dates, err := h.seriesMgr.Occurrences(r.Context(), ruleID, seriesID, horizon)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list occurrences")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"occurrences": formatDates(dates)})
}

// writeServiceError maps domain errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	var conflict *series.ConflictError
	switch {
	case errors.Is(err, scheduling.ErrSchedulingConflict),
		errors.Is(err, bookings.ErrInvalidTransition),
		errors.Is(err, bookings.ErrNotEditable),
		errors.Is(err, scheduling.ErrNoAvailableSlot),
		errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, scheduling.ErrEmergencyNotAllowed):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, recurrence.ErrInvalidRule),
		errors.Is(err, recurrence.ErrCapacityExceeded),
		errors.Is(err, recurrence.ErrHorizonRequired),
		errors.Is(err, series.ErrUnknownScope),
		errors.Is(err, series.ErrNotInSeries):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, bookings.ErrBookingNotFound),
		errors.Is(err, blocks.ErrBlockNotFound),
		errors.Is(err, resources.ErrResourceNotFound),
		errors.Is(err, rules.ErrRuleNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		clinicID, _ := tenancy.ClinicIDFromContext(r.Context())
		h.logger.Error(logMsg, "clinic_id", clinicID, "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}
}

func parseClinicID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	clinicID, ok := tenancy.ClinicIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"invalid clinic id"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return clinicID, true
}

func parseDateParam(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func parsePositiveInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("must be a positive integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
