package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/conflict"
	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/recurrence"
	"github.com/example/campus-reservations/internal/rules"
)

// SanctionGate is the sanction surface the booking pipeline depends on.
// *SanctionService satisfies it.
type SanctionGate interface {
	// ActiveBlock returns the unresolved blocking sanction covering now,
	// or nil when the user may book.
	ActiveBlock(ctx context.Context, userID string, now time.Time) (*persistence.UserSanction, error)
	// RecordNoShow files a no-show sanction for the reservation, at most
	// once per reservation.
	RecordNoShow(ctx context.Context, reservation persistence.Reservation) error
}

// liveStatuses are the statuses that occupy a slot.
var liveStatuses = []lifecycle.Status{lifecycle.StatusPending, lifecycle.StatusApproved}

// ReservationService owns the booking pipeline and the reservation
// lifecycle. Every slot-consuming mutation runs under the per-resource lock
// so the conflict check and the write observe the same state.
type ReservationService struct {
	reservations persistence.ReservationRepository
	resources    persistence.ResourceRepository
	rules        persistence.RuleRepository
	sanctions    SanctionGate
	locks        *resourceLocks
	checkInGrace time.Duration
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewReservationService constructs a reservation service with the provided
// dependencies. checkInGrace bounds both the check-in window and the no-show
// sweep cutoff.
func NewReservationService(reservations persistence.ReservationRepository, resources persistence.ResourceRepository, ruleRepo persistence.RuleRepository, sanctions SanctionGate, checkInGrace time.Duration, idGenerator func() string, now func() time.Time) *ReservationService {
	return NewReservationServiceWithLogger(reservations, resources, ruleRepo, sanctions, checkInGrace, idGenerator, now, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a
// specified logger.
func NewReservationServiceWithLogger(reservations persistence.ReservationRepository, resources persistence.ResourceRepository, ruleRepo persistence.RuleRepository, sanctions SanctionGate, checkInGrace time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if checkInGrace <= 0 {
		checkInGrace = 15 * time.Minute
	}
	return &ReservationService{
		reservations: reservations,
		resources:    resources,
		rules:        ruleRepo,
		sanctions:    sanctions,
		locks:        newResourceLocks(),
		checkInGrace: checkInGrace,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation runs the booking pipeline: sanction gate, resource
// availability, duration bounds, rule engine, conflict detection, insert.
// Recurring requests expand into a series where each occurrence passes
// through the pipeline independently; partial success is reported, not
// rolled back.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (result CreateReservationResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", params.Principal.UserID,
		"resource_id", params.Input.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", result.Reservation.ID).InfoContext(ctx, "reservation created",
			"status", string(result.Reservation.Status),
			"occurrences", len(result.Occurrences),
		)
	}()

	input := params.Input
	vErr := validateReservationWindow(input.Start, input.End, input.Title)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if input.RecurrencePattern == "" {
		var reservation persistence.Reservation
		reservation, err = s.createOccurrence(ctx, params.Principal, input, input.Start, input.End, nil, nil)
		if err != nil {
			return
		}
		result.Reservation = reservation
		return
	}

	pattern, perr := recurrence.Parse(input.RecurrencePattern)
	if perr != nil {
		vErr := &ValidationError{}
		vErr.add("recurrence_pattern", perr.Error())
		err = vErr
		return
	}
	occurrences, perr := recurrence.Expand(input.Start, input.End, pattern)
	if perr != nil {
		vErr := &ValidationError{}
		vErr.add("recurrence_pattern", perr.Error())
		err = vErr
		return
	}

	serialized := pattern.String()
	var parentID *string
	for _, occ := range occurrences {
		outcome := OccurrenceResult{Start: occ.Start, End: occ.End}
		reservation, createErr := s.createOccurrence(ctx, params.Principal, input, occ.Start, occ.End, parentID, &serialized)
		if createErr != nil {
			outcome.Err = createErr
		} else {
			outcome.Reservation = &reservation
			if parentID == nil {
				id := reservation.ID
				parentID = &id
				result.Reservation = reservation
			}
		}
		result.Occurrences = append(result.Occurrences, outcome)
	}

	// A series where not a single occurrence fit is an outright failure.
	if parentID == nil {
		err = result.Occurrences[0].Err
		result = CreateReservationResult{}
	}
	return
}

// createOccurrence books one interval under the resource lock.
func (s *ReservationService) createOccurrence(ctx context.Context, principal Principal, input ReservationInput, start, end time.Time, parentID, pattern *string) (persistence.Reservation, error) {
	now := s.now()

	if block, err := s.sanctions.ActiveBlock(ctx, principal.UserID, now); err != nil {
		return persistence.Reservation{}, err
	} else if block != nil {
		return persistence.Reservation{}, &SanctionBlockedError{SanctionID: block.ID, EndDate: block.EndDate}
	}

	resource, err := s.resources.GetResource(ctx, input.ResourceID)
	if err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}
	if !resource.IsActive || resource.Status != persistence.ResourceAvailable {
		vErr := &ValidationError{}
		vErr.add("resource_id", "resource is not available for booking")
		return persistence.Reservation{}, vErr
	}

	if vErr := validateDurationBounds(resource, start, end); vErr.HasErrors() {
		return persistence.Reservation{}, vErr
	}

	unlock := s.locks.acquire(resource.ID)
	defer unlock()

	if err := s.evaluateRules(ctx, resource, principal.UserID, start, end, now); err != nil {
		return persistence.Reservation{}, err
	}
	if err := s.ensureSlotFree(ctx, resource.ID, start, end, "", liveStatuses); err != nil {
		return persistence.Reservation{}, err
	}

	status := lifecycle.StatusApproved
	var approvedAt *time.Time
	if resource.RequiresApproval {
		status = lifecycle.StatusPending
	} else {
		approvedAt = &now
	}

	reservation := persistence.Reservation{
		ID:                  s.idGenerator(),
		ResourceID:          resource.ID,
		UserID:              principal.UserID,
		Start:               start,
		End:                 end,
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		AttendeesCount:      input.AttendeesCount,
		Status:              status,
		ApprovedAt:          approvedAt,
		IsRecurring:         pattern != nil,
		RecurrencePattern:   pattern,
		ParentReservationID: parentID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.reservations.CreateReservation(ctx, reservation); err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}
	return reservation, nil
}

// ApproveReservation confirms a pending booking. Only administrators and the
// resource's responsible user may approve, and the slot is re-checked at
// commit because other bookings may have been approved since submission.
func (s *ReservationService) ApproveReservation(ctx context.Context, params ApproveReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ApproveReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to approve reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation approved")
	}()

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if err = s.ensureApprover(ctx, params.Principal, existing.ResourceID); err != nil {
		return
	}
	if _, terr := lifecycle.Next(existing.Status, lifecycle.ActionApprove); terr != nil {
		err = &InvalidTransitionError{From: existing.Status, Action: lifecycle.ActionApprove}
		return
	}

	unlock := s.locks.acquire(existing.ResourceID)
	defer unlock()

	// Only approved bookings matter here: overlapping submissions are already
	// rejected at creation, so a clash at this point means another pending
	// request won the slot first.
	if err = s.ensureSlotFree(ctx, existing.ResourceID, existing.Start, existing.End, existing.ID, []lifecycle.Status{lifecycle.StatusApproved}); err != nil {
		return
	}

	now := s.now()
	reservation = existing
	reservation.Status = lifecycle.StatusApproved
	reservation.ApprovedBy = &params.Principal.UserID
	reservation.ApprovedAt = &now
	reservation.UpdatedAt = now

	if err = mapRepoError(s.reservations.UpdateReservation(ctx, reservation)); err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// RejectReservation declines a pending booking with a mandatory reason.
func (s *ReservationService) RejectReservation(ctx context.Context, params RejectReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "RejectReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reject reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation rejected")
	}()

	reason := strings.TrimSpace(params.Reason)
	if reason == "" {
		vErr := &ValidationError{}
		vErr.add("reason", "a rejection reason is required")
		err = vErr
		return
	}

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if err = s.ensureApprover(ctx, params.Principal, existing.ResourceID); err != nil {
		return
	}
	if _, terr := lifecycle.Next(existing.Status, lifecycle.ActionReject); terr != nil {
		err = &InvalidTransitionError{From: existing.Status, Action: lifecycle.ActionReject}
		return
	}

	reservation = existing
	reservation.Status = lifecycle.StatusRejected
	reservation.RejectionReason = &reason
	reservation.UpdatedAt = s.now()

	if err = mapRepoError(s.reservations.UpdateReservation(ctx, reservation)); err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// CancelReservation releases a booking before it starts. Owners and
// administrators may cancel.
func (s *ReservationService) CancelReservation(ctx context.Context, params CancelReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CancelReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation cancelled")
	}()

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if existing.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if _, terr := lifecycle.Next(existing.Status, lifecycle.ActionCancel); terr != nil {
		err = &InvalidTransitionError{From: existing.Status, Action: lifecycle.ActionCancel}
		return
	}

	now := s.now()
	if !now.Before(existing.Start) {
		vErr := &ValidationError{}
		vErr.add("time", "cannot cancel a reservation that has already started")
		err = vErr
		return
	}

	reservation = existing
	reservation.Status = lifecycle.StatusCancelled
	reservation.UpdatedAt = now

	if err = mapRepoError(s.reservations.UpdateReservation(ctx, reservation)); err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// UpdateReservation lets the owner move or retitle a live booking before it
// starts. The new window passes through rules and conflict detection again,
// excluding the booking's own slot.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation updated")
	}()

	input := params.Input
	vErr := validateReservationWindow(input.Start, input.End, input.Title)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if existing.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if _, terr := lifecycle.Next(existing.Status, lifecycle.ActionReschedule); terr != nil {
		err = &InvalidTransitionError{From: existing.Status, Action: lifecycle.ActionReschedule}
		return
	}
	now := s.now()
	if !now.Before(existing.Start) {
		vErr := &ValidationError{}
		vErr.add("time", "cannot modify a reservation that has already started")
		err = vErr
		return
	}

	resource, err := s.resources.GetResource(ctx, existing.ResourceID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if vErr := validateDurationBounds(resource, input.Start, input.End); vErr.HasErrors() {
		err = vErr
		return
	}

	unlock := s.locks.acquire(existing.ResourceID)
	defer unlock()

	if err = s.evaluateRules(ctx, resource, existing.UserID, input.Start, input.End, now); err != nil {
		return
	}
	if err = s.ensureSlotFree(ctx, existing.ResourceID, input.Start, input.End, existing.ID, liveStatuses); err != nil {
		return
	}

	reservation = existing
	reservation.Start = input.Start
	reservation.End = input.End
	reservation.Title = strings.TrimSpace(input.Title)
	reservation.Description = input.Description
	reservation.AttendeesCount = input.AttendeesCount
	reservation.UpdatedAt = now

	if err = mapRepoError(s.reservations.UpdateReservation(ctx, reservation)); err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// CheckIn registers attendance. The window opens checkInGrace before the
// start and closes at the reservation end.
func (s *ReservationService) CheckIn(ctx context.Context, params CheckInParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckIn",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check in", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation checked in")
	}()

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if existing.UserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}
	if _, terr := lifecycle.Next(existing.Status, lifecycle.ActionCheckIn); terr != nil {
		err = &InvalidTransitionError{From: existing.Status, Action: lifecycle.ActionCheckIn}
		return
	}
	if existing.CheckedInAt != nil {
		vErr := &ValidationError{}
		vErr.add("check_in", "already checked in")
		err = vErr
		return
	}

	now := s.now()
	if now.Before(existing.Start.Add(-s.checkInGrace)) || !now.Before(existing.End) {
		vErr := &ValidationError{}
		vErr.add("time", "the check-in window is not open")
		err = vErr
		return
	}

	reservation = existing
	reservation.CheckedInAt = &now
	reservation.UpdatedAt = now

	if err = mapRepoError(s.reservations.UpdateReservation(ctx, reservation)); err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// CheckOut releases the resource and completes the reservation. Requires a
// prior check-in.
func (s *ReservationService) CheckOut(ctx context.Context, params CheckOutParams) (reservation persistence.Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckOut",
		"principal_id", params.Principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to check out", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation completed")
	}()

	existing, err := s.reservations.GetReservation(ctx, params.ReservationID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	if existing.UserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}
	next, terr := lifecycle.Next(existing.Status, lifecycle.ActionCheckOut)
	if terr != nil {
		err = &InvalidTransitionError{From: existing.Status, Action: lifecycle.ActionCheckOut}
		return
	}
	if existing.CheckedInAt == nil {
		vErr := &ValidationError{}
		vErr.add("check_out", "cannot check out without checking in")
		err = vErr
		return
	}

	now := s.now()
	reservation = existing
	reservation.Status = next
	reservation.CheckedOutAt = &now
	reservation.UpdatedAt = now

	if err = mapRepoError(s.reservations.UpdateReservation(ctx, reservation)); err != nil {
		reservation = persistence.Reservation{}
		return
	}
	return
}

// GetReservation returns one booking to its owner or an administrator.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, id string) (persistence.Reservation, error) {
	if s == nil {
		return persistence.Reservation{}, fmt.Errorf("ReservationService is nil")
	}
	reservation, err := s.reservations.GetReservation(ctx, id)
	if err != nil {
		return persistence.Reservation{}, mapRepoError(err)
	}
	if reservation.UserID != principal.UserID && !principal.IsAdmin {
		return persistence.Reservation{}, ErrUnauthorized
	}
	return reservation, nil
}

// MyReservations lists the principal's own bookings, newest first.
func (s *ReservationService) MyReservations(ctx context.Context, params MyReservationsParams) ([]persistence.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}

	filter := persistence.UserReservationFilter{
		UserID:       params.Principal.UserID,
		Status:       params.Status,
		UpcomingOnly: params.UpcomingOnly,
		Reference:    s.now(),
		Offset:       params.Offset,
		Limit:        params.Limit,
	}
	reservations, err := s.reservations.ListUserReservations(ctx, filter)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return reservations, nil
}

// Calendar lists the live bookings occupying a resource inside [from, to),
// ordered by start time.
func (s *ReservationService) Calendar(ctx context.Context, params CalendarParams) ([]persistence.Reservation, error) {
	if s == nil {
		return nil, fmt.Errorf("ReservationService is nil")
	}

	if params.From.IsZero() || params.To.IsZero() || !params.From.Before(params.To) {
		vErr := &ValidationError{}
		vErr.add("window", "a start before end window is required")
		return nil, vErr
	}
	if _, err := s.resources.GetResource(ctx, params.ResourceID); err != nil {
		return nil, mapRepoError(err)
	}

	reservations, err := s.reservations.ListResourceReservations(ctx, params.ResourceID, params.From, params.To, liveStatuses)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return reservations, nil
}

// SweepNoShows marks approved reservations whose check-in window has lapsed
// as NO_SHOW and files one sanction per missed reservation. The sweep is
// idempotent: rerunning it never double-marks or double-sanctions.
func (s *ReservationService) SweepNoShows(ctx context.Context) (marked int, err error) {
	if s == nil {
		return 0, fmt.Errorf("ReservationService is nil")
	}

	logger := s.loggerWith(ctx, "SweepNoShows")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "no-show sweep failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		if marked > 0 {
			logger.InfoContext(ctx, "no-show sweep completed", "marked", marked)
		}
	}()

	now := s.now()
	candidates, err := s.reservations.ListNoShowCandidates(ctx, now.Add(-s.checkInGrace))
	if err != nil {
		if isNotFoundError(err) {
			return 0, nil
		}
		return 0, err
	}

	for _, candidate := range candidates {
		next, terr := lifecycle.Next(candidate.Status, lifecycle.ActionMarkNoShow)
		if terr != nil {
			continue
		}
		updated := candidate
		updated.Status = next
		updated.UpdatedAt = now
		if err = mapRepoError(s.reservations.UpdateReservation(ctx, updated)); err != nil {
			return marked, err
		}
		if err = s.sanctions.RecordNoShow(ctx, updated); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

// ensureApprover authorizes approve/reject: administrators always,
// responsible users for their own resource.
func (s *ReservationService) ensureApprover(ctx context.Context, principal Principal, resourceID string) error {
	if principal.IsAdmin {
		return nil
	}
	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		return mapRepoError(err)
	}
	if resource.ResponsibleUserID != nil && *resource.ResponsibleUserID == principal.UserID {
		return nil
	}
	return ErrUnauthorized
}

// evaluateRules runs the configured rule set against the proposed window.
func (s *ReservationService) evaluateRules(ctx context.Context, resource persistence.Resource, userID string, start, end, now time.Time) error {
	stored, err := s.rules.ListRulesForResource(ctx, resource.ID)
	if err != nil && !isNotFoundError(err) {
		return err
	}

	ruleSet := make([]rules.Rule, 0, len(stored))
	for _, record := range stored {
		ruleSet = append(ruleSet, toEngineRule(record))
	}

	live, err := s.reservations.ListUserLiveReservations(ctx, resource.ID, userID)
	if err != nil && !isNotFoundError(err) {
		return err
	}
	existing := make([]rules.Booking, 0, len(live))
	for _, reservation := range live {
		existing = append(existing, rules.Booking{Start: reservation.Start, End: reservation.End})
	}

	violation := rules.Evaluate(ruleSet, rules.Input{
		Proposed: rules.Proposed{
			ResourceID: resource.ID,
			UserID:     userID,
			Start:      start,
			End:        end,
		},
		Existing: existing,
		Resource: rules.ResourceLimits{
			AdvanceBookingDays: resource.AdvanceBookingDays,
			WeekStartsOn:       resource.WeekStartsOn,
		},
		Now: now,
	})
	if violation != nil {
		return &RuleViolationError{
			RuleID:   violation.RuleID,
			RuleName: violation.RuleName,
			Kind:     string(violation.Kind),
			Message:  violation.Message,
		}
	}
	return nil
}

// ensureSlotFree runs conflict detection over the live bookings intersecting
// the window. Must be called under the resource lock.
func (s *ReservationService) ensureSlotFree(ctx context.Context, resourceID string, start, end time.Time, excludeID string, statuses []lifecycle.Status) error {
	occupying, err := s.reservations.ListResourceReservations(ctx, resourceID, start, end, statuses)
	if err != nil && !isNotFoundError(err) {
		return err
	}

	existing := make([]conflict.Booking, 0, len(occupying))
	for _, reservation := range occupying {
		existing = append(existing, conflict.Booking{
			ID:         reservation.ID,
			ResourceID: reservation.ResourceID,
			UserID:     reservation.UserID,
			Start:      reservation.Start,
			End:        reservation.End,
		})
	}

	candidate := conflict.Booking{ID: excludeID, ResourceID: resourceID, Start: start, End: end}
	conflicts := conflict.Detect(existing, candidate, conflict.Options{ExcludeBookingID: excludeID})
	if len(conflicts) == 0 {
		return nil
	}

	ids := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.WithBookingID)
	}
	return &ConflictError{ResourceID: resourceID, ReservationIDs: ids}
}

func validateReservationWindow(start, end time.Time, title string) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(title) == "" {
		vErr.add("title", "title is required")
	}
	if start.IsZero() {
		vErr.add("start_time", "start time is required")
	}
	if end.IsZero() {
		vErr.add("end_time", "end time is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		vErr.add("time", "start must be before end")
	}
	return vErr
}

func validateDurationBounds(resource persistence.Resource, start, end time.Time) *ValidationError {
	vErr := &ValidationError{}
	minutes := int(end.Sub(start) / time.Minute)
	if minutes < resource.MinReservationMinutes {
		vErr.add("duration", fmt.Sprintf("reservation must be at least %d minutes", resource.MinReservationMinutes))
	}
	if minutes > resource.MaxReservationMinutes {
		vErr.add("duration", fmt.Sprintf("reservation cannot exceed %d minutes", resource.MaxReservationMinutes))
	}
	return vErr
}

func toEngineRule(record persistence.ReservationRule) rules.Rule {
	rule := rules.Rule{
		ID:                     record.ID,
		Kind:                   record.Kind,
		Name:                   record.Name,
		DayOfWeek:              record.DayOfWeek,
		WindowStart:            record.WindowStart,
		WindowEnd:              record.WindowEnd,
		StartDate:              record.StartDate,
		EndDate:                record.EndDate,
		MaxReservationsPerDay:  record.MaxReservationsPerDay,
		MaxReservationsPerWeek: record.MaxReservationsPerWeek,
		MaxHoursPerDay:         record.MaxHoursPerDay,
		MaxHoursPerWeek:        record.MaxHoursPerWeek,
		MinAdvanceHours:        record.MinAdvanceHours,
		Priority:               record.Priority,
		Active:                 record.IsActive,
	}
	if record.ResourceID != nil {
		rule.ResourceID = *record.ResourceID
	}
	if record.Description != nil {
		rule.Description = *record.Description
	}
	return rule
}
