package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

// SanctionService manages penalties recorded against users and answers the
// booking pipeline's "may this user book right now" question.
type SanctionService struct {
	sanctions        persistence.SanctionRepository
	noShowSuspension time.Duration
	idGenerator      func() string
	now              func() time.Time
	logger           *slog.Logger
}

// NewSanctionService constructs a sanction service. noShowSuspension is the
// length of the suspension filed by the no-show sweep.
func NewSanctionService(sanctions persistence.SanctionRepository, noShowSuspension time.Duration, idGenerator func() string, now func() time.Time) *SanctionService {
	return NewSanctionServiceWithLogger(sanctions, noShowSuspension, idGenerator, now, nil)
}

// NewSanctionServiceWithLogger constructs a sanction service with a
// specified logger.
func NewSanctionServiceWithLogger(sanctions persistence.SanctionRepository, noShowSuspension time.Duration, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SanctionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if noShowSuspension <= 0 {
		noShowSuspension = 7 * 24 * time.Hour
	}
	return &SanctionService{
		sanctions:        sanctions,
		noShowSuspension: noShowSuspension,
		idGenerator:      idGenerator,
		now:              now,
		logger:           defaultLogger(logger),
	}
}

func (s *SanctionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SanctionService", operation, attrs...)
}

// CreateSanction records a penalty against a user for administrators.
func (s *SanctionService) CreateSanction(ctx context.Context, params CreateSanctionParams) (sanction persistence.UserSanction, err error) {
	if s == nil {
		err = fmt.Errorf("SanctionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSanction",
		"principal_id", params.Principal.UserID,
		"user_id", params.Input.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create sanction", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("sanction_id", sanction.ID).InfoContext(ctx, "sanction created",
			"sanction_type", string(sanction.Type),
		)
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateSanctionInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	start := params.Input.StartDate
	if start.IsZero() {
		start = now
	}

	sanction = persistence.UserSanction{
		ID:            s.idGenerator(),
		UserID:        params.Input.UserID,
		ReservationID: params.Input.ReservationID,
		Type:          params.Input.Type,
		Reason:        params.Input.Reason,
		Description:   params.Input.Description,
		StartDate:     start,
		EndDate:       params.Input.EndDate,
		AppliedBy:     params.Principal.UserID,
		CreatedAt:     now,
	}

	if err = mapRepoError(s.sanctions.CreateSanction(ctx, sanction)); err != nil {
		sanction = persistence.UserSanction{}
		return
	}
	return
}

// ResolveSanction lifts a sanction early for administrators.
func (s *SanctionService) ResolveSanction(ctx context.Context, params ResolveSanctionParams) (sanction persistence.UserSanction, err error) {
	if s == nil {
		err = fmt.Errorf("SanctionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ResolveSanction",
		"principal_id", params.Principal.UserID,
		"sanction_id", params.SanctionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to resolve sanction", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "sanction resolved")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	existing, err := s.sanctions.GetSanction(ctx, params.SanctionID)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	if existing.IsResolved {
		vErr := &ValidationError{}
		vErr.add("sanction", "sanction is already resolved")
		err = vErr
		return
	}

	now := s.now()
	sanction = existing
	sanction.IsResolved = true
	sanction.ResolvedAt = &now
	sanction.ResolvedBy = &params.Principal.UserID
	if notes := strings.TrimSpace(params.Notes); notes != "" {
		sanction.ResolutionNotes = &notes
	}

	if err = mapRepoError(s.sanctions.UpdateSanction(ctx, sanction)); err != nil {
		sanction = persistence.UserSanction{}
		return
	}
	return
}

// ListSanctions returns a user's sanction history. Users may list their own;
// administrators may list anyone's.
func (s *SanctionService) ListSanctions(ctx context.Context, params ListSanctionsParams) ([]persistence.UserSanction, error) {
	if s == nil {
		return nil, fmt.Errorf("SanctionService is nil")
	}

	if params.UserID != params.Principal.UserID && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	sanctions, err := s.sanctions.ListUserSanctions(ctx, params.UserID, params.IncludeResolved)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return sanctions, nil
}

// ActiveBlock returns the earliest-expiring unresolved blocking sanction
// whose window contains now. Warnings never block.
func (s *SanctionService) ActiveBlock(ctx context.Context, userID string, now time.Time) (*persistence.UserSanction, error) {
	if s == nil {
		return nil, fmt.Errorf("SanctionService is nil")
	}

	sanctions, err := s.sanctions.ListUserSanctions(ctx, userID, false)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	var block *persistence.UserSanction
	for i := range sanctions {
		sanction := sanctions[i]
		if !sanction.Type.Blocks() || !sanction.ActiveAt(now) {
			continue
		}
		if block == nil || earlierEnd(sanction.EndDate, block.EndDate) {
			block = &sanctions[i]
		}
	}
	return block, nil
}

// RecordNoShow files the suspension for a missed reservation. At most one
// sanction is filed per reservation so the sweep stays idempotent.
func (s *SanctionService) RecordNoShow(ctx context.Context, reservation persistence.Reservation) error {
	if s == nil {
		return fmt.Errorf("SanctionService is nil")
	}

	exists, err := s.sanctions.HasSanctionForReservation(ctx, reservation.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	now := s.now()
	end := now.Add(s.noShowSuspension)
	description := fmt.Sprintf("did not attend reservation %s", reservation.ID)
	sanction := persistence.UserSanction{
		ID:            s.idGenerator(),
		UserID:        reservation.UserID,
		ReservationID: &reservation.ID,
		Type:          persistence.SanctionTemporarySuspension,
		Reason:        persistence.ReasonNoShow,
		Description:   &description,
		StartDate:     now,
		EndDate:       &end,
		AppliedBy:     "system",
		CreatedAt:     now,
	}

	if err := mapRepoError(s.sanctions.CreateSanction(ctx, sanction)); err != nil {
		return err
	}
	s.loggerWith(ctx, "RecordNoShow",
		"reservation_id", reservation.ID,
		"user_id", reservation.UserID,
	).InfoContext(ctx, "no-show sanction filed")
	return nil
}

// earlierEnd reports whether a ends before b, treating nil as open-ended.
func earlierEnd(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.Before(*b)
}

func validateSanctionInput(input SanctionInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.UserID) == "" {
		vErr.add("user_id", "user id is required")
	}
	switch input.Type {
	case persistence.SanctionWarning, persistence.SanctionTemporarySuspension, persistence.SanctionPermanentSuspension:
	default:
		vErr.add("sanction_type", "unknown sanction type")
	}
	switch input.Reason {
	case persistence.ReasonNoShow, persistence.ReasonLateCancellation, persistence.ReasonMisuse,
		persistence.ReasonEquipmentDamage, persistence.ReasonConduct, persistence.ReasonOther:
	default:
		vErr.add("reason", "unknown sanction reason")
	}
	if input.Type == persistence.SanctionTemporarySuspension && input.EndDate == nil {
		vErr.add("end_date", "temporary suspensions require an end date")
	}
	if input.EndDate != nil && !input.StartDate.IsZero() && !input.EndDate.After(input.StartDate) {
		vErr.add("end_date", "end date must be after start date")
	}
	return vErr
}
