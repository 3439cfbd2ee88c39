package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/rules"
)

// RuleService manages the rule configurations evaluated by the booking
// pipeline.
type RuleService struct {
	rules       persistence.RuleRepository
	resources   persistence.ResourceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRuleService constructs a rule service with the provided dependencies.
func NewRuleService(ruleRepo persistence.RuleRepository, resources persistence.ResourceRepository, idGenerator func() string, now func() time.Time) *RuleService {
	return NewRuleServiceWithLogger(ruleRepo, resources, idGenerator, now, nil)
}

// NewRuleServiceWithLogger constructs a rule service with a specified logger.
func NewRuleServiceWithLogger(ruleRepo persistence.RuleRepository, resources persistence.ResourceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RuleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RuleService{rules: ruleRepo, resources: resources, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RuleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RuleService", operation, attrs...)
}

// CreateRule validates and persists a new rule configuration for administrators.
func (s *RuleService) CreateRule(ctx context.Context, params CreateRuleParams) (rule persistence.ReservationRule, err error) {
	if s == nil {
		err = fmt.Errorf("RuleService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRule",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("rule_id", rule.ID).InfoContext(ctx, "rule created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRuleInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if params.Input.ResourceID != nil {
		if _, err = s.resources.GetResource(ctx, *params.Input.ResourceID); err != nil {
			if isNotFoundError(err) {
				vErr := &ValidationError{}
				vErr.add("resource_id", "resource does not exist")
				err = vErr
				return
			}
			err = mapRepoError(err)
			return
		}
	}

	createdAt := s.now()
	rule = persistence.ReservationRule{
		ID:                     s.idGenerator(),
		ResourceID:             params.Input.ResourceID,
		Kind:                   params.Input.Kind,
		Name:                   strings.TrimSpace(params.Input.Name),
		Description:            params.Input.Description,
		DayOfWeek:              params.Input.DayOfWeek,
		WindowStart:            params.Input.WindowStart,
		WindowEnd:              params.Input.WindowEnd,
		StartDate:              params.Input.StartDate,
		EndDate:                params.Input.EndDate,
		MaxReservationsPerDay:  params.Input.MaxReservationsPerDay,
		MaxReservationsPerWeek: params.Input.MaxReservationsPerWeek,
		MaxHoursPerDay:         params.Input.MaxHoursPerDay,
		MaxHoursPerWeek:        params.Input.MaxHoursPerWeek,
		MinAdvanceHours:        params.Input.MinAdvanceHours,
		IsActive:               params.Input.IsActive,
		Priority:               params.Input.Priority,
		CreatedAt:              createdAt,
		UpdatedAt:              createdAt,
	}

	if err = mapRepoError(s.rules.CreateRule(ctx, rule)); err != nil {
		rule = persistence.ReservationRule{}
		return
	}
	return
}

// UpdateRule validates and persists changes to a rule configuration.
func (s *RuleService) UpdateRule(ctx context.Context, params UpdateRuleParams) (rule persistence.ReservationRule, err error) {
	if s == nil {
		err = fmt.Errorf("RuleService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRule",
		"principal_id", params.Principal.UserID,
		"rule_id", params.RuleID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rule updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	existing, err := s.rules.GetRule(ctx, params.RuleID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validateRuleInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	rule = existing
	rule.ResourceID = params.Input.ResourceID
	rule.Kind = params.Input.Kind
	rule.Name = strings.TrimSpace(params.Input.Name)
	rule.Description = params.Input.Description
	rule.DayOfWeek = params.Input.DayOfWeek
	rule.WindowStart = params.Input.WindowStart
	rule.WindowEnd = params.Input.WindowEnd
	rule.StartDate = params.Input.StartDate
	rule.EndDate = params.Input.EndDate
	rule.MaxReservationsPerDay = params.Input.MaxReservationsPerDay
	rule.MaxReservationsPerWeek = params.Input.MaxReservationsPerWeek
	rule.MaxHoursPerDay = params.Input.MaxHoursPerDay
	rule.MaxHoursPerWeek = params.Input.MaxHoursPerWeek
	rule.MinAdvanceHours = params.Input.MinAdvanceHours
	rule.IsActive = params.Input.IsActive
	rule.Priority = params.Input.Priority
	rule.UpdatedAt = s.now()

	if err = mapRepoError(s.rules.UpdateRule(ctx, rule)); err != nil {
		rule = persistence.ReservationRule{}
		return
	}
	return
}

// GetRule returns one rule configuration.
func (s *RuleService) GetRule(ctx context.Context, id string) (persistence.ReservationRule, error) {
	if s == nil {
		return persistence.ReservationRule{}, fmt.Errorf("RuleService is nil")
	}
	rule, err := s.rules.GetRule(ctx, id)
	if err != nil {
		return persistence.ReservationRule{}, mapRepoError(err)
	}
	return rule, nil
}

// ListRulesForResource returns the rules that govern a resource: its scoped
// rules plus the global ones.
func (s *RuleService) ListRulesForResource(ctx context.Context, resourceID string) ([]persistence.ReservationRule, error) {
	if s == nil {
		return nil, fmt.Errorf("RuleService is nil")
	}
	ruleSet, err := s.rules.ListRulesForResource(ctx, resourceID)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return ruleSet, nil
}

// DeleteRule removes a rule configuration for administrators.
func (s *RuleService) DeleteRule(ctx context.Context, principal Principal, ruleID string) (err error) {
	if s == nil {
		return fmt.Errorf("RuleService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteRule",
		"principal_id", principal.UserID,
		"rule_id", ruleID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete rule", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "rule deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	return mapRepoError(s.rules.DeleteRule(ctx, ruleID))
}

func validateRuleInput(input RuleInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}

	switch input.Kind {
	case rules.KindOperatingHours:
		if input.WindowStart == nil || input.WindowEnd == nil {
			vErr.add("window", "operating hours rules require start and end times")
		}
	case rules.KindBlackout:
		// A blackout may be date-only, weekday-only, or windowed.
	case rules.KindUserQuota:
		if input.MaxReservationsPerDay == nil && input.MaxReservationsPerWeek == nil &&
			input.MaxHoursPerDay == nil && input.MaxHoursPerWeek == nil {
			vErr.add("limits", "quota rules require at least one limit")
		}
	case rules.KindAdvanceNotice:
		if input.MinAdvanceHours == nil {
			vErr.add("min_advance_hours", "advance notice rules require a minimum lead time")
		}
	default:
		vErr.add("rule_type", "unknown rule type")
	}

	if input.WindowStart != nil && input.WindowEnd != nil &&
		input.WindowEnd.Minutes() <= input.WindowStart.Minutes() {
		vErr.add("window", "end time must be after start time")
	}
	if input.StartDate != nil && input.EndDate != nil && !input.EndDate.After(*input.StartDate) {
		vErr.add("dates", "end date must be after start date")
	}

	for field, limit := range map[string]*int{
		"max_reservations_per_day":  input.MaxReservationsPerDay,
		"max_reservations_per_week": input.MaxReservationsPerWeek,
		"max_hours_per_day":         input.MaxHoursPerDay,
		"max_hours_per_week":        input.MaxHoursPerWeek,
		"min_advance_hours":         input.MinAdvanceHours,
	} {
		if limit != nil && *limit < 1 {
			vErr.add(field, "must be positive")
		}
	}
	return vErr
}
