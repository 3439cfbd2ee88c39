package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/application"
	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/rules"
)

type ruleService interface {
	CreateRule(ctx context.Context, params application.CreateRuleParams) (persistence.ReservationRule, error)
	UpdateRule(ctx context.Context, params application.UpdateRuleParams) (persistence.ReservationRule, error)
	GetRule(ctx context.Context, id string) (persistence.ReservationRule, error)
	ListRulesForResource(ctx context.Context, resourceID string) ([]persistence.ReservationRule, error)
	DeleteRule(ctx context.Context, principal application.Principal, ruleID string) error
}

type RuleHandler struct {
	service   ruleService
	responder responder
}

func NewRuleHandler(service ruleService, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{service: service, responder: newResponder(logger)}
}

func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	rule, err := h.service.CreateRule(r.Context(), application.CreateRuleParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRuleDTO(rule))
}

func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}

	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	rule, err := h.service.UpdateRule(r.Context(), application.UpdateRuleParams{
		Principal: principal,
		RuleID:    ruleID,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRuleDTO(rule))
}

func (h *RuleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}

	rule, err := h.service.GetRule(r.Context(), ruleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRuleDTO(rule))
}

// List returns the rules governing one resource: its scoped rules plus the
// global ones, priority ascending.
func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
	if resourceID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	ruleSet, err := h.service.ListRulesForResource(r.Context(), resourceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRulesResponse{Rules: toRuleDTOs(ruleSet)})
}

func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ruleID, ok := RuleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(ruleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidRuleID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteRule(r.Context(), principal, ruleID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type ruleRequest struct {
	ResourceID  *string `json:"resource_id"`
	Kind        string  `json:"rule_type"`
	Name        string  `json:"name"`
	Description *string `json:"description"`

	DayOfWeek   *int    `json:"day_of_week"`
	WindowStart *string `json:"start_time"`
	WindowEnd   *string `json:"end_time"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`

	MaxReservationsPerDay  *int `json:"max_reservations_per_day"`
	MaxReservationsPerWeek *int `json:"max_reservations_per_week"`
	MaxHoursPerDay         *int `json:"max_hours_per_day"`
	MaxHoursPerWeek        *int `json:"max_hours_per_week"`
	MinAdvanceHours        *int `json:"min_advance_hours"`

	IsActive *bool `json:"is_active"`
	Priority int   `json:"priority"`
}

func (r ruleRequest) toInput() (application.RuleInput, error) {
	input := application.RuleInput{
		ResourceID:             r.ResourceID,
		Kind:                   rules.Kind(strings.TrimSpace(r.Kind)),
		Name:                   strings.TrimSpace(r.Name),
		Description:            r.Description,
		MaxReservationsPerDay:  r.MaxReservationsPerDay,
		MaxReservationsPerWeek: r.MaxReservationsPerWeek,
		MaxHoursPerDay:         r.MaxHoursPerDay,
		MaxHoursPerWeek:        r.MaxHoursPerWeek,
		MinAdvanceHours:        r.MinAdvanceHours,
		IsActive:               true,
		Priority:               r.Priority,
	}
	if r.IsActive != nil {
		input.IsActive = *r.IsActive
	}
	if r.DayOfWeek != nil {
		weekday := time.Weekday(*r.DayOfWeek)
		input.DayOfWeek = &weekday
	}
	if r.WindowStart != nil {
		tod, err := rules.ParseTimeOfDay(*r.WindowStart)
		if err != nil {
			return application.RuleInput{}, err
		}
		input.WindowStart = &tod
	}
	if r.WindowEnd != nil {
		tod, err := rules.ParseTimeOfDay(*r.WindowEnd)
		if err != nil {
			return application.RuleInput{}, err
		}
		input.WindowEnd = &tod
	}
	if r.StartDate != nil {
		ts, err := time.Parse("2006-01-02", strings.TrimSpace(*r.StartDate))
		if err != nil {
			return application.RuleInput{}, err
		}
		input.StartDate = &ts
	}
	if r.EndDate != nil {
		ts, err := time.Parse("2006-01-02", strings.TrimSpace(*r.EndDate))
		if err != nil {
			return application.RuleInput{}, err
		}
		input.EndDate = &ts
	}
	return input, nil
}

type listRulesResponse struct {
	Rules []ruleDTO `json:"rules"`
}

type ruleDTO struct {
	ID          string  `json:"id"`
	ResourceID  *string `json:"resource_id,omitempty"`
	Kind        string  `json:"rule_type"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`

	DayOfWeek   *int    `json:"day_of_week,omitempty"`
	WindowStart *string `json:"start_time,omitempty"`
	WindowEnd   *string `json:"end_time,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`

	MaxReservationsPerDay  *int `json:"max_reservations_per_day,omitempty"`
	MaxReservationsPerWeek *int `json:"max_reservations_per_week,omitempty"`
	MaxHoursPerDay         *int `json:"max_hours_per_day,omitempty"`
	MaxHoursPerWeek        *int `json:"max_hours_per_week,omitempty"`
	MinAdvanceHours        *int `json:"min_advance_hours,omitempty"`

	IsActive  bool   `json:"is_active"`
	Priority  int    `json:"priority"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toRuleDTO(rule persistence.ReservationRule) ruleDTO {
	dto := ruleDTO{
		ID:                     rule.ID,
		ResourceID:             rule.ResourceID,
		Kind:                   string(rule.Kind),
		Name:                   rule.Name,
		Description:            rule.Description,
		MaxReservationsPerDay:  rule.MaxReservationsPerDay,
		MaxReservationsPerWeek: rule.MaxReservationsPerWeek,
		MaxHoursPerDay:         rule.MaxHoursPerDay,
		MaxHoursPerWeek:        rule.MaxHoursPerWeek,
		MinAdvanceHours:        rule.MinAdvanceHours,
		IsActive:               rule.IsActive,
		Priority:               rule.Priority,
		CreatedAt:              rule.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:              rule.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if rule.DayOfWeek != nil {
		weekday := int(*rule.DayOfWeek)
		dto.DayOfWeek = &weekday
	}
	if rule.WindowStart != nil {
		start := rule.WindowStart.String()
		dto.WindowStart = &start
	}
	if rule.WindowEnd != nil {
		end := rule.WindowEnd.String()
		dto.WindowEnd = &end
	}
	if rule.StartDate != nil {
		start := rule.StartDate.UTC().Format("2006-01-02")
		dto.StartDate = &start
	}
	if rule.EndDate != nil {
		end := rule.EndDate.UTC().Format("2006-01-02")
		dto.EndDate = &end
	}
	return dto
}

func toRuleDTOs(ruleSet []persistence.ReservationRule) []ruleDTO {
	if len(ruleSet) == 0 {
		return nil
	}
	out := make([]ruleDTO, 0, len(ruleSet))
	for _, rule := range ruleSet {
		out = append(out, toRuleDTO(rule))
	}
	return out
}
