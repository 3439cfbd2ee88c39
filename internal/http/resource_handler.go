package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/application"
	"github.com/example/campus-reservations/internal/persistence"
)

type resourceService interface {
	CreateResource(ctx context.Context, params application.CreateResourceParams) (persistence.Resource, error)
	UpdateResource(ctx context.Context, params application.UpdateResourceParams) (persistence.Resource, error)
	SetResourceStatus(ctx context.Context, params application.SetResourceStatusParams) (persistence.Resource, error)
	GetResource(ctx context.Context, id string) (persistence.Resource, error)
	ListResources(ctx context.Context, params application.ListResourcesParams) ([]persistence.Resource, error)
	ListBuildings(ctx context.Context) ([]string, error)
	DeleteResource(ctx context.Context, principal application.Principal, resourceID string) error
}

type ResourceHandler struct {
	service   resourceService
	responder responder
}

func NewResourceHandler(service resourceService, logger *slog.Logger) *ResourceHandler {
	return &ResourceHandler{service: service, responder: newResponder(logger)}
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.CreateResource(r.Context(), application.CreateResourceParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toResourceDTO(resource))
}

func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req resourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.UpdateResource(r.Context(), application.UpdateResourceParams{
		Principal:  principal,
		ResourceID: resourceID,
		Input:      req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

func (h *ResourceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	var req resourceStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resource, err := h.service.SetResourceStatus(r.Context(), application.SetResourceStatusParams{
		Principal:  principal,
		ResourceID: resourceID,
		Status:     persistence.ResourceStatus(strings.TrimSpace(req.Status)),
		IsActive:   req.IsActive,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	resource, err := h.service.GetResource(r.Context(), resourceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toResourceDTO(resource))
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	resources, err := h.service.ListResources(r.Context(), buildResourceListParams(r.URL.Query(), principal))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listResourcesResponse{Resources: toResourceDTOs(resources)})
}

func (h *ResourceHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	buildings, err := h.service.ListBuildings(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBuildingsResponse{Buildings: buildings})
}

func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteResource(r.Context(), principal, resourceID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type resourceRequest struct {
	Name                  string  `json:"name"`
	Code                  string  `json:"code"`
	Description           *string `json:"description"`
	Type                  string  `json:"resource_type"`
	Location              *string `json:"location"`
	Building              *string `json:"building"`
	Floor                 *string `json:"floor"`
	Capacity              *int    `json:"capacity"`
	Features              *string `json:"features"`
	MinReservationMinutes int     `json:"min_reservation_minutes"`
	MaxReservationMinutes int     `json:"max_reservation_minutes"`
	AdvanceBookingDays    int     `json:"advance_booking_days"`
	RequiresApproval      bool    `json:"requires_approval"`
	WeekStartsOn          *int    `json:"week_starts_on"`
	ResponsibleUserID     *string `json:"responsible_user_id"`
}

func (r resourceRequest) toInput() application.ResourceInput {
	input := application.ResourceInput{
		Name:                  strings.TrimSpace(r.Name),
		Code:                  strings.TrimSpace(r.Code),
		Description:           r.Description,
		Type:                  persistence.ResourceType(strings.TrimSpace(r.Type)),
		Location:              r.Location,
		Building:              r.Building,
		Floor:                 r.Floor,
		Capacity:              r.Capacity,
		Features:              r.Features,
		MinReservationMinutes: r.MinReservationMinutes,
		MaxReservationMinutes: r.MaxReservationMinutes,
		AdvanceBookingDays:    r.AdvanceBookingDays,
		RequiresApproval:      r.RequiresApproval,
		ResponsibleUserID:     r.ResponsibleUserID,
	}
	if r.WeekStartsOn != nil {
		input.WeekStartsOn = time.Weekday(*r.WeekStartsOn)
	} else {
		input.WeekStartsOn = time.Monday
	}
	return input
}

type resourceStatusRequest struct {
	Status   string `json:"status"`
	IsActive *bool  `json:"is_active"`
}

type listResourcesResponse struct {
	Resources []resourceDTO `json:"resources"`
}

type listBuildingsResponse struct {
	Buildings []string `json:"buildings"`
}

type resourceDTO struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Code                  string  `json:"code"`
	Description           *string `json:"description,omitempty"`
	Type                  string  `json:"resource_type"`
	Location              *string `json:"location,omitempty"`
	Building              *string `json:"building,omitempty"`
	Floor                 *string `json:"floor,omitempty"`
	Capacity              *int    `json:"capacity,omitempty"`
	Features              *string `json:"features,omitempty"`
	Status                string  `json:"status"`
	IsActive              bool    `json:"is_active"`
	MinReservationMinutes int     `json:"min_reservation_minutes"`
	MaxReservationMinutes int     `json:"max_reservation_minutes"`
	AdvanceBookingDays    int     `json:"advance_booking_days"`
	RequiresApproval      bool    `json:"requires_approval"`
	WeekStartsOn          int     `json:"week_starts_on"`
	ResponsibleUserID     *string `json:"responsible_user_id,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

func toResourceDTO(resource persistence.Resource) resourceDTO {
	return resourceDTO{
		ID:                    resource.ID,
		Name:                  resource.Name,
		Code:                  resource.Code,
		Description:           resource.Description,
		Type:                  string(resource.Type),
		Location:              resource.Location,
		Building:              resource.Building,
		Floor:                 resource.Floor,
		Capacity:              resource.Capacity,
		Features:              resource.Features,
		Status:                string(resource.Status),
		IsActive:              resource.IsActive,
		MinReservationMinutes: resource.MinReservationMinutes,
		MaxReservationMinutes: resource.MaxReservationMinutes,
		AdvanceBookingDays:    resource.AdvanceBookingDays,
		RequiresApproval:      resource.RequiresApproval,
		WeekStartsOn:          int(resource.WeekStartsOn),
		ResponsibleUserID:     resource.ResponsibleUserID,
		CreatedAt:             resource.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             resource.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toResourceDTOs(resources []persistence.Resource) []resourceDTO {
	if len(resources) == 0 {
		return nil
	}
	out := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		out = append(out, toResourceDTO(resource))
	}
	return out
}

func buildResourceListParams(values url.Values, principal application.Principal) application.ListResourcesParams {
	params := application.ListResourcesParams{Principal: principal}

	if raw := strings.TrimSpace(values.Get("resource_type")); raw != "" {
		resourceType := persistence.ResourceType(raw)
		params.Type = &resourceType
	}
	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status := persistence.ResourceStatus(raw)
		params.Status = &status
	}
	if raw := strings.TrimSpace(values.Get("building")); raw != "" {
		building := raw
		params.Building = &building
	}
	if raw := strings.TrimSpace(values.Get("is_active")); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			params.IsActive = &active
		}
	}
	params.Search = strings.TrimSpace(values.Get("search"))
	params.Offset = parseNonNegativeInt(values.Get("offset"))
	params.Limit = parseNonNegativeInt(values.Get("limit"))

	return params
}

func parseNonNegativeInt(raw string) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || value < 0 {
		return 0
	}
	return value
}
