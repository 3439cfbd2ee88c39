package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/persistence"
)

// ResourceService orchestrates validation, authorization, and persistence
// for the resource catalog.
type ResourceService struct {
	resources   persistence.ResourceRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewResourceService constructs a resource service with the provided dependencies.
func NewResourceService(resources persistence.ResourceRepository, idGenerator func() string, now func() time.Time) *ResourceService {
	return NewResourceServiceWithLogger(resources, idGenerator, now, nil)
}

// NewResourceServiceWithLogger constructs a resource service with a specified logger.
func NewResourceServiceWithLogger(resources persistence.ResourceRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ResourceService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ResourceService{resources: resources, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ResourceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ResourceService", operation, attrs...)
}

// CreateResource validates input and persists a new catalog entry for administrators.
func (s *ResourceService) CreateResource(ctx context.Context, params CreateResourceParams) (resource persistence.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateResource",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("resource_id", resource.ID).InfoContext(ctx, "resource created")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateResourceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	resource = persistence.Resource{
		ID:                    s.idGenerator(),
		Name:                  strings.TrimSpace(params.Input.Name),
		Code:                  strings.TrimSpace(params.Input.Code),
		Description:           params.Input.Description,
		Type:                  params.Input.Type,
		Location:              params.Input.Location,
		Building:              params.Input.Building,
		Floor:                 params.Input.Floor,
		Capacity:              params.Input.Capacity,
		Features:              params.Input.Features,
		Status:                persistence.ResourceAvailable,
		IsActive:              true,
		MinReservationMinutes: params.Input.MinReservationMinutes,
		MaxReservationMinutes: params.Input.MaxReservationMinutes,
		AdvanceBookingDays:    params.Input.AdvanceBookingDays,
		RequiresApproval:      params.Input.RequiresApproval,
		WeekStartsOn:          normalizeWeekStart(params.Input.WeekStartsOn),
		ResponsibleUserID:     params.Input.ResponsibleUserID,
		CreatedAt:             createdAt,
		UpdatedAt:             createdAt,
	}

	if err = mapRepoError(s.resources.CreateResource(ctx, resource)); err != nil {
		resource = persistence.Resource{}
		return
	}
	return
}

// UpdateResource applies validation and authorization before updating a catalog entry.
func (s *ResourceService) UpdateResource(ctx context.Context, params UpdateResourceParams) (resource persistence.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateResource",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource updated")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	existing, err := s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	vErr := validateResourceInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	resource = existing
	resource.Name = strings.TrimSpace(params.Input.Name)
	resource.Code = strings.TrimSpace(params.Input.Code)
	resource.Description = params.Input.Description
	resource.Type = params.Input.Type
	resource.Location = params.Input.Location
	resource.Building = params.Input.Building
	resource.Floor = params.Input.Floor
	resource.Capacity = params.Input.Capacity
	resource.Features = params.Input.Features
	resource.MinReservationMinutes = params.Input.MinReservationMinutes
	resource.MaxReservationMinutes = params.Input.MaxReservationMinutes
	resource.AdvanceBookingDays = params.Input.AdvanceBookingDays
	resource.RequiresApproval = params.Input.RequiresApproval
	resource.WeekStartsOn = normalizeWeekStart(params.Input.WeekStartsOn)
	resource.ResponsibleUserID = params.Input.ResponsibleUserID
	resource.UpdatedAt = s.now()

	if err = mapRepoError(s.resources.UpdateResource(ctx, resource)); err != nil {
		resource = persistence.Resource{}
		return
	}
	return
}

// SetResourceStatus changes the operational status without touching existing
// reservations.
func (s *ResourceService) SetResourceStatus(ctx context.Context, params SetResourceStatusParams) (resource persistence.Resource, err error) {
	if s == nil {
		err = fmt.Errorf("ResourceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetResourceStatus",
		"principal_id", params.Principal.UserID,
		"resource_id", params.ResourceID,
		"status", string(params.Status),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to set resource status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource status changed")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}
	if !validResourceStatus(params.Status) {
		vErr := &ValidationError{}
		vErr.add("status", "unknown resource status")
		err = vErr
		return
	}

	existing, err := s.resources.GetResource(ctx, params.ResourceID)
	if err != nil {
		err = mapRepoError(err)
		return
	}

	resource = existing
	resource.Status = params.Status
	if params.IsActive != nil {
		resource.IsActive = *params.IsActive
	}
	resource.UpdatedAt = s.now()

	if err = mapRepoError(s.resources.UpdateResource(ctx, resource)); err != nil {
		resource = persistence.Resource{}
		return
	}
	return
}

// GetResource returns one catalog entry.
func (s *ResourceService) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if s == nil {
		return persistence.Resource{}, fmt.Errorf("ResourceService is nil")
	}
	resource, err := s.resources.GetResource(ctx, id)
	if err != nil {
		return persistence.Resource{}, mapRepoError(err)
	}
	return resource, nil
}

// ListResources enumerates catalog entries matching the filters.
func (s *ResourceService) ListResources(ctx context.Context, params ListResourcesParams) ([]persistence.Resource, error) {
	if s == nil {
		return nil, fmt.Errorf("ResourceService is nil")
	}

	filter := persistence.ResourceFilter{
		Type:     params.Type,
		Status:   params.Status,
		Building: params.Building,
		IsActive: params.IsActive,
		Search:   params.Search,
		Offset:   params.Offset,
		Limit:    params.Limit,
	}
	resources, err := s.resources.ListResources(ctx, filter)
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return resources, nil
}

// ListBuildings returns the distinct building names present in the catalog.
func (s *ResourceService) ListBuildings(ctx context.Context) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("ResourceService is nil")
	}
	return s.resources.ListBuildings(ctx)
}

// DeleteResource removes a catalog entry for administrators.
func (s *ResourceService) DeleteResource(ctx context.Context, principal Principal, resourceID string) (err error) {
	if s == nil {
		return fmt.Errorf("ResourceService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteResource",
		"principal_id", principal.UserID,
		"resource_id", resourceID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete resource", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "resource deleted")
	}()

	if !principal.IsAdmin {
		return ErrUnauthorized
	}
	return mapRepoError(s.resources.DeleteResource(ctx, resourceID))
}

func validateResourceInput(input ResourceInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Code) == "" {
		vErr.add("code", "code is required")
	}
	if !validResourceType(input.Type) {
		vErr.add("resource_type", "unknown resource type")
	}
	if input.MinReservationMinutes <= 0 {
		vErr.add("min_reservation_minutes", "must be positive")
	}
	if input.MaxReservationMinutes <= 0 {
		vErr.add("max_reservation_minutes", "must be positive")
	} else if input.MinReservationMinutes > 0 && input.MaxReservationMinutes < input.MinReservationMinutes {
		vErr.add("max_reservation_minutes", "must be at least the minimum duration")
	}
	if input.AdvanceBookingDays < 0 {
		vErr.add("advance_booking_days", "cannot be negative")
	}
	if input.Capacity != nil && *input.Capacity < 0 {
		vErr.add("capacity", "cannot be negative")
	}
	return vErr
}

func validResourceType(t persistence.ResourceType) bool {
	switch t {
	case persistence.ResourceConferenceRoom, persistence.ResourceLab,
		persistence.ResourceAuditorium, persistence.ResourceStudyRoom,
		persistence.ResourceEquipment, persistence.ResourceVehicle,
		persistence.ResourceOther:
		return true
	}
	return false
}

func validResourceStatus(status persistence.ResourceStatus) bool {
	switch status {
	case persistence.ResourceAvailable, persistence.ResourceMaintenance, persistence.ResourceOutOfService:
		return true
	}
	return false
}

// normalizeWeekStart keeps weekly quota windows well defined when callers
// omit the field.
func normalizeWeekStart(day time.Weekday) time.Weekday {
	if day < time.Sunday || day > time.Saturday {
		return time.Monday
	}
	return day
}
