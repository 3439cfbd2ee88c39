package application

import (
	"time"

	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/persistence"
	"github.com/example/campus-reservations/internal/rules"
)

// Principal represents the authenticated user invoking a service method.
// Identity is established outside this system; the principal is trusted.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// ResourceInput captures caller provided resource catalog fields.
type ResourceInput struct {
	Name        string
	Code        string
	Description *string
	Type        persistence.ResourceType
	Location    *string
	Building    *string
	Floor       *string
	Capacity    *int
	Features    *string

	MinReservationMinutes int
	MaxReservationMinutes int
	AdvanceBookingDays    int
	RequiresApproval      bool
	WeekStartsOn          time.Weekday

	ResponsibleUserID *string
}

// CreateResourceParams wraps the data required to create a resource.
type CreateResourceParams struct {
	Principal Principal
	Input     ResourceInput
}

// UpdateResourceParams wraps the data required to update a resource.
type UpdateResourceParams struct {
	Principal  Principal
	ResourceID string
	Input      ResourceInput
}

// SetResourceStatusParams wraps the data required to change a resource's
// operational status.
type SetResourceStatusParams struct {
	Principal  Principal
	ResourceID string
	Status     persistence.ResourceStatus
	IsActive   *bool // nil leaves the active flag unchanged
}

// ListResourcesParams wraps the catalog listing filters.
type ListResourcesParams struct {
	Principal Principal
	Type      *persistence.ResourceType
	Status    *persistence.ResourceStatus
	Building  *string
	IsActive  *bool
	Search    string
	Offset    int
	Limit     int
}

// RuleInput captures caller provided rule configuration fields.
type RuleInput struct {
	ResourceID  *string // nil creates a global rule
	Kind        rules.Kind
	Name        string
	Description *string

	DayOfWeek   *time.Weekday
	WindowStart *rules.TimeOfDay
	WindowEnd   *rules.TimeOfDay
	StartDate   *time.Time
	EndDate     *time.Time

	MaxReservationsPerDay  *int
	MaxReservationsPerWeek *int
	MaxHoursPerDay         *int
	MaxHoursPerWeek        *int
	MinAdvanceHours        *int

	IsActive bool
	Priority int
}

// CreateRuleParams wraps the data required to create a rule.
type CreateRuleParams struct {
	Principal Principal
	Input     RuleInput
}

// UpdateRuleParams wraps the data required to update a rule.
type UpdateRuleParams struct {
	Principal Principal
	RuleID    string
	Input     RuleInput
}

// ReservationInput captures caller provided booking fields.
type ReservationInput struct {
	ResourceID     string
	Start          time.Time
	End            time.Time
	Title          string
	Description    *string
	AttendeesCount *int
	// RecurrencePattern, when non-empty, expands the booking into a series.
	RecurrencePattern string
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// OccurrenceResult reports the outcome of one occurrence in a recurring
// series. Exactly one of Reservation and Err is meaningful.
type OccurrenceResult struct {
	Start       time.Time
	End         time.Time
	Reservation *persistence.Reservation
	Err         error
}

// CreateReservationResult is the outcome of a create request. For recurring
// requests Reservation is the parent (first persisted occurrence) and
// Occurrences lists every expansion outcome in order.
type CreateReservationResult struct {
	Reservation persistence.Reservation
	Occurrences []OccurrenceResult
}

// ReservationUpdateInput captures the fields a booking owner may change
// before the slot is consumed.
type ReservationUpdateInput struct {
	Start          time.Time
	End            time.Time
	Title          string
	Description    *string
	AttendeesCount *int
}

// UpdateReservationParams wraps the data required to update a reservation.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Input         ReservationUpdateInput
}

// ApproveReservationParams wraps the data required to approve a reservation.
type ApproveReservationParams struct {
	Principal     Principal
	ReservationID string
}

// RejectReservationParams wraps the data required to reject a reservation.
type RejectReservationParams struct {
	Principal     Principal
	ReservationID string
	Reason        string
}

// CancelReservationParams wraps the data required to cancel a reservation.
type CancelReservationParams struct {
	Principal     Principal
	ReservationID string
}

// CheckInParams wraps the data required to register attendance.
type CheckInParams struct {
	Principal     Principal
	ReservationID string
}

// CheckOutParams wraps the data required to release a resource early.
type CheckOutParams struct {
	Principal     Principal
	ReservationID string
}

// MyReservationsParams wraps the filters for a user's own reservation list.
type MyReservationsParams struct {
	Principal    Principal
	Status       *lifecycle.Status
	UpcomingOnly bool
	Offset       int
	Limit        int
}

// CalendarParams wraps the window for a resource availability calendar.
type CalendarParams struct {
	Principal  Principal
	ResourceID string
	From       time.Time
	To         time.Time
}

// SanctionInput captures caller provided sanction fields.
type SanctionInput struct {
	UserID        string
	ReservationID *string
	Type          persistence.SanctionType
	Reason        persistence.SanctionReason
	Description   *string
	StartDate     time.Time // zero value means now
	EndDate       *time.Time
}

// CreateSanctionParams wraps the data required to create a sanction.
type CreateSanctionParams struct {
	Principal Principal
	Input     SanctionInput
}

// ResolveSanctionParams wraps the data required to resolve a sanction.
type ResolveSanctionParams struct {
	Principal  Principal
	SanctionID string
	Notes      string
}

// ListSanctionsParams wraps the filters for a user's sanction list.
type ListSanctionsParams struct {
	Principal       Principal
	UserID          string
	IncludeResolved bool
}
