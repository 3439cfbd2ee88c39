package persistence

import (
	"time"

	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/rules"
)

// ResourceType categorizes reservable resources.
type ResourceType string

const (
	ResourceConferenceRoom ResourceType = "CONFERENCE_ROOM"
	ResourceLab            ResourceType = "LAB"
	ResourceAuditorium     ResourceType = "AUDITORIUM"
	ResourceStudyRoom      ResourceType = "STUDY_ROOM"
	ResourceEquipment      ResourceType = "EQUIPMENT"
	ResourceVehicle        ResourceType = "VEHICLE"
	ResourceOther          ResourceType = "OTHER"
)

// ResourceStatus is the operational state of a resource.
type ResourceStatus string

const (
	ResourceAvailable    ResourceStatus = "AVAILABLE"
	ResourceMaintenance  ResourceStatus = "MAINTENANCE"
	ResourceOutOfService ResourceStatus = "OUT_OF_SERVICE"
)

// Resource is a reservable space or item in the catalog.
type Resource struct {
	ID          string
	Name        string
	Code        string
	Description *string
	Type        ResourceType
	Location    *string
	Building    *string
	Floor       *string
	Capacity    *int
	Features    *string
	Status      ResourceStatus
	IsActive    bool

	MinReservationMinutes int
	MaxReservationMinutes int
	AdvanceBookingDays    int
	RequiresApproval      bool
	WeekStartsOn          time.Weekday

	ResponsibleUserID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ReservationRule is a stored rule configuration. Evaluation semantics live
// in the rules package; this struct carries the persisted columns.
type ReservationRule struct {
	ID          string
	ResourceID  *string // nil applies to every resource
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

	IsActive  bool
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation is a stored booking of a resource for a time slot.
type Reservation struct {
	ID         string
	ResourceID string
	UserID     string

	Start time.Time
	End   time.Time

	Title          string
	Description    *string
	AttendeesCount *int

	Status lifecycle.Status

	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string

	CheckedInAt  *time.Time
	CheckedOutAt *time.Time

	IsRecurring         bool
	RecurrencePattern   *string
	ParentReservationID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SanctionType distinguishes warnings from suspensions. Only suspensions
// block new bookings.
type SanctionType string

const (
	SanctionWarning             SanctionType = "WARNING"
	SanctionTemporarySuspension SanctionType = "TEMPORARY_SUSPENSION"
	SanctionPermanentSuspension SanctionType = "PERMANENT_SUSPENSION"
)

// Blocks reports whether the sanction type prevents new bookings.
func (t SanctionType) Blocks() bool {
	return t == SanctionTemporarySuspension || t == SanctionPermanentSuspension
}

// SanctionReason records why the sanction was applied.
type SanctionReason string

const (
	ReasonNoShow           SanctionReason = "NO_SHOW"
	ReasonLateCancellation SanctionReason = "LATE_CANCELLATION"
	ReasonMisuse           SanctionReason = "MISUSE"
	ReasonEquipmentDamage  SanctionReason = "EQUIPMENT_DAMAGE"
	ReasonConduct          SanctionReason = "CONDUCT"
	ReasonOther            SanctionReason = "OTHER"
)

// UserSanction is a penalty recorded against a user.
type UserSanction struct {
	ID            string
	UserID        string
	ReservationID *string

	Type        SanctionType
	Reason      SanctionReason
	Description *string

	StartDate time.Time
	EndDate   *time.Time // nil means open-ended

	AppliedBy string

	IsResolved      bool
	ResolvedAt      *time.Time
	ResolvedBy      *string
	ResolutionNotes *string

	CreatedAt time.Time
}

// ActiveAt reports whether the sanction is unresolved and its window
// contains the given instant.
func (s UserSanction) ActiveAt(now time.Time) bool {
	if s.IsResolved {
		return false
	}
	if now.Before(s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}
