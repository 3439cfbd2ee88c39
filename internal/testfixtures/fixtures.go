package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/persistence"
)

var (
	resourceCounter    uint64
	reservationCounter uint64
	sanctionCounter    uint64
)

// referenceTime is a Monday morning, which keeps weekday-sensitive rule
// tests readable.
var referenceTime = time.Date(2026, time.April, 20, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ResourceFixture is a deterministic catalog record for tests.
type ResourceFixture struct {
	ID                    string
	Name                  string
	Code                  string
	Type                  persistence.ResourceType
	Status                persistence.ResourceStatus
	IsActive              bool
	Building              string
	MinReservationMinutes int
	MaxReservationMinutes int
	AdvanceBookingDays    int
	RequiresApproval      bool
	WeekStartsOn          time.Weekday
	CreatedAt             time.Time
}

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns a deterministic resource fixture with optional
// overrides.
func NewResourceFixture(opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	fixture := ResourceFixture{
		ID:                    fmt.Sprintf("resource-%03d", idx),
		Name:                  fmt.Sprintf("Study Room %03d", idx),
		Code:                  fmt.Sprintf("SR-%03d", idx),
		Type:                  persistence.ResourceStudyRoom,
		Status:                persistence.ResourceAvailable,
		IsActive:              true,
		MinReservationMinutes: 30,
		MaxReservationMinutes: 240,
		AdvanceBookingDays:    14,
		WeekStartsOn:          time.Monday,
		CreatedAt:             referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResourceID overrides the generated resource ID.
func WithResourceID(id string) ResourceOption {
	return func(f *ResourceFixture) {
		f.ID = id
	}
}

// WithResourceCode overrides the generated resource code.
func WithResourceCode(code string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Code = code
	}
}

// WithResourceType sets the resource category.
func WithResourceType(t persistence.ResourceType) ResourceOption {
	return func(f *ResourceFixture) {
		f.Type = t
	}
}

// WithResourceStatus sets the operational status.
func WithResourceStatus(status persistence.ResourceStatus) ResourceOption {
	return func(f *ResourceFixture) {
		f.Status = status
	}
}

// WithResourceActive sets the active flag.
func WithResourceActive(active bool) ResourceOption {
	return func(f *ResourceFixture) {
		f.IsActive = active
	}
}

// WithResourceBuilding sets the building name.
func WithResourceBuilding(building string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Building = building
	}
}

// WithResourceDurations sets the reservation duration bounds in minutes.
func WithResourceDurations(minMinutes, maxMinutes int) ResourceOption {
	return func(f *ResourceFixture) {
		f.MinReservationMinutes = minMinutes
		f.MaxReservationMinutes = maxMinutes
	}
}

// WithResourceAdvanceDays sets the advance booking horizon.
func WithResourceAdvanceDays(days int) ResourceOption {
	return func(f *ResourceFixture) {
		f.AdvanceBookingDays = days
	}
}

// WithResourceApproval sets whether bookings need manual approval.
func WithResourceApproval(required bool) ResourceOption {
	return func(f *ResourceFixture) {
		f.RequiresApproval = required
	}
}

// Persistence materialises the fixture as a persistence record.
func (f ResourceFixture) Persistence() persistence.Resource {
	resource := persistence.Resource{
		ID:                    f.ID,
		Name:                  f.Name,
		Code:                  f.Code,
		Type:                  f.Type,
		Status:                f.Status,
		IsActive:              f.IsActive,
		MinReservationMinutes: f.MinReservationMinutes,
		MaxReservationMinutes: f.MaxReservationMinutes,
		AdvanceBookingDays:    f.AdvanceBookingDays,
		RequiresApproval:      f.RequiresApproval,
		WeekStartsOn:          f.WeekStartsOn,
		CreatedAt:             f.CreatedAt,
		UpdatedAt:             f.CreatedAt,
	}
	if f.Building != "" {
		building := f.Building
		resource.Building = &building
	}
	return resource
}

// ReservationFixture is a deterministic booking record for tests.
type ReservationFixture struct {
	ID         string
	ResourceID string
	UserID     string
	Start      time.Time
	End        time.Time
	Title      string
	Status     lifecycle.Status
	CreatedAt  time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a deterministic reservation fixture starting
// one day after the reference time.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := referenceTime.Add(24*time.Hour + time.Duration(idx)*time.Minute)
	fixture := ReservationFixture{
		ID:         fmt.Sprintf("reservation-%03d", idx),
		ResourceID: "resource-001",
		UserID:     "user-001",
		Start:      start,
		End:        start.Add(time.Hour),
		Title:      fmt.Sprintf("Session %03d", idx),
		Status:     lifecycle.StatusPending,
		CreatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ID = id
	}
}

// WithReservationResource sets the booked resource.
func WithReservationResource(resourceID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.ResourceID = resourceID
	}
}

// WithReservationUser sets the booking user.
func WithReservationUser(userID string) ReservationOption {
	return func(f *ReservationFixture) {
		f.UserID = userID
	}
}

// WithReservationWindow sets the booked interval.
func WithReservationWindow(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// WithReservationStatus sets the lifecycle status.
func WithReservationStatus(status lifecycle.Status) ReservationOption {
	return func(f *ReservationFixture) {
		f.Status = status
	}
}

// Persistence materialises the fixture as a persistence record.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:         f.ID,
		ResourceID: f.ResourceID,
		UserID:     f.UserID,
		Start:      f.Start,
		End:        f.End,
		Title:      f.Title,
		Status:     f.Status,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

// SanctionFixture is a deterministic sanction record for tests.
type SanctionFixture struct {
	ID        string
	UserID    string
	Type      persistence.SanctionType
	Reason    persistence.SanctionReason
	StartDate time.Time
	EndDate   *time.Time
	AppliedBy string
}

// SanctionOption configures the generated sanction fixture.
type SanctionOption func(*SanctionFixture)

// NewSanctionFixture returns a deterministic sanction fixture.
func NewSanctionFixture(opts ...SanctionOption) SanctionFixture {
	idx := atomic.AddUint64(&sanctionCounter, 1)
	fixture := SanctionFixture{
		ID:        fmt.Sprintf("sanction-%03d", idx),
		UserID:    "user-001",
		Type:      persistence.SanctionTemporarySuspension,
		Reason:    persistence.ReasonNoShow,
		StartDate: referenceTime,
		AppliedBy: "admin-001",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSanctionID overrides the generated sanction ID.
func WithSanctionID(id string) SanctionOption {
	return func(f *SanctionFixture) {
		f.ID = id
	}
}

// WithSanctionUser sets the sanctioned user.
func WithSanctionUser(userID string) SanctionOption {
	return func(f *SanctionFixture) {
		f.UserID = userID
	}
}

// WithSanctionType sets the sanction type.
func WithSanctionType(t persistence.SanctionType) SanctionOption {
	return func(f *SanctionFixture) {
		f.Type = t
	}
}

// WithSanctionWindow sets the sanction validity window. A nil end leaves the
// sanction open-ended.
func WithSanctionWindow(start time.Time, end *time.Time) SanctionOption {
	return func(f *SanctionFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// Persistence materialises the fixture as a persistence record.
func (f SanctionFixture) Persistence() persistence.UserSanction {
	return persistence.UserSanction{
		ID:        f.ID,
		UserID:    f.UserID,
		Type:      f.Type,
		Reason:    f.Reason,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		AppliedBy: f.AppliedBy,
		CreatedAt: f.StartDate,
	}
}
