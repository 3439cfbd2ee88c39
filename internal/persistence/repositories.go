package persistence

import (
	"context"
	"time"

	"github.com/example/campus-reservations/internal/lifecycle"
)

// ResourceFilter narrows catalog listings.
type ResourceFilter struct {
	Type     *ResourceType
	Status   *ResourceStatus
	Building *string
	IsActive *bool
	Search   string // matches name, code and description
	Offset   int
	Limit    int
}

// ResourceRepository exposes CRUD operations for the resource catalog.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	GetResourceByCode(ctx context.Context, code string) (Resource, error)
	ListResources(ctx context.Context, filter ResourceFilter) ([]Resource, error)
	DeleteResource(ctx context.Context, id string) error
	ListBuildings(ctx context.Context) ([]string, error)
}

// RuleRepository stores reservation rule configurations.
type RuleRepository interface {
	CreateRule(ctx context.Context, rule ReservationRule) error
	UpdateRule(ctx context.Context, rule ReservationRule) error
	GetRule(ctx context.Context, id string) (ReservationRule, error)
	// ListRulesForResource returns rules scoped to the resource plus
	// global rules, active and inactive alike.
	ListRulesForResource(ctx context.Context, resourceID string) ([]ReservationRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// UserReservationFilter narrows a user's reservation listing.
type UserReservationFilter struct {
	UserID       string
	Status       *lifecycle.Status
	UpcomingOnly bool
	Reference    time.Time // "now" used by UpcomingOnly
	Offset       int
	Limit        int
}

// ReservationRepository stores bookings.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// ListUserReservations returns the user's reservations ordered by
	// start time descending.
	ListUserReservations(ctx context.Context, filter UserReservationFilter) ([]Reservation, error)
	// ListResourceReservations returns reservations on the resource whose
	// intervals intersect [from, to), restricted to the given statuses
	// (all statuses when empty), ordered by start time ascending.
	ListResourceReservations(ctx context.Context, resourceID string, from, to time.Time, statuses []lifecycle.Status) ([]Reservation, error)
	// ListUserLiveReservations returns the user's PENDING and APPROVED
	// reservations on one resource, used by quota evaluation.
	ListUserLiveReservations(ctx context.Context, resourceID, userID string) ([]Reservation, error)
	// ListNoShowCandidates returns APPROVED reservations without a
	// check-in whose start time is at or before the cutoff.
	ListNoShowCandidates(ctx context.Context, cutoff time.Time) ([]Reservation, error)
}

// SanctionRepository stores user sanctions.
type SanctionRepository interface {
	CreateSanction(ctx context.Context, sanction UserSanction) error
	UpdateSanction(ctx context.Context, sanction UserSanction) error
	GetSanction(ctx context.Context, id string) (UserSanction, error)
	// ListUserSanctions returns the user's sanctions ordered by creation
	// time descending, optionally including resolved ones.
	ListUserSanctions(ctx context.Context, userID string, includeResolved bool) ([]UserSanction, error)
	// HasSanctionForReservation reports whether a sanction citing the
	// reservation already exists, keeping the no-show sweep idempotent.
	HasSanctionForReservation(ctx context.Context, reservationID string) (bool, error)
}
