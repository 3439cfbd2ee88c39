// Package memory implements the persistence repositories on in-process maps,
// used by tests and as a zero-setup backend.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/persistence"
)

// Store holds all records behind a single lock and implements every
// repository interface.
type Store struct {
	mu           sync.RWMutex
	resources    map[string]persistence.Resource
	rules        map[string]persistence.ReservationRule
	reservations map[string]persistence.Reservation
	sanctions    map[string]persistence.UserSanction
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		resources:    make(map[string]persistence.Resource),
		rules:        make(map[string]persistence.ReservationRule),
		reservations: make(map[string]persistence.Reservation),
		sanctions:    make(map[string]persistence.UserSanction),
	}
}

// CreateResource inserts a catalog entry.
func (s *Store) CreateResource(_ context.Context, resource persistence.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[resource.ID]; exists {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.resources {
		if existing.Code == resource.Code {
			return persistence.ErrDuplicate
		}
	}
	s.resources[resource.ID] = resource
	return nil
}

// UpdateResource replaces a catalog entry.
func (s *Store) UpdateResource(_ context.Context, resource persistence.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[resource.ID]; !exists {
		return persistence.ErrNotFound
	}
	for _, existing := range s.resources {
		if existing.ID != resource.ID && existing.Code == resource.Code {
			return persistence.ErrDuplicate
		}
	}
	s.resources[resource.ID] = resource
	return nil
}

// GetResource retrieves a catalog entry by id.
func (s *Store) GetResource(_ context.Context, id string) (persistence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resource, exists := s.resources[id]
	if !exists {
		return persistence.Resource{}, persistence.ErrNotFound
	}
	return resource, nil
}

// GetResourceByCode retrieves a catalog entry by its unique code.
func (s *Store) GetResourceByCode(_ context.Context, code string) (persistence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, resource := range s.resources {
		if resource.Code == code {
			return resource, nil
		}
	}
	return persistence.Resource{}, persistence.ErrNotFound
}

// ListResources returns catalog entries matching the filter ordered by name.
func (s *Store) ListResources(_ context.Context, filter persistence.ResourceFilter) ([]persistence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []persistence.Resource
	for _, resource := range s.resources {
		if filter.Type != nil && resource.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && resource.Status != *filter.Status {
			continue
		}
		if filter.Building != nil {
			if resource.Building == nil || *resource.Building != *filter.Building {
				continue
			}
		}
		if filter.IsActive != nil && resource.IsActive != *filter.IsActive {
			continue
		}
		if search := strings.TrimSpace(filter.Search); search != "" && !matchesSearch(resource, search) {
			continue
		}
		matched = append(matched, resource)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})
	return paginate(matched, filter.Offset, filter.Limit), nil
}

func matchesSearch(resource persistence.Resource, search string) bool {
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(resource.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(resource.Code), needle) {
		return true
	}
	if resource.Description != nil && strings.Contains(strings.ToLower(*resource.Description), needle) {
		return true
	}
	return false
}

// DeleteResource removes a catalog entry and its scoped rules.
func (s *Store) DeleteResource(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.resources[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(s.resources, id)
	for ruleID, rule := range s.rules {
		if rule.ResourceID != nil && *rule.ResourceID == id {
			delete(s.rules, ruleID)
		}
	}
	return nil
}

// ListBuildings returns the distinct non-empty building names.
func (s *Store) ListBuildings(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var buildings []string
	for _, resource := range s.resources {
		if resource.Building == nil || *resource.Building == "" || seen[*resource.Building] {
			continue
		}
		seen[*resource.Building] = true
		buildings = append(buildings, *resource.Building)
	}
	sort.Strings(buildings)
	return buildings, nil
}

// CreateRule inserts a rule configuration.
func (s *Store) CreateRule(_ context.Context, rule persistence.ReservationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return persistence.ErrDuplicate
	}
	if rule.ResourceID != nil {
		if _, exists := s.resources[*rule.ResourceID]; !exists {
			return persistence.ErrForeignKeyViolation
		}
	}
	s.rules[rule.ID] = rule
	return nil
}

// UpdateRule replaces a rule configuration.
func (s *Store) UpdateRule(_ context.Context, rule persistence.ReservationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; !exists {
		return persistence.ErrNotFound
	}
	s.rules[rule.ID] = rule
	return nil
}

// GetRule retrieves a rule by id.
func (s *Store) GetRule(_ context.Context, id string) (persistence.ReservationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return persistence.ReservationRule{}, persistence.ErrNotFound
	}
	return rule, nil
}

// ListRulesForResource returns resource-scoped plus global rules ordered by
// priority.
func (s *Store) ListRulesForResource(_ context.Context, resourceID string) ([]persistence.ReservationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ruleSet []persistence.ReservationRule
	for _, rule := range s.rules {
		if rule.ResourceID == nil || *rule.ResourceID == resourceID {
			ruleSet = append(ruleSet, rule)
		}
	}
	sort.Slice(ruleSet, func(i, j int) bool {
		if ruleSet[i].Priority != ruleSet[j].Priority {
			return ruleSet[i].Priority < ruleSet[j].Priority
		}
		return ruleSet[i].ID < ruleSet[j].ID
	})
	return ruleSet, nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

// CreateReservation inserts a booking.
func (s *Store) CreateReservation(_ context.Context, reservation persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[reservation.ID]; exists {
		return persistence.ErrDuplicate
	}
	if _, exists := s.resources[reservation.ResourceID]; !exists {
		return persistence.ErrForeignKeyViolation
	}
	if !reservation.End.After(reservation.Start) {
		return persistence.ErrConstraintViolation
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

// UpdateReservation replaces a booking.
func (s *Store) UpdateReservation(_ context.Context, reservation persistence.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reservations[reservation.ID]; !exists {
		return persistence.ErrNotFound
	}
	if !reservation.End.After(reservation.Start) {
		return persistence.ErrConstraintViolation
	}
	s.reservations[reservation.ID] = reservation
	return nil
}

// GetReservation retrieves a booking by id.
func (s *Store) GetReservation(_ context.Context, id string) (persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reservation, exists := s.reservations[id]
	if !exists {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

// ListUserReservations returns the user's bookings ordered newest first.
func (s *Store) ListUserReservations(_ context.Context, filter persistence.UserReservationFilter) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []persistence.Reservation
	for _, reservation := range s.reservations {
		if reservation.UserID != filter.UserID {
			continue
		}
		if filter.Status != nil && reservation.Status != *filter.Status {
			continue
		}
		if filter.UpcomingOnly && !reservation.End.After(filter.Reference) {
			continue
		}
		matched = append(matched, reservation)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Start.Equal(matched[j].Start) {
			return matched[i].Start.After(matched[j].Start)
		}
		return matched[i].ID < matched[j].ID
	})
	return paginateReservations(matched, filter.Offset, filter.Limit), nil
}

// ListResourceReservations returns bookings on the resource intersecting
// [from, to), restricted to the given statuses when non-empty.
func (s *Store) ListResourceReservations(_ context.Context, resourceID string, from, to time.Time, statuses []lifecycle.Status) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[lifecycle.Status]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	var matched []persistence.Reservation
	for _, reservation := range s.reservations {
		if reservation.ResourceID != resourceID {
			continue
		}
		if !reservation.Start.Before(to) || !reservation.End.After(from) {
			continue
		}
		if len(wanted) > 0 && !wanted[reservation.Status] {
			continue
		}
		matched = append(matched, reservation)
	}

	sortReservationsAscending(matched)
	return matched, nil
}

// ListUserLiveReservations returns the user's pending and approved bookings
// on one resource.
func (s *Store) ListUserLiveReservations(_ context.Context, resourceID, userID string) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []persistence.Reservation
	for _, reservation := range s.reservations {
		if reservation.ResourceID != resourceID || reservation.UserID != userID {
			continue
		}
		if !lifecycle.IsLive(reservation.Status) {
			continue
		}
		matched = append(matched, reservation)
	}

	sortReservationsAscending(matched)
	return matched, nil
}

// ListNoShowCandidates returns approved bookings without a check-in whose
// start time is at or before the cutoff.
func (s *Store) ListNoShowCandidates(_ context.Context, cutoff time.Time) ([]persistence.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []persistence.Reservation
	for _, reservation := range s.reservations {
		if reservation.Status != lifecycle.StatusApproved {
			continue
		}
		if reservation.CheckedInAt != nil {
			continue
		}
		if reservation.Start.After(cutoff) {
			continue
		}
		matched = append(matched, reservation)
	}

	sortReservationsAscending(matched)
	return matched, nil
}

// CreateSanction inserts a sanction record.
func (s *Store) CreateSanction(_ context.Context, sanction persistence.UserSanction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sanctions[sanction.ID]; exists {
		return persistence.ErrDuplicate
	}
	if sanction.ReservationID != nil {
		if _, exists := s.reservations[*sanction.ReservationID]; !exists {
			return persistence.ErrForeignKeyViolation
		}
	}
	s.sanctions[sanction.ID] = sanction
	return nil
}

// UpdateSanction replaces a sanction record.
func (s *Store) UpdateSanction(_ context.Context, sanction persistence.UserSanction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sanctions[sanction.ID]; !exists {
		return persistence.ErrNotFound
	}
	s.sanctions[sanction.ID] = sanction
	return nil
}

// GetSanction retrieves a sanction by id.
func (s *Store) GetSanction(_ context.Context, id string) (persistence.UserSanction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sanction, exists := s.sanctions[id]
	if !exists {
		return persistence.UserSanction{}, persistence.ErrNotFound
	}
	return sanction, nil
}

// ListUserSanctions returns the user's sanctions newest first.
func (s *Store) ListUserSanctions(_ context.Context, userID string, includeResolved bool) ([]persistence.UserSanction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []persistence.UserSanction
	for _, sanction := range s.sanctions {
		if sanction.UserID != userID {
			continue
		}
		if !includeResolved && sanction.IsResolved {
			continue
		}
		matched = append(matched, sanction)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// HasSanctionForReservation reports whether a sanction already cites the
// reservation.
func (s *Store) HasSanctionForReservation(_ context.Context, reservationID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sanction := range s.sanctions {
		if sanction.ReservationID != nil && *sanction.ReservationID == reservationID {
			return true, nil
		}
	}
	return false, nil
}

func sortReservationsAscending(reservations []persistence.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].Start.Equal(reservations[j].Start) {
			return reservations[i].Start.Before(reservations[j].Start)
		}
		return reservations[i].ID < reservations[j].ID
	})
}

func paginate(resources []persistence.Resource, offset, limit int) []persistence.Resource {
	if limit <= 0 {
		return resources
	}
	if offset >= len(resources) {
		return nil
	}
	end := offset + limit
	if end > len(resources) {
		end = len(resources)
	}
	return resources[offset:end]
}

func paginateReservations(reservations []persistence.Reservation, offset, limit int) []persistence.Reservation {
	if limit <= 0 {
		return reservations
	}
	if offset >= len(reservations) {
		return nil
	}
	end := offset + limit
	if end > len(reservations) {
		end = len(reservations)
	}
	return reservations[offset:end]
}
