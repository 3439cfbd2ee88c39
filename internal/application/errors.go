package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/persistence"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute collides with an existing record.
	ErrAlreadyExists = errors.New("application: already exists")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError is returned when a proposed booking overlaps live
// reservations on the same resource.
type ConflictError struct {
	ResourceID     string
	ReservationIDs []string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("reservation conflicts with %d existing reservation(s)", len(c.ReservationIDs))
}

// RuleViolationError is returned when the rule engine rejects a proposed
// booking.
type RuleViolationError struct {
	RuleID   string
	RuleName string
	Kind     string
	Message  string
}

// Error implements the error interface.
func (r *RuleViolationError) Error() string {
	if r == nil {
		return ""
	}
	return r.Message
}

// SanctionBlockedError is returned when an active suspension prevents a user
// from booking. EndDate is nil for open-ended suspensions.
type SanctionBlockedError struct {
	SanctionID string
	EndDate    *time.Time
}

// Error implements the error interface.
func (s *SanctionBlockedError) Error() string {
	if s == nil {
		return ""
	}
	if s.EndDate == nil {
		return "user is suspended from making reservations"
	}
	return fmt.Sprintf("user is suspended from making reservations until %s", s.EndDate.Format("2006-01-02"))
}

// InvalidTransitionError is returned when a lifecycle action is not legal
// from the reservation's current status.
type InvalidTransitionError struct {
	From   lifecycle.Status
	Action lifecycle.Action
}

// Error implements the error interface.
func (t *InvalidTransitionError) Error() string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("cannot %s a %s reservation", t.Action, t.From)
}

// mapRepoError converts persistence sentinels into application errors.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("resource_id", "related records are missing")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
