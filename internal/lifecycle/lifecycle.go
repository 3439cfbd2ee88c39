// Package lifecycle models the reservation state machine as an explicit
// transition table so that illegal moves are rejected in one place instead
// of being scattered across service conditionals.
package lifecycle

import (
	"errors"
	"fmt"
)

// Status enumerates the states a reservation moves through.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
	StatusNoShow    Status = "NO_SHOW"
)

// Action enumerates the operations that drive status transitions.
type Action string

const (
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionCheckIn    Action = "check_in"
	ActionCheckOut   Action = "check_out"
	ActionMarkNoShow Action = "mark_no_show"
)

// ErrInvalidTransition indicates the requested action is not permitted from
// the current status.
var ErrInvalidTransition = errors.New("lifecycle: invalid transition")

// transitions is the single source of truth for permitted moves.
// Check-in keeps the reservation APPROVED; the checked_in_at timestamp is
// what distinguishes an occupied slot from a pending arrival.
var transitions = map[Status]map[Action]Status{
	StatusPending: {
		ActionApprove:    StatusApproved,
		ActionReject:     StatusRejected,
		ActionCancel:     StatusCancelled,
		ActionReschedule: StatusPending,
	},
	StatusApproved: {
		ActionCancel:     StatusCancelled,
		ActionCheckIn:    StatusApproved,
		ActionCheckOut:   StatusCompleted,
		ActionMarkNoShow: StatusNoShow,
	},
}

// ParseStatus validates a stored status string.
func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted, StatusNoShow:
		return Status(value), nil
	}
	return "", fmt.Errorf("lifecycle: unknown status %q", value)
}

// IsTerminal reports whether the status permits no further transitions.
func IsTerminal(status Status) bool {
	_, ok := transitions[status]
	return !ok
}

// IsLive reports whether the status occupies the resource's schedule.
func IsLive(status Status) bool {
	return status == StatusPending || status == StatusApproved
}

// Next returns the status that results from applying action to the current
// status, or ErrInvalidTransition when the move is not in the table.
func Next(current Status, action Action) (Status, error) {
	allowed, ok := transitions[current]
	if !ok {
		return "", fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, current)
	}
	next, ok := allowed[action]
	if !ok {
		return "", fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, current)
	}
	return next, nil
}

// Can reports whether the action is permitted from the current status.
func Can(current Status, action Action) bool {
	_, err := Next(current, action)
	return err == nil
}
