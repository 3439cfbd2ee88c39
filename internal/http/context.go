package http

import (
	"context"

	"github.com/example/campus-reservations/internal/application"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	resourceIDContextKey    contextKey = "resource_id"
	ruleIDContextKey        contextKey = "rule_id"
	reservationIDContextKey contextKey = "reservation_id"
	sanctionIDContextKey    contextKey = "sanction_id"
	userIDContextKey        contextKey = "user_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithResourceID injects the resource identifier resolved from the request path.
func ContextWithResourceID(ctx context.Context, resourceID string) context.Context {
	return context.WithValue(ctx, resourceIDContextKey, resourceID)
}

// ResourceIDFromContext extracts a resource identifier previously associated with the context.
func ResourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resourceIDContextKey).(string)
	return id, ok
}

// ContextWithRuleID injects the rule identifier resolved from the request path.
func ContextWithRuleID(ctx context.Context, ruleID string) context.Context {
	return context.WithValue(ctx, ruleIDContextKey, ruleID)
}

// RuleIDFromContext extracts a rule identifier previously associated with the context.
func RuleIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ruleIDContextKey).(string)
	return id, ok
}

// ContextWithReservationID injects the reservation identifier resolved from the request path.
func ContextWithReservationID(ctx context.Context, reservationID string) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, reservationID)
}

// ReservationIDFromContext extracts a reservation identifier previously associated with the context.
func ReservationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(string)
	return id, ok
}

// ContextWithSanctionID injects the sanction identifier resolved from the request path.
func ContextWithSanctionID(ctx context.Context, sanctionID string) context.Context {
	return context.WithValue(ctx, sanctionIDContextKey, sanctionID)
}

// SanctionIDFromContext extracts a sanction identifier previously associated with the context.
func SanctionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sanctionIDContextKey).(string)
	return id, ok
}

// ContextWithUserID injects the user identifier resolved from the request path.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext extracts a user identifier previously associated with the context.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDContextKey).(string)
	return id, ok
}
