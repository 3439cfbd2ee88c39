package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/application"
)

var (
	errBadRequestBody       = errors.New("the request body is not valid JSON")
	errInvalidResourceID    = errors.New("a resource id is required")
	errInvalidRuleID        = errors.New("a rule id is required")
	errInvalidReservationID = errors.New("a reservation id is required")
	errInvalidSanctionID    = errors.New("a sanction id is required")
	errInvalidUserID        = errors.New("a user id is required")
	errMissingPrincipal     = errors.New("the X-User-ID header is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError maps application errors onto the API's error contract.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "the requested record was not found"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   err.Error(),
		})
	default:
		r.handleStructuredError(ctx, w, err)
	}
}

func (r responder) handleStructuredError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			Message: "the request is invalid",
			Errors:  vErr.FieldErrors,
		})
		return
	}

	var cErr *application.ConflictError
	if errors.As(err, &cErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode:      "CONFLICT",
			Message:        cErr.Error(),
			ReservationIDs: cErr.ReservationIDs,
		})
		return
	}

	var rvErr *application.RuleViolationError
	if errors.As(err, &rvErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "RULE_VIOLATION",
			Message:   rvErr.Message,
			RuleID:    rvErr.RuleID,
		})
		return
	}

	var sErr *application.SanctionBlockedError
	if errors.As(err, &sErr) {
		resp := errorResponse{
			ErrorCode:  "SANCTION_ACTIVE",
			Message:    sErr.Error(),
			SanctionID: sErr.SanctionID,
		}
		if sErr.EndDate != nil {
			resp.BlockedUntil = sErr.EndDate.UTC().Format(time.RFC3339)
		}
		r.writeJSON(ctx, w, http.StatusForbidden, resp)
		return
	}

	var tErr *application.InvalidTransitionError
	if errors.As(err, &tErr) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_TRANSITION",
			Message:   tErr.Error(),
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode      string            `json:"error_code,omitempty"`
	Message        string            `json:"message"`
	Errors         map[string]string `json:"errors,omitempty"`
	RuleID         string            `json:"rule_id,omitempty"`
	SanctionID     string            `json:"sanction_id,omitempty"`
	BlockedUntil   string            `json:"blocked_until,omitempty"`
	ReservationIDs []string          `json:"reservation_ids,omitempty"`
}
