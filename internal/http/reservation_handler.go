package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/application"
	"github.com/example/campus-reservations/internal/lifecycle"
	"github.com/example/campus-reservations/internal/persistence"
)

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.CreateReservationResult, error)
	UpdateReservation(ctx context.Context, params application.UpdateReservationParams) (persistence.Reservation, error)
	ApproveReservation(ctx context.Context, params application.ApproveReservationParams) (persistence.Reservation, error)
	RejectReservation(ctx context.Context, params application.RejectReservationParams) (persistence.Reservation, error)
	CancelReservation(ctx context.Context, params application.CancelReservationParams) (persistence.Reservation, error)
	CheckIn(ctx context.Context, params application.CheckInParams) (persistence.Reservation, error)
	CheckOut(ctx context.Context, params application.CheckOutParams) (persistence.Reservation, error)
	GetReservation(ctx context.Context, principal application.Principal, id string) (persistence.Reservation, error)
	MyReservations(ctx context.Context, params application.MyReservationsParams) ([]persistence.Reservation, error)
	Calendar(ctx context.Context, params application.CalendarParams) ([]persistence.Reservation, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
}

func NewReservationHandler(service reservationService, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{service: service, responder: newResponder(logger)}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := createReservationResponse{
		Reservation: toReservationDTO(result.Reservation),
		Occurrences: toOccurrenceDTOs(result.Occurrences),
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, response)
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req reservationUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.UpdateReservation(r.Context(), application.UpdateReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Input: application.ReservationUpdateInput{
			Start:          parseTime(req.Start),
			End:            parseTime(req.End),
			Title:          strings.TrimSpace(req.Title),
			Description:    req.Description,
			AttendeesCount: req.AttendeesCount,
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

// Cancel releases the booking; DELETE on a reservation is a cancellation,
// the record itself is retained for history.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.CancelReservation(r.Context(), application.CancelReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.ApproveReservation(r.Context(), application.ApproveReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.RejectReservation(r.Context(), application.RejectReservationParams{
		Principal:     principal,
		ReservationID: reservationID,
		Reason:        strings.TrimSpace(req.Reason),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.CheckIn(r.Context(), application.CheckInParams{
		Principal:     principal,
		ReservationID: reservationID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.CheckOut(r.Context(), application.CheckOutParams{
		Principal:     principal,
		ReservationID: reservationID,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := buildMyReservationsParams(r.URL.Query(), principal)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	reservations, err := h.service.MyReservations(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

// Calendar lists the live bookings occupying a resource inside the requested
// window so clients can render availability.
func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	reservations, err := h.service.Calendar(r.Context(), application.CalendarParams{
		Principal:  principal,
		ResourceID: resourceID,
		From:       parseTime(query.Get("start")),
		To:         parseTime(query.Get("end")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: toReservationDTOs(reservations)})
}

type reservationRequest struct {
	ResourceID        string  `json:"resource_id"`
	Start             string  `json:"start_time"`
	End               string  `json:"end_time"`
	Title             string  `json:"title"`
	Description       *string `json:"description"`
	AttendeesCount    *int    `json:"attendees_count"`
	RecurrencePattern string  `json:"recurrence_pattern"`
}

func (r reservationRequest) toInput() application.ReservationInput {
	return application.ReservationInput{
		ResourceID:        strings.TrimSpace(r.ResourceID),
		Start:             parseTime(r.Start),
		End:               parseTime(r.End),
		Title:             strings.TrimSpace(r.Title),
		Description:       r.Description,
		AttendeesCount:    r.AttendeesCount,
		RecurrencePattern: strings.TrimSpace(r.RecurrencePattern),
	}
}

type reservationUpdateRequest struct {
	Start          string  `json:"start_time"`
	End            string  `json:"end_time"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	AttendeesCount *int    `json:"attendees_count"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type createReservationResponse struct {
	Reservation reservationDTO  `json:"reservation"`
	Occurrences []occurrenceDTO `json:"occurrences,omitempty"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID                  string  `json:"id"`
	ResourceID          string  `json:"resource_id"`
	UserID              string  `json:"user_id"`
	Start               string  `json:"start_time"`
	End                 string  `json:"end_time"`
	Title               string  `json:"title"`
	Description         *string `json:"description,omitempty"`
	AttendeesCount      *int    `json:"attendees_count,omitempty"`
	Status              string  `json:"status"`
	ApprovedBy          *string `json:"approved_by,omitempty"`
	ApprovedAt          *string `json:"approved_at,omitempty"`
	RejectionReason     *string `json:"rejection_reason,omitempty"`
	CheckedInAt         *string `json:"checked_in_at,omitempty"`
	CheckedOutAt        *string `json:"checked_out_at,omitempty"`
	IsRecurring         bool    `json:"is_recurring"`
	RecurrencePattern   *string `json:"recurrence_pattern,omitempty"`
	ParentReservationID *string `json:"parent_reservation_id,omitempty"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

// occurrenceDTO reports one expansion outcome of a recurring request; a
// failed occurrence carries an error message instead of a reservation.
type occurrenceDTO struct {
	Start       string          `json:"start_time"`
	End         string          `json:"end_time"`
	Reservation *reservationDTO `json:"reservation,omitempty"`
	Error       string          `json:"error,omitempty"`
}

func toReservationDTO(reservation persistence.Reservation) reservationDTO {
	return reservationDTO{
		ID:                  reservation.ID,
		ResourceID:          reservation.ResourceID,
		UserID:              reservation.UserID,
		Start:               reservation.Start.UTC().Format(time.RFC3339),
		End:                 reservation.End.UTC().Format(time.RFC3339),
		Title:               reservation.Title,
		Description:         reservation.Description,
		AttendeesCount:      reservation.AttendeesCount,
		Status:              string(reservation.Status),
		ApprovedBy:          reservation.ApprovedBy,
		ApprovedAt:          formatTimeRef(reservation.ApprovedAt),
		RejectionReason:     reservation.RejectionReason,
		CheckedInAt:         formatTimeRef(reservation.CheckedInAt),
		CheckedOutAt:        formatTimeRef(reservation.CheckedOutAt),
		IsRecurring:         reservation.IsRecurring,
		RecurrencePattern:   reservation.RecurrencePattern,
		ParentReservationID: reservation.ParentReservationID,
		CreatedAt:           reservation.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:           reservation.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationDTOs(reservations []persistence.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	return out
}

func toOccurrenceDTOs(occurrences []application.OccurrenceResult) []occurrenceDTO {
	if len(occurrences) == 0 {
		return nil
	}
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		dto := occurrenceDTO{
			Start: occurrence.Start.UTC().Format(time.RFC3339),
			End:   occurrence.End.UTC().Format(time.RFC3339),
		}
		if occurrence.Reservation != nil {
			reservation := toReservationDTO(*occurrence.Reservation)
			dto.Reservation = &reservation
		}
		if occurrence.Err != nil {
			dto.Error = occurrence.Err.Error()
		}
		out = append(out, dto)
	}
	return out
}

func formatTimeRef(ts *time.Time) *string {
	if ts == nil {
		return nil
	}
	formatted := ts.UTC().Format(time.RFC3339)
	return &formatted
}

func buildMyReservationsParams(values url.Values, principal application.Principal) (application.MyReservationsParams, error) {
	params := application.MyReservationsParams{Principal: principal}

	if raw := strings.TrimSpace(values.Get("status")); raw != "" {
		status, err := lifecycle.ParseStatus(raw)
		if err != nil {
			return application.MyReservationsParams{}, err
		}
		params.Status = &status
	}
	if raw := strings.TrimSpace(values.Get("upcoming")); raw != "" {
		upcoming, err := strconv.ParseBool(raw)
		if err == nil {
			params.UpcomingOnly = upcoming
		}
	}
	params.Offset = parseNonNegativeInt(values.Get("offset"))
	params.Limit = parseNonNegativeInt(values.Get("limit"))

	return params, nil
}
