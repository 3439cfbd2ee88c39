package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-reservations/internal/application"
	"github.com/example/campus-reservations/internal/persistence"
)

type sanctionService interface {
	CreateSanction(ctx context.Context, params application.CreateSanctionParams) (persistence.UserSanction, error)
	ResolveSanction(ctx context.Context, params application.ResolveSanctionParams) (persistence.UserSanction, error)
	ListSanctions(ctx context.Context, params application.ListSanctionsParams) ([]persistence.UserSanction, error)
}

type SanctionHandler struct {
	service   sanctionService
	responder responder
}

func NewSanctionHandler(service sanctionService, logger *slog.Logger) *SanctionHandler {
	return &SanctionHandler{service: service, responder: newResponder(logger)}
}

func (h *SanctionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req sanctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	sanction, err := h.service.CreateSanction(r.Context(), application.CreateSanctionParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toSanctionDTO(sanction))
}

func (h *SanctionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sanctionID, ok := SanctionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sanctionID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSanctionID)
		return
	}

	var req resolveSanctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	sanction, err := h.service.ResolveSanction(r.Context(), application.ResolveSanctionParams{
		Principal:  principal,
		SanctionID: sanctionID,
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSanctionDTO(sanction))
}

// ListMine returns the principal's own sanction history.
func (h *SanctionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	h.list(w, r, principal.UserID)
}

// ListUser returns another user's sanction history for administrators.
func (h *SanctionHandler) ListUser(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}
	h.list(w, r, userID)
}

func (h *SanctionHandler) list(w http.ResponseWriter, r *http.Request, userID string) {
	principal, _ := PrincipalFromContext(r.Context())

	includeResolved := strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("include_resolved")), "true")
	sanctions, err := h.service.ListSanctions(r.Context(), application.ListSanctionsParams{
		Principal:       principal,
		UserID:          userID,
		IncludeResolved: includeResolved,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSanctionsResponse{Sanctions: toSanctionDTOs(sanctions)})
}

type sanctionRequest struct {
	UserID        string  `json:"user_id"`
	ReservationID *string `json:"reservation_id"`
	Type          string  `json:"sanction_type"`
	Reason        string  `json:"reason"`
	Description   *string `json:"description"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date"`
}

func (r sanctionRequest) toInput() application.SanctionInput {
	input := application.SanctionInput{
		UserID:        strings.TrimSpace(r.UserID),
		ReservationID: r.ReservationID,
		Type:          persistence.SanctionType(strings.TrimSpace(r.Type)),
		Reason:        persistence.SanctionReason(strings.TrimSpace(r.Reason)),
		Description:   r.Description,
		StartDate:     parseTime(r.StartDate),
	}
	if r.EndDate != nil {
		if end := parseTime(*r.EndDate); !end.IsZero() {
			input.EndDate = &end
		}
	}
	return input
}

type resolveSanctionRequest struct {
	Notes string `json:"notes"`
}

type listSanctionsResponse struct {
	Sanctions []sanctionDTO `json:"sanctions"`
}

type sanctionDTO struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	ReservationID   *string `json:"reservation_id,omitempty"`
	Type            string  `json:"sanction_type"`
	Reason          string  `json:"reason"`
	Description     *string `json:"description,omitempty"`
	StartDate       string  `json:"start_date"`
	EndDate         *string `json:"end_date,omitempty"`
	AppliedBy       string  `json:"applied_by"`
	IsResolved      bool    `json:"is_resolved"`
	ResolvedAt      *string `json:"resolved_at,omitempty"`
	ResolvedBy      *string `json:"resolved_by,omitempty"`
	ResolutionNotes *string `json:"resolution_notes,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toSanctionDTO(sanction persistence.UserSanction) sanctionDTO {
	return sanctionDTO{
		ID:              sanction.ID,
		UserID:          sanction.UserID,
		ReservationID:   sanction.ReservationID,
		Type:            string(sanction.Type),
		Reason:          string(sanction.Reason),
		Description:     sanction.Description,
		StartDate:       sanction.StartDate.UTC().Format(time.RFC3339),
		EndDate:         formatTimeRef(sanction.EndDate),
		AppliedBy:       sanction.AppliedBy,
		IsResolved:      sanction.IsResolved,
		ResolvedAt:      formatTimeRef(sanction.ResolvedAt),
		ResolvedBy:      sanction.ResolvedBy,
		ResolutionNotes: sanction.ResolutionNotes,
		CreatedAt:       sanction.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toSanctionDTOs(sanctions []persistence.UserSanction) []sanctionDTO {
	if len(sanctions) == 0 {
		return nil
	}
	out := make([]sanctionDTO, 0, len(sanctions))
	for _, sanction := range sanctions {
		out = append(out, toSanctionDTO(sanction))
	}
	return out
}
