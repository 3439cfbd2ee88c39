package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/campus-reservations/internal/application"
	"github.com/example/campus-reservations/internal/persistence/memory"
	"github.com/example/campus-reservations/internal/testfixtures"
)

// testServer wires the full router over an in-memory store so handler tests
// exercise routing, principal resolution and error mapping end to end.
type testServer struct {
	handler http.Handler
	store   *memory.Store
	clock   *testfixtures.Clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := memory.NewStore()
	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("id")

	sanctions := application.NewSanctionService(store, 7*24*time.Hour, ids.NextFunc(), clock.NowFunc())
	reservations := application.NewReservationService(store, store, store, sanctions, 15*time.Minute, ids.NextFunc(), clock.NowFunc())
	resources := application.NewResourceService(store, ids.NextFunc(), clock.NowFunc())
	rules := application.NewRuleService(store, store, ids.NextFunc(), clock.NowFunc())

	handler := NewRouter(RouterConfig{
		Resources:    NewResourceHandler(resources, nil),
		Rules:        NewRuleHandler(rules, nil),
		Reservations: NewReservationHandler(reservations, nil),
		Sanctions:    NewSanctionHandler(sanctions, nil),
		Middleware:   []func(http.Handler) http.Handler{RequirePrincipal(nil)},
	})

	return &testServer{handler: handler, store: store, clock: clock}
}

type requestOptions struct {
	userID string
	admin  bool
	body   string
}

func (s *testServer) do(t *testing.T, method, path string, opts requestOptions) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if opts.body != "" {
		body = strings.NewReader(opts.body)
	}
	req := httptest.NewRequest(method, path, body)
	if opts.userID != "" {
		req.Header.Set("X-User-ID", opts.userID)
	}
	if opts.admin {
		req.Header.Set("X-User-Admin", "true")
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func (s *testServer) createResource(t *testing.T, body string) resourceDTO {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/resources", requestOptions{userID: "admin-001", admin: true, body: body})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /resources = %d, body %s", rec.Code, rec.Body.String())
	}
	var resource resourceDTO
	decodeJSON(t, rec, &resource)
	return resource
}

const studyRoomBody = `{
	"name": "Study Room 1",
	"code": "SR-1",
	"resource_type": "STUDY_ROOM",
	"min_reservation_minutes": 30,
	"max_reservation_minutes": 240,
	"advance_booking_days": 14
}`

func TestRouter_RequiresPrincipal(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	rec := server.do(t, http.MethodGet, "/resources", requestOptions{})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without X-User-ID, got %d", rec.Code)
	}
}

func TestResourceEndpoints(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)

	// Mutations require admin privileges.
	rec := server.do(t, http.MethodPost, "/resources", requestOptions{userID: "user-001", body: studyRoomBody})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin create, got %d", rec.Code)
	}
	var forbidden errorResponse
	decodeJSON(t, rec, &forbidden)
	if forbidden.ErrorCode != "AUTH_FORBIDDEN" {
		t.Fatalf("expected AUTH_FORBIDDEN, got %q", forbidden.ErrorCode)
	}

	resource := server.createResource(t, studyRoomBody)
	if resource.Status != "AVAILABLE" || !resource.IsActive {
		t.Fatalf("unexpected created resource: %+v", resource)
	}

	// Listing is open to any principal.
	rec = server.do(t, http.MethodGet, "/resources", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /resources = %d", rec.Code)
	}
	var listed listResourcesResponse
	decodeJSON(t, rec, &listed)
	if len(listed.Resources) != 1 {
		t.Fatalf("expected 1 resource, got %d", len(listed.Resources))
	}

	rec = server.do(t, http.MethodPut, "/resources/"+resource.ID+"/status", requestOptions{
		userID: "admin-001", admin: true,
		body: `{"status": "MAINTENANCE", "is_active": false}`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /resources/{id}/status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated resourceDTO
	decodeJSON(t, rec, &updated)
	if updated.Status != "MAINTENANCE" || updated.IsActive {
		t.Fatalf("unexpected status payload: %+v", updated)
	}

	rec = server.do(t, http.MethodGet, "/resources/missing", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown resource, got %d", rec.Code)
	}

	rec = server.do(t, http.MethodPatch, "/resources", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for PATCH /resources, got %d", rec.Code)
	}
}

func TestReservationEndpoints(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resource := server.createResource(t, studyRoomBody)

	start := server.clock.Now().Add(24 * time.Hour)
	bookingBody := func(offset time.Duration) string {
		s := start.Add(offset)
		return `{"resource_id": "` + resource.ID + `",
			"start_time": "` + s.UTC().Format(time.RFC3339) + `",
			"end_time": "` + s.Add(time.Hour).UTC().Format(time.RFC3339) + `",
			"title": "Study session"}`
	}

	rec := server.do(t, http.MethodPost, "/reservations", requestOptions{userID: "user-001", body: bookingBody(0)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /reservations = %d, body %s", rec.Code, rec.Body.String())
	}
	var created createReservationResponse
	decodeJSON(t, rec, &created)
	if created.Reservation.Status != "APPROVED" {
		t.Fatalf("expected auto-approval, got %s", created.Reservation.Status)
	}

	// An overlapping booking maps to 409 with the blocking reservation ids.
	rec = server.do(t, http.MethodPost, "/reservations", requestOptions{userID: "user-002", body: bookingBody(30 * time.Minute)})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for overlap, got %d", rec.Code)
	}
	var conflict errorResponse
	decodeJSON(t, rec, &conflict)
	if conflict.ErrorCode != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %q", conflict.ErrorCode)
	}
	if len(conflict.ReservationIDs) != 1 || conflict.ReservationIDs[0] != created.Reservation.ID {
		t.Fatalf("expected blocking id %s, got %v", created.Reservation.ID, conflict.ReservationIDs)
	}

	rec = server.do(t, http.MethodGet, "/reservations/my", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /reservations/my = %d", rec.Code)
	}
	var mine listReservationsResponse
	decodeJSON(t, rec, &mine)
	if len(mine.Reservations) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(mine.Reservations))
	}

	calendarPath := "/reservations/calendar/" + resource.ID +
		"?start=" + start.Add(-time.Hour).UTC().Format(time.RFC3339) +
		"&end=" + start.Add(6*time.Hour).UTC().Format(time.RFC3339)
	rec = server.do(t, http.MethodGet, calendarPath, requestOptions{userID: "user-002"})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET calendar = %d, body %s", rec.Code, rec.Body.String())
	}
	var calendar listReservationsResponse
	decodeJSON(t, rec, &calendar)
	if len(calendar.Reservations) != 1 {
		t.Fatalf("expected 1 calendar entry, got %d", len(calendar.Reservations))
	}

	// Cancelling a foreign booking is forbidden; the owner succeeds.
	rec = server.do(t, http.MethodDelete, "/reservations/"+created.Reservation.ID, requestOptions{userID: "user-002"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign cancel, got %d", rec.Code)
	}
	rec = server.do(t, http.MethodDelete, "/reservations/"+created.Reservation.ID, requestOptions{userID: "user-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /reservations/{id} = %d", rec.Code)
	}
	var cancelled reservationDTO
	decodeJSON(t, rec, &cancelled)
	if cancelled.Status != "CANCELLED" {
		t.Fatalf("expected CANCELLED, got %s", cancelled.Status)
	}

	// Cancelling again is an invalid transition.
	rec = server.do(t, http.MethodDelete, "/reservations/"+created.Reservation.ID, requestOptions{userID: "user-001"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for double cancel, got %d", rec.Code)
	}
	var transition errorResponse
	decodeJSON(t, rec, &transition)
	if transition.ErrorCode != "INVALID_TRANSITION" {
		t.Fatalf("expected INVALID_TRANSITION, got %q", transition.ErrorCode)
	}

	rec = server.do(t, http.MethodGet, "/reservations/missing", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown reservation, got %d", rec.Code)
	}
}

func TestReservationEndpoints_ApprovalFlow(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resource := server.createResource(t, `{
		"name": "Lab A",
		"code": "LAB-A",
		"resource_type": "LAB",
		"min_reservation_minutes": 30,
		"max_reservation_minutes": 240,
		"advance_booking_days": 14,
		"requires_approval": true
	}`)

	start := server.clock.Now().Add(24 * time.Hour)
	body := `{"resource_id": "` + resource.ID + `",
		"start_time": "` + start.UTC().Format(time.RFC3339) + `",
		"end_time": "` + start.Add(time.Hour).UTC().Format(time.RFC3339) + `",
		"title": "Experiment"}`

	rec := server.do(t, http.MethodPost, "/reservations", requestOptions{userID: "user-001", body: body})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /reservations = %d, body %s", rec.Code, rec.Body.String())
	}
	var created createReservationResponse
	decodeJSON(t, rec, &created)
	if created.Reservation.Status != "PENDING" {
		t.Fatalf("expected PENDING, got %s", created.Reservation.Status)
	}

	rec = server.do(t, http.MethodPost, "/reservations/"+created.Reservation.ID+"/approve", requestOptions{userID: "admin-001", admin: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST approve = %d, body %s", rec.Code, rec.Body.String())
	}
	var approved reservationDTO
	decodeJSON(t, rec, &approved)
	if approved.Status != "APPROVED" || approved.ApprovedBy == nil {
		t.Fatalf("unexpected approval payload: %+v", approved)
	}

	// Check in within the grace window, then check out.
	server.clock.Set(start.Add(-10 * time.Minute))
	rec = server.do(t, http.MethodPost, "/reservations/"+created.Reservation.ID+"/check-in", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST check-in = %d, body %s", rec.Code, rec.Body.String())
	}
	server.clock.Set(start.Add(30 * time.Minute))
	rec = server.do(t, http.MethodPost, "/reservations/"+created.Reservation.ID+"/check-out", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST check-out = %d, body %s", rec.Code, rec.Body.String())
	}
	var completed reservationDTO
	decodeJSON(t, rec, &completed)
	if completed.Status != "COMPLETED" || completed.CheckedOutAt == nil {
		t.Fatalf("unexpected check-out payload: %+v", completed)
	}
}

func TestRuleEndpoints(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resource := server.createResource(t, studyRoomBody)

	rec := server.do(t, http.MethodPost, "/rules", requestOptions{
		userID: "admin-001", admin: true,
		body: `{"resource_id": "` + resource.ID + `",
			"rule_type": "USER_QUOTA",
			"name": "one per day",
			"max_reservations_per_day": 1}`,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /rules = %d, body %s", rec.Code, rec.Body.String())
	}
	var rule ruleDTO
	decodeJSON(t, rec, &rule)

	rec = server.do(t, http.MethodGet, "/rules?resource_id="+resource.ID, requestOptions{userID: "user-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /rules = %d", rec.Code)
	}
	var listed listRulesResponse
	decodeJSON(t, rec, &listed)
	if len(listed.Rules) != 1 || listed.Rules[0].ID != rule.ID {
		t.Fatalf("unexpected rule list: %+v", listed.Rules)
	}

	// The second same-day booking violates the quota and maps to 422.
	start := server.clock.Now().Add(24 * time.Hour)
	bookingBody := func(offset time.Duration) string {
		s := start.Add(offset)
		return `{"resource_id": "` + resource.ID + `",
			"start_time": "` + s.UTC().Format(time.RFC3339) + `",
			"end_time": "` + s.Add(time.Hour).UTC().Format(time.RFC3339) + `",
			"title": "Study session"}`
	}
	rec = server.do(t, http.MethodPost, "/reservations", requestOptions{userID: "user-001", body: bookingBody(0)})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first booking = %d, body %s", rec.Code, rec.Body.String())
	}
	rec = server.do(t, http.MethodPost, "/reservations", requestOptions{userID: "user-001", body: bookingBody(3 * time.Hour)})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for quota violation, got %d", rec.Code)
	}
	var violation errorResponse
	decodeJSON(t, rec, &violation)
	if violation.ErrorCode != "RULE_VIOLATION" || violation.RuleID != rule.ID {
		t.Fatalf("unexpected violation payload: %+v", violation)
	}

	rec = server.do(t, http.MethodDelete, "/rules/"+rule.ID, requestOptions{userID: "admin-001", admin: true})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE /rules/{id} = %d", rec.Code)
	}
}

func TestSanctionEndpoints(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	resource := server.createResource(t, studyRoomBody)

	end := server.clock.Now().Add(72 * time.Hour)
	rec := server.do(t, http.MethodPost, "/sanctions", requestOptions{
		userID: "admin-001", admin: true,
		body: `{"user_id": "user-001",
			"sanction_type": "TEMPORARY_SUSPENSION",
			"reason": "MISUSE",
			"end_date": "` + end.UTC().Format(time.RFC3339) + `"}`,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /sanctions = %d, body %s", rec.Code, rec.Body.String())
	}
	var sanction sanctionDTO
	decodeJSON(t, rec, &sanction)

	// The suspended user cannot book.
	start := server.clock.Now().Add(24 * time.Hour)
	body := `{"resource_id": "` + resource.ID + `",
		"start_time": "` + start.UTC().Format(time.RFC3339) + `",
		"end_time": "` + start.Add(time.Hour).UTC().Format(time.RFC3339) + `",
		"title": "Study session"}`
	rec = server.do(t, http.MethodPost, "/reservations", requestOptions{userID: "user-001", body: body})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for suspended user, got %d", rec.Code)
	}
	var blocked errorResponse
	decodeJSON(t, rec, &blocked)
	if blocked.ErrorCode != "SANCTION_ACTIVE" || blocked.SanctionID != sanction.ID {
		t.Fatalf("unexpected sanction payload: %+v", blocked)
	}

	rec = server.do(t, http.MethodGet, "/sanctions/my", requestOptions{userID: "user-001"})
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /sanctions/my = %d", rec.Code)
	}
	var mine listSanctionsResponse
	decodeJSON(t, rec, &mine)
	if len(mine.Sanctions) != 1 {
		t.Fatalf("expected 1 sanction, got %d", len(mine.Sanctions))
	}

	// Non-admins may not inspect other users' histories.
	rec = server.do(t, http.MethodGet, "/sanctions/users/user-001", requestOptions{userID: "user-002"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign history, got %d", rec.Code)
	}

	rec = server.do(t, http.MethodPost, "/sanctions/"+sanction.ID+"/resolve", requestOptions{
		userID: "admin-001", admin: true,
		body: `{"notes": "appeal accepted"}`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST resolve = %d, body %s", rec.Code, rec.Body.String())
	}
	var resolved sanctionDTO
	decodeJSON(t, rec, &resolved)
	if !resolved.IsResolved {
		t.Fatal("expected the sanction to be resolved")
	}

	// Once resolved, the user can book again.
	rec = server.do(t, http.MethodPost, "/reservations", requestOptions{userID: "user-001", body: body})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected booking after resolution, got %d, body %s", rec.Code, rec.Body.String())
	}
}
