// Package http provides HTTP handlers and middleware for the reservation API.
//
// Identity is established by the campus gateway in front of this service and
// forwarded via the `X-User-ID` and `X-User-Admin` headers; the RequirePrincipal
// middleware turns them into the application principal.
//
// The router exposes the following endpoints:
//   - GET /resources, POST /resources, GET/PUT/DELETE /resources/{id},
//     PUT /resources/{id}/status, GET /resources/buildings: catalog endpoints
//     exchanging the `resourceDTO` payload defined in resource_handler.go.
//     Listing is open to any principal while mutations require admin privileges.
//   - GET /rules?resource_id=..., POST /rules, GET/PUT/DELETE /rules/{id}:
//     rule configuration endpoints exchanging the `ruleDTO` payload defined in
//     rule_handler.go. Listing returns a resource's scoped rules plus the
//     global ones, priority ascending.
//   - POST /reservations: runs the booking pipeline; recurring requests return
//     per-occurrence outcomes alongside the series parent.
//   - GET /reservations/my, GET /reservations/calendar/{resourceID},
//     GET/PUT /reservations/{id}, DELETE /reservations/{id} (cancel),
//     POST /reservations/{id}/approve, /reject, /check-in, /check-out:
//     lifecycle endpoints exchanging the `reservationDTO` payload defined in
//     reservation_handler.go.
//   - POST /sanctions, GET /sanctions/my, GET /sanctions/users/{id},
//     POST /sanctions/{id}/resolve: sanction endpoints exchanging the
//     `sanctionDTO` payload defined in sanction_handler.go.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
