// Package http exposes the booking service as a JSON API.
//
// Routes live under /api:
//   - /api/auth: login, register, logout and me. Sessions travel in the
//     `session_token` cookie or an `Authorization: Bearer` header.
//   - /api/rooms: the public room catalog plus administrator mutations and
//     GET /api/rooms/available?startDate&endDate.
//   - /api/bookings: the booking ledger. Every route needs a session;
//     ownership and role checks happen in the application services.
//
// GET /healthz reports storage readiness.
//
// Errors are rendered as {"message": "...", "errors": {"field": "..."}}.
// Request and response DTOs live alongside their handlers.
package http
