package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
)

const messageBookingDeleted = "Booking deleted successfully"

type bookingService interface {
	ListAll(ctx context.Context, params application.ListBookingsParams) ([]application.Booking, error)
	ListForUser(ctx context.Context, principal application.Principal, userID int64) ([]application.Booking, error)
	ListForRoom(ctx context.Context, principal application.Principal, roomID int64) ([]application.Booking, error)
	Get(ctx context.Context, principal application.Principal, id int64) (application.Booking, error)
	Create(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	Update(ctx context.Context, params application.UpdateBookingParams) (application.Booking, error)
	Cancel(ctx context.Context, principal application.Principal, id int64) error
}

// BookingHandler serves the booking ledger. Every route requires a session.
type BookingHandler struct {
	service   bookingService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

func NewBookingHandler(service bookingService, location *time.Location, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	if location == nil {
		location = time.UTC
	}
	return &BookingHandler{service: service, location: location, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// List returns every booking for administrators, optionally narrowed by the
// status query parameter.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	bookings, err := h.service.ListAll(r.Context(), application.ListBookingsParams{
		Principal: principal,
		Status:    application.BookingStatusFilter(status),
	})
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID, "status", status).
			WarnContext(r.Context(), "failed to list bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.newBookingDTOs(bookings))
}

func (h *BookingHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	userID, ok := pathID(r, "userId")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid user id", nil)
		return
	}

	bookings, err := h.service.ListForUser(r.Context(), principal, userID)
	if err != nil {
		h.log(r.Context(), "ListForUser", "principal_id", principal.UserID, "user_id", userID).
			WarnContext(r.Context(), "failed to list user bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.newBookingDTOs(bookings))
}

func (h *BookingHandler) ListForRoom(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID, ok := pathID(r, "roomId")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid room id", nil)
		return
	}

	bookings, err := h.service.ListForRoom(r.Context(), principal, roomID)
	if err != nil {
		h.log(r.Context(), "ListForRoom", "principal_id", principal.UserID, "room_id", roomID).
			WarnContext(r.Context(), "failed to list room bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.newBookingDTOs(bookings))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bookingID, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid booking id", nil)
		return
	}

	booking, err := h.service.Get(r.Context(), principal, bookingID)
	if err != nil {
		h.log(r.Context(), "Get", "booking_id", bookingID).
			WarnContext(r.Context(), "failed to load booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.newBookingDTO(booking))
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageBadRequestBody)
		return
	}

	input, fields := req.toInput(h.location)
	if len(fields) > 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageValidation, fields)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "room_id", input.RoomID)

	booking, err := h.service.Create(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "failed to create booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("booking_id", booking.ID).InfoContext(r.Context(), "booking created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, h.newBookingDTO(booking))
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bookingID, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid booking id", nil)
		return
	}

	var req bookingRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "booking_id", bookingID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageBadRequestBody)
		return
	}

	input, fields := req.toInput(h.location)
	if len(fields) > 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageValidation, fields)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "booking_id", bookingID)

	booking, err := h.service.Update(r.Context(), application.UpdateBookingParams{
		Principal: principal,
		BookingID: bookingID,
		Input:     input,
	})
	if err != nil {
		logger.WarnContext(r.Context(), "failed to update booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.newBookingDTO(booking))
}

// Delete cancels the booking. The record stays in the ledger as cancelled.
func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	bookingID, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid booking id", nil)
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "booking_id", bookingID)

	if err := h.service.Cancel(r.Context(), principal, bookingID); err != nil {
		logger.WarnContext(r.Context(), "failed to cancel booking", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "booking cancelled")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, messageBookingDeleted)
}

type bookingRequest struct {
	RoomID      int64  `json:"roomId"`
	UserID      int64  `json:"userId"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// toInput parses the timestamps. Missing dates are left zero for the service
// to report.
func (r bookingRequest) toInput(loc *time.Location) (application.BookingInput, map[string]string) {
	input := application.BookingInput{
		RoomID:      r.RoomID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
	}

	fields := map[string]string{}
	if strings.TrimSpace(r.StartDate) != "" {
		start, err := parseTimestamp(r.StartDate, loc)
		if err != nil {
			fields["startDate"] = "start date must be RFC 3339 or YYYY-MM-DDTHH:MM"
		}
		input.Start = start
	}
	if strings.TrimSpace(r.EndDate) != "" {
		end, err := parseTimestamp(r.EndDate, loc)
		if err != nil {
			fields["endDate"] = "end date must be RFC 3339 or YYYY-MM-DDTHH:MM"
		}
		input.End = end
	}
	return input, fields
}

type bookingDTO struct {
	ID          int64   `json:"id"`
	RoomID      int64   `json:"roomId"`
	UserID      int64   `json:"userId"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	IsActive    bool    `json:"isActive"`
	Status      string  `json:"status"`
	CancelledAt *string `json:"cancelledAt,omitempty"`
}

func (h *BookingHandler) newBookingDTO(booking application.Booking) bookingDTO {
	dto := bookingDTO{
		ID:          booking.ID,
		RoomID:      booking.RoomID,
		UserID:      booking.UserID,
		StartDate:   formatTimestamp(booking.Start, h.location),
		EndDate:     formatTimestamp(booking.End, h.location),
		Title:       booking.Title,
		Description: booking.Description,
		CreatedAt:   formatTimestamp(booking.CreatedAt, h.location),
		IsActive:    booking.IsActive(),
		Status:      string(booking.Status),
	}
	if booking.CancelledAt != nil {
		cancelled := formatTimestamp(*booking.CancelledAt, h.location)
		dto.CancelledAt = &cancelled
	}
	return dto
}

func (h *BookingHandler) newBookingDTOs(bookings []application.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, h.newBookingDTO(booking))
	}
	return out
}
