package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-booking/internal/application"
)

const messageRoomDeleted = "Room deleted successfully"

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID int64) error
	GetRoom(ctx context.Context, roomID int64) (application.Room, error)
	ListRooms(ctx context.Context) ([]application.Room, error)
	ListAvailable(ctx context.Context, start, end time.Time) ([]application.Room, error)
}

// RoomHandler serves the room catalog. Reads are public; writes require an
// administrator session.
type RoomHandler struct {
	service   roomService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, location *time.Location, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	if location == nil {
		location = time.UTC
	}
	return &RoomHandler{service: service, location: location, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		h.log(r.Context(), "List").ErrorContext(r.Context(), "failed to list rooms", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, newRoomDTOs(rooms))
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	roomID, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid room id", nil)
		return
	}

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		h.log(r.Context(), "Get", "room_id", roomID).WarnContext(r.Context(), "failed to load room", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, newRoomDTO(room))
}

// Available lists rooms that are flagged available and free over the
// startDate/endDate query interval.
func (h *RoomHandler) Available(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	rawStart := strings.TrimSpace(query.Get("startDate"))
	rawEnd := strings.TrimSpace(query.Get("endDate"))
	if rawStart == "" || rawEnd == "" {
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageDatesRequired)
		return
	}

	fields := map[string]string{}
	start, err := parseTimestamp(rawStart, h.location)
	if err != nil {
		fields["startDate"] = "start date must be RFC 3339 or YYYY-MM-DDTHH:MM"
	}
	end, err := parseTimestamp(rawEnd, h.location)
	if err != nil {
		fields["endDate"] = "end date must be RFC 3339 or YYYY-MM-DDTHH:MM"
	}
	if len(fields) > 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, messageValidation, fields)
		return
	}

	rooms, err := h.service.ListAvailable(r.Context(), start, end)
	if err != nil {
		h.log(r.Context(), "Available").WarnContext(r.Context(), "failed to list available rooms", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, newRoomDTOs(rooms))
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create room", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newRoomDTO(room))
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	roomID, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid room id", nil)
		return
	}

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "room_id", roomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update room", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newRoomDTO(room))
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	roomID, ok := pathID(r, "id")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, "Invalid room id", nil)
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "room_id", roomID)

	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete room", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, messageRoomDeleted)
}

type roomRequest struct {
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	Description string   `json:"description"`
	IsAvailable *bool    `json:"isAvailable"`
	Amenities   []string `json:"amenities"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:        r.Name,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Description: r.Description,
		IsAvailable: r.IsAvailable,
		Amenities:   r.Amenities,
	}
}

type roomDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Location    string   `json:"location"`
	Capacity    int      `json:"capacity"`
	Description string   `json:"description"`
	IsAvailable bool     `json:"isAvailable"`
	Amenities   []string `json:"amenities"`
}

func newRoomDTO(room application.Room) roomDTO {
	amenities := room.Amenities
	if amenities == nil {
		amenities = []string{}
	}
	return roomDTO{
		ID:          room.ID,
		Name:        room.Name,
		Location:    room.Location,
		Capacity:    room.Capacity,
		Description: room.Description,
		IsAvailable: room.IsAvailable,
		Amenities:   amenities,
	}
}

func newRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, newRoomDTO(room))
	}
	return out
}
