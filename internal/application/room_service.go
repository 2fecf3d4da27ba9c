package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	DeleteRoom(ctx context.Context, id int64) error
	ListRooms(ctx context.Context) ([]Room, error)
}

// AvailabilityChecker reports whether a room is free over an interval.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, roomID int64, start, end time.Time) (bool, error)
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms        RoomRepository
	availability AvailabilityChecker
	logger       *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository) *RoomService {
	return NewRoomServiceWithLogger(rooms, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, logger *slog.Logger) *RoomService {
	return &RoomService{rooms: rooms, logger: defaultLogger(logger)}
}

// SetAvailabilityChecker wires the booking ledger used by ListAvailable. The
// ledger itself depends on the catalog, so it is attached after construction.
func (s *RoomService) SetAvailabilityChecker(checker AvailabilityChecker) {
	if s != nil {
		s.availability = checker
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room for administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if err = RequireRole(params.Principal, RoleAdmin); err != nil {
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	room = Room{
		Name:        input.Name,
		Location:    input.Location,
		Capacity:    input.Capacity,
		Description: input.Description,
		IsAvailable: true,
		Amenities:   input.Amenities,
	}
	if input.IsAvailable != nil {
		room.IsAvailable = *input.IsAvailable
	}

	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	room, err = s.rooms.CreateRoom(ctx, room)
	if err != nil {
		err = mapRoomRepoError(err, 0)
		return
	}
	return
}

// UpdateRoom overwrites every attribute of an existing room for
// administrators. IsAvailable is kept when not supplied.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if err = RequireRole(params.Principal, RoleAdmin); err != nil {
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	var existing Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err, params.RoomID)
		return
	}

	input := normalizeRoomInput(params.Input)
	if vErr := validateRoomInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = input.Name
	updated.Location = input.Location
	updated.Capacity = input.Capacity
	updated.Description = input.Description
	updated.Amenities = input.Amenities
	if input.IsAvailable != nil {
		updated.IsAvailable = *input.IsAvailable
	}

	room, err = s.rooms.UpdateRoom(ctx, updated)
	if err != nil {
		err = mapRoomRepoError(err, params.RoomID)
		return
	}
	return
}

// DeleteRoom physically removes a room when requested by an administrator.
// Bookings of the room are not touched.
func (s *RoomService) DeleteRoom(ctx context.Context, principal Principal, roomID int64) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	if err := RequireRole(principal, RoleAdmin); err != nil {
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err, roomID)
		logger.ErrorContext(ctx, "failed to delete room", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// GetRoom returns a single room. The catalog is public.
func (s *RoomService) GetRoom(ctx context.Context, roomID int64) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, mapRoomRepoError(err, roomID)
	}
	return room, nil
}

// ListRooms returns the catalog ordered by id.
func (s *RoomService) ListRooms(ctx context.Context) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "rooms listed")
	}()

	rooms, err = s.rooms.ListRooms(ctx)
	return
}

// ListAvailable returns rooms flagged available that have no active booking
// overlapping [start, end).
func (s *RoomService) ListAvailable(ctx context.Context, start, end time.Time) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListAvailable", "start", start, "end", end)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list available rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).DebugContext(ctx, "available rooms listed")
	}()

	if vErr := validateInterval(start, end); vErr.HasErrors() {
		err = vErr
		return
	}

	var all []Room
	all, err = s.ListRooms(ctx)
	if err != nil {
		return
	}

	for _, room := range all {
		if !room.IsAvailable {
			continue
		}
		if s.availability != nil {
			var free bool
			free, err = s.availability.IsAvailable(ctx, room.ID, start, end)
			if err != nil {
				return nil, err
			}
			if !free {
				continue
			}
		}
		rooms = append(rooms, room)
	}
	return
}

func normalizeRoomInput(input RoomInput) RoomInput {
	normalized := RoomInput{
		Name:        strings.TrimSpace(input.Name),
		Location:    strings.TrimSpace(input.Location),
		Capacity:    input.Capacity,
		Description: strings.TrimSpace(input.Description),
		IsAvailable: input.IsAvailable,
	}
	seen := make(map[string]struct{}, len(input.Amenities))
	for _, amenity := range input.Amenities {
		amenity = strings.TrimSpace(amenity)
		if amenity == "" {
			continue
		}
		if _, dup := seen[amenity]; dup {
			continue
		}
		seen[amenity] = struct{}{}
		normalized.Amenities = append(normalized.Amenities, amenity)
	}
	return normalized
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	}
	if input.Location == "" {
		vErr.add("location", "location is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}

	return vErr
}

func validateInterval(start, end time.Time) *ValidationError {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("startDate", "start date is required")
	}
	if end.IsZero() {
		vErr.add("endDate", "end date is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		vErr.add("endDate", "end date must be after start date")
	}
	return vErr
}

func mapRoomRepoError(err error, roomID int64) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return notFound("Room", roomID)
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
