package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-booking/internal/booking"
	"github.com/example/room-booking/internal/persistence"
)

// Messages surfaced to clients for booking validation failures.
const (
	MessageUserNotFound     = "User not found"
	MessageRoomNotFound     = "Room not found"
	MessageRoomUnavailable  = "Room is not available for the selected time period"
	maxBookingTitleLength   = 200
	maxBookingDetailsLength = 2000
)

// BookingRepository captures the persistence operations needed by the ledger.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	UpdateBooking(ctx context.Context, b Booking) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	ListOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]Booking, error)
}

// UserLookup resolves users referenced by bookings.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (User, error)
}

// RoomLookup resolves rooms referenced by bookings.
type RoomLookup interface {
	GetRoom(ctx context.Context, id int64) (Room, error)
}

// BookingService is the booking ledger. It validates references, enforces
// that active bookings of a room never overlap, and gates mutations on
// ownership. Check-then-write sequences are serialized per room.
type BookingService struct {
	bookings BookingRepository
	users    UserLookup
	rooms    RoomLookup
	locks    *roomLocks
	now      func() time.Time
	logger   *slog.Logger
}

// NewBookingService constructs the ledger with the provided dependencies.
func NewBookingService(bookings BookingRepository, users UserLookup, rooms RoomLookup, now func() time.Time) *BookingService {
	return NewBookingServiceWithLogger(bookings, users, rooms, now, nil)
}

// NewBookingServiceWithLogger constructs the ledger with a specified logger.
func NewBookingServiceWithLogger(bookings BookingRepository, users UserLookup, rooms RoomLookup, now func() time.Time, logger *slog.Logger) *BookingService {
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings: bookings,
		users:    users,
		rooms:    rooms,
		locks:    newRoomLocks(),
		now:      now,
		logger:   defaultLogger(logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.bookings == nil {
		return fmt.Errorf("booking repository not configured")
	}
	return nil
}

// ListAll returns every booking, cancelled ones included, for administrators.
// The status filter narrows the result.
func (s *BookingService) ListAll(ctx context.Context, params ListBookingsParams) (bookings []Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListAll",
		"principal_id", params.Principal.UserID,
		"status", params.Status,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).InfoContext(ctx, "bookings listed")
	}()

	if err = RequireRole(params.Principal, RoleAdmin); err != nil {
		return
	}

	filter := BookingFilter{}
	switch BookingStatusFilter(strings.ToLower(strings.TrimSpace(string(params.Status)))) {
	case "", BookingFilterAll:
	case BookingFilterActive:
		filter.Status = BookingStatusActive
	case BookingFilterCancelled:
		filter.Status = BookingStatusCancelled
	default:
		err = fieldError("", "status", "status must be one of all, active, cancelled")
		return
	}

	bookings, err = s.bookings.ListBookings(ctx, filter)
	return
}

// ListForUser returns the active bookings owned by userID. Only the owner and
// administrators may list them.
func (s *BookingService) ListForUser(ctx context.Context, principal Principal, userID int64) (bookings []Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListForUser",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list user bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).DebugContext(ctx, "user bookings listed")
	}()

	if err = RequireOwnerOrAdmin(principal, userID); err != nil {
		return
	}

	bookings, err = s.bookings.ListBookings(ctx, BookingFilter{UserID: &userID, Status: BookingStatusActive})
	return
}

// ListForRoom returns the active bookings of roomID for any signed-in user.
func (s *BookingService) ListForRoom(ctx context.Context, principal Principal, roomID int64) (bookings []Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "ListForRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list room bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(bookings)).DebugContext(ctx, "room bookings listed")
	}()

	if err = RequireAuthenticated(principal); err != nil {
		return
	}

	bookings, err = s.bookings.ListBookings(ctx, BookingFilter{RoomID: &roomID, Status: BookingStatusActive})
	return
}

// Get returns an active booking. Cancelled bookings are reported as not found.
func (s *BookingService) Get(ctx context.Context, principal Principal, id int64) (Booking, error) {
	if err := s.ready(); err != nil {
		return Booking{}, err
	}
	if err := RequireAuthenticated(principal); err != nil {
		return Booking{}, err
	}
	return s.activeBooking(ctx, id)
}

// IsAvailable reports whether roomID exists and no active booking of it
// overlaps [start, end).
func (s *BookingService) IsAvailable(ctx context.Context, roomID int64, start, end time.Time) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if vErr := validateInterval(start, end); vErr.HasErrors() {
		return false, vErr
	}

	if err := s.ensureRoom(ctx, roomID); err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return false, nil
		}
		return false, err
	}

	conflicts, err := s.conflicts(ctx, roomID, start, end, 0)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Create validates and stores a new active booking. A non-admin principal may
// only book for itself.
func (s *BookingService) Create(ctx context.Context, params CreateBookingParams) (created Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	principal := params.Principal
	input := normalizeBookingInput(params.Input)
	if input.UserID == 0 {
		input.UserID = principal.UserID
	}

	logger := s.loggerWith(ctx, "Create",
		"principal_id", principal.UserID,
		"room_id", input.RoomID,
		"user_id", input.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booking_id", created.ID).InfoContext(ctx, "booking created")
	}()

	if err = RequireAuthenticated(principal); err != nil {
		return
	}
	if vErr := validateBookingInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if input.UserID != principal.UserID && !principal.IsAdmin() {
		err = ErrForbidden
		return
	}
	if err = s.ensureUser(ctx, input.UserID); err != nil {
		return
	}
	if err = s.ensureRoom(ctx, input.RoomID); err != nil {
		return
	}

	unlock := s.locks.Lock(input.RoomID)
	defer unlock()

	if err = s.checkAvailability(ctx, input.RoomID, input.Start, input.End, 0); err != nil {
		return
	}

	created, err = s.bookings.CreateBooking(ctx, Booking{
		RoomID:      input.RoomID,
		UserID:      input.UserID,
		Start:       input.Start,
		End:         input.End,
		Title:       input.Title,
		Description: input.Description,
		Status:      BookingStatusActive,
		CreatedAt:   s.now(),
	})
	if err != nil {
		err = mapBookingRepoError(err, 0)
	}
	return
}

// Update overwrites the room, owner, interval, title and description of an
// active booking. Availability is re-checked when the room or interval
// changes, ignoring the booking's own current interval.
func (s *BookingService) Update(ctx context.Context, params UpdateBookingParams) (updated Booking, err error) {
	if err = s.ready(); err != nil {
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "Update",
		"principal_id", principal.UserID,
		"booking_id", params.BookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", updated.RoomID).InfoContext(ctx, "booking updated")
	}()

	if err = RequireAuthenticated(principal); err != nil {
		return
	}

	var existing Booking
	existing, err = s.activeBooking(ctx, params.BookingID)
	if err != nil {
		return
	}
	if err = RequireOwnerOrAdmin(principal, existing.UserID); err != nil {
		return
	}

	input := normalizeBookingInput(params.Input)
	if input.RoomID == 0 {
		input.RoomID = existing.RoomID
	}
	if input.UserID == 0 {
		input.UserID = existing.UserID
	}
	if vErr := validateBookingInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if input.UserID != existing.UserID && !principal.IsAdmin() {
		err = ErrForbidden
		return
	}
	if input.UserID != existing.UserID {
		if err = s.ensureUser(ctx, input.UserID); err != nil {
			return
		}
	}
	if input.RoomID != existing.RoomID {
		if err = s.ensureRoom(ctx, input.RoomID); err != nil {
			return
		}
	}

	unlock := s.locks.Lock(existing.RoomID, input.RoomID)
	defer unlock()

	// Re-read under the lock: a concurrent cancel may have won.
	existing, err = s.activeBooking(ctx, params.BookingID)
	if err != nil {
		return
	}

	moved := input.RoomID != existing.RoomID || !input.Start.Equal(existing.Start) || !input.End.Equal(existing.End)
	if moved {
		if err = s.checkAvailability(ctx, input.RoomID, input.Start, input.End, existing.ID); err != nil {
			return
		}
	}

	next := existing
	next.RoomID = input.RoomID
	next.UserID = input.UserID
	next.Start = input.Start
	next.End = input.End
	next.Title = input.Title
	next.Description = input.Description

	updated, err = s.bookings.UpdateBooking(ctx, next)
	if err != nil {
		err = mapBookingRepoError(err, existing.ID)
	}
	return
}

// Cancel soft-deletes an active booking. The record stays in storage with
// status cancelled and no longer blocks its room.
func (s *BookingService) Cancel(ctx context.Context, principal Principal, id int64) (err error) {
	if err = s.ready(); err != nil {
		return
	}

	logger := s.loggerWith(ctx, "Cancel",
		"principal_id", principal.UserID,
		"booking_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled")
	}()

	if err = RequireAuthenticated(principal); err != nil {
		return
	}

	var existing Booking
	existing, err = s.activeBooking(ctx, id)
	if err != nil {
		return
	}
	if err = RequireOwnerOrAdmin(principal, existing.UserID); err != nil {
		return
	}

	unlock := s.locks.Lock(existing.RoomID)
	defer unlock()

	existing, err = s.activeBooking(ctx, id)
	if err != nil {
		return
	}

	cancelledAt := s.now()
	existing.Status = BookingStatusCancelled
	existing.CancelledAt = &cancelledAt
	if _, err = s.bookings.UpdateBooking(ctx, existing); err != nil {
		err = mapBookingRepoError(err, id)
	}
	return
}

func (s *BookingService) activeBooking(ctx context.Context, id int64) (Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return Booking{}, mapBookingRepoError(err, id)
	}
	if !b.IsActive() {
		return Booking{}, notFound("Booking", id)
	}
	return b, nil
}

func (s *BookingService) ensureUser(ctx context.Context, userID int64) error {
	if s.users == nil {
		return nil
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if isNotFound(err) {
			return fieldError(MessageUserNotFound, "userId", "user does not exist")
		}
		return err
	}
	return nil
}

func (s *BookingService) ensureRoom(ctx context.Context, roomID int64) error {
	if s.rooms == nil {
		return nil
	}
	if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
		if isNotFound(err) {
			return fieldError(MessageRoomNotFound, "roomId", "room does not exist")
		}
		return err
	}
	return nil
}

func (s *BookingService) conflicts(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) ([]booking.Conflict, error) {
	overlapping, err := s.bookings.ListOverlapping(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}

	existing := make([]booking.Reservation, 0, len(overlapping))
	for _, b := range overlapping {
		if !b.IsActive() {
			continue
		}
		existing = append(existing, booking.Reservation{
			ID:       b.ID,
			RoomID:   b.RoomID,
			Interval: booking.Interval{Start: b.Start, End: b.End},
		})
	}

	return booking.DetectConflicts(existing, booking.Reservation{
		ID:       excludeID,
		RoomID:   roomID,
		Interval: booking.Interval{Start: start, End: end},
	}), nil
}

func (s *BookingService) checkAvailability(ctx context.Context, roomID int64, start, end time.Time, excludeID int64) error {
	conflicts, err := s.conflicts(ctx, roomID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.WithBookingID)
	}
	return &ConflictError{RoomID: roomID, ConflictingIDs: ids}
}

func normalizeBookingInput(input BookingInput) BookingInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	return input
}

func validateBookingInput(input BookingInput) *ValidationError {
	vErr := validateInterval(input.Start, input.End)
	if input.RoomID <= 0 {
		vErr.add("roomId", "room id is required")
	}
	if input.UserID <= 0 {
		vErr.add("userId", "user id is required")
	}
	if len(input.Title) > maxBookingTitleLength {
		vErr.add("title", fmt.Sprintf("title must be at most %d characters", maxBookingTitleLength))
	}
	if len(input.Description) > maxBookingDetailsLength {
		vErr.add("description", fmt.Sprintf("description must be at most %d characters", maxBookingDetailsLength))
	}
	return vErr
}

func mapBookingRepoError(err error, bookingID int64) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return notFound("Booking", bookingID)
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return fieldError(MessageUserNotFound, "userId", "user does not exist")
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("", "endDate", "end date must be after start date")
	}
	return err
}
