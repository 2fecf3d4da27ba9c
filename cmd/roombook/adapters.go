package main

import (
	"context"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
)

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User, passwordHash string) (application.User, error) {
	stored, err := a.repo.CreateUser(ctx, persistence.User{
		Login:        user.Login,
		PasswordHash: passwordHash,
		Name:         user.Name,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
	})
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id int64) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserCredentialsByLogin(ctx context.Context, login string) (application.UserCredentials, error) {
	stored, err := a.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return application.UserCredentials{}, err
	}
	return application.UserCredentials{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	stored, err := a.repo.CreateRoom(ctx, toPersistenceRoom(room))
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id int64) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	stored, err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room))
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id int64) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type bookingRepositoryAdapter struct {
	repo persistence.BookingRepository
}

func newBookingRepositoryAdapter(repo persistence.BookingRepository) *bookingRepositoryAdapter {
	return &bookingRepositoryAdapter{repo: repo}
}

func (a *bookingRepositoryAdapter) CreateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	stored, err := a.repo.CreateBooking(ctx, toPersistenceBooking(booking))
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) UpdateBooking(ctx context.Context, booking application.Booking) (application.Booking, error) {
	stored, err := a.repo.UpdateBooking(ctx, toPersistenceBooking(booking))
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) GetBooking(ctx context.Context, id int64) (application.Booking, error) {
	stored, err := a.repo.GetBooking(ctx, id)
	if err != nil {
		return application.Booking{}, err
	}
	return toApplicationBooking(stored), nil
}

func (a *bookingRepositoryAdapter) ListBookings(ctx context.Context, filter application.BookingFilter) ([]application.Booking, error) {
	models, err := a.repo.ListBookings(ctx, persistence.BookingFilter{
		RoomID: cloneInt64(filter.RoomID),
		UserID: cloneInt64(filter.UserID),
		Status: string(filter.Status),
	})
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(models), nil
}

func (a *bookingRepositoryAdapter) ListOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]application.Booking, error) {
	models, err := a.repo.ListOverlapping(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}
	return toApplicationBookings(models), nil
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, toPersistenceSession(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, token, revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:        model.ID,
		Login:     model.Login,
		Name:      model.Name,
		Role:      application.Role(model.Role),
		CreatedAt: model.CreatedAt,
	}
}

func toApplicationRoom(model persistence.Room) application.Room {
	return application.Room{
		ID:          model.ID,
		Name:        model.Name,
		Location:    model.Location,
		Capacity:    model.Capacity,
		Description: model.Description,
		IsAvailable: model.IsAvailable,
		Amenities:   append([]string(nil), model.Amenities...),
	}
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:          room.ID,
		Name:        room.Name,
		Location:    room.Location,
		Capacity:    room.Capacity,
		Description: room.Description,
		IsAvailable: room.IsAvailable,
		Amenities:   append([]string(nil), room.Amenities...),
	}
}

func toApplicationBooking(model persistence.Booking) application.Booking {
	return application.Booking{
		ID:          model.ID,
		RoomID:      model.RoomID,
		UserID:      model.UserID,
		Start:       model.Start,
		End:         model.End,
		Title:       model.Title,
		Description: model.Description,
		Status:      application.BookingStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		CancelledAt: cloneTime(model.CancelledAt),
	}
}

func toApplicationBookings(models []persistence.Booking) []application.Booking {
	bookings := make([]application.Booking, 0, len(models))
	for _, model := range models {
		bookings = append(bookings, toApplicationBooking(model))
	}
	return bookings
}

func toPersistenceBooking(booking application.Booking) persistence.Booking {
	return persistence.Booking{
		ID:          booking.ID,
		RoomID:      booking.RoomID,
		UserID:      booking.UserID,
		Start:       booking.Start,
		End:         booking.End,
		Title:       booking.Title,
		Description: booking.Description,
		Status:      string(booking.Status),
		CreatedAt:   booking.CreatedAt,
		CancelledAt: cloneTime(booking.CancelledAt),
	}
}

func toApplicationSession(model persistence.Session) application.Session {
	return application.Session{
		ID:        model.ID,
		UserID:    model.UserID,
		Token:     model.Token,
		ExpiresAt: model.ExpiresAt,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		RevokedAt: cloneTime(model.RevokedAt),
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: cloneTime(session.RevokedAt),
	}
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}
