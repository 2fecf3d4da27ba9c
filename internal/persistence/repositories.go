package persistence

import (
	"context"
	"time"
)

// UserRepository stores user accounts. Identifiers are assigned on insert.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByLogin(ctx context.Context, login string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id int64) error
}

// BookingFilter narrows booking queries. Zero values match everything.
type BookingFilter struct {
	RoomID *int64
	UserID *int64
	Status string
}

// BookingRepository stores bookings. Cancelled bookings are kept.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	UpdateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id int64) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
	// ListOverlapping returns active bookings of the room whose interval
	// intersects [start, end).
	ListOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]Booking, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
