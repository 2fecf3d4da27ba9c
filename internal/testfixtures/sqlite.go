package testfixtures

import (
	"context"
	"testing"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a private, migrated
// in-memory SQLite database.
type SQLiteHarness struct {
	Storage  *sqlite.Storage
	Users    persistence.UserRepository
	Rooms    persistence.RoomRepository
	Bookings persistence.BookingRepository
	Sessions persistence.SessionRepository
}

// NewSQLiteHarness opens the database and registers its cleanup with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	storage, err := sqlite.Open(context.Background(), migration.InMemoryTestSQLiteConfig(), nil)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	tb.Cleanup(func() { _ = storage.Close() })

	return &SQLiteHarness{
		Storage:  storage,
		Users:    storage.Users,
		Rooms:    storage.Rooms,
		Bookings: storage.Bookings,
		Sessions: storage.Sessions,
	}
}

// CreateUser stores a user fixture and returns the stored record.
func (h *SQLiteHarness) CreateUser(tb testing.TB, opts ...UserOption) persistence.User {
	tb.Helper()
	user, err := h.Users.CreateUser(context.Background(), NewUserFixture(opts...).Persistence())
	if err != nil {
		tb.Fatalf("failed to create user: %v", err)
	}
	return user
}

// CreateRoom stores a room fixture and returns the stored record.
func (h *SQLiteHarness) CreateRoom(tb testing.TB, opts ...RoomOption) persistence.Room {
	tb.Helper()
	room, err := h.Rooms.CreateRoom(context.Background(), NewRoomFixture(opts...).Persistence())
	if err != nil {
		tb.Fatalf("failed to create room: %v", err)
	}
	return room
}

// CreateBooking stores a booking fixture and returns the stored record.
func (h *SQLiteHarness) CreateBooking(tb testing.TB, roomID, userID int64, opts ...BookingOption) persistence.Booking {
	tb.Helper()
	booking, err := h.Bookings.CreateBooking(context.Background(), NewBookingFixture(roomID, userID, opts...).Persistence())
	if err != nil {
		tb.Fatalf("failed to create booking: %v", err)
	}
	return booking
}
