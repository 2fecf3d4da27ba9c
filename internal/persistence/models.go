package persistence

import "time"

// User represents an account that can sign in and own bookings.
type User struct {
	ID           int64
	Login        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}

// Room represents a bookable meeting room.
type Room struct {
	ID          int64
	Name        string
	Location    string
	Capacity    int
	Description string
	IsAvailable bool
	Amenities   []string
}

// Booking represents a reservation of a room for a half-open time interval.
type Booking struct {
	ID          int64
	RoomID      int64
	UserID      int64
	Start       time.Time
	End         time.Time
	Title       string
	Description string
	Status      string
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
