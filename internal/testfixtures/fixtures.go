package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/persistence"
)

var (
	userCounter    uint64
	roomCounter    uint64
	sessionCounter uint64
)

var referenceTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday at 09:00 UTC.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture is a deterministic account.
type UserFixture struct {
	Login        string
	Name         string
	Role         application.Role
	PasswordHash string
	CreatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a user with a unique login.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		Login:        fmt.Sprintf("user%03d", idx),
		Name:         fmt.Sprintf("User %03d", idx),
		Role:         application.RoleUser,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithLogin overrides the generated login.
func WithLogin(login string) UserOption {
	return func(f *UserFixture) {
		f.Login = login
	}
}

// WithName overrides the generated display name.
func WithName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// AsAdmin grants the Admin role.
func AsAdmin() UserOption {
	return func(f *UserFixture) {
		f.Role = application.RoleAdmin
	}
}

// WithPasswordHash overrides the stored hash.
func WithPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// Persistence returns the fixture as a persistence.User without an id.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		Login:        f.Login,
		PasswordHash: f.PasswordHash,
		Name:         f.Name,
		Role:         string(f.Role),
		CreatedAt:    f.CreatedAt,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture is a deterministic meeting room.
type RoomFixture struct {
	Name        string
	Location    string
	Capacity    int
	Description string
	IsAvailable bool
	Amenities   []string
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns an available room with a unique name.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		Name:        fmt.Sprintf("Room %03d", idx),
		Location:    "Main Office",
		Capacity:    int(4 + idx%4),
		IsAvailable: true,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithCapacity overrides the generated capacity.
func WithCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) {
		f.Capacity = capacity
	}
}

// WithAmenities sets the ordered amenity list.
func WithAmenities(amenities ...string) RoomOption {
	return func(f *RoomFixture) {
		f.Amenities = append([]string(nil), amenities...)
	}
}

// Unavailable clears the administrative availability flag.
func Unavailable() RoomOption {
	return func(f *RoomFixture) {
		f.IsAvailable = false
	}
}

// Persistence returns the fixture as a persistence.Room without an id.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		Name:        f.Name,
		Location:    f.Location,
		Capacity:    f.Capacity,
		Description: f.Description,
		IsAvailable: f.IsAvailable,
		Amenities:   append([]string(nil), f.Amenities...),
	}
}

// ---------------------------- Booking fixtures ---------------------------

// BookingFixture is an active booking over [Start, End).
type BookingFixture struct {
	RoomID      int64
	UserID      int64
	Start       time.Time
	End         time.Time
	Title       string
	Description string
	CreatedAt   time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a one hour booking of roomID by userID starting
// at ReferenceTime.
func NewBookingFixture(roomID, userID int64, opts ...BookingOption) BookingFixture {
	fixture := BookingFixture{
		RoomID:    roomID,
		UserID:    userID,
		Start:     referenceTime,
		End:       referenceTime.Add(time.Hour),
		Title:     "Team Meeting",
		CreatedAt: referenceTime.Add(-24 * time.Hour),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// Between sets the booked interval.
func Between(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// HoursAfterReference books [ReferenceTime+from, ReferenceTime+to) in hours.
func HoursAfterReference(from, to int) BookingOption {
	return Between(referenceTime.Add(time.Duration(from)*time.Hour), referenceTime.Add(time.Duration(to)*time.Hour))
}

// WithTitle overrides the title.
func WithTitle(title string) BookingOption {
	return func(f *BookingFixture) {
		f.Title = title
	}
}

// Persistence returns the fixture as an active persistence.Booking.
func (f BookingFixture) Persistence() persistence.Booking {
	return persistence.Booking{
		RoomID:      f.RoomID,
		UserID:      f.UserID,
		Start:       f.Start,
		End:         f.End,
		Title:       f.Title,
		Description: f.Description,
		Status:      string(application.BookingStatusActive),
		CreatedAt:   f.CreatedAt,
	}
}

// ---------------------------- Session fixtures ---------------------------

// SessionFixture is an unrevoked session.
type SessionFixture struct {
	ID        string
	UserID    int64
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session for userID valid for eight hours after
// ReferenceTime.
func NewSessionFixture(userID int64, opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    userID,
		Token:     fmt.Sprintf("token-%03d", idx),
		CreatedAt: referenceTime,
		ExpiresAt: referenceTime.Add(application.DefaultSessionTTL),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithToken overrides the generated token.
func WithToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// ExpiringAt overrides the expiry.
func ExpiringAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// Persistence returns the fixture as a persistence.Session.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.CreatedAt,
	}
}
