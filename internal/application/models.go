package application

import "time"

// Role is the authorization level of a user.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID int64
	Login  string
	Name   string
	Role   Role
}

// IsAdmin reports whether the principal holds the Admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authenticated reports whether the principal was resolved from a session.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// User is an account exposed by the application services. The password hash
// never leaves the credential store.
type User struct {
	ID        int64
	Login     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

// Principal returns the identity carried by sessions issued to u.
func (u User) Principal() Principal {
	return Principal{UserID: u.ID, Login: u.Login, Name: u.Name, Role: u.Role}
}

// UserCredentials pairs a user with its stored password hash.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// RegisterUserParams captures the data supplied on self registration.
type RegisterUserParams struct {
	Login    string
	Password string
	Name     string
}

// Room is a catalog entry for a physical meeting room.
type Room struct {
	ID          int64
	Name        string
	Location    string
	Capacity    int
	Description string
	IsAvailable bool
	Amenities   []string
}

// RoomInput captures caller provided room fields. A nil IsAvailable means
// true on create and unchanged on update.
type RoomInput struct {
	Name        string
	Location    string
	Capacity    int
	Description string
	IsAvailable *bool
	Amenities   []string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    int64
	Input     RoomInput
}

// BookingStatus is the lifecycle state of a booking. Active bookings may move
// to Cancelled; Cancelled is terminal.
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a reservation of a room over the half-open interval [Start, End).
type Booking struct {
	ID          int64
	RoomID      int64
	UserID      int64
	Start       time.Time
	End         time.Time
	Title       string
	Description string
	Status      BookingStatus
	CreatedAt   time.Time
	CancelledAt *time.Time
}

// IsActive reports whether the booking still holds its room.
func (b Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

// BookingInput captures caller provided booking fields. A zero UserID means
// the calling principal on create and the current owner on update. A zero
// RoomID on update keeps the current room.
type BookingInput struct {
	RoomID      int64
	UserID      int64
	Start       time.Time
	End         time.Time
	Title       string
	Description string
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// UpdateBookingParams wraps the data required to update a booking.
type UpdateBookingParams struct {
	Principal Principal
	BookingID int64
	Input     BookingInput
}

// BookingStatusFilter selects bookings by status in the administrative
// listing. The empty filter and "all" both match every booking.
type BookingStatusFilter string

const (
	BookingFilterAll       BookingStatusFilter = "all"
	BookingFilterActive    BookingStatusFilter = "active"
	BookingFilterCancelled BookingStatusFilter = "cancelled"
)

// ListBookingsParams wraps the data required for the administrative listing.
type ListBookingsParams struct {
	Principal Principal
	Status    BookingStatusFilter
}

// BookingFilter narrows repository booking queries. Zero values match
// everything.
type BookingFilter struct {
	RoomID *int64
	UserID *int64
	Status BookingStatus
}

// Session is an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// LoginParams captures the data required to authenticate a user.
type LoginParams struct {
	Login    string
	Password string
}

// LoginResult captures the outcome of a successful login.
type LoginResult struct {
	User    User
	Session Session
}

// ValidatedSession is the outcome of resolving a session token. Renewed is set
// when the expiry was pushed forward and the client should receive a fresh
// cookie.
type ValidatedSession struct {
	Principal Principal
	Session   Session
	Renewed   bool
}
