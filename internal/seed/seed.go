// Package seed loads demo users, rooms and bookings into an empty database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/room-booking/internal/persistence"
)

//go:embed default.yaml
var defaultData []byte

// Data is the seed document.
type Data struct {
	Users    []User    `yaml:"users"`
	Rooms    []Room    `yaml:"rooms"`
	Bookings []Booking `yaml:"bookings"`
}

// User is a seeded account with a plain-text password that is hashed on load.
type User struct {
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
}

// Room is a seeded catalog entry. Available defaults to true.
type Room struct {
	Name        string   `yaml:"name"`
	Location    string   `yaml:"location"`
	Capacity    int      `yaml:"capacity"`
	Description string   `yaml:"description"`
	Available   *bool    `yaml:"available"`
	Amenities   []string `yaml:"amenities"`
}

// Booking references its room by name and its owner by login. Times are
// wall-clock "HH:MM" on the day DayOffset days after the load date.
type Booking struct {
	Room        string `yaml:"room"`
	User        string `yaml:"user"`
	DayOffset   int    `yaml:"day_offset"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Default returns the built-in seed document.
func Default() (Data, error) {
	return Parse(defaultData)
}

// LoadFile reads a seed document from disk.
func LoadFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a seed document.
func Parse(raw []byte) (Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("failed to parse seed data: %w", err)
	}
	return data, nil
}

// Hasher hashes seeded passwords.
type Hasher interface {
	Hash(password string) (string, error)
}

// Store is the persistence surface the seeder writes through.
type Store struct {
	Users    persistence.UserRepository
	Rooms    persistence.RoomRepository
	Bookings persistence.BookingRepository
}

// Seeder writes a seed document into an empty store.
type Seeder struct {
	store    Store
	hasher   Hasher
	now      func() time.Time
	location *time.Location
	logger   *slog.Logger
}

// NewSeeder constructs a seeder. Booking days are computed from now in loc.
func NewSeeder(store Store, hasher Hasher, now func() time.Time, loc *time.Location, logger *slog.Logger) *Seeder {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, hasher: hasher, now: now, location: loc, logger: logger}
}

// Apply loads data when the store holds no users. It reports whether anything
// was written.
func (s *Seeder) Apply(ctx context.Context, data Data) (bool, error) {
	count, err := s.store.Users.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		s.logger.DebugContext(ctx, "database already populated; skipping seed", "users", count)
		return false, nil
	}

	userIDs := make(map[string]int64, len(data.Users))
	for _, u := range data.Users {
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return false, fmt.Errorf("failed to hash password for %s: %w", u.Login, err)
		}
		role := u.Role
		if role == "" {
			role = "User"
		}
		created, err := s.store.Users.CreateUser(ctx, persistence.User{
			Login:        u.Login,
			PasswordHash: hash,
			Name:         u.Name,
			Role:         role,
			CreatedAt:    s.now().UTC(),
		})
		if err != nil {
			return false, fmt.Errorf("failed to seed user %s: %w", u.Login, err)
		}
		userIDs[u.Login] = created.ID
	}

	roomIDs := make(map[string]int64, len(data.Rooms))
	for _, r := range data.Rooms {
		available := true
		if r.Available != nil {
			available = *r.Available
		}
		created, err := s.store.Rooms.CreateRoom(ctx, persistence.Room{
			Name:        r.Name,
			Location:    r.Location,
			Capacity:    r.Capacity,
			Description: r.Description,
			IsAvailable: available,
			Amenities:   r.Amenities,
		})
		if err != nil {
			return false, fmt.Errorf("failed to seed room %s: %w", r.Name, err)
		}
		roomIDs[r.Name] = created.ID
	}

	today := s.now().In(s.location)
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.location)
	for i, b := range data.Bookings {
		roomID, ok := roomIDs[b.Room]
		if !ok {
			return false, fmt.Errorf("seed booking %d: unknown room %q", i+1, b.Room)
		}
		userID, ok := userIDs[b.User]
		if !ok {
			return false, fmt.Errorf("seed booking %d: unknown user %q", i+1, b.User)
		}
		day := midnight.AddDate(0, 0, b.DayOffset)
		start, err := clockOn(day, b.Start)
		if err != nil {
			return false, fmt.Errorf("seed booking %d: %w", i+1, err)
		}
		end, err := clockOn(day, b.End)
		if err != nil {
			return false, fmt.Errorf("seed booking %d: %w", i+1, err)
		}
		if _, err := s.store.Bookings.CreateBooking(ctx, persistence.Booking{
			RoomID:      roomID,
			UserID:      userID,
			Start:       start,
			End:         end,
			Title:       b.Title,
			Description: b.Description,
			CreatedAt:   s.now().UTC(),
		}); err != nil {
			return false, fmt.Errorf("failed to seed booking %d: %w", i+1, err)
		}
	}

	s.logger.InfoContext(ctx, "seeded database",
		"users", len(data.Users),
		"rooms", len(data.Rooms),
		"bookings", len(data.Bookings),
	)
	return true, nil
}

func clockOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
