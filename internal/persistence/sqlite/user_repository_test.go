package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

func newUser(login string) persistence.User {
	return persistence.User{
		Login:        login,
		PasswordHash: "hash-" + login,
		Name:         "User " + login,
		Role:         "User",
		CreatedAt:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_CreateAssignsSequentialIDs(t *testing.T) {
	repo := newTestStorage(t).Users
	ctx := context.Background()

	first, err := repo.CreateUser(ctx, newUser("alice"))
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	second, err := repo.CreateUser(ctx, newUser("bob"))
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}

	got, err := repo.GetUser(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got.Login != "bob" || got.Name != "User bob" || got.Role != "User" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !got.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("expected created_at %v, got %v", second.CreatedAt, got.CreatedAt)
	}
}

func TestUserRepository_DuplicateLogin(t *testing.T) {
	repo := newTestStorage(t).Users
	ctx := context.Background()

	if _, err := repo.CreateUser(ctx, newUser("alice")); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	_, err := repo.CreateUser(ctx, newUser("alice"))
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserRepository_RejectsUnknownRole(t *testing.T) {
	repo := newTestStorage(t).Users
	user := newUser("carol")
	user.Role = "Owner"

	_, err := repo.CreateUser(context.Background(), user)
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}

func TestUserRepository_Lookups(t *testing.T) {
	repo := newTestStorage(t).Users
	ctx := context.Background()

	for _, login := range []string{"alice", "bob"} {
		if _, err := repo.CreateUser(ctx, newUser(login)); err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", login, err)
		}
	}

	t.Run("by login", func(t *testing.T) {
		got, err := repo.GetUserByLogin(ctx, " bob ")
		if err != nil {
			t.Fatalf("GetUserByLogin failed: %v", err)
		}
		if got.ID != 2 {
			t.Fatalf("expected id 2, got %d", got.ID)
		}
	})

	t.Run("unknown login", func(t *testing.T) {
		if _, err := repo.GetUserByLogin(ctx, "nobody"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := repo.GetUser(ctx, 99); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("list and count", func(t *testing.T) {
		users, err := repo.ListUsers(ctx)
		if err != nil {
			t.Fatalf("ListUsers failed: %v", err)
		}
		if len(users) != 2 || users[0].Login != "alice" || users[1].Login != "bob" {
			t.Fatalf("unexpected users: %+v", users)
		}
		count, err := repo.CountUsers(ctx)
		if err != nil {
			t.Fatalf("CountUsers failed: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected count 2, got %d", count)
		}
	})
}
