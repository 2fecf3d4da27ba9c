package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

type userRepoStub struct {
	users     map[int64]UserCredentials
	nextID    int64
	createErr error
	lookupErr error
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[int64]UserCredentials)}
}

func (r *userRepoStub) CreateUser(ctx context.Context, user User, passwordHash string) (User, error) {
	if r.createErr != nil {
		return User{}, r.createErr
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = UserCredentials{User: user, PasswordHash: passwordHash}
	return user, nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id int64) (User, error) {
	creds, ok := r.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return creds.User, nil
}

func (r *userRepoStub) GetUserCredentialsByLogin(ctx context.Context, login string) (UserCredentials, error) {
	if r.lookupErr != nil {
		return UserCredentials{}, r.lookupErr
	}
	for _, creds := range r.users {
		if creds.User.Login == login {
			return creds, nil
		}
	}
	return UserCredentials{}, persistence.ErrNotFound
}

// plainHasher stores passwords with a marker prefix so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Verify(hashedPassword, password string) error {
	switch {
	case len(hashedPassword) < 6 || hashedPassword[:6] != "plain:":
		return ErrInvalidPasswordHash
	case hashedPassword[6:] != password:
		return ErrInvalidCredentials
	}
	return nil
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("creates users with the User role", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepoStub()
		svc := NewUserService(repo, plainHasher{}, func() time.Time { return now })

		user, err := svc.Register(context.Background(), RegisterUserParams{Login: " alice ", Password: "secret1", Name: " Alice "})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if user.ID != 1 || user.Login != "alice" || user.Name != "Alice" || user.Role != RoleUser {
			t.Fatalf("unexpected user %+v", user)
		}
		if !user.CreatedAt.Equal(now) {
			t.Fatalf("expected injected clock, got %v", user.CreatedAt)
		}
		if repo.users[1].PasswordHash != "plain:secret1" {
			t.Fatalf("expected hashed password to be stored, got %q", repo.users[1].PasswordHash)
		}
	})

	t.Run("rejects taken logins", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepoStub()
		svc := NewUserService(repo, plainHasher{}, nil)
		if _, err := svc.Register(context.Background(), RegisterUserParams{Login: "bob", Password: "secret1", Name: "Bob"}); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		_, err := svc.Register(context.Background(), RegisterUserParams{Login: "bob", Password: "other12", Name: "Bobby"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("maps unique constraint races to ErrAlreadyExists", func(t *testing.T) {
		t.Parallel()

		repo := newUserRepoStub()
		repo.createErr = persistence.ErrDuplicate
		svc := NewUserService(repo, plainHasher{}, nil)

		_, err := svc.Register(context.Background(), RegisterUserParams{Login: "carol", Password: "secret1", Name: "Carol"})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("validates input fields", func(t *testing.T) {
		t.Parallel()

		svc := NewUserService(newUserRepoStub(), plainHasher{}, nil)

		_, err := svc.Register(context.Background(), RegisterUserParams{Login: "has space", Password: "123", Name: ""})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"login", "password", "name"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestUserService_Create(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newUserRepoStub(), plainHasher{}, nil)

	admin, err := svc.Create(context.Background(), UserInput{Login: "admin", Password: "admin123", Name: "Administrator", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if admin.Role != RoleAdmin {
		t.Fatalf("expected Admin role, got %q", admin.Role)
	}

	_, err = svc.Create(context.Background(), UserInput{Login: "root", Password: "admin123", Name: "Root", Role: "Owner"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError for unknown role, got %v", err)
	}
}

func TestUserService_Validate(t *testing.T) {
	t.Parallel()

	repo := newUserRepoStub()
	svc := NewUserService(repo, plainHasher{}, nil)
	registered, err := svc.Register(context.Background(), RegisterUserParams{Login: "user1", Password: "user123", Name: "Regular User"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	repo.users[99] = UserCredentials{User: User{ID: 99, Login: "broken"}, PasswordHash: "garbage"}

	cases := []struct {
		name     string
		login    string
		password string
		want     error
	}{
		{name: "valid", login: "user1", password: "user123"},
		{name: "wrong password", login: "user1", password: "nope", want: ErrInvalidCredentials},
		{name: "unknown login", login: "ghost", password: "user123", want: ErrInvalidCredentials},
		{name: "blank", login: "", password: "", want: ErrInvalidCredentials},
		{name: "malformed hash", login: "broken", password: "user123", want: ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user, err := svc.Validate(context.Background(), tc.login, tc.password)
			if tc.want == nil {
				if err != nil || user.ID != registered.ID {
					t.Fatalf("expected user %d, got %+v (%v)", registered.ID, user, err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUserService_Lookups(t *testing.T) {
	t.Parallel()

	repo := newUserRepoStub()
	svc := NewUserService(repo, plainHasher{}, nil)
	created, err := svc.Register(context.Background(), RegisterUserParams{Login: "dana", Password: "secret1", Name: "Dana"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := svc.Get(context.Background(), created.ID)
	if err != nil || got.Login != "dana" {
		t.Fatalf("unexpected Get result %+v (%v)", got, err)
	}
	byLogin, err := svc.GetByLogin(context.Background(), " dana ")
	if err != nil || byLogin.ID != created.ID {
		t.Fatalf("unexpected GetByLogin result %+v (%v)", byLogin, err)
	}

	var nf *NotFoundError
	if _, err := svc.Get(context.Background(), 404); !errors.As(err, &nf) || nf.Resource != "User" {
		t.Fatalf("expected user NotFoundError, got %v", err)
	}
	if _, err := svc.GetByLogin(context.Background(), "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
