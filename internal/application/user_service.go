package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/room-booking/internal/persistence"
)

const (
	maxLoginLength    = 64
	maxNameLength     = 128
	minPasswordLength = 6
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user User, passwordHash string) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserCredentialsByLogin(ctx context.Context, login string) (UserCredentials, error)
}

// Hasher creates and verifies password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}

// UserInput captures the attributes of a new account.
type UserInput struct {
	Login    string
	Password string
	Name     string
	Role     Role
}

// UserService is the user directory: it registers accounts, resolves users
// and validates credentials.
type UserService struct {
	users  UserRepository
	hasher Hasher
	now    func() time.Time
	logger *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hasher Hasher, now func() time.Time) *UserService {
	return NewUserServiceWithLogger(users, hasher, now, nil)
}

// NewUserServiceWithLogger wires dependencies for the user service with a
// specified logger.
func NewUserServiceWithLogger(users UserRepository, hasher Hasher, now func() time.Time, logger *slog.Logger) *UserService {
	if hasher == nil {
		hasher, _ = NewPasswordHasher(PasswordSchemeArgon2id)
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hasher: hasher, now: now, logger: defaultLogger(logger)}
}

func (s *UserService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "UserService", operation, attrs...)
}

// Register creates a self-service account. The role is always User.
func (s *UserService) Register(ctx context.Context, params RegisterUserParams) (User, error) {
	return s.Create(ctx, UserInput{
		Login:    params.Login,
		Password: params.Password,
		Name:     params.Name,
		Role:     RoleUser,
	})
}

// Create validates input, rejects taken logins and persists a new user with
// a hashed password.
func (s *UserService) Create(ctx context.Context, input UserInput) (user User, err error) {
	if s == nil {
		err = fmt.Errorf("UserService is nil")
		return
	}
	if s.users == nil {
		err = fmt.Errorf("user repository not configured")
		return
	}

	normalized := normalizeUserInput(input)
	logger := s.loggerWith(ctx, "Create", "login", normalized.Login, "role", normalized.Role)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", user.ID).InfoContext(ctx, "user created")
	}()

	if vErr := validateUserInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	_, lookupErr := s.users.GetUserCredentialsByLogin(ctx, normalized.Login)
	switch {
	case lookupErr == nil:
		err = ErrAlreadyExists
		return
	case !isNotFound(lookupErr):
		err = lookupErr
		return
	}

	var hash string
	hash, err = s.hasher.Hash(normalized.Password)
	if err != nil {
		err = fmt.Errorf("failed to hash password: %w", err)
		return
	}

	user, err = s.users.CreateUser(ctx, User{
		Login:     normalized.Login,
		Name:      normalized.Name,
		Role:      normalized.Role,
		CreatedAt: s.now(),
	}, hash)
	if err != nil {
		err = mapUserRepoError(err)
		return
	}
	return
}

// Get resolves a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return User{}, notFound("User", id)
		}
		return User{}, err
	}
	return user, nil
}

// GetByLogin resolves a user by login.
func (s *UserService) GetByLogin(ctx context.Context, login string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}
	creds, err := s.users.GetUserCredentialsByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if isNotFound(err) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	return creds.User, nil
}

// Validate checks a login/password pair. Any mismatch, including an unknown
// login, yields ErrInvalidCredentials.
func (s *UserService) Validate(ctx context.Context, login, password string) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	if s.users == nil {
		return User{}, fmt.Errorf("user repository not configured")
	}

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	creds, err := s.users.GetUserCredentialsByLogin(ctx, login)
	if err != nil {
		if isNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}

	if err := s.hasher.Verify(creds.PasswordHash, password); err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			s.loggerWith(ctx, "Validate", "user_id", creds.User.ID).
				WarnContext(ctx, "stored password hash could not be verified", "error", err)
		}
		return User{}, ErrInvalidCredentials
	}
	return creds.User, nil
}

func normalizeUserInput(input UserInput) UserInput {
	role := input.Role
	if role == "" {
		role = RoleUser
	}
	return UserInput{
		Login:    strings.TrimSpace(input.Login),
		Password: input.Password,
		Name:     strings.TrimSpace(input.Name),
		Role:     role,
	}
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case input.Login == "":
		vErr.add("login", "login is required")
	case utf8.RuneCountInString(input.Login) > maxLoginLength:
		vErr.add("login", fmt.Sprintf("login must be at most %d characters", maxLoginLength))
	case strings.ContainsAny(input.Login, " \t\r\n"):
		vErr.add("login", "login must not contain whitespace")
	}

	if input.Password == "" {
		vErr.add("password", "password is required")
	} else if utf8.RuneCountInString(input.Password) < minPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if input.Name == "" {
		vErr.add("name", "name is required")
	} else if utf8.RuneCountInString(input.Name) > maxNameLength {
		vErr.add("name", fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}

	if !input.Role.Valid() {
		vErr.add("role", "role must be User or Admin")
	}

	return vErr
}

func mapUserRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if isNotFound(err) {
		return ErrNotFound
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
