package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is the lifetime of a freshly issued session.
const DefaultSessionTTL = 8 * time.Hour

// UserDirectory exposes the user operations required by the auth service.
type UserDirectory interface {
	Validate(ctx context.Context, login, password string) (User, error)
	Get(ctx context.Context, id int64) (User, error)
}

// SessionRepository captures the persistence interactions for issued sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// AuthService coordinates login, logout and session validation.
type AuthService struct {
	users          UserDirectory
	sessions       SessionRepository
	tokenGenerator func() string
	idGenerator    func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(users UserDirectory, sessions SessionRepository, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(users, sessions, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService with a specified logger.
func NewAuthServiceWithLogger(users UserDirectory, sessions SessionRepository, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if tokenGenerator == nil {
		tokenGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		tokenGenerator: tokenGenerator,
		idGenerator:    uuid.NewString,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

// SessionTTL returns the lifetime granted to new and renewed sessions.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready() error {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	if s.users == nil {
		return fmt.Errorf("user directory not configured")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}
	return nil
}

// Login validates credentials and issues a new session.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (result LoginResult, err error) {
	if err = s.ready(); err != nil {
		return
	}

	login := strings.TrimSpace(params.Login)
	logger := s.loggerWith(ctx, "Login", "login", login)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"user_id", result.User.ID,
			"session_id", result.Session.ID,
		).InfoContext(ctx, "login succeeded")
	}()

	if login == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user User
	user, err = s.users.Validate(ctx, login, params.Password)
	if err != nil {
		return
	}

	now := s.now()
	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		return
	}

	var session Session
	session, err = s.sessions.CreateSession(ctx, Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	})
	if err != nil {
		return
	}

	result = LoginResult{User: user, Session: session}
	return
}

// Logout revokes the session identified by token. Unknown or already revoked
// tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.ready(); err != nil {
		return err
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "Logout", "token_provided", trimmed != "")
	if trimmed == "" {
		logger.DebugContext(ctx, "logout without session")
		return nil
	}

	now := s.now()
	if _, err := s.sessions.RevokeSession(ctx, trimmed, now); err != nil && !isNotFound(err) {
		logger.ErrorContext(ctx, "failed to revoke session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		logger.ErrorContext(ctx, "failed to prune expired sessions", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "session revoked")
	return nil
}

// ValidateSession resolves token to its principal. A session whose remaining
// lifetime has dropped below half of the TTL is extended and reported as
// renewed.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (result ValidatedSession, err error) {
	if err = s.ready(); err != nil {
		return
	}

	trimmed := strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", trimmed != "")
	defer func() {
		if err != nil {
			logger.WarnContext(ctx, "session validation failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"principal_id", result.Principal.UserID,
			"renewed", result.Renewed,
		).DebugContext(ctx, "session validated")
	}()

	if trimmed == "" {
		err = ErrUnauthenticated
		return
	}

	var session Session
	session, err = s.sessions.GetSession(ctx, trimmed)
	if err != nil {
		if isNotFound(err) {
			err = ErrUnauthenticated
		}
		return
	}

	now := s.now()
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var user User
	user, err = s.users.Get(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrUnauthenticated
		}
		return
	}

	renewed := false
	if session.ExpiresAt.Sub(now) < s.sessionTTL/2 {
		session.ExpiresAt = now.Add(s.sessionTTL)
		session.UpdatedAt = now
		session, err = s.sessions.UpdateSession(ctx, session)
		if err != nil {
			return
		}
		renewed = true
	}

	result = ValidatedSession{Principal: user.Principal(), Session: session, Renewed: renewed}
	return
}
