package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/logging"
)

const sessionCookieName = "session_token"

// SessionValidator resolves a session token to its principal.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (application.ValidatedSession, error)
}

// SessionCookies issues and clears the session cookie.
type SessionCookies struct {
	Secure bool
}

func (c SessionCookies) set(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}

func (c SessionCookies) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireSession rejects requests without a valid session with 401 and
// attaches the principal to the request context otherwise.
func RequireSession(validator SessionValidator, cookies SessionCookies, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				responder.writeMessage(r.Context(), w, http.StatusUnauthorized, messageNotAuthenticated)
				return
			}

			ctx, err := resolveSession(r.Context(), w, validator, cookies, token)
			if err != nil {
				if isSessionRejection(err) {
					responder.writeMessage(r.Context(), w, http.StatusUnauthorized, messageNotAuthenticated)
					return
				}
				responder.handleServiceError(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalSession attaches the principal when a valid session accompanies
// the request and lets anonymous requests through unchanged.
func OptionalSession(validator SessionValidator, cookies SessionCookies, logger *slog.Logger) func(http.Handler) http.Handler {
	base := defaultLogger(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractTokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, err := resolveSession(r.Context(), w, validator, cookies, token)
			if err != nil {
				if !isSessionRejection(err) {
					handlerLogger(r.Context(), base, "OptionalSession", "", "error_kind", application.ErrorKind(err)).
						WarnContext(r.Context(), "session lookup failed; continuing anonymously", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveSession(ctx context.Context, w http.ResponseWriter, validator SessionValidator, cookies SessionCookies, token string) (context.Context, error) {
	validated, err := validator.ValidateSession(ctx, token)
	if err != nil {
		return ctx, err
	}
	if validated.Renewed {
		cookies.set(w, validated.Session.Token, validated.Session.ExpiresAt)
	}
	return ContextWithPrincipal(ctx, validated.Principal), nil
}

func isSessionRejection(err error) bool {
	return errors.Is(err, application.ErrUnauthenticated) ||
		errors.Is(err, application.ErrSessionExpired) ||
		errors.Is(err, application.ErrSessionRevoked) ||
		errors.Is(err, application.ErrInvalidCredentials)
}

func extractTokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// RequestLogger assigns each request an id, installs a request scoped logger
// and logs the outcome.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	base = defaultLogger(base)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			logger := base.With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			)
			ctx := logging.ContextWithLogger(r.Context(), logger)

			recorder := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(recorder, r.WithContext(ctx))

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(ctx, "request completed",
				"status", status,
				"duration", time.Since(start),
			)
		})
	}
}
