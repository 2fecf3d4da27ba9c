package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/room-booking/internal/application"
)

const (
	messageInvalidCredentials = "Invalid credentials"
	messageLoginTaken         = "User with this login already exists"
	messageLoggedOut          = "Logged out successfully"
	messageUserNotFound       = "User not found"
)

type authService interface {
	Login(ctx context.Context, params application.LoginParams) (application.LoginResult, error)
	Logout(ctx context.Context, token string) error
}

type userRegistry interface {
	Register(ctx context.Context, params application.RegisterUserParams) (application.User, error)
	Get(ctx context.Context, id int64) (application.User, error)
}

// AuthHandler serves login, registration, logout and the current user.
type AuthHandler struct {
	service   authService
	users     userRegistry
	cookies   SessionCookies
	responder responder
	logger    *slog.Logger
}

func NewAuthHandler(service authService, users userRegistry, cookies SessionCookies, logger *slog.Logger) *AuthHandler {
	base := defaultLogger(logger)
	return &AuthHandler{service: service, users: users, cookies: cookies, responder: newResponder(base), logger: base}
}

func (h *AuthHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AuthHandler", operation, attrs...)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Login", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode login request", "error", err)
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Login", "login", req.Login)

	result, err := h.service.Login(r.Context(), application.LoginParams{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, application.ErrInvalidCredentials) {
			logger.WarnContext(r.Context(), "authentication rejected", "error_kind", application.ErrorKind(err))
			h.responder.writeMessage(r.Context(), w, http.StatusUnauthorized, messageInvalidCredentials)
			return
		}
		logger.ErrorContext(r.Context(), "authentication failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.cookies.set(w, result.Session.Token, result.Session.ExpiresAt)
	logger.With("user_id", result.User.ID).InfoContext(r.Context(), "user authenticated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newUserDTO(result.User))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.users == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Register", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode register request", "error", err)
		h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Register", "login", req.Login)

	user, err := h.users.Register(r.Context(), application.RegisterUserParams{
		Login:    req.Login,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, application.ErrAlreadyExists) {
			logger.WarnContext(r.Context(), "login already taken")
			h.responder.writeMessage(r.Context(), w, http.StatusBadRequest, messageLoginTaken)
			return
		}
		logger.ErrorContext(r.Context(), "registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newUserDTO(user))
}

// Logout revokes the presented session, if any, and always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Logout")
	if token := extractTokenFromRequest(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			logger.ErrorContext(r.Context(), "failed to revoke session", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
	}

	h.cookies.clear(w)
	logger.InfoContext(r.Context(), "session closed")
	h.responder.writeMessage(r.Context(), w, http.StatusOK, messageLoggedOut)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.users == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || !principal.Authenticated() {
		h.responder.writeMessage(r.Context(), w, http.StatusUnauthorized, messageNotAuthenticated)
		return
	}

	user, err := h.users.Get(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			h.responder.writeMessage(r.Context(), w, http.StatusNotFound, messageUserNotFound)
			return
		}
		h.log(r.Context(), "Me", "user_id", principal.UserID).ErrorContext(r.Context(), "failed to load current user", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, newUserDTO(user))
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type registerRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userDTO struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func newUserDTO(user application.User) userDTO {
	return userDTO{
		ID:    user.ID,
		Login: user.Login,
		Name:  user.Name,
		Role:  string(user.Role),
	}
}
