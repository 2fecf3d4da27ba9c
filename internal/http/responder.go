package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/room-booking/internal/application"
)

const (
	messageBadRequestBody   = "Invalid request body"
	messageNotAuthenticated = "Not authenticated"
	messageForbidden        = "Access denied"
	messageInternal         = "An unexpected error occurred"
	messageValidation       = "Validation failed"
	messageDatesRequired    = "Start date and end date are required"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeMessage(ctx context.Context, w http.ResponseWriter, status int, message string) {
	r.writeJSON(ctx, w, status, messageResponse{Message: message})
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, message string, fields map[string]string) {
	if status >= http.StatusInternalServerError {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "message", message)
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message, Errors: fields})
}

// handleServiceError renders an application error with the status its kind
// maps to.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, messageInternal, nil)
		return
	}

	var (
		vErr     *application.ValidationError
		notFound *application.NotFoundError
	)
	switch {
	case errors.As(err, &vErr):
		message := vErr.Message
		if message == "" {
			message = messageValidation
		}
		r.writeError(ctx, w, http.StatusBadRequest, message, vErr.FieldErrors)
	case errors.Is(err, application.ErrConflict):
		r.writeError(ctx, w, http.StatusBadRequest, application.MessageRoomUnavailable, nil)
	case errors.As(err, &notFound):
		r.writeError(ctx, w, http.StatusNotFound, notFound.Resource+" not found", nil)
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, application.ErrForbidden):
		r.writeError(ctx, w, http.StatusForbidden, messageForbidden, nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeError(ctx, w, http.StatusUnauthorized, "Invalid credentials", nil)
	case errors.Is(err, application.ErrUnauthenticated),
		errors.Is(err, application.ErrSessionExpired),
		errors.Is(err, application.ErrSessionRevoked):
		r.writeError(ctx, w, http.StatusUnauthorized, messageNotAuthenticated, nil)
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeError(ctx, w, http.StatusBadRequest, "Resource already exists", nil)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
		r.writeError(ctx, w, http.StatusInternalServerError, messageInternal, nil)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

// decodeJSON reads a single JSON document into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// pathID parses a positive integer path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}
