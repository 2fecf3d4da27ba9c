package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers readiness probes.
type HealthHandler struct {
	checks    []Pinger
	responder responder
	logger    *slog.Logger
}

func NewHealthHandler(logger *slog.Logger, checks ...Pinger) *HealthHandler {
	base := defaultLogger(logger)
	return &HealthHandler{checks: checks, responder: newResponder(base), logger: base}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	for _, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check.Ping(ctx); err != nil {
			handlerLogger(r.Context(), h.logger, "HealthHandler", "Check").ErrorContext(r.Context(), "readiness check failed", "error", err)
			h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}
