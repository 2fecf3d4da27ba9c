package http

import (
	"log/slog"
	"net/http"
	"strings"
)

// RouterConfig wires handlers and the session validator into the API mux.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	Auth       *AuthHandler
	Rooms      *RoomHandler
	Bookings   *BookingHandler
	Health     *HealthHandler
	Sessions   SessionValidator
	Cookies    SessionCookies
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	withSession := func(fn http.HandlerFunc) http.Handler {
		return RequireSession(cfg.Sessions, cfg.Cookies, cfg.Logger)(fn)
	}
	withOptionalSession := func(fn http.HandlerFunc) http.Handler {
		return OptionalSession(cfg.Sessions, cfg.Cookies, cfg.Logger)(fn)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Register(w, r)
		})
		logout := withOptionalSession(cfg.Auth.Logout)
		mux.HandleFunc("/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			logout.ServeHTTP(w, r)
		})
		me := withSession(cfg.Auth.Me)
		mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			me.ServeHTTP(w, r)
		})
	}

	if cfg.Rooms != nil {
		create := withSession(cfg.Rooms.Create)
		update := withSession(cfg.Rooms.Update)
		remove := withSession(cfg.Rooms.Delete)

		mux.HandleFunc("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, r)
			case http.MethodPost:
				create.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/rooms/available", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Rooms.Available(w, r)
		})
		mux.HandleFunc("/api/rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.Get(w, r)
			case http.MethodPut:
				update.ServeHTTP(w, r)
			case http.MethodDelete:
				remove.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Bookings != nil {
		list := withSession(cfg.Bookings.List)
		create := withSession(cfg.Bookings.Create)
		forUser := withSession(cfg.Bookings.ListForUser)
		forRoom := withSession(cfg.Bookings.ListForRoom)
		get := withSession(cfg.Bookings.Get)
		update := withSession(cfg.Bookings.Update)
		remove := withSession(cfg.Bookings.Delete)

		mux.HandleFunc("/api/bookings", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				list.ServeHTTP(w, r)
			case http.MethodPost:
				create.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.HandleFunc("/api/bookings/user/{userId}", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			forUser.ServeHTTP(w, r)
		})
		mux.HandleFunc("/api/bookings/room/{roomId}", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			forRoom.ServeHTTP(w, r)
		})
		mux.HandleFunc("/api/bookings/{id}", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				get.ServeHTTP(w, r)
			case http.MethodPut:
				update.ServeHTTP(w, r)
			case http.MethodDelete:
				remove.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
			}
		})
	}

	if cfg.Health != nil {
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodHead {
				methodNotAllowed(w, http.MethodGet, http.MethodHead)
				return
			}
			cfg.Health.Check(w, r)
		})
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
