package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/persistence"
	redisstore "github.com/example/room-booking/internal/persistence/redis"
	"github.com/example/room-booking/internal/persistence/sqlite"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
	"github.com/example/room-booking/internal/seed"
)

const sessionCacheTTL = time.Minute

// app owns the long lived resources behind the HTTP handler.
type app struct {
	handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// newApp opens storage, seeds an empty database and wires services and
// handlers.
func newApp(ctx context.Context, cfg config.Config, dbConfig migration.SQLiteConfig, now func() time.Time, logger *slog.Logger) (_ *app, err error) {
	if now == nil {
		now = time.Now
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}

	a := &app{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	storage, err := sqlite.Open(ctx, dbConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.closers = append(a.closers, storage.Close)
	pingers := []httptransport.Pinger{storage}

	var sessionStore persistence.SessionRepository = storage.Sessions
	if cfg.RedisURL != "" {
		redisSessions, err := redisstore.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisSessions.Close)
		pingers = append(pingers, redisSessions)
		sessionStore = redisSessions
		logger.InfoContext(ctx, "sessions stored in redis")
	}

	var sessions application.SessionRepository = newSessionRepositoryAdapter(sessionStore)
	if cfg.SessionCacheSize > 0 {
		sessions = application.NewSessionCache(sessions, cfg.SessionCacheSize, sessionCacheTTL)
	}

	hasher, err := application.NewPasswordHasher(cfg.PasswordScheme)
	if err != nil {
		return nil, err
	}

	if cfg.Seed {
		if err := seedDatabase(ctx, cfg, storage, hasher, now, location, logger); err != nil {
			return nil, err
		}
	}

	users := newUserRepositoryAdapter(storage.Users)
	userService := application.NewUserServiceWithLogger(users, hasher, now, logger)
	roomService := application.NewRoomServiceWithLogger(newRoomRepositoryAdapter(storage.Rooms), logger)
	bookingService := application.NewBookingServiceWithLogger(newBookingRepositoryAdapter(storage.Bookings), users, roomService, now, logger)
	roomService.SetAvailabilityChecker(bookingService)
	authService := application.NewAuthServiceWithLogger(userService, sessions, nil, now, cfg.SessionTTL, logger)

	cookies := httptransport.SessionCookies{Secure: cfg.SecureCookies}
	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(authService, userService, cookies, logger),
		Rooms:      httptransport.NewRoomHandler(roomService, location, logger),
		Bookings:   httptransport.NewBookingHandler(bookingService, location, logger),
		Health:     httptransport.NewHealthHandler(logger, pingers...),
		Sessions:   authService,
		Cookies:    cookies,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})
	return a, nil
}

func seedDatabase(ctx context.Context, cfg config.Config, storage *sqlite.Storage, hasher seed.Hasher, now func() time.Time, location *time.Location, logger *slog.Logger) error {
	var (
		data seed.Data
		err  error
	)
	if cfg.SeedFile != "" {
		data, err = seed.LoadFile(cfg.SeedFile)
	} else {
		data, err = seed.Default()
	}
	if err != nil {
		return err
	}

	seeder := seed.NewSeeder(seed.Store{
		Users:    storage.Users,
		Rooms:    storage.Rooms,
		Bookings: storage.Bookings,
	}, hasher, now, location, logger)
	if _, err := seeder.Apply(ctx, data); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}
	return nil
}
