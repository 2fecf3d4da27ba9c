package sqlite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Storage bundles the SQLite connection pool and the repositories built on it.
type Storage struct {
	pool   *ConnectionPool
	logger *slog.Logger

	Users    *UserRepository
	Rooms    *RoomRepository
	Bookings *BookingRepository
	Sessions *SessionRepository
}

// Open connects to the database described by config and applies pending
// migrations.
func Open(ctx context.Context, config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}

	storage := &Storage{
		pool:     pool,
		logger:   logger.With("component", "sqlite"),
		Users:    NewUserRepository(pool),
		Rooms:    NewRoomRepository(pool),
		Bookings: NewBookingRepository(pool),
		Sessions: NewSessionRepository(pool),
	}

	if err := storage.Migrate(ctx); err != nil {
		return nil, errors.Join(err, pool.Close())
	}
	storage.logger.InfoContext(ctx, "sqlite storage ready", "in_memory", config.IsInMemory())
	return storage, nil
}

// Migrate applies embedded schema migrations that have not run yet.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migrationsFS),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationsDir,
		s.logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending schema versions.
func (s *Storage) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(migrationsFS),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationsDir,
		s.logger,
	)
	return manager.GetMigrationStatus(ctx)
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
