package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

type migrationManager struct {
	scanner      FileScanner
	executor     Executor
	migrationDir string
	logger       *slog.Logger
}

// NewMigrationManager wires a scanner and executor together.
func NewMigrationManager(scanner FileScanner, executor Executor, migrationDir string, logger *slog.Logger) MigrationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &migrationManager{
		scanner:      scanner,
		executor:     executor,
		migrationDir: migrationDir,
		logger:       logger.With("component", "migration"),
	}
}

// RunMigrations executes all pending migrations in version order and stops at
// the first failure.
func (m *migrationManager) RunMigrations(ctx context.Context) error {
	start := time.Now()

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "schema up to date")
		return nil
	}

	for i, migration := range pending {
		logger := m.logger.With("version", migration.Version, "file", migration.FilePath)
		logger.InfoContext(ctx, "applying migration",
			"description", migration.Description,
			"position", i+1,
			"total", len(pending),
		)

		migrationStart := time.Now()
		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}

		elapsed := time.Since(migrationStart)
		if err := m.executor.RecordMigration(ctx, migration, elapsed); err != nil {
			logger.ErrorContext(ctx, "failed to record migration", "error", err)
			return NewMigrationError(migration.Version, migration.FilePath, "record migration", err)
		}
		logger.InfoContext(ctx, "migration applied", "duration", elapsed)
	}

	m.logger.InfoContext(ctx, "migrations complete", "applied", len(pending), "duration", time.Since(start))
	return nil
}

// GetPendingMigrations compares the scanned files with schema_migrations.
// Applied versions whose file is missing or whose checksum changed are
// reported as errors.
func (m *migrationManager) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations(m.migrationDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	byVersion := make(map[int]Migration, len(available))
	for _, migration := range available {
		version, _ := strconv.Atoi(migration.Version)
		byVersion[version] = migration
	}

	appliedSet := make(map[int]struct{}, len(applied))
	for _, item := range applied {
		version, err := strconv.Atoi(item.Version)
		if err != nil {
			return nil, fmt.Errorf("%w: applied version %q is not numeric", ErrVersionConflict, item.Version)
		}
		file, ok := byVersion[version]
		if !ok {
			return nil, fmt.Errorf("%w: applied migration %s has no matching file", ErrVersionConflict, item.Version)
		}
		if item.Checksum != "" && file.Checksum != "" && item.Checksum != file.Checksum {
			return nil, NewMigrationError(file.Version, file.FilePath, "verify checksum", ErrChecksumMismatch)
		}
		appliedSet[version] = struct{}{}
	}

	var pending []Migration
	for _, migration := range available {
		version, _ := strconv.Atoi(migration.Version)
		if _, done := appliedSet[version]; !done {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

// GetMigrationStatus summarises applied and pending migrations.
func (m *migrationManager) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, err
	}
	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	status := &MigrationStatus{
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}
	return status, nil
}
