package migration

import (
	"context"
	"time"
)

// Migration is a single versioned schema change.
type Migration struct {
	Version     string // numeric prefix of the file name, e.g. "0001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // hex encoded sha256 of SQL
}

// MigrationManager orchestrates the migration process.
type MigrationManager interface {
	// RunMigrations executes all pending migrations in version order.
	RunMigrations(ctx context.Context) error
	// GetPendingMigrations returns migrations that have not been applied yet.
	GetPendingMigrations(ctx context.Context) ([]Migration, error)
	// GetMigrationStatus summarises applied and pending migrations.
	GetMigrationStatus(ctx context.Context) (*MigrationStatus, error)
}

// FileScanner discovers and parses migration files.
type FileScanner interface {
	ScanMigrations(dir string) ([]Migration, error)
	ValidateFileName(filename string) error
	ParseMigrationFile(path string) (*Migration, error)
}

// Executor runs migrations against the database and tracks applied versions.
type Executor interface {
	ExecuteMigration(ctx context.Context, migration Migration) error
	InitializeVersionTable(ctx context.Context) error
	RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// MigrationStatus describes the current migration state of a database.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// AppliedMigration is a row of the schema_migrations table.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}
