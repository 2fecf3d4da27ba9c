package migration

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const memoryDSN = ":memory:"

// SQLiteConfig holds SQLite connection settings.
type SQLiteConfig struct {
	// DSN is a database file path, ":memory:", or a "file:" URI.
	DSN string

	BusyTimeout       time.Duration
	EnableForeignKeys bool
	// JournalMode is one of DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF.
	JournalMode string
	// Synchronous is one of OFF, NORMAL, FULL, EXTRA.
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultSQLiteConfig returns settings suited to a file backed database.
func DefaultSQLiteConfig(databasePath string) SQLiteConfig {
	return SQLiteConfig{
		DSN:               databasePath,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		Synchronous:       "NORMAL",
		MaxOpenConns:      8,
		MaxIdleConns:      4,
		ConnMaxLifetime:   5 * time.Minute,
	}
}

// InMemoryTestSQLiteConfig returns settings for a private in-memory database.
// A single connection is used because every connection to ":memory:" opens a
// separate database.
func InMemoryTestSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		DSN:               memoryDSN,
		BusyTimeout:       time.Second,
		EnableForeignKeys: true,
		JournalMode:       "MEMORY",
		Synchronous:       "OFF",
		MaxOpenConns:      1,
		MaxIdleConns:      1,
	}
}

// IsInMemory reports whether the configuration targets an in-memory database.
func (c SQLiteConfig) IsInMemory() bool {
	dsn := strings.TrimPrefix(c.DSN, "file:")
	return strings.HasPrefix(dsn, memoryDSN) || strings.Contains(c.DSN, "mode=memory")
}

// Validate reports configuration values SQLite would reject.
func (c SQLiteConfig) Validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("DSN cannot be empty")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}
	switch strings.ToUpper(c.JournalMode) {
	case "", "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	}
	switch strings.ToUpper(c.Synchronous) {
	case "", "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 {
		return fmt.Errorf("connection pool settings cannot be negative")
	}
	return nil
}

// connectionString appends the PRAGMA settings as _pragma query parameters so
// that the driver applies them to every pooled connection.
func (c SQLiteConfig) connectionString() string {
	params := url.Values{}
	if c.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.EnableForeignKeys {
		params.Add("_pragma", "foreign_keys(1)")
	}
	if c.JournalMode != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
	}
	if c.Synchronous != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(c.Synchronous)))
	}
	if len(params) == 0 {
		return c.DSN
	}
	sep := "?"
	if strings.Contains(c.DSN, "?") {
		sep = "&"
	}
	return c.DSN + sep + params.Encode()
}

// Open validates the configuration, creates the database directory when
// needed, and returns a pinged connection pool.
func Open(ctx context.Context, config SQLiteConfig) (*sql.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if !config.IsInMemory() && !strings.HasPrefix(config.DSN, "file:") {
		if dir := filepath.Dir(config.DSN); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, NewFileSystemError(dir, "create database directory", err)
			}
		}
	}

	db, err := sql.Open("sqlite", config.connectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return db, nil
}
