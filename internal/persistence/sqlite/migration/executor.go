package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SQLiteExecutor implements Executor for SQLite databases.
type SQLiteExecutor struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteExecutor creates a SQLite migration executor.
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db, now: time.Now}
}

// ExecuteMigration runs every statement of the migration in one transaction.
func (e *SQLiteExecutor) ExecuteMigration(ctx context.Context, migration Migration) (err error) {
	statements := splitStatements(migration.SQL)
	if len(statements) == 0 {
		return NewMigrationError(migration.Version, migration.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements", ErrInvalidMigrationFile))
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return NewDatabaseError(migration.Version, "", "begin transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range statements {
		if _, execErr := tx.ExecContext(ctx, stmt); execErr != nil {
			err = NewDatabaseError(migration.Version, stmt, fmt.Sprintf("execute statement %d", i+1), execErr)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = NewDatabaseError(migration.Version, "", "commit transaction", err)
		return err
	}
	return nil
}

// InitializeVersionTable creates schema_migrations when missing.
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const stmt = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)`
	if _, err := e.db.ExecContext(ctx, stmt); err != nil {
		return NewDatabaseError("", stmt, "create schema_migrations table", err)
	}
	return nil
}

// RecordMigration stores a successfully applied migration.
func (e *SQLiteExecutor) RecordMigration(ctx context.Context, migration Migration, executionTime time.Duration) error {
	const stmt = `
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)`
	_, err := e.db.ExecContext(ctx, stmt,
		migration.Version,
		e.now().UTC().Format(time.RFC3339),
		migration.Checksum,
		executionTime.Milliseconds(),
	)
	if err != nil {
		return NewDatabaseError(migration.Version, stmt, "record migration", err)
	}
	return nil
}

// GetAppliedVersions returns applied migrations ordered by version.
func (e *SQLiteExecutor) GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error) {
	const query = `
		SELECT version, applied_at, COALESCE(execution_time_ms, 0), COALESCE(checksum, '')
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC`

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewDatabaseError("", query, "get applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			item        AppliedMigration
			appliedAt   string
			executionMs int64
		)
		if err := rows.Scan(&item.Version, &appliedAt, &executionMs, &item.Checksum); err != nil {
			return nil, NewDatabaseError("", query, "scan applied migration", err)
		}
		if item.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, NewDatabaseError(item.Version, query, "parse applied_at", err)
		}
		item.ExecutionTime = time.Duration(executionMs) * time.Millisecond
		applied = append(applied, item)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", query, "iterate applied migrations", err)
	}
	return applied, nil
}
