package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/sqlite/migration"
)

// timeLayout is fixed width in UTC so stored timestamps compare
// lexicographically in SQL.
const timeLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

// ConnectionPool wraps the database handle with transaction helpers.
type ConnectionPool struct {
	db    *sql.DB
	retry *RetryHelper
}

// NewConnectionPool opens a pool using the supplied configuration.
func NewConnectionPool(ctx context.Context, config migration.SQLiteConfig) (*ConnectionPool, error) {
	db, err := migration.Open(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return &ConnectionPool{db: db, retry: NewRetryHelper(DefaultRetryConfig())}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the pool.
func (cp *ConnectionPool) Close() error {
	if cp == nil || cp.db == nil {
		return nil
	}
	return cp.db.Close()
}

// Ping checks that the database is reachable.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc runs inside a transaction. It may be invoked again when the
// database reports it is busy, so it must only touch state through tx.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise. Busy and locked errors are retried with backoff.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	return cp.retry.WithRetry(ctx, func() error {
		return cp.runTransaction(ctx, fn)
	})
}

func (cp *ConnectionPool) runTransaction(ctx context.Context, fn TransactionFunc) (err error) {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// QueryHelper provides context aware query helpers for the pool and for
// transactions.
type QueryHelper struct {
	pool *ConnectionPool
}

// NewQueryHelper creates a query helper.
func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

func (qh *QueryHelper) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qh.pool.db.QueryRowContext(ctx, query, args...)
}

func (qh *QueryHelper) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qh.pool.db.QueryContext(ctx, query, args...)
}

func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qh.pool.db.ExecContext(ctx, query, args...)
}

func (qh *QueryHelper) QueryRowTx(ctx context.Context, tx *sql.Tx, query string, args ...any) *sql.Row {
	return tx.QueryRowContext(ctx, query, args...)
}

func (qh *QueryHelper) QueryTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	return tx.QueryContext(ctx, query, args...)
}

func (qh *QueryHelper) ExecTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	return tx.ExecContext(ctx, query, args...)
}

// nextID returns max(id)+1 for table, or 1 when the table is empty. Ids of
// deleted or cancelled rows are never handed out again while a larger id
// exists.
func (qh *QueryHelper) nextID(ctx context.Context, tx *sql.Tx, table string) (int64, error) {
	var next int64
	query := fmt.Sprintf("SELECT COALESCE(MAX(id), 0) + 1 FROM %s", table)
	if err := qh.QueryRowTx(ctx, tx, query).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

// ErrorMapper maps SQLite driver errors to persistence sentinels.
type ErrorMapper struct{}

// NewErrorMapper creates an error mapper.
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// MapError wraps err with the matching persistence sentinel so callers can
// use errors.Is while the driver message is preserved.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case containsAny(msg, "UNIQUE constraint failed", "PRIMARY KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case containsAny(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrForeignKeyViolation, err)
	case containsAny(msg, "CHECK constraint failed", "NOT NULL constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

func containsAny(s string, substrings ...string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// RetryConfig configures retries of busy database operations.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns the retry settings used by the pool.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  20 * time.Millisecond,
		MaxDelay:      500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// RetryHelper retries functions that fail because the database is busy.
type RetryHelper struct {
	config RetryConfig
}

// NewRetryHelper creates a retry helper.
func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{config: config}
}

// WithRetry runs fn until it succeeds, fails with a non-retryable error, or
// the retry budget is spent.
func (rh *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := rh.config.InitialDelay

	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * rh.config.BackoffFactor)
			if delay > rh.config.MaxDelay {
				delay = rh.config.MaxDelay
			}
		}

		lastErr = fn()
		if lastErr == nil || !isRetryableError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", rh.config.MaxRetries, lastErr)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(err.Error(), "database is locked", "database table is locked", "SQLITE_BUSY")
}
