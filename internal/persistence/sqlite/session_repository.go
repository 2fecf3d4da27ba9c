package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

const sessionColumns = `id, user_id, token, expires_at, created_at, updated_at, revoked_at`

// SessionRepository implements persistence.SessionRepository using SQLite.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSession stores a new session token for a user. CreatedAt and
// UpdatedAt default to the current time when unset.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	normalized, err := normalizeSession(session)
	if err != nil {
		return persistence.Session{}, err
	}
	if normalized.UserID <= 0 {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC().Truncate(time.Second)
	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = now
	}
	if normalized.UpdatedAt.IsZero() {
		normalized.UpdatedAt = normalized.CreatedAt
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		normalized.ID,
		normalized.UserID,
		normalized.Token,
		formatTime(normalized.ExpiresAt),
		formatTime(normalized.CreatedAt),
		formatTime(normalized.UpdatedAt),
		nullTime(normalized.RevokedAt),
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return normalized, nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return r.scanSession(r.helper.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token = ?`, token))
}

// UpdateSession updates the expiry and revocation of an existing session.
// The owner and creation time are immutable.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	normalized, err := normalizeSession(session)
	if err != nil {
		return persistence.Session{}, err
	}
	if normalized.UpdatedAt.IsZero() {
		normalized.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	}

	var stored persistence.Session
	err = r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE sessions
			SET token = ?, expires_at = ?, updated_at = ?, revoked_at = ?
			WHERE id = ?`,
			normalized.Token,
			formatTime(normalized.ExpiresAt),
			formatTime(normalized.UpdatedAt),
			nullTime(normalized.RevokedAt),
			normalized.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		stored, err = r.scanSession(r.helper.QueryRowTx(ctx, tx,
			`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, normalized.ID))
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return stored, nil
}

// RevokeSession marks the session identified by token as revoked. Revoking
// an already revoked session keeps the first revocation time.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	stamp := formatTime(revokedAt)

	var stored persistence.Session
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE sessions
			SET revoked_at = COALESCE(revoked_at, ?), updated_at = ?
			WHERE token = ?`,
			stamp, stamp, token,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}
		stored, err = r.scanSession(r.helper.QueryRowTx(ctx, tx,
			`SELECT `+sessionColumns+` FROM sessions WHERE token = ?`, token))
		return err
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return stored, nil
}

// DeleteExpiredSessions removes sessions that expired on or before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference)); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func (r *SessionRepository) scanSession(row scanner) (persistence.Session, error) {
	var (
		session                         persistence.Session
		expiresAt, createdAt, updatedAt string
		revokedAt                       sql.NullString
	)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAt,
		&createdAt,
		&updatedAt,
		&revokedAt,
	); err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}

	var err error
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if session.RevokedAt, err = parseNullTime(revokedAt); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse revoked_at: %w", err)
	}
	return session, nil
}

func normalizeSession(session persistence.Session) (persistence.Session, error) {
	session.ID = strings.TrimSpace(session.ID)
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	session.ExpiresAt = session.ExpiresAt.UTC().Truncate(time.Second)
	session.CreatedAt = session.CreatedAt.UTC().Truncate(time.Second)
	session.UpdatedAt = session.UpdatedAt.UTC().Truncate(time.Second)
	if session.RevokedAt != nil {
		revoked := session.RevokedAt.UTC().Truncate(time.Second)
		session.RevokedAt = &revoked
	}
	return session, nil
}
