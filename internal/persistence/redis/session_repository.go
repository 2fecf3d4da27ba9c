// Package redis stores authentication sessions in Redis. Sessions expire with
// their keys, so expired sessions never need to be pruned explicitly.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/room-booking/internal/persistence"
)

const defaultKeyPrefix = "roombook:"

// SessionRepository implements persistence.SessionRepository on Redis. Each
// session is a hash keyed by token plus an index key mapping id to token.
type SessionRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewSessionRepository wraps an existing client.
func NewSessionRepository(client redis.UniversalClient) *SessionRepository {
	return &SessionRepository{client: client, prefix: defaultKeyPrefix}
}

// Dial parses redisURL, connects and verifies the connection.
func Dial(ctx context.Context, redisURL string) (*SessionRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewSessionRepository(client), nil
}

// Ping checks connectivity.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *SessionRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *SessionRepository) tokenKey(token string) string {
	return r.prefix + "session:" + token
}

func (r *SessionRepository) idKey(id string) string {
	return r.prefix + "session_id:" + id
}

// CreateSession stores a new session. A reused token or id is rejected with
// persistence.ErrDuplicate.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	normalized, err := normalizeSession(session)
	if err != nil {
		return persistence.Session{}, err
	}

	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = normalized.UpdatedAt
	}
	if normalized.UpdatedAt.IsZero() {
		normalized.UpdatedAt = normalized.CreatedAt
	}

	// The id key gets its absolute expiry from write.
	claimed, err := r.client.SetNX(ctx, r.idKey(normalized.ID), normalized.Token, 0).Result()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	if !claimed {
		return persistence.Session{}, persistence.ErrDuplicate
	}

	exists, err := r.client.Exists(ctx, r.tokenKey(normalized.Token)).Result()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to store session: %w", err)
	}
	if exists > 0 {
		r.client.Del(ctx, r.idKey(normalized.ID))
		return persistence.Session{}, persistence.ErrDuplicate
	}

	if err := r.write(ctx, normalized, ""); err != nil {
		return persistence.Session{}, err
	}
	return normalized, nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	fields, err := r.client.HGetAll(ctx, r.tokenKey(token)).Result()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	if len(fields) == 0 {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return decodeSession(fields)
}

// UpdateSession replaces the token, expiry and revocation of an existing
// session.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	normalized, err := normalizeSession(session)
	if err != nil {
		return persistence.Session{}, err
	}

	previousToken, err := r.client.Get(ctx, r.idKey(normalized.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return persistence.Session{}, persistence.ErrNotFound
	}
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	current, err := r.GetSession(ctx, previousToken)
	if err != nil {
		return persistence.Session{}, err
	}
	normalized.UserID = current.UserID
	normalized.CreatedAt = current.CreatedAt
	if normalized.UpdatedAt.IsZero() {
		normalized.UpdatedAt = current.UpdatedAt
	}

	staleToken := ""
	if previousToken != normalized.Token {
		staleToken = previousToken
	}
	if err := r.write(ctx, normalized, staleToken); err != nil {
		return persistence.Session{}, err
	}
	return normalized, nil
}

// RevokeSession marks a session as revoked. The first revocation time wins.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	session, err := r.GetSession(ctx, token)
	if err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt != nil {
		return session, nil
	}

	revoked := revokedAt.UTC()
	session.RevokedAt = &revoked
	session.UpdatedAt = revoked

	err = r.client.HSet(ctx, r.tokenKey(session.Token),
		"revoked_at", formatTime(revoked),
		"updated_at", formatTime(revoked),
	).Err()
	if err != nil {
		return persistence.Session{}, fmt.Errorf("failed to revoke session: %w", err)
	}
	return session, nil
}

// DeleteExpiredSessions is a no-op: Redis drops session keys at their expiry.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return nil
}

func (r *SessionRepository) write(ctx context.Context, session persistence.Session, staleToken string) error {
	key := r.tokenKey(session.Token)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if staleToken != "" {
			pipe.Del(ctx, r.tokenKey(staleToken))
		}
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, encodeSession(session))
		pipe.PExpireAt(ctx, key, session.ExpiresAt)
		pipe.Set(ctx, r.idKey(session.ID), session.Token, 0)
		pipe.PExpireAt(ctx, r.idKey(session.ID), session.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func normalizeSession(session persistence.Session) (persistence.Session, error) {
	session.ID = strings.TrimSpace(session.ID)
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.Token == "" || session.UserID < 0 || session.ExpiresAt.IsZero() {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	if session.RevokedAt != nil {
		revoked := session.RevokedAt.UTC()
		session.RevokedAt = &revoked
	}
	return session, nil
}

func encodeSession(session persistence.Session) map[string]any {
	fields := map[string]any{
		"id":         session.ID,
		"user_id":    strconv.FormatInt(session.UserID, 10),
		"token":      session.Token,
		"expires_at": formatTime(session.ExpiresAt),
		"created_at": formatTime(session.CreatedAt),
		"updated_at": formatTime(session.UpdatedAt),
	}
	if session.RevokedAt != nil {
		fields["revoked_at"] = formatTime(*session.RevokedAt)
	}
	return fields
}

func decodeSession(fields map[string]string) (persistence.Session, error) {
	userID, err := strconv.ParseInt(fields["user_id"], 10, 64)
	if err != nil {
		return persistence.Session{}, fmt.Errorf("invalid user_id in session: %w", err)
	}

	session := persistence.Session{
		ID:     fields["id"],
		UserID: userID,
		Token:  fields["token"],
	}
	if session.ExpiresAt, err = parseTime(fields["expires_at"]); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime(fields["created_at"]); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime(fields["updated_at"]); err != nil {
		return persistence.Session{}, err
	}
	if value, ok := fields["revoked_at"]; ok && value != "" {
		revoked, err := parseTime(value)
		if err != nil {
			return persistence.Session{}, err
		}
		session.RevokedAt = &revoked
	}
	return session, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q in session: %w", value, err)
	}
	return t, nil
}
