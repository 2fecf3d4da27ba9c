package application

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	defaultSessionCacheSize = 1024
	defaultSessionCacheTTL  = time.Minute
)

// SessionCache keeps recently resolved sessions in memory so that every
// authenticated request does not hit the session store. Writes go through to
// the wrapped repository and drop the affected entries.
type SessionCache struct {
	next    SessionRepository
	entries *expirable.LRU[string, Session]
}

// NewSessionCache wraps next with a bounded, expiring cache keyed by token.
func NewSessionCache(next SessionRepository, size int, ttl time.Duration) *SessionCache {
	if size <= 0 {
		size = defaultSessionCacheSize
	}
	if ttl <= 0 {
		ttl = defaultSessionCacheTTL
	}
	return &SessionCache{
		next:    next,
		entries: expirable.NewLRU[string, Session](size, nil, ttl),
	}
}

func (c *SessionCache) CreateSession(ctx context.Context, session Session) (Session, error) {
	created, err := c.next.CreateSession(ctx, session)
	if err != nil {
		return Session{}, err
	}
	c.entries.Add(created.Token, cloneCachedSession(created))
	return created, nil
}

func (c *SessionCache) GetSession(ctx context.Context, token string) (Session, error) {
	if cached, ok := c.entries.Get(token); ok {
		return cloneCachedSession(cached), nil
	}
	session, err := c.next.GetSession(ctx, token)
	if err != nil {
		return Session{}, err
	}
	c.entries.Add(token, cloneCachedSession(session))
	return session, nil
}

func (c *SessionCache) UpdateSession(ctx context.Context, session Session) (Session, error) {
	c.forget(session.ID)
	updated, err := c.next.UpdateSession(ctx, session)
	if err != nil {
		return Session{}, err
	}
	c.entries.Add(updated.Token, cloneCachedSession(updated))
	return updated, nil
}

func (c *SessionCache) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	c.entries.Remove(token)
	return c.next.RevokeSession(ctx, token, revokedAt)
}

func (c *SessionCache) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return c.next.DeleteExpiredSessions(ctx, reference)
}

// Len reports the number of cached sessions.
func (c *SessionCache) Len() int {
	return c.entries.Len()
}

// forget drops every entry for the session id; an update may rotate the token.
func (c *SessionCache) forget(sessionID string) {
	for _, token := range c.entries.Keys() {
		if cached, ok := c.entries.Peek(token); ok && cached.ID == sessionID {
			c.entries.Remove(token)
		}
	}
}

func cloneCachedSession(session Session) Session {
	clone := session
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		clone.RevokedAt = &revoked
	}
	return clone
}
