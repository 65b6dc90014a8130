package storage

import (
	"context"
)

// SessionStore keeps session credentials and the login rate limit counters.
// Implementations: redis.Client, memory.Client (for -dev without Redis).
type SessionStore interface {
	SetSession(ctx context.Context, sessionID, userID, secret string) error
	GetSession(ctx context.Context, sessionID string) (userID, secret string, err error)
	DeleteSession(ctx context.Context, sessionID string) error
	CheckLoginRateLimit(ctx context.Context, username string) (allowed bool, err error)
	Close() error
}
