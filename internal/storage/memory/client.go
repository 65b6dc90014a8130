package memory

import (
	"context"
	"sync"
	"time"
)

const (
	loginRateLimitWindow = 600 * time.Second
	loginRateLimitMax    = 10
	sessionTTL           = 30 * 24 * time.Hour
)

type session struct {
	userID string
	secret string
	exp    time.Time
}

type Client struct {
	mu       sync.RWMutex
	sessions map[string]session
	limit    map[string][]time.Time
}

func New() *Client {
	return &Client{
		sessions: make(map[string]session),
		limit:    make(map[string][]time.Time),
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) SetSession(ctx context.Context, sessionID, userID, secret string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[sessionID] = session{userID: userID, secret: secret, exp: time.Now().Add(sessionTTL)}
	return nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (string, string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[sessionID]
	if !ok || time.Now().After(s.exp) {
		return "", "", nil
	}
	return s.userID, s.secret, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
	return nil
}

func (c *Client) CheckLoginRateLimit(ctx context.Context, username string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	cut := now.Add(-loginRateLimitWindow)
	var kept []time.Time
	for _, t := range c.limit[username] {
		if t.After(cut) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= loginRateLimitMax {
		return false, nil
	}
	kept = append(kept, now)
	c.limit[username] = kept
	return true, nil
}
