package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Login rate limit: 10 attempts / 10 minutes per username.
const (
	LoginRateLimitWindow = 600
	LoginRateLimitMax    = 10
	SessionTTL           = 30 * 24 * 3600
)

type Client struct {
	cli *redis.Client
}

func New(ctx context.Context, url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{cli: cli}, nil
}

func (c *Client) Close() error {
	return c.cli.Close()
}

// SetSession stores the session as a hash under session:{id}, TTL 30 days.
func (c *Client) SetSession(ctx context.Context, sessionID, userID, secret string) error {
	key := "session:" + sessionID
	if err := c.cli.HSet(ctx, key, "user", userID, "secret", secret).Err(); err != nil {
		return err
	}
	return c.cli.Expire(ctx, key, SessionTTL*time.Second).Err()
}

// GetSession returns empty strings when the session does not exist or expired.
func (c *Client) GetSession(ctx context.Context, sessionID string) (string, string, error) {
	vals, err := c.cli.HMGet(ctx, "session:"+sessionID, "user", "secret").Result()
	if err != nil {
		return "", "", err
	}
	userID, _ := vals[0].(string)
	secret, _ := vals[1].(string)
	return userID, secret, nil
}

// DeleteSession removes the session on logout.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.cli.Del(ctx, "session:"+sessionID).Err()
}

// CheckLoginRateLimit counts attempts under login_limit:{username}.
// Over the limit the caller answers HTTP 429.
func (c *Client) CheckLoginRateLimit(ctx context.Context, username string) (allowed bool, err error) {
	key := "login_limit:" + username
	n, err := c.cli.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		c.cli.Expire(ctx, key, LoginRateLimitWindow*time.Second)
	}
	return n <= int64(LoginRateLimitMax), nil
}

// FlushDB clears the current Redis DB (tests and dev restarts).
func (c *Client) FlushDB(ctx context.Context) error {
	return c.cli.FlushDB(ctx).Err()
}
