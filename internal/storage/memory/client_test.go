package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	c := New()
	ctx := context.Background()

	require.NoError(t, c.SetSession(ctx, "s1", "u1", "secret1"))

	userID, secret, err := c.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "secret1", secret)

	require.NoError(t, c.DeleteSession(ctx, "s1"))
	userID, secret, err = c.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, userID)
	assert.Empty(t, secret)
}

func TestGetSessionUnknown(t *testing.T) {
	c := New()
	userID, secret, err := c.GetSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, userID)
	assert.Empty(t, secret)
}

func TestSessionExpiry(t *testing.T) {
	c := New()
	ctx := context.Background()
	require.NoError(t, c.SetSession(ctx, "s1", "u1", "secret1"))

	c.mu.Lock()
	s := c.sessions["s1"]
	s.exp = time.Now().Add(-time.Second)
	c.sessions["s1"] = s
	c.mu.Unlock()

	userID, secret, err := c.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, userID)
	assert.Empty(t, secret)
}

func TestLoginRateLimit(t *testing.T) {
	c := New()
	ctx := context.Background()

	for i := 0; i < loginRateLimitMax; i++ {
		ok, err := c.CheckLoginRateLimit(ctx, "asha")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := c.CheckLoginRateLimit(ctx, "asha")
	require.NoError(t, err)
	assert.False(t, ok, "attempts over the window limit are refused")

	// Other usernames are tracked independently.
	ok, err = c.CheckLoginRateLimit(ctx, "ravi")
	require.NoError(t, err)
	assert.True(t, ok)
}
