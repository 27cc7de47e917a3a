package cache

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache("redis://127.0.0.1:1/0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

// TestRedisCache_RoundTrip runs against a live server when TEST_REDIS_URL is set.
func TestRedisCache_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	c, err := NewRedisCache(url)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	key := "test:user:" + time.Now().Format(time.RFC3339Nano)

	type payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}

	require.NoError(t, c.SetJSON(ctx, key, payload{ID: "u1", Email: "a@x.com"}, time.Minute))

	written, err := c.SetJSONIfAbsent(ctx, key, payload{ID: "u1", Email: "stale@x.com"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, written)

	var got payload
	require.NoError(t, c.GetJSON(ctx, key, &got))
	assert.Equal(t, payload{ID: "u1", Email: "a@x.com"}, got)

	require.NoError(t, c.Delete(ctx, key))
	_, err = c.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrCacheMiss))
}
