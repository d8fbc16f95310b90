package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRedisCache(Config{Host: mr.Host(), Port: mr.Port()})
	require.NoError(t, err, "Should connect to miniredis")
	t.Cleanup(func() { c.Close() })

	return c, mr
}

func TestRedisCache_SetGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "leaguedash:2025-26", []byte(`{"ok":true}`), time.Minute))

	val, ok, err := c.Get(ctx, "leaguedash:2025-26")
	require.NoError(t, err)
	assert.True(t, ok, "Should be a cache hit")
	assert.Equal(t, `{"ok":true}`, string(val))

	assert.True(t, mr.Exists("nba:leaguedash:2025-26"), "Keys should be prefixed")
}

func TestRedisCache_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	val, ok, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestRedisCache_Expiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "Entry should expire after its TTL")
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(Config{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
}
