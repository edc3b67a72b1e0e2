package limiter_test

import (
	"context"
	"testing"
	"time"

	"repairdesk/backend/internal/limiter"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestNewFixedWindow_Disabled(t *testing.T) {
	assert.Nil(t, limiter.NewFixedWindow(nil, "rl", 5, time.Second))

	_, rdb := newRedis(t)
	assert.Nil(t, limiter.NewFixedWindow(rdb, "rl", 0, time.Second))
	assert.Nil(t, limiter.NewFixedWindow(rdb, "rl", -1, time.Second))
}

func TestFixedWindow_Key(t *testing.T) {
	_, rdb := newRedis(t)
	l := limiter.NewFixedWindow(rdb, "ratelimit:chat:send", 5, 10*time.Second)
	require.NotNil(t, l)
	assert.Equal(t, "ratelimit:chat:send:42", l.Key(42))
}

func TestFixedWindow_Allow(t *testing.T) {
	mr, rdb := newRedis(t)
	l := limiter.NewFixedWindow(rdb, "rl", 3, 10*time.Second)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, 7)
		require.NoError(t, err)
		assert.True(t, ok, "hit %d", i+1)
	}
	ok, err := l.Allow(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok, "hit over the limit")

	// Other users have their own window.
	ok, err = l.Allow(ctx, 8)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 10*time.Second, mr.TTL(l.Key(7)))

	mr.FastForward(11 * time.Second)
	ok, err = l.Allow(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts after expiry")
}

func TestFixedWindow_SubSecondWindowRoundsUp(t *testing.T) {
	mr, rdb := newRedis(t)
	l := limiter.NewFixedWindow(rdb, "rl", 1, 200*time.Millisecond)

	_, err := l.Allow(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, time.Second, mr.TTL(l.Key(1)))
}

func TestFixedWindow_RedisDown(t *testing.T) {
	mr, rdb := newRedis(t)
	l := limiter.NewFixedWindow(rdb, "rl", 1, time.Second)
	mr.Close()

	_, err := l.Allow(context.Background(), 1)
	assert.Error(t, err)
}
