package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/fandom-backend/internal/config"
)

func newRedis(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client, ttl), mr
}

func TestRedis_GetSetAndTTL(t *testing.T) {
	c, mr := newRedis(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache must miss")

	require.NoError(t, c.Set(ctx, "k", []byte(`[1,2]`)))
	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, string(b))
	assert.True(t, mr.Exists("fandom:k"), "keys are namespaced")

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the TTL")
}

func TestRedis_VersionBump(t *testing.T) {
	c, _ := newRedis(t, time.Minute)
	ctx := context.Background()

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, c.Bump(ctx))
	require.NoError(t, c.Bump(ctx))
	v, err = c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestRedis_ErrorsSurface(t *testing.T) {
	c, mr := newRedis(t, time.Minute)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.Bump(context.Background()))
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	c, err := Dial(context.Background(), config.RedisConfig{Addr: addr, CacheTTL: time.Second})
	require.NoError(t, err)
	assert.NoError(t, c.Close())

	mr.Close()
	_, err = Dial(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err, "dial must fail when the server is down")
}

func TestNoop(t *testing.T) {
	var n Noop
	ctx := context.Background()
	require.NoError(t, n.Set(ctx, "k", []byte("v")))
	_, ok, err := n.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, n.Bump(ctx))
	v, _ := n.Version(ctx)
	assert.Zero(t, v)
}
