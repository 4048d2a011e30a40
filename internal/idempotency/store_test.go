package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

func TestRedisStore_ClaimOnce(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	first, err := store.Claim(ctx, "msg_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.Claim(ctx, "msg_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	assert.True(t, mr.Exists(keyPrefix+"msg_1"))
	assert.Equal(t, time.Minute, mr.TTL(keyPrefix+"msg_1"))
}

func TestRedisStore_ExpiryAndRelease(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	_, err := store.Claim(ctx, "msg_2", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	again, err := store.Claim(ctx, "msg_2", time.Second)
	require.NoError(t, err)
	assert.True(t, again, "expired claim must be reusable")

	require.NoError(t, store.Release(ctx, "msg_2"))
	afterRelease, err := store.Claim(ctx, "msg_2", time.Second)
	require.NoError(t, err)
	assert.True(t, afterRelease)
}

func TestRedisStore_ErrorWhenUnavailable(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := NewRedisStore(client).Claim(context.Background(), "msg_3", time.Minute)
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	_ = client.Close()

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &memoryStore{now: func() time.Time { return now }, claims: map[string]time.Time{}}
	ctx := context.Background()

	ok, _ := s.Claim(ctx, "a", time.Minute)
	assert.True(t, ok)
	ok, _ = s.Claim(ctx, "a", time.Minute)
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = s.Claim(ctx, "a", time.Minute)
	assert.True(t, ok)

	require.NoError(t, s.Release(ctx, "a"))
	ok, _ = s.Claim(ctx, "a", time.Minute)
	assert.True(t, ok)
}

func TestNoop(t *testing.T) {
	ok, err := Noop().Claim(context.Background(), "x", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
