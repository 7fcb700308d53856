package wizard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Hour)

	w, err := s.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, New(), w)

	w = walkToReview(t)
	require.NoError(t, s.Save(ctx, "user-1", w))
	assert.True(t, mr.Exists(redisKeyPrefix+"user-1"))
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+"user-1"))

	got, err := s.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, w, got)
	assert.NotSame(t, w.Case, got.Case)

	// Other users are not affected
	other, err := s.Load(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, CaseLookup, other.Step)

	require.NoError(t, s.Delete(ctx, "user-1"))
	assert.False(t, mr.Exists(redisKeyPrefix+"user-1"))

	got, err = s.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, CaseLookup, got.Step)
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t, time.Minute)

	require.NoError(t, s.Save(ctx, "user-1", walkToReview(t)))
	mr.FastForward(2 * time.Minute)

	w, err := s.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, CaseLookup, w.Step)
	assert.Nil(t, w.Case)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set(redisKeyPrefix+"user-1", "{not json"))

	_, err := s.Load(context.Background(), "user-1")
	assert.Error(t, err)
}

func TestRedisStoreServerDown(t *testing.T) {
	s, mr := newRedisStore(t, time.Minute)
	mr.Close()

	_, err := s.Load(context.Background(), "user-1")
	assert.Error(t, err)
	assert.Error(t, s.Save(context.Background(), "user-1", New()))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()
}

func TestConnectRejectsBadURL(t *testing.T) {
	_, err := Connect(context.Background(), "redis://:bad:url:/x")
	assert.Error(t, err)
}

func TestConnectUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Connect(context.Background(), addr)
	assert.Error(t, err)
}
