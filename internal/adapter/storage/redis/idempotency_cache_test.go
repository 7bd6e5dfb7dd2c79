package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*miniredis.Miniredis, *IdempotencyCache) {
	t.Helper()
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	return s, NewIdempotencyCache(client)
}

func TestIdempotencyCache_MissThenHit(t *testing.T) {
	_, cache := newTestCache(t)
	ctx := context.Background()

	key := "idem:charge:ORDER-001"
	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "a miss is nil, nil, not an error")

	cached := []byte(`{"id":"7f9c","merchant_order_id":"ORDER-001","status":"COMPLETED"}`)
	require.NoError(t, cache.Set(ctx, key, cached, 24*time.Hour))

	got, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, cached, got)
}

func TestIdempotencyCache_KeysAreNamespaced(t *testing.T) {
	s, cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "idem:charge:ORDER-002", []byte("x"), time.Hour))

	assert.True(t, s.Exists("wlg:idem:charge:ORDER-002"))
	assert.False(t, s.Exists("idem:charge:ORDER-002"))
}

func TestIdempotencyCache_EntriesExpire(t *testing.T) {
	s, cache := newTestCache(t)
	ctx := context.Background()

	key := "idem:charge:ORDER-003"
	require.NoError(t, cache.Set(ctx, key, []byte("x"), time.Second))

	s.FastForward(2 * time.Second)

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotencyCache_LastWriteWins(t *testing.T) {
	_, cache := newTestCache(t)
	ctx := context.Background()

	key := "idem:charge:ORDER-004"
	require.NoError(t, cache.Set(ctx, key, []byte("first"), time.Hour))
	require.NoError(t, cache.Set(ctx, key, []byte("second"), time.Hour))

	got, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
