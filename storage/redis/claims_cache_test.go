package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaulFidika/vippskit/claims"
)

func newTestCache(t *testing.T, ttl time.Duration) (*ClaimsCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewClaimsCache(rdb, "", ttl), s
}

func TestClaimsCache_RoundTrip(t *testing.T) {
	c, s := newTestCache(t, time.Minute)
	ctx := context.Background()

	set := claims.New(
		claims.Subject, "3fa85f64-5717-4562-b3fc-2c963f66afa6",
		claims.OtherAddresses, `{"address_type":"work"}`,
		claims.OtherAddresses, `{"address_type":"other"}`,
	)
	require.NoError(t, c.Put(ctx, "abc", set))
	assert.True(t, s.Exists("vipps:userinfo:abc"))

	got, ok, err := c.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, set, got)
}

func TestClaimsCache_MissAndExpiry(t *testing.T) {
	c, s := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", claims.New(claims.Email, "ola@example.com")))
	s.FastForward(2 * time.Minute)

	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimsCache_Del(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, "k", claims.New(claims.Email, "ola@example.com")))
	require.NoError(t, c.Del(ctx, "k"))

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
