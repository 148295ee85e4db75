package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/PaulFidika/vippskit/claims"
)

// ClaimsCache stores userinfo claim sets in Redis.
type ClaimsCache struct {
	rdb   redis.Cmdable
	keyNS string
	ttl   time.Duration
}

// NewClaimsCache creates a Redis-backed claims cache.
func NewClaimsCache(rdb redis.Cmdable, keyPrefix string, ttl time.Duration) *ClaimsCache {
	if keyPrefix == "" {
		keyPrefix = "vipps:userinfo:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ClaimsCache{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (c *ClaimsCache) key(k string) string { return c.keyNS + k }

func (c *ClaimsCache) Put(ctx context.Context, key string, set claims.Set) error {
	b, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(key), b, c.ttl).Err()
}

func (c *ClaimsCache) Get(ctx context.Context, key string) (claims.Set, bool, error) {
	val, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var set claims.Set
	if err := json.Unmarshal(val, &set); err != nil {
		return nil, false, err
	}
	return set, true, nil
}

func (c *ClaimsCache) Del(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.key(key)).Err()
}
