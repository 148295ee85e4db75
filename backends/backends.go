// Package backends picks the userinfo cache and rate limiter for a configuration.
package backends

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/PaulFidika/vippskit/config"
	oidckit "github.com/PaulFidika/vippskit/oidc"
	memorylimiter "github.com/PaulFidika/vippskit/ratelimit/memory"
	redislimiter "github.com/PaulFidika/vippskit/ratelimit/redis"
	memorystore "github.com/PaulFidika/vippskit/storage/memory"
	redisstore "github.com/PaulFidika/vippskit/storage/redis"
)

// BucketUserInfo is the rate-limit bucket for userinfo fetches, keyed by subject.
const BucketUserInfo = "userinfo"

// RateLimiter reports whether one more hit for key in bucket is allowed.
type RateLimiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}

// Backends holds the userinfo cache and limiter chosen for a configuration.
// Either may be nil when disabled.
type Backends struct {
	Cache   oidckit.ClaimsCache
	Limiter RateLimiter
	closers []func() error
}

// New uses Redis when cfg.RedisAddr is set and in-memory stores
// otherwise. A zero cache TTL disables the cache; a zero rate limit disables
// the limiter.
func New(cfg config.Config) *Backends {
	b := &Backends{}
	var rdb *redis.Client
	if cfg.RedisAddr != "" && (cfg.UserInfoCacheTTL > 0 || cfg.UserInfoRateLimit > 0) {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		b.closers = append(b.closers, rdb.Close)
	}

	if ttl := cfg.UserInfoCacheTTL; ttl > 0 {
		if rdb != nil {
			b.Cache = redisstore.NewClaimsCache(rdb, "vipps:userinfo:", ttl)
		} else {
			mem := memorystore.NewClaimsCache(ttl)
			b.Cache = mem
			b.closers = append(b.closers, mem.Close)
		}
	}

	if n := cfg.UserInfoRateLimit; n > 0 {
		if rdb != nil {
			b.Limiter = redislimiter.New(rdb, map[string]redislimiter.Limit{BucketUserInfo: {Limit: n, Window: time.Minute}})
		} else {
			b.Limiter = memorylimiter.New(map[string]memorylimiter.Limit{BucketUserInfo: {Limit: n, Window: time.Minute}})
		}
	}
	return b
}

// Close releases the Redis client and stops in-memory janitors.
func (b *Backends) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
