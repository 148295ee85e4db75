package memorylimiter

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter is an in-memory sliding-window rate limiter for a single node.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	buckets map[string][]time.Time
	now     func() time.Time
}

// New constructs an in-memory limiter. A "default" entry applies to buckets
// without their own limit; without it the fallback is 100 per minute.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

func (l *Limiter) get(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 100, Window: time.Minute}
}

// Allow records one hit for key in bucket and reports whether it is within
// the limit. Denied hits are not recorded. A nil Limiter allows everything.
func (l *Limiter) Allow(_ context.Context, bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, errors.New("ratelimit: bucket and key required")
	}

	lim := l.get(bucket)
	now := l.now()
	windowStart := now.Add(-lim.Window)
	k := bucket + ":" + key

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.buckets[k]
	i := 0
	for i < len(hits) && !hits[i].After(windowStart) {
		i++
	}
	hits = hits[i:]

	if len(hits) >= lim.Limit {
		l.buckets[k] = hits
		return false, nil
	}
	l.buckets[k] = append(hits, now)
	return true, nil
}
