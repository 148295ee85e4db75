package memorystore

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PaulFidika/vippskit/claims"
)

// DefaultMaxEntries bounds a ClaimsCache built without WithMaxEntries.
const DefaultMaxEntries = 10000

// ClaimsCache is an in-memory oidckit.ClaimsCache. Every entry lives for the
// same TTL, so insertion order is expiry order: expired entries are pruned
// from the front on each write, and a full cache drops its oldest entry.
type ClaimsCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	order      *list.List // of *entry, oldest first
	index      map[string]*list.Element
	now        func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key string
	set claims.Set
	exp time.Time
}

// Option configures a ClaimsCache.
type Option func(*ClaimsCache)

// WithMaxEntries caps the number of cached userinfo responses.
func WithMaxEntries(n int) Option {
	return func(c *ClaimsCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// NewClaimsCache creates a cache whose entries expire after ttl. A ttl <= 0
// means 5 minutes.
func NewClaimsCache(ttl time.Duration, opts ...Option) *ClaimsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &ClaimsCache{
		ttl:        ttl,
		maxEntries: DefaultMaxEntries,
		order:      list.New(),
		index:      make(map[string]*list.Element),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ClaimsCache) Put(_ context.Context, key string, set claims.Set) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.pruneExpired(now)
	if el, ok := c.index[key]; ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
	for c.order.Len() >= c.maxEntries {
		c.remove(c.order.Front())
	}
	c.index[key] = c.order.PushBack(&entry{key: key, set: append(claims.Set(nil), set...), exp: now.Add(c.ttl)})
	return nil
}

func (c *ClaimsCache) Get(_ context.Context, key string) (claims.Set, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		c.misses.Add(1)
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if !c.now().Before(e.exp) {
		c.remove(el)
		c.misses.Add(1)
		return nil, false, nil
	}
	c.hits.Add(1)
	return append(claims.Set(nil), e.set...), true, nil
}

func (c *ClaimsCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.remove(el)
	}
	return nil
}

// Len returns the number of entries, expired ones included until the next write.
func (c *ClaimsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns the hit and miss counts since creation.
func (c *ClaimsCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close drops every entry.
func (c *ClaimsCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[string]*list.Element)
	return nil
}

func (c *ClaimsCache) pruneExpired(now time.Time) {
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if now.Before(el.Value.(*entry).exp) {
			return
		}
		c.remove(el)
	}
}

func (c *ClaimsCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.index, el.Value.(*entry).key)
}
