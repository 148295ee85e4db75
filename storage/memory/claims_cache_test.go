package memorystore

import (
	"context"
	"testing"
	"time"

	"github.com/PaulFidika/vippskit/claims"
)

const sub = "3fa85f64-5717-4562-b3fc-2c963f66afa6"

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration, opts ...Option) (*ClaimsCache, *clock) {
	clk := &clock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewClaimsCache(ttl, opts...)
	c.now = clk.now
	return c, clk
}

func TestClaimsCache_PutGetDel(t *testing.T) {
	c, _ := newTestCache(time.Minute)
	ctx := context.Background()

	set := claims.New(claims.Subject, sub)
	if err := c.Put(ctx, "k", set); err != nil {
		t.Fatalf("put: %v", err)
	}
	set[0].Value = "mutated"

	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if v, _ := got.FindFirst(claims.Subject); v != sub {
		t.Fatalf("cache must hold its own copy, got %q", v)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}

func TestClaimsCache_Expiry(t *testing.T) {
	c, clk := newTestCache(time.Minute)
	ctx := context.Background()

	_ = c.Put(ctx, "a", claims.New(claims.Email, "ola@example.com"))
	clk.advance(30 * time.Second)
	_ = c.Put(ctx, "b", claims.New(claims.Email, "kari@example.com"))
	clk.advance(31 * time.Second)

	if _, ok, _ := c.Get(ctx, "a"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if _, ok, _ := c.Get(ctx, "b"); !ok {
		t.Fatal("expected live entry to hit")
	}

	clk.advance(time.Minute)
	_ = c.Put(ctx, "c", nil)
	if c.Len() != 1 {
		t.Fatalf("expected writes to prune expired entries, len=%d", c.Len())
	}
}

func TestClaimsCache_EvictsOldestWhenFull(t *testing.T) {
	c, _ := newTestCache(time.Minute, WithMaxEntries(2))
	ctx := context.Background()

	_ = c.Put(ctx, "a", nil)
	_ = c.Put(ctx, "b", nil)
	_ = c.Put(ctx, "a", nil) // refresh moves a behind b
	_ = c.Put(ctx, "c", nil)

	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Fatal("expected oldest entry b to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok, _ := c.Get(ctx, k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
}

func TestClaimsCache_Close(t *testing.T) {
	c, _ := newTestCache(0)
	_ = c.Put(context.Background(), "k", nil)
	_ = c.Close()
	_ = c.Close()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after close, len=%d", c.Len())
	}
}
