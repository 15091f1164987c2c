package rediscache

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/timpalpant/go-spne"
	"github.com/timpalpant/go-spne/games"
)

// Requires a running Redis server at SPNE_TEST_REDIS_ADDR.
func newTestCache(t *testing.T) *Cache {
	addr := os.Getenv("SPNE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SPNE_TEST_REDIS_ADDR not set")
	}

	cache, err := New(context.Background(), Params{Addr: addr, TTL: time.Minute})
	if err != nil {
		t.Fatal(err)
	}

	return cache
}

func TestCache(t *testing.T) {
	cache := newTestCache(t)
	defer cache.Close()

	ctx := context.Background()
	g := games.Ultimatum(2)
	digest, err := g.Snapshot().Digest()
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, err := cache.Get(ctx, "missing-"+digest); err != nil || ok {
		t.Errorf("expected cache miss, got ok=%v err=%v", ok, err)
	}

	sol, err := spne.Solve(g)
	if err != nil {
		t.Fatal(err)
	}
	if err := cache.Set(ctx, digest, sol); err != nil {
		t.Fatal(err)
	}

	got, ok, err := cache.Get(ctx, digest)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if !reflect.DeepEqual(got, sol) {
		t.Errorf("expected %+v, got %+v", sol, got)
	}
}
