package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	server := miniredis.RunT(t)
	redisCache, err := NewRedisCache(server.Addr())
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	t.Cleanup(func() { _ = redisCache.Close() })
	return redisCache
}

func TestRedisCache_MissThenHit(t *testing.T) {
	redisCache := newTestRedisCache(t)
	ctx := context.Background()

	if _, err := redisCache.GetList(ctx); !errors.Is(err, ErrMiss) {
		t.Fatalf("GetList on empty cache error = %v; expected ErrMiss", err)
	}

	payload := []byte(`[{"_id":"abc","filename":"1-cat.png"}]`)
	if err := redisCache.SetList(ctx, payload); err != nil {
		t.Fatalf("SetList error: %v", err)
	}

	got, err := redisCache.GetList(ctx)
	if err != nil {
		t.Fatalf("GetList error: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("cached payload mismatch: got %q, want %q", got, payload)
	}
}

func TestRedisCache_Invalidate(t *testing.T) {
	redisCache := newTestRedisCache(t)
	ctx := context.Background()

	if err := redisCache.SetList(ctx, []byte("[]")); err != nil {
		t.Fatalf("SetList error: %v", err)
	}
	if err := redisCache.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate error: %v", err)
	}
	if _, err := redisCache.GetList(ctx); !errors.Is(err, ErrMiss) {
		t.Fatalf("GetList after Invalidate error = %v; expected ErrMiss", err)
	}
}

func TestNewCache_Factory(t *testing.T) {
	listCache, err := NewCache("none", "")
	if err != nil {
		t.Fatalf("NewCache(none) error: %v", err)
	}
	if _, ok := listCache.(*NoopCache); !ok {
		t.Fatalf("NewCache(none) returned %T; expected *NoopCache", listCache)
	}

	if _, err := NewCache("memcached", ""); err == nil {
		t.Fatalf("expected error for unsupported cache type, got nil")
	}
}

func TestNoopCache_AlwaysMisses(t *testing.T) {
	noop := NewNoopCache()
	ctx := context.Background()

	if err := noop.SetList(ctx, []byte("[]")); err != nil {
		t.Fatalf("SetList error: %v", err)
	}
	if _, err := noop.GetList(ctx); !errors.Is(err, ErrMiss) {
		t.Fatalf("GetList error = %v; expected ErrMiss", err)
	}
}
