package cache

import (
	"context"
	"testing"
	"time"
)

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	if err := c.SetObject(ctx, "dashboard", map[string]int{"a": 1}); err != nil {
		t.Fatalf("set: %v", err)
	}
	var dest map[string]int
	found, err := c.GetObject(ctx, "dashboard", &dest)
	if err != nil || found {
		t.Fatalf("expected miss without error, got found=%v err=%v", found, err)
	}
	if err := c.Delete(ctx, "dashboard"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Bump(ctx, "dashboard:version"); err != nil {
		t.Fatalf("bump: %v", err)
	}
	if v, err := c.Version(ctx, "dashboard:version"); err != nil || v != 0 {
		t.Fatalf("expected version 0, got %d err=%v", v, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestNewFailsWhenRedisUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := New(ctx, "127.0.0.1:1", "", 0, time.Minute)
	if err == nil {
		_ = c.Close()
		t.Fatal("expected connection error")
	}
}
