package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU[string](LRUConfig{MaxItems: 10, ShardCount: 1})
	ctx := context.Background()

	c.Set(ctx, "a", "1", time.Minute)
	v, ok := c.Get(ctx, "a")
	if !ok {
		t.Fatalf("expected hit for key a")
	}
	if v != "1" {
		t.Errorf("expected value '1', got %q", v)
	}
}

func TestLRU_MissOnUnknownKey(t *testing.T) {
	c := NewLRU[string](LRUConfig{MaxItems: 10, ShardCount: 1})
	if _, ok := c.Get(context.Background(), "missing"); ok {
		t.Errorf("expected miss for unknown key")
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c := NewLRU[string](LRUConfig{MaxItems: 10, ShardCount: 1})
	ctx := context.Background()

	c.Set(ctx, "a", "1", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get(ctx, "a"); ok {
		t.Errorf("expected entry to have expired by TTL")
	}
}

func TestLRU_EvictsOldestOnOverflow(t *testing.T) {
	// Single shard so eviction order is exactly insertion order.
	c := NewLRU[int](LRUConfig{MaxItems: 3, ShardCount: 1})
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "b", 2, time.Minute)
	c.Set(ctx, "c", 3, time.Minute)
	c.Set(ctx, "d", 4, time.Minute) // should evict "a"

	if _, ok := c.Get(ctx, "a"); ok {
		t.Errorf("expected oldest entry 'a' to have been evicted")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := c.Get(ctx, key); !ok {
			t.Errorf("expected %q to still be present", key)
		}
	}
}

func TestLRU_GetRefreshesInsertionOrder(t *testing.T) {
	c := NewLRU[int](LRUConfig{MaxItems: 2, ShardCount: 1})
	ctx := context.Background()

	c.Set(ctx, "a", 1, time.Minute)
	c.Set(ctx, "b", 2, time.Minute)
	c.Get(ctx, "a") // re-insert "a" to the front
	c.Set(ctx, "c", 3, time.Minute) // should evict "b", not "a"

	if _, ok := c.Get(ctx, "b"); ok {
		t.Errorf("expected 'b' to have been evicted after 'a' was refreshed")
	}
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Errorf("expected 'a' to survive since it was refreshed before the overflow")
	}
}

func TestLRU_Del(t *testing.T) {
	c := NewLRU[string](LRUConfig{MaxItems: 10, ShardCount: 1})
	ctx := context.Background()

	c.Set(ctx, "a", "1", time.Minute)
	if err := c.Del(ctx, "a"); err != nil {
		t.Fatalf("unexpected error from Del: %v", err)
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Errorf("expected key to be gone after Del")
	}
}

func TestLRU_ClearAndSize(t *testing.T) {
	c := NewLRU[string](LRUConfig{MaxItems: 10, ShardCount: 4})
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, "v", time.Minute)
	}
	if got := c.Size(ctx); got != 3 {
		t.Errorf("expected size 3, got %d", got)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("unexpected error from Clear: %v", err)
	}
	if got := c.Size(ctx); got != 0 {
		t.Errorf("expected size 0 after Clear, got %d", got)
	}
}

func TestLRU_NeverExceedsMaxItemsAcrossShards(t *testing.T) {
	c := NewLRU[int](LRUConfig{MaxItems: 20, ShardCount: 4})
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		c.Set(ctx, keyFor(i), i, time.Minute)
	}

	if got := c.Size(ctx); got > 20 {
		t.Errorf("expected total size to stay within MaxItems=20, got %d", got)
	}
}

func TestLRU_DestroyStopsCleanupAndClears(t *testing.T) {
	c := NewLRU[string](LRUConfig{MaxItems: 10, ShardCount: 1, CleanupInterval: time.Millisecond})
	ctx := context.Background()
	c.Set(ctx, "a", "1", time.Minute)

	if err := c.Destroy(); err != nil {
		t.Fatalf("unexpected error from Destroy: %v", err)
	}
	if got := c.Size(ctx); got != 0 {
		t.Errorf("expected size 0 after Destroy, got %d", got)
	}
	// Destroy must be idempotent.
	if err := c.Destroy(); err != nil {
		t.Fatalf("second Destroy call should not error: %v", err)
	}
}

func keyFor(i int) string {
	const alphabet = "0123456789abcdef"
	b := make([]byte, 0, 8)
	for i > 0 || len(b) == 0 {
		b = append(b, alphabet[i%16])
		i /= 16
	}
	return string(b)
}
