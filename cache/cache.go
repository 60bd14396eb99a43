// Package cache implements the Cache<V> contract of SPEC_FULL.md §4.5: a
// uniform get/set/del surface with two adapters — an in-process sharded LRU
// with TTL, and a Redis-backed remote cache with prefix namespacing.
package cache

import (
	"context"
	"time"
)

// Cache is the minimal contract every adapter must satisfy. Get returns the
// zero value of V and false on a miss (including on an expired entry or a
// swallowed backend error, which the remote adapter treats as a miss).
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Set(ctx context.Context, key string, value V, ttl time.Duration)
	Del(ctx context.Context, key string) error
}

// Clearer is implemented by adapters that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Sizer is implemented by adapters that can report their current entry
// count. The facade's getCacheStats falls back to 0 when a cache does not
// implement Sizer.
type Sizer interface {
	Size(ctx context.Context) int
}

// Destroyer is implemented by adapters holding resources (sweep timers,
// connection pools) that must be released explicitly.
type Destroyer interface {
	Destroy() error
}
