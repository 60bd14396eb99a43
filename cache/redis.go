package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bold-minds/includekit-go/internal/logging"
)

// RemoteConfig configures a Redis adapter. Prefix namespaces every key this
// adapter touches so several coordinators (or coordinator and host
// application) can safely share one Redis instance/database.
type RemoteConfig struct {
	Client     redis.UniversalClient
	Prefix     string
	DefaultTTL time.Duration
	Logger     *logging.Logger
}

// Remote is the Redis-backed Cache adapter. Per the spec's error policy,
// every backend failure is logged at warning level and swallowed: Get
// reports a miss, Set and Del are no-ops. This preserves the system's
// liveness under backend outages at the cost of correctness guarantees the
// spec already scopes as best-effort.
type Remote[V any] struct {
	client     redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
	logger     *logging.Logger
}

// NewRemote builds a Remote cache over an already-constructed
// redis.UniversalClient (production code hands in *redis.Client; tests hand
// in a client pointed at miniredis).
func NewRemote[V any](cfg RemoteConfig) *Remote[V] {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ik:"
	}
	ttl := cfg.DefaultTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Remote[V]{client: cfg.Client, prefix: prefix, defaultTTL: ttl, logger: logger}
}

func (r *Remote[V]) prefixed(key string) string {
	return r.prefix + key
}

func (r *Remote[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, err := r.client.Get(ctx, r.prefixed(key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn().Err(err).Str("key", key).Msg("remote cache get failed, treating as miss")
		}
		return zero, false
	}
	value, err := unmarshalValue[V](raw)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("remote cache value failed to decode, treating as miss")
		return zero, false
	}
	return value, true
}

func (r *Remote[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	data, err := marshalValue(value)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("remote cache set failed to encode value")
		return
	}
	if err := r.client.Set(ctx, r.prefixed(key), data, ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("remote cache set failed")
	}
}

func (r *Remote[V]) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefixed(key)).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("remote cache del failed")
	}
	return nil
}

// Clear performs a cursor-based SCAN over "${prefix}*" and batch-deletes
// matches. It is documented as non-atomic: keys written concurrently with a
// Clear call may or may not be included.
func (r *Remote[V]) Clear(ctx context.Context) error {
	var cursor uint64
	pattern := r.prefix + "*"
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			r.logger.Warn().Err(err).Msg("remote cache clear scan failed")
			return nil
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.logger.Warn().Err(err).Msg("remote cache clear delete batch failed")
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

// Size is unsupported by the remote adapter (a namespaced DBSIZE would
// require an expensive full scan); it intentionally does not implement
// Sizer so the facade's getCacheStats falls back to 0.
