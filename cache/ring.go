package cache

import "hash/fnv"

// shardRouter routes a key to one of a fixed number of shards. The sharded
// LRU's shard count never changes after construction (SPEC_FULL.md §4.5's
// sharding is a fixed, construction-time internal detail, not a dynamically
// resized cluster), so a plain fnv64a(key) % shardCount is sufficient: there
// is no membership churn for consistent hashing's minimal-redistribution
// property to protect against.
type shardRouter struct {
	shardCount int
}

func newShardRouter(shardCount int) *shardRouter {
	if shardCount <= 0 {
		shardCount = 1
	}
	return &shardRouter{shardCount: shardCount}
}

func (r *shardRouter) shardIndex(key string) int {
	hasher := fnv.New64a()
	hasher.Write([]byte(key))
	return int(hasher.Sum64() % uint64(r.shardCount))
}
