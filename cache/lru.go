package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/bold-minds/includekit-go/internal/logging"
)

// LRUConfig configures an LRU. MaxItems bounds the total number of entries
// across all shards (P7); ShardCount partitions that bound across
// independent, independently-locked partitions to reduce contention at
// scale (a ShardCount above MaxItems is lowered to MaxItems). CleanupInterval,
// when non-zero, runs one background goroutine that sweeps every shard for
// expired entries; it is daemon-style and never blocks process exit.
type LRUConfig struct {
	MaxItems        int
	ShardCount      int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	Logger          *logging.Logger
}

// DefaultLRUConfig mirrors the reference in-process cache's defaults.
func DefaultLRUConfig() LRUConfig {
	return LRUConfig{
		MaxItems:   10_000,
		ShardCount: 16,
		DefaultTTL: time.Hour,
	}
}

type lruElement[V any] struct {
	key          string
	value        V
	expiresAt    time.Time
	lastAccessed time.Time
}

type lruShard[V any] struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List
	maxItems int
}

func newLRUShard[V any](maxItems int) *lruShard[V] {
	return &lruShard[V]{
		items:    make(map[string]*list.Element, maxItems),
		order:    list.New(),
		maxItems: maxItems,
	}
}

// get implements the spec's re-insert-on-access discipline: a hit moves the
// entry to the front of the order list, so "least recently used" reduces to
// "least recently (re-)inserted" under this cache's eviction rule.
func (s *lruShard[V]) get(key string, now time.Time) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero V
	el, ok := s.items[key]
	if !ok {
		return zero, false
	}
	entry := el.Value.(*lruElement[V])
	if now.After(entry.expiresAt) || now.Equal(entry.expiresAt) {
		s.deleteLocked(key)
		return zero, false
	}

	entry.lastAccessed = now
	s.order.MoveToFront(el)
	return entry.value, true
}

func (s *lruShard[V]) set(key string, value V, expiresAt, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		entry := el.Value.(*lruElement[V])
		entry.value = value
		entry.expiresAt = expiresAt
		entry.lastAccessed = now
		s.order.MoveToFront(el)
		return
	}

	if s.order.Len() >= s.maxItems {
		s.evictOldestLocked()
	}

	entry := &lruElement[V]{key: key, value: value, expiresAt: expiresAt, lastAccessed: now}
	el := s.order.PushFront(entry)
	s.items[key] = el
}

func (s *lruShard[V]) del(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(key)
}

func (s *lruShard[V]) deleteLocked(key string) {
	el, ok := s.items[key]
	if !ok {
		return
	}
	s.order.Remove(el)
	delete(s.items, key)
}

func (s *lruShard[V]) evictOldestLocked() {
	oldest := s.order.Back()
	if oldest == nil {
		return
	}
	entry := oldest.Value.(*lruElement[V])
	s.order.Remove(oldest)
	delete(s.items, entry.key)
}

func (s *lruShard[V]) sweepExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	for key, el := range s.items {
		entry := el.Value.(*lruElement[V])
		if now.After(entry.expiresAt) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		s.deleteLocked(key)
	}
	return len(expired)
}

func (s *lruShard[V]) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *lruShard[V]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*list.Element, s.maxItems)
	s.order = list.New()
}

// LRU is the in-process Cache adapter: a fixed number of independently
// locked shards, each enforcing MaxItems/ShardCount, plus an optional
// cleanup sweep over all shards. The total never exceeds MaxItems. Eviction
// is per shard: a Set into a full shard evicts that shard's least recently
// (re-)inserted entry, so with more than one shard the evicted entry is not
// necessarily the oldest overall, and evictions can start before the total
// reaches MaxItems. With ShardCount 1 the order is exactly global LRU.
type LRU[V any] struct {
	router     *shardRouter
	shards     []*lruShard[V]
	defaultTTL time.Duration
	logger     *logging.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewLRU builds a sharded in-process cache per cfg, starting its background
// sweep goroutine if CleanupInterval is non-zero.
func NewLRU[V any](cfg LRUConfig) *LRU[V] {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultLRUConfig().MaxItems
	}
	if cfg.ShardCount <= 0 {
		cfg.ShardCount = DefaultLRUConfig().ShardCount
	}
	if cfg.ShardCount > cfg.MaxItems {
		cfg.ShardCount = cfg.MaxItems
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultLRUConfig().DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}

	perShard := cfg.MaxItems / cfg.ShardCount
	if perShard < 1 {
		perShard = 1
	}

	shards := make([]*lruShard[V], cfg.ShardCount)
	for i := 0; i < cfg.ShardCount; i++ {
		shards[i] = newLRUShard[V](perShard)
	}

	l := &LRU[V]{
		router:     newShardRouter(cfg.ShardCount),
		shards:     shards,
		defaultTTL: cfg.DefaultTTL,
		logger:     cfg.Logger,
		stopCh:     make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go l.runCleanup(cfg.CleanupInterval)
	}

	return l
}

func (l *LRU[V]) shardFor(key string) *lruShard[V] {
	return l.shards[l.router.shardIndex(key)]
}

func (l *LRU[V]) Get(ctx context.Context, key string) (V, bool) {
	return l.shardFor(key).get(key, time.Now())
}

func (l *LRU[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	now := time.Now()
	l.shardFor(key).set(key, value, now.Add(ttl), now)
}

func (l *LRU[V]) Del(ctx context.Context, key string) error {
	l.shardFor(key).del(key)
	return nil
}

func (l *LRU[V]) Clear(ctx context.Context) error {
	for _, s := range l.shards {
		s.clear()
	}
	return nil
}

func (l *LRU[V]) Size(ctx context.Context) int {
	total := 0
	for _, s := range l.shards {
		total += s.size()
	}
	return total
}

// Destroy stops the cleanup sweep and drops all entries. It is safe to call
// more than once.
func (l *LRU[V]) Destroy() error {
	l.stopOnce.Do(func() { close(l.stopCh) })
	for _, s := range l.shards {
		s.clear()
	}
	return nil
}

func (l *LRU[V]) runCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case now := <-ticker.C:
			total := 0
			for _, s := range l.shards {
				total += s.sweepExpired(now)
			}
			if total > 0 {
				l.logger.Debug().Int("expired", total).Msg("lru cleanup sweep removed expired entries")
			}
		}
	}
}
