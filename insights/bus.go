// Package insights implements the best-effort observability surface of
// SPEC_FULL.md §6: a hit/miss/evict event schema, an in-process publish
// subscribe bus (replacing the reference system's Encore pubsub topics,
// since this module has no network service boundary for Encore to attach
// to), a Prometheus metrics subscriber, and an optional Postgres-backed
// audit sink.
package insights

import (
	"sync"

	"github.com/bold-minds/includekit-go/internal/logging"
	"github.com/bold-minds/includekit-go/model"
)

// EventType enumerates the insights events the coordinator emits. These
// names mirror the reference system's pubsub topic naming
// (cache.invalidate / cache.refresh), scoped down to exactly the three
// kinds the coordinator itself produces.
type EventType string

const (
	EventHit   EventType = "hit"
	EventMiss  EventType = "miss"
	EventEvict EventType = "evict"
)

// DependenciesSummary accompanies a miss event, describing the shape of
// what add_query registered.
type DependenciesSummary struct {
	ModelCount  int `json:"modelCount"`
	RecordCount int `json:"recordCount"`
}

// Event is the wire schema emitted for every hit, miss, and evict.
// TimestampUnixMilli is stamped by the coordinator at emission time; the Bus
// delivers events as given and never sets or changes it.
type Event struct {
	ShapeId             model.ShapeId        `json:"shapeId"`
	EventType           EventType            `json:"eventType"`
	TimestampUnixMilli  int64                `json:"timestamp"`
	DependenciesSummary *DependenciesSummary `json:"dependenciesSummary,omitempty"`
}

// Subscriber receives published events. It must not block for long and
// must not propagate errors: the bus recovers subscriber panics so one
// broken consumer can never affect cache correctness.
type Subscriber func(Event)

// Bus is an in-process, best-effort publish/subscribe hub. Publish calls
// every subscriber synchronously and in registration order; this is the
// right tradeoff for an observability feed whose consumers are expected to
// be fast counters and non-blocking sinks, not to the throughput of the
// read/write path itself.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Subscriber
	logger      *logging.Logger
}

// NewBus constructs an empty Bus.
func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bus{logger: logger}
}

// Subscribe registers sub to receive every subsequently published Event.
func (b *Bus) Subscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, sub)
}

// Publish fans ev out to every subscriber. A panicking subscriber is
// recovered and logged, never allowed to reach the caller (the cache
// coordinator, on its hot path).
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, ev)
	}
}

func (b *Bus) deliver(sub Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn().Interface("panic", r).Str("shapeId", string(ev.ShapeId)).Msg("insights subscriber panicked, dropping event for it")
		}
	}()
	sub(ev)
}
