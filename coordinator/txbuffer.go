package coordinator

import (
	"sync"

	"github.com/bold-minds/includekit-go/model"
)

// txBuffer accumulates ShapeIds evicted by writes issued inside one
// transaction, made visible only on commit.
type txBuffer struct {
	mu       sync.Mutex
	shapeIds map[model.ShapeId]struct{}
}

func newTxBuffer() *txBuffer {
	return &txBuffer{shapeIds: make(map[model.ShapeId]struct{})}
}

func (b *txBuffer) union(shapeIds []model.ShapeId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sid := range shapeIds {
		b.shapeIds[sid] = struct{}{}
	}
}

func (b *txBuffer) drain() []model.ShapeId {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.ShapeId, 0, len(b.shapeIds))
	for sid := range b.shapeIds {
		out = append(out, sid)
	}
	return out
}

// Begin creates an empty eviction buffer for txContext. The spec requires
// txContext to be a weak key (the buffer releases when the handle is
// garbage collected); Go has no weak maps, so this implementation instead
// uses a plain sync.Map keyed by txContext's identity and relies on the
// caller invoking Commit or Rollback to release the entry explicitly. A
// caller that begins a transaction and never commits or rolls it back
// leaks the buffer for the coordinator's lifetime — this is a caller
// obligation, not a defect the coordinator can protect against, since
// txContext is an opaque value supplied by the ORM mapper.
//
// Callers must not call Begin twice for the same handle; doing so discards
// whatever buffer the first Begin created.
func (c *Coordinator) Begin(txContext any) {
	if txContext == nil {
		return
	}
	c.txBuffers.Store(txContext, newTxBuffer())
}

// Commit deletes every ShapeId accumulated in txContext's buffer from the
// cache, concurrently and without ordering, emitting one evict insight per
// ShapeId, then releases the buffer. It is a no-op if txContext has no
// buffer (§8 P8).
func (c *Coordinator) Commit(txContext any) {
	if txContext == nil {
		return
	}
	value, ok := c.txBuffers.LoadAndDelete(txContext)
	if !ok {
		return
	}
	buf := value.(*txBuffer)
	shapeIds := buf.drain()
	c.evictAndPublish(shapeIds)
}

// Rollback discards txContext's buffer without applying any of its
// evictions. It is a no-op if txContext has no buffer (§8 P8).
func (c *Coordinator) Rollback(txContext any) {
	if txContext == nil {
		return
	}
	c.txBuffers.Delete(txContext)
}
