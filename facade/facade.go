// Package facade implements the Integration Facade (SPEC_FULL.md §4.2): the
// surface a host application actually imports. It wraps an ORM client via a
// Mapper, intercepts the ORM's two transaction shapes, and exposes the
// Diagnostics surface (getVersion/getCacheStats/reset/destroy).
package facade

import (
	"context"
	"fmt"

	"github.com/bold-minds/includekit-go/cache"
	"github.com/bold-minds/includekit-go/coordinator"
	"github.com/bold-minds/includekit-go/engine"
	"github.com/bold-minds/includekit-go/mapper"
	"github.com/bold-minds/includekit-go/model"
)

// Facade is the constructed integration point a host application holds for
// the lifetime of its process.
type Facade struct {
	coordinator *coordinator.Coordinator
}

// New wraps coord. Construction of the Coordinator itself (schema loading,
// engine/cache wiring) happens in package coordinator; the facade only adds
// the ORM-facing surface on top.
func New(coord *coordinator.Coordinator) *Facade {
	return &Facade{coordinator: coord}
}

// Install extends client via m, routing every intercepted ORM call through
// the facade's coordinator. The returned client is what the host application
// should use in place of the original.
func (f *Facade) Install(client any, m mapper.Mapper) any {
	return m.ExtendClient(client, f.coordinator)
}

// InteractiveTx is a callback-style transaction body: fn receives the ORM's
// per-transaction client/context (tx) and should use it for every write
// performed inside the transaction.
type InteractiveTx func(ctx context.Context, tx any) (any, error)

// RunInteractiveTransaction implements §4.2's interactive-transaction
// intercept: begin(tx) before fn runs, commit(tx) on a successful return,
// rollback(tx) on error. fn's own error is returned unchanged after the
// rollback completes.
func (f *Facade) RunInteractiveTransaction(ctx context.Context, tx any, fn InteractiveTx) (any, error) {
	f.coordinator.Begin(tx)

	result, err := fn(ctx, tx)
	if err != nil {
		f.coordinator.Rollback(tx)
		return nil, err
	}

	f.coordinator.Commit(tx)
	return result, nil
}

// BatchOperation is one precomputed write in a batch transaction: an ordered
// array of operations the ORM does not expose a per-operation transactional
// client for.
type BatchOperation struct {
	Mutation model.Mutation
	Execute  coordinator.Execute
}

// RunBatch implements §4.2's batch-transaction branch: no buffering applies,
// each operation's write evicts immediately via executeWrite's txContext-nil
// path, in the order given.
func (f *Facade) RunBatch(ctx context.Context, ops []BatchOperation) ([]any, error) {
	results := make([]any, 0, len(ops))
	for i, op := range ops {
		result, err := f.coordinator.ExecuteWrite(ctx, op.Mutation, op.Execute, nil)
		if err != nil {
			return nil, fmt.Errorf("includekit/facade: batch operation %d: %w", i, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// CacheStats is the Diagnostics surface's getCacheStats() response.
type CacheStats struct {
	Size    int     `json:"size"`
	HitRate float64 `json:"hitRate"`
}

// GetVersion delegates to the engine's own version() call.
func (f *Facade) GetVersion(ctx context.Context) (engine.Version, error) {
	return f.coordinator.Engine().Version(ctx)
}

// GetCacheStats returns {size, hitRate}; size is 0 when the underlying cache
// does not implement Sizer (e.g. a bare remote adapter).
func (f *Facade) GetCacheStats() CacheStats {
	stats := f.coordinator.GetStats()
	size := 0
	if sizer, ok := f.coordinator.Cache().(cache.Sizer); ok {
		size = sizer.Size(context.Background())
	}
	return CacheStats{Size: size, HitRate: stats.HitRate()}
}

// Reset calls engine.reset() then cache.clear() if the cache supports it.
func (f *Facade) Reset(ctx context.Context) error {
	if err := f.coordinator.Engine().Reset(ctx); err != nil {
		return err
	}
	if clearer, ok := f.coordinator.Cache().(cache.Clearer); ok {
		return clearer.Clear(ctx)
	}
	return nil
}

// Destroy tears down the cache (if it supports Destroyer) and the
// coordinator's own background work.
func (f *Facade) Destroy() error {
	defer f.coordinator.Destroy()
	if destroyer, ok := f.coordinator.Cache().(cache.Destroyer); ok {
		return destroyer.Destroy()
	}
	return nil
}
