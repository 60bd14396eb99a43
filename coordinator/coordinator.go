// Package coordinator implements the Cache Coordinator: the heart of the
// system (SPEC_FULL.md §4.1). For every read and write flowing through the
// ORM Mapper, it orchestrates shape-identification, cache lookup,
// single-flight execution, dependency registration with the Dependency
// Engine, transaction-scoped eviction buffering, and insights emission
// under concurrent access.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bold-minds/includekit-go/cache"
	"github.com/bold-minds/includekit-go/engine"
	"github.com/bold-minds/includekit-go/insights"
	"github.com/bold-minds/includekit-go/internal/logging"
	"github.com/bold-minds/includekit-go/model"
)

// Execute is the DB call a mapper passes to ExecuteRead/ExecuteWrite. It may
// suspend; its result is opaque to the coordinator beyond being the value
// cached (reads) or returned unchanged (writes).
type Execute = func(ctx context.Context) (any, error)

// Coordinator is the process-wide owner of the single-flight map, the
// transaction buffer map, and the stats counters. The cache and engine are
// shared collaborators with their own internal synchronization; the
// Coordinator never reaches into their internals.
type Coordinator struct {
	schema model.AppSchema
	eng    engine.Engine
	cache  cache.Cache[model.CacheEntry]
	cfg    Config

	group     singleflight.Group
	txBuffers sync.Map // txContext (any) -> *txBuffer

	stats stats

	evictPool *evictPool
	logger    *logging.Logger
	bus       *insights.Bus

	destroyOnce sync.Once
}

// New constructs a Coordinator bound to schema, eng, and cacheImpl for the
// lifetime of the process (or until Destroy). It installs schema on the
// engine before returning, since the ABI requires set_schema to succeed
// before any query/mutation call.
func New(ctx context.Context, schema model.AppSchema, eng engine.Engine, cacheImpl cache.Cache[model.CacheEntry], cfg Config) (*Coordinator, error) {
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultConfig().DefaultTTL
	}
	if cfg.EvictionWorkers <= 0 {
		cfg.EvictionWorkers = DefaultConfig().EvictionWorkers
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Bus == nil {
		cfg.Bus = insights.NewBus(cfg.Logger)
	}

	if err := eng.SetSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("includekit/coordinator: installing schema: %w", err)
	}

	c := &Coordinator{
		schema: schema,
		eng:    eng,
		cache:  cacheImpl,
		cfg:    cfg,
		logger: cfg.Logger,
		bus:    cfg.Bus,
	}
	c.evictPool = newEvictPool(cfg.EvictionWorkers, c.evictOne)

	c.logger.Info().Int("models", len(schema.Models)).Msg("cache coordinator constructed")
	return c, nil
}

func (c *Coordinator) evictOne(shapeId model.ShapeId) error {
	return c.cache.Del(context.Background(), string(shapeId))
}

// loggerFor recovers the correlation id a caller attached to ctx via
// logging.ContextWithCorrelationID, so log lines emitted across a single
// ExecuteRead/ExecuteWrite call can be grepped together even though they
// span cache, engine, and single-flight code paths. Nothing in this module
// attaches an id itself; when ctx carries none, every LoggerFromContext call
// (this one and the engine client's) generates its own fresh id.
func (c *Coordinator) loggerFor(ctx context.Context) *logging.Logger {
	return logging.LoggerFromContext(ctx, c.logger)
}

func (c *Coordinator) emit(ev insights.Event) {
	ev.TimestampUnixMilli = time.Now().UnixMilli()
	c.bus.Publish(ev)
}

func (c *Coordinator) evictAndPublish(shapeIds []model.ShapeId) {
	if len(shapeIds) == 0 {
		return
	}
	c.evictPool.evictAll(shapeIds)
	for _, sid := range shapeIds {
		c.emit(insights.Event{ShapeId: sid, EventType: insights.EventEvict})
	}
}

// ExecuteRead implements §4.1's executeRead contract.
func (c *Coordinator) ExecuteRead(ctx context.Context, stmt model.Statement, execute Execute, resultHint any) (any, error) {
	log := c.loggerFor(ctx)

	shapeId, err := c.eng.ComputeShapeId(ctx, stmt)
	if err != nil {
		return nil, err
	}

	c.stats.totalRequests.Add(1)

	if entry, ok := c.cache.Get(ctx, string(shapeId)); ok {
		c.stats.cacheHits.Add(1)
		c.emit(insights.Event{ShapeId: shapeId, EventType: insights.EventHit})
		log.Debug().Str("shape_id", string(shapeId)).Msg("cache hit")
		return entry.Result, nil
	}

	log.Debug().Str("shape_id", string(shapeId)).Msg("cache miss, dispatching single-flight execution")
	result, err := c.doSingleFlight(ctx, string(shapeId), func() (any, error) {
		return c.executeReadMiss(ctx, shapeId, stmt, execute, resultHint)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// executeReadMiss is the new-promise body of §4.1 step 5: invoke execute,
// then on success register dependencies and populate the cache, emitting a
// miss insight; on failure, cache and engine state are left untouched.
func (c *Coordinator) executeReadMiss(ctx context.Context, shapeId model.ShapeId, stmt model.Statement, execute Execute, resultHint any) (any, error) {
	result, err := execute(ctx)
	if err != nil {
		return nil, err
	}

	hint := resultHint
	if hint == nil {
		hint = result
	}
	addResult, err := c.eng.AddQuery(ctx, stmt, hint)
	if err != nil {
		return nil, err
	}

	c.cache.Set(ctx, string(shapeId), model.CacheEntry{Result: result}, c.cfg.DefaultTTL)

	summary := dependenciesSummary(addResult.Dependencies)
	c.emit(insights.Event{ShapeId: shapeId, EventType: insights.EventMiss, DependenciesSummary: summary})

	return result, nil
}

// dependenciesSummary best-effort extracts {modelCount, recordCount} from
// the engine's opaque add_query dependencies payload. The engine is the
// sole source of truth for dependency shape; this coordinator only reports
// a coarse summary for observability, never branching on the structure.
func dependenciesSummary(deps any) *insights.DependenciesSummary {
	asMap, ok := deps.(map[string]any)
	if !ok {
		return nil
	}
	summary := &insights.DependenciesSummary{}
	if v, ok := asMap["modelCount"].(float64); ok {
		summary.ModelCount = int(v)
	}
	if v, ok := asMap["recordCount"].(float64); ok {
		summary.RecordCount = int(v)
	}
	return summary
}

// ExecuteWrite implements §4.1's executeWrite contract.
func (c *Coordinator) ExecuteWrite(ctx context.Context, mutation model.Mutation, execute Execute, txContext any) (any, error) {
	log := c.loggerFor(ctx)

	evictList, err := c.eng.Invalidate(ctx, mutation)
	if err != nil {
		return nil, err
	}

	result, err := execute(ctx)
	if err != nil {
		// Invariant P4: a failed write contributes zero evictions, even
		// though the engine has already observed the attempted mutation.
		log.Debug().Err(err).Msg("write execute failed, contributing zero evictions")
		return nil, err
	}

	if txContext != nil {
		if value, ok := c.txBuffers.Load(txContext); ok {
			value.(*txBuffer).union(evictList)
			log.Debug().Int("evictions", len(evictList)).Msg("buffered evictions into open transaction")
			return result, nil
		}
	}

	log.Debug().Int("evictions", len(evictList)).Msg("publishing evictions")
	c.evictAndPublish(evictList)
	return result, nil
}

// GetStats returns a snapshot of the coordinator's request/hit counters.
func (c *Coordinator) GetStats() Stats {
	return c.stats.snapshot()
}

// Cache exposes the coordinator's cache handle for components (the
// facade's getCacheStats/reset/destroy) that need to reach it directly
// without duplicating the coordinator's bookkeeping.
func (c *Coordinator) Cache() cache.Cache[model.CacheEntry] {
	return c.cache
}

// Engine exposes the coordinator's engine handle for the same reason.
func (c *Coordinator) Engine() engine.Engine {
	return c.eng
}

// Destroy stops the eviction pool. It is safe to call more than once; calls
// after the first are no-ops.
func (c *Coordinator) Destroy() {
	c.destroyOnce.Do(func() {
		c.evictPool.shutdown()
		c.logger.Info().Msg("cache coordinator destroyed")
	})
}
