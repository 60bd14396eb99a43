package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bold-minds/includekit-go/engine"
	"github.com/bold-minds/includekit-go/model"
)

// fakeEngine is a hand-rolled Engine double, mirroring the reference cache
// service's MockOriginFetcher/MockRemoteCache style rather than a mocking
// framework. ComputeShapeId is deterministic over a Statement's JSON
// encoding, satisfying P1 without needing a real wasm module in tests.
type fakeEngine struct {
	mu             sync.Mutex
	invalidateFunc func(model.Mutation) []model.ShapeId
	computeCalls   int
	addQueryCalls  int
	invalidateCalls int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{}
}

func (f *fakeEngine) shapeIDFor(stmt model.Statement) model.ShapeId {
	encoded, _ := json.Marshal(stmt)
	return model.ShapeId(fmt.Sprintf("SID_%x", encoded))
}

func (f *fakeEngine) Version(ctx context.Context) (engine.Version, error) {
	return engine.Version{Core: "test", Contract: "test", ABI: "test"}, nil
}

func (f *fakeEngine) SetSchema(ctx context.Context, schema model.AppSchema) error {
	return nil
}

func (f *fakeEngine) ComputeShapeId(ctx context.Context, stmt model.Statement) (model.ShapeId, error) {
	f.mu.Lock()
	f.computeCalls++
	f.mu.Unlock()
	return f.shapeIDFor(stmt), nil
}

func (f *fakeEngine) AddQuery(ctx context.Context, shape model.Statement, resultHint any) (engine.AddQueryResult, error) {
	f.mu.Lock()
	f.addQueryCalls++
	f.mu.Unlock()
	return engine.AddQueryResult{ShapeId: f.shapeIDFor(shape)}, nil
}

func (f *fakeEngine) Invalidate(ctx context.Context, mutation model.Mutation) ([]model.ShapeId, error) {
	f.mu.Lock()
	f.invalidateCalls++
	fn := f.invalidateFunc
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(mutation), nil
}

func (f *fakeEngine) ExplainInvalidation(ctx context.Context, mutation model.Mutation, shapeId model.ShapeId) (engine.ExplainResult, error) {
	return engine.ExplainResult{}, nil
}

func (f *fakeEngine) Reset(ctx context.Context) error { return nil }

func (f *fakeEngine) Close() error { return nil }
