package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bold-minds/includekit-go/engine"
)

// TestDoSingleFlight_TimeoutReleasesWaiterButLetsExecutionFinish covers the
// §5/§8 behavior coordinator_test.go's P1-P8/scenario suite never exercises:
// a waiter bound by a short SingleFlightTimeout gets engine.ErrTimeout while
// the slow in-flight call keeps running to completion, per §5's documented
// harmless race. That the completed call still populates the cache is
// checked through ExecuteRead by the next test.
func TestDoSingleFlight_TimeoutReleasesWaiterButLetsExecutionFinish(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SingleFlightTimeout = 20 * time.Millisecond
	coord, _ := newTestCoordinator(t, cfg)
	ctx := context.Background()

	const slow = 120 * time.Millisecond
	started := make(chan struct{})
	executed := make(chan struct{})

	_, err := coord.doSingleFlight(ctx, "SID_timeout", func() (any, error) {
		close(started)
		time.Sleep(slow)
		close(executed)
		return "value", nil
	})

	if !errors.Is(err, engine.ErrTimeout) {
		t.Fatalf("expected engine.ErrTimeout, got %v", err)
	}

	select {
	case <-started:
	default:
		t.Fatal("expected the underlying call to have started before the waiter timed out")
	}

	select {
	case <-executed:
	case <-time.After(slow + 200*time.Millisecond):
		t.Fatal("expected the slow call to still run to completion after the waiter timed out")
	}
}

// TestDoSingleFlight_TimeoutStillPopulatesCacheViaExecuteRead exercises the
// same behavior through the public ExecuteRead entry point: the first
// caller observes ErrTimeout, but the shape is nonetheless warm in the cache
// once the slow execution underneath finishes.
func TestDoSingleFlight_TimeoutStillPopulatesCacheViaExecuteRead(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SingleFlightTimeout = 20 * time.Millisecond
	coord, _ := newTestCoordinator(t, cfg)
	ctx := context.Background()

	const slow = 120 * time.Millisecond
	done := make(chan struct{})

	_, err := coord.ExecuteRead(ctx, userStatement(), func(ctx context.Context) (any, error) {
		time.Sleep(slow)
		close(done)
		return "value", nil
	}, nil)
	if !errors.Is(err, engine.ErrTimeout) {
		t.Fatalf("expected engine.ErrTimeout, got %v", err)
	}

	select {
	case <-done:
	case <-time.After(slow + 200*time.Millisecond):
		t.Fatal("expected the slow execute to still complete")
	}

	shapeId, _ := coord.eng.ComputeShapeId(ctx, userStatement())
	if _, ok := coord.cache.Get(ctx, string(shapeId)); !ok {
		t.Errorf("expected the cache to be populated once the slow call finished, despite the timeout")
	}
}
