package coordinator

import (
	"context"
	"time"

	"github.com/bold-minds/includekit-go/engine"
)

// doSingleFlight runs fn under key, coalescing concurrent callers sharing
// the same key into one execution (§4.1 step 4, P3). If timeout is
// positive and the call does not settle within it, the waiter receives
// engine.ErrTimeout and the group entry is released via Forget so it never
// again hands this (possibly still-running) call's eventual result to a
// caller that starts a fresh request for the same key; the original
// execution still runs to completion and its success path (addQuery +
// cache.set) still executes, it is simply no longer reachable through this
// key — the documented, harmless race described in §5.
func (c *Coordinator) doSingleFlight(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	start := time.Now()
	resultCh := c.group.DoChan(key, fn)

	if c.cfg.SingleFlightTimeout <= 0 {
		select {
		case res := <-resultCh:
			c.observeSingleFlightWait(start)
			return res.Val, res.Err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	timer := time.NewTimer(c.cfg.SingleFlightTimeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		c.observeSingleFlightWait(start)
		return res.Val, res.Err
	case <-timer.C:
		c.group.Forget(key)
		return nil, engine.ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) observeSingleFlightWait(start time.Time) {
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.ObserveSingleFlightWait(time.Since(start))
	}
}
