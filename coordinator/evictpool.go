package coordinator

import (
	"sync"

	"github.com/bold-minds/includekit-go/model"
)

// evictJob is one shapeId to delete, with a channel the submitter waits on
// to learn whether the delete itself failed (the remote cache adapter
// never returns an error for a failed Del; this channel mainly exists so a
// future adapter that can fail loudly has somewhere to report it).
type evictJob struct {
	shapeId  model.ShapeId
	resultCh chan error
}

// evictPool is a small, fixed-size worker pool that fans out concurrent
// cache deletes, bounding how many goroutines a single commit or write can
// spawn. It is a long-lived pool started once per Coordinator and stopped
// on Destroy, rather than spun up per call.
type evictPool struct {
	jobs    chan evictJob
	stopCh  chan struct{}
	wg      sync.WaitGroup
	handler func(model.ShapeId) error
}

func newEvictPool(workers int, handler func(model.ShapeId) error) *evictPool {
	if workers <= 0 {
		workers = 8
	}
	p := &evictPool{
		jobs:    make(chan evictJob, 1024),
		stopCh:  make(chan struct{}),
		handler: handler,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *evictPool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case job := <-p.jobs:
			err := p.handler(job.shapeId)
			if job.resultCh != nil {
				job.resultCh <- err
			}
		}
	}
}

// evictAll submits every shapeId to the pool and blocks until all have been
// processed. Evictions within one call are a set, not a sequence: there is
// no ordering among them, matching §5's transaction-buffer commit contract.
func (p *evictPool) evictAll(shapeIds []model.ShapeId) {
	if len(shapeIds) == 0 {
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(shapeIds))
	for _, sid := range shapeIds {
		resultCh := make(chan error, 1)
		job := evictJob{shapeId: sid, resultCh: resultCh}
		go func() {
			defer wg.Done()
			p.jobs <- job
			<-resultCh
		}()
	}
	wg.Wait()
}

// shutdown stops every worker goroutine and waits for them to exit. Safe to
// call at most once.
func (p *evictPool) shutdown() {
	close(p.stopCh)
	p.wg.Wait()
}
