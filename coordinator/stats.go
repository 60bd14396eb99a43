package coordinator

import "sync/atomic"

// stats holds the coordinator's plain atomic counters, mutated only at the
// well-defined points executeRead/executeWrite call out in §4.1.
type stats struct {
	totalRequests atomic.Uint64
	cacheHits     atomic.Uint64
}

// Stats is a point-in-time snapshot of stats, returned to callers (the
// Integration Facade's getCacheStats in particular).
type Stats struct {
	TotalRequests uint64
	CacheHits     uint64
}

func (s *stats) snapshot() Stats {
	return Stats{
		TotalRequests: s.totalRequests.Load(),
		CacheHits:     s.cacheHits.Load(),
	}
}

// HitRate returns cacheHits/totalRequests, or 0 when totalRequests is 0.
func (s Stats) HitRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.TotalRequests)
}
