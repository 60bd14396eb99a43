package insights

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes coordinator/cache counters and a latency histogram via
// the ecosystem-standard Prometheus client, replacing the reference
// system's hand-rolled ring-buffer/percentile collector.
type Metrics struct {
	events          *prometheus.CounterVec
	engineLatency   prometheus.Histogram
	singleFlightWait prometheus.Histogram
}

// NewMetrics registers its collectors against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the default
// global registry across test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "includekit",
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Count of cache insights events by type (hit, miss, evict).",
		}, []string{"event_type"}),
		engineLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "includekit",
			Subsystem: "engine",
			Name:      "call_duration_seconds",
			Help:      "Latency of Dependency Engine ABI calls.",
			Buckets:   prometheus.DefBuckets,
		}),
		singleFlightWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "includekit",
			Subsystem: "coordinator",
			Name:      "single_flight_wait_seconds",
			Help:      "Time an executeRead caller spent waiting on a shared single-flight call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.events, m.engineLatency, m.singleFlightWait)
	return m
}

// Subscriber adapts Metrics to the Bus's Subscriber signature, incrementing
// the events counter for every published Event.
func (m *Metrics) Subscriber() Subscriber {
	return func(ev Event) {
		m.events.WithLabelValues(string(ev.EventType)).Inc()
	}
}

// ObserveEngineLatency records one Dependency Engine ABI call's duration.
func (m *Metrics) ObserveEngineLatency(d time.Duration) {
	m.engineLatency.Observe(d.Seconds())
}

// ObserveSingleFlightWait records one executeRead caller's wait time behind
// a shared in-flight call.
func (m *Metrics) ObserveSingleFlightWait(d time.Duration) {
	m.singleFlightWait.Observe(d.Seconds())
}
