package insights

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetrics_SubscriberIncrementsEventsByType(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	sub := m.Subscriber()

	sub(Event{ShapeId: "S1", EventType: EventHit})
	sub(Event{ShapeId: "S1", EventType: EventHit})
	sub(Event{ShapeId: "S2", EventType: EventMiss})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}

	counts := map[string]float64{}
	for _, fam := range families {
		if fam.GetName() != "includekit_cache_events_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			counts[labelValue(metric, "event_type")] = metric.GetCounter().GetValue()
		}
	}

	if counts["hit"] != 2 {
		t.Errorf("expected 2 hit events, got %v", counts["hit"])
	}
	if counts["miss"] != 1 {
		t.Errorf("expected 1 miss event, got %v", counts["miss"])
	}
}

func TestMetrics_ObserveEngineLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveEngineLatency(10 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}

	found := false
	for _, fam := range families {
		if fam.GetName() == "includekit_engine_call_duration_seconds" {
			found = true
			if fam.GetMetric()[0].GetHistogram().GetSampleCount() != 1 {
				t.Errorf("expected one sample recorded")
			}
		}
	}
	if !found {
		t.Errorf("expected the engine latency histogram to be registered")
	}
}

func labelValue(metric *dto.Metric, name string) string {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name {
			return pair.GetValue()
		}
	}
	return ""
}
