package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestBotMetricsObserve(t *testing.T) {
	m := NewBotMetrics(prometheus.NewRegistry())
	m.ObserveUpdate("message", "ok")
	m.ObserveRateLimited()
	m.ObserveLead("created")
	m.ObserveLLMLatency(0.5)
}

func TestBotMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBotMetrics(reg)
	m.ObserveLead("failed")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestBotMetricsNilSafe(t *testing.T) {
	var m *BotMetrics
	m.ObserveUpdate("message", "ok")
	m.ObserveRateLimited()
	m.ObserveLead("created")
	m.ObserveLLMLatency(0.1)
}
