package metrics

import "github.com/prometheus/client_golang/prometheus"

// BotMetrics exposes counters/histograms for the chat pipeline. A nil
// receiver is a no-op so callers never guard their observations.
type BotMetrics struct {
	updatesTotal     *prometheus.CounterVec
	rateLimitedTotal prometheus.Counter
	leadsTotal       *prometheus.CounterVec
	llmLatency       prometheus.Histogram
}

func NewBotMetrics(reg prometheus.Registerer) *BotMetrics {
	m := &BotMetrics{
		updatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoservice",
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Total processed Telegram updates",
		}, []string{"kind", "status"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "autoservice",
			Subsystem: "bot",
			Name:      "rate_limited_total",
			Help:      "Messages rejected by the per-user rate limiter",
		}),
		leadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoservice",
			Subsystem: "bot",
			Name:      "leads_total",
			Help:      "Detected service request leads",
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "autoservice",
			Subsystem: "bot",
			Name:      "llm_latency_seconds",
			Help:      "Latency of language model calls",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.updatesTotal, m.rateLimitedTotal, m.leadsTotal, m.llmLatency)
	return m
}

func (m *BotMetrics) ObserveUpdate(kind, status string) {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues(kind, status).Inc()
}

func (m *BotMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}

func (m *BotMetrics) ObserveLead(status string) {
	if m == nil {
		return
	}
	m.leadsTotal.WithLabelValues(status).Inc()
}

func (m *BotMetrics) ObserveLLMLatency(seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(seconds)
}
