package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects this package's Prometheus counters and gauges. A
// nil *Metrics is valid and every method is a no-op on it, so callers
// that never configure WithMetrics pay nothing, and metrics stay
// compiled in rather than gated behind a build tag.
type Metrics struct {
	SessionsCreated        prometheus.Counter
	SessionsTerminated     prometheus.Counter
	SubrequestsOutstanding prometheus.Gauge
	OfferToAnswerLatency   prometheus.Histogram
	TopologyRebuilds       prometheus.Counter
	PortPoolExhausted      prometheus.Counter
}

// NewMetrics registers this package's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mrcp", Subsystem: "server", Name: "sessions_created_total",
			Help: "Sessions created since process start.",
		}),
		SessionsTerminated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mrcp", Subsystem: "server", Name: "sessions_terminated_total",
			Help: "Sessions that have emitted a terminate_response.",
		}),
		SubrequestsOutstanding: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "mrcp", Subsystem: "server", Name: "subrequests_outstanding",
			Help: "Sum of outstanding sub-requests across all sessions.",
		}),
		OfferToAnswerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mrcp", Subsystem: "server", Name: "offer_to_answer_seconds",
			Help: "Time from offer() to the matching answer() being emitted.",
		}),
		TopologyRebuilds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mrcp", Subsystem: "server", Name: "topology_rebuilds_total",
			Help: "APPLY_TOPOLOGY tasks completed.",
		}),
		PortPoolExhausted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mrcp", Subsystem: "server", Name: "port_pool_exhausted_total",
			Help: "RTP termination factory allocations that failed because the pool made a full circle.",
		}),
	}
}

func (m *Metrics) sessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

func (m *Metrics) sessionTerminated() {
	if m == nil {
		return
	}
	m.SessionsTerminated.Inc()
}

func (m *Metrics) subrequestsChanged(delta int) {
	if m == nil {
		return
	}
	m.SubrequestsOutstanding.Add(float64(delta))
}

func (m *Metrics) topologyRebuilt() {
	if m == nil {
		return
	}
	m.TopologyRebuilds.Inc()
}

func (m *Metrics) portPoolExhausted() {
	if m == nil {
		return
	}
	m.PortPoolExhausted.Inc()
}

func (m *Metrics) offerAnswered(d time.Duration) {
	if m == nil {
		return
	}
	m.OfferToAnswerLatency.Observe(d.Seconds())
}
