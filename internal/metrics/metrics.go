package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the relay's prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter
	pushes            *prometheus.CounterVec
	signals           *prometheus.CounterVec
	persisted         *prometheus.CounterVec
	storageLatency    *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Recorder{
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chatrelay_connections_active",
			Help: "Current number of live realtime connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chatrelay_connections_total",
			Help: "Total number of accepted realtime connections since start.",
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_pushes_total",
			Help: "Outbound pushes grouped by event and result.",
		}, []string{"event", "result"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_signals_total",
			Help: "Call signals grouped by kind and result.",
		}, []string{"kind", "result"}),
		persisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatrelay_messages_persisted_total",
			Help: "Messages persisted grouped by kind.",
		}, []string{"kind"}),
		storageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatrelay_storage_latency_seconds",
			Help:    "Latency of durable storage operations.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}, []string{"op"}),
	}

	reg.MustRegister(
		m.connectionsActive,
		m.connectionsTotal,
		m.pushes,
		m.signals,
		m.persisted,
		m.storageLatency,
	)
	return m
}

func (m *Recorder) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connectionsActive.Inc()
	m.connectionsTotal.Inc()
}

func (m *Recorder) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsActive.Dec()
}

func (m *Recorder) Push(event string, delivered bool) {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues(event, result(delivered)).Inc()
}

func (m *Recorder) Signal(kind string, forwarded bool) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(kind, result(forwarded)).Inc()
}

func (m *Recorder) Persisted(kind string) {
	if m == nil {
		return
	}
	m.persisted.WithLabelValues(kind).Inc()
}

func (m *Recorder) ObserveStorage(op string, dur time.Duration) {
	if m == nil || op == "" {
		return
	}
	m.storageLatency.WithLabelValues(op).Observe(dur.Seconds())
}

func result(ok bool) string {
	if ok {
		return "delivered"
	}
	return "dropped"
}
