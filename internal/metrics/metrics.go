// Package metrics holds the prometheus collectors for lifecycle transitions and the sync queue.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	queueDepth  prometheus.Gauge
	drains      *prometheus.CounterVec
	fallbacks   prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifelines",
			Name:      "transitions_total",
			Help:      "Lifecycle operations by action and outcome.",
		}, []string{"action", "outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lifelines",
			Subsystem: "sync",
			Name:      "queue_depth",
			Help:      "Pending mutations waiting to reach the server.",
		}),
		drains: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lifelines",
			Subsystem: "sync",
			Name:      "drained_total",
			Help:      "Queued mutations processed during drain, by result.",
		}, []string{"result"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lifelines",
			Subsystem: "sync",
			Name:      "local_fallbacks_total",
			Help:      "Mutations applied locally because the server was unreachable.",
		}),
	}
	reg.MustRegister(m.transitions, m.queueDepth, m.drains, m.fallbacks)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Transition records a lifecycle operation outcome ("ok" or the error kind).
func (m *Metrics) Transition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Drained records one drain step: "committed", "rejected" or "retry".
func (m *Metrics) Drained(result string) {
	if m == nil {
		return
	}
	m.drains.WithLabelValues(result).Inc()
}

func (m *Metrics) LocalFallback() {
	if m == nil {
		return
	}
	m.fallbacks.Inc()
}
