// SPDX-License-Identifier: MPL-2.0

// Package metrics holds the Prometheus collectors of a pmswitch process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pmswitch/pmswitch/pkg/pm"
)

const namespace = "pmswitch"

// Buffer operations counted by BufferErrors.
const (
	OpRead  = "read"
	OpWrite = "write"
	OpOpen  = "open"
)

// Metrics is a private registry with the collectors pmswitch reports.
// Each App owns one, so tests never share counters.
type Metrics struct {
	registry *prometheus.Registry

	Translations   *prometheus.CounterVec
	BufferErrors   *prometheus.CounterVec
	MonitorCycles  prometheus.Counter
	MonitorRunning prometheus.Gauge
	EventsDropped  prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "translations_total",
				Help:      "Buffer rewrites by source manager, target manager and rule kind",
			},
			[]string{"from", "to", "kind"},
		),
		BufferErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "buffer_errors_total",
				Help:      "Failed buffer operations",
			},
			[]string{"op"},
		),
		MonitorCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_cycles_total",
			Help:      "Watch loop iterations",
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_running",
			Help:      "1 while monitoring is on",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Translation events a subscriber missed",
		}),
	}

	m.registry.MustRegister(
		m.Translations,
		m.BufferErrors,
		m.MonitorCycles,
		m.MonitorRunning,
		m.EventsDropped,
	)
	return m
}

// ObserveTranslation counts one rewrite.
func (m *Metrics) ObserveTranslation(r pm.Result) {
	m.Translations.WithLabelValues(r.From.String(), r.To.String(), string(r.Kind)).Inc()
}

// ObserveBufferError counts one failed buffer operation.
func (m *Metrics) ObserveBufferError(op string) {
	m.BufferErrors.WithLabelValues(op).Inc()
}

// SetRunning records whether monitoring is on.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.MonitorRunning.Set(1)
		return
	}
	m.MonitorRunning.Set(0)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
