// Package metrics defines the Prometheus collectors exported by the catalog
// server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "catalog"

// Metrics groups the server collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	DaemonCycles   *prometheus.CounterVec
	DaemonDuration *prometheus.HistogramVec
	SyncedRecords  *prometheus.CounterVec
	PurgedRecords  prometheus.Counter
	HTTPRequests   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DaemonCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daemon",
			Name:      "cycles_total",
			Help:      "Background cycles run, by daemon and result.",
		}, []string{"daemon", "result"}),
		DaemonDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "daemon",
			Name:      "cycle_duration_seconds",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30},
		}, []string{"daemon"}),
		SyncedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index_sync",
			Name:      "records_total",
			Help:      "Records pushed to the search index, by operation.",
		}, []string{"op"}),
		PurgedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retention",
			Name:      "purged_total",
			Help:      "Tombstoned records hard-deleted from the primary store.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}

	reg.MustRegister(m.DaemonCycles, m.DaemonDuration, m.SyncedRecords, m.PurgedRecords, m.HTTPRequests)
	return m
}

// Cycle records one daemon cycle.
func (m *Metrics) Cycle(daemon string, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.DaemonCycles.WithLabelValues(daemon, result).Inc()
	m.DaemonDuration.WithLabelValues(daemon).Observe(seconds)
}

// Synced counts records sent to the index with op "index" or "delete".
func (m *Metrics) Synced(op string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SyncedRecords.WithLabelValues(op).Add(float64(n))
}

// Purged counts hard-deleted rows.
func (m *Metrics) Purged(n int64) {
	if m == nil || n == 0 {
		return
	}
	m.PurgedRecords.Add(float64(n))
}

// Request counts one served HTTP request.
func (m *Metrics) Request(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusText(code)).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
