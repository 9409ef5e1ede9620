package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// alert queue, sync drains, and upstream lookups.
type Metrics struct {
	PendingAlerts   prometheus.Gauge
	DrainsTotal     prometheus.Counter
	AlertsDelivered prometheus.Counter
	AlertsRetained  prometheus.Counter

	DispatchDuration prometheus.Histogram

	// Upstream lookup metrics.
	SnapshotLookups  *prometheus.CounterVec   // labels: category, result={hit,stale,miss}
	UpstreamDuration *prometheus.HistogramVec // labels: upstream={overpass,weather}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PendingAlerts,
		m.DrainsTotal,
		m.AlertsDelivered,
		m.AlertsRetained,
		m.DispatchDuration,
		m.SnapshotLookups,
		m.UpstreamDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PendingAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "monsoon_guardian",
			Name:      "pending_alerts",
			Help:      "Alerts currently waiting in the offline queue.",
		}),
		DrainsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monsoon_guardian",
			Name:      "drains_total",
			Help:      "Completed drain passes over the pending-alert queue.",
		}),
		AlertsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monsoon_guardian",
			Name:      "alerts_delivered_total",
			Help:      "Alerts delivered and removed from the queue.",
		}),
		AlertsRetained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monsoon_guardian",
			Name:      "alerts_retained_total",
			Help:      "Delivery attempts that failed, leaving the alert queued.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monsoon_guardian",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of a single alert delivery attempt.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SnapshotLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monsoon_guardian",
			Name:      "snapshot_lookups_total",
			Help:      "Snapshot cache lookups by category and result.",
		}, []string{"category", "result"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "monsoon_guardian",
			Name:      "upstream_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"upstream"}),
	}
}
