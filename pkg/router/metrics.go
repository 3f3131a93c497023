package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Navigation results used as the "result" label.
const (
	resultSuccess    = "success"
	resultRejected   = "rejected"
	resultAborted    = "aborted"
	resultCancelled  = "cancelled"
	resultRedirected = "redirected"
	resultError      = "error"
)

// metrics holds the Prometheus metrics for one router.
type metrics struct {
	navigationsTotal   *prometheus.CounterVec
	navigationDuration prometheus.Histogram
	guardRejections    *prometheus.CounterVec
	routes             prometheus.Gauge
}

func newMetrics(registry prometheus.Registerer, namespace string) *metrics {
	factory := promauto.With(registry)

	return &metrics{
		navigationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Total number of navigations by result",
		}, []string{"result"}),

		navigationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "navigation_duration_seconds",
			Help:      "Time from resolution to commit or failure",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),

		guardRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_rejections_total",
			Help:      "Total number of navigations stopped by a guard, by phase",
		}, []string{"phase"}),

		routes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of registered routes",
		}),
	}
}

// All methods are no-ops on a nil receiver so routers without a registry
// skip metrics entirely.

func (m *metrics) navigation(result string, start time.Time) {
	if m == nil {
		return
	}
	m.navigationsTotal.WithLabelValues(result).Inc()
	m.navigationDuration.Observe(time.Since(start).Seconds())
}

func (m *metrics) rejection(phase string) {
	if m == nil {
		return
	}
	m.guardRejections.WithLabelValues(phase).Inc()
}

func (m *metrics) setRoutes(n int) {
	if m == nil {
		return
	}
	m.routes.Set(float64(n))
}
