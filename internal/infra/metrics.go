package infra

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetrics holds the process-level Prometheus collectors. These cover
// operational monitoring only; the product telemetry lives in the metric
// store and is aggregated separately.
type PromMetrics struct {
	GenerationsTotal      *prometheus.CounterVec
	RenderDuration        prometheus.Histogram
	MetricWritesTotal     *prometheus.CounterVec
	AnalyticsQueriesTotal *prometheus.CounterVec
}

var (
	promMetrics   *PromMetrics
	promMetricsMu sync.Mutex
)

// NewPromMetrics builds and registers the collectors once per process;
// subsequent calls return the same instance.
func NewPromMetrics() *PromMetrics {
	promMetricsMu.Lock()
	defer promMetricsMu.Unlock()

	if promMetrics != nil {
		return promMetrics
	}

	m := &PromMetrics{
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cover_generations_total",
			Help: "Total number of cover generation requests by outcome",
		}, []string{"status"}),

		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cover_render_duration_seconds",
			Help:    "Server-side render duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		MetricWritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "metric_writes_total",
			Help: "Total number of telemetry writes by outcome",
		}, []string{"status"}),

		AnalyticsQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_queries_total",
			Help: "Total number of analytics dashboard queries by outcome",
		}, []string{"status"}),
	}

	registerOrReuse(m.GenerationsTotal)
	registerOrReuse(m.RenderDuration)
	registerOrReuse(m.MetricWritesTotal)
	registerOrReuse(m.AnalyticsQueriesTotal)

	promMetrics = m
	return m
}

// registerOrReuse registers a collector with the default registry, tolerating
// a collector that is already registered.
func registerOrReuse(c prometheus.Collector) {
	if err := prometheus.Register(c); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			panic(err)
		}
	}
}
