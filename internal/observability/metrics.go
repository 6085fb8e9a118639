package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for CPI lookups.
type Metrics struct {
	Lookups *prometheus.CounterVec // labels: outcome={cache,api,none,invalid,upstream_error,malformed}

	// Upstream metrics.
	UpstreamRequests *prometheus.CounterVec // labels: outcome={success,status,transport}
	UpstreamDuration prometheus.Histogram
	RecordsParsed    prometheus.Histogram

	// Cache metrics.
	CacheWrites       prometheus.Counter
	CacheErrors       *prometheus.CounterVec // labels: op={get,set}
	CacheEntriesSwept prometheus.Counter

	// Publisher metrics.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpi",
			Name:      "lookups_total",
			Help:      "CPI lookups by outcome.",
		}, []string{"outcome"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpi",
			Name:      "upstream_requests_total",
			Help:      "BLS API requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cpi",
			Name:      "upstream_request_duration_seconds",
			Help:      "BLS API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RecordsParsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cpi",
			Name:      "records_per_fetch",
			Help:      "Number of monthly records parsed from one upstream fetch.",
			Buckets:   []float64{0, 1, 3, 6, 9, 12, 13},
		}),
		CacheWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cpi",
			Name:      "cache_writes_total",
			Help:      "Records written to the cache by bulk population.",
		}),
		CacheErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cpi",
			Name:      "cache_errors_total",
			Help:      "Cache backend failures by operation.",
		}, []string{"op"}),
		CacheEntriesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cpi",
			Name:      "cache_entries_swept_total",
			Help:      "Expired in-memory entries removed by the background sweeper.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cpi",
			Name:      "records_published_total",
			Help:      "Records published to the Kafka topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cpi",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.Lookups,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.RecordsParsed,
		m.CacheWrites,
		m.CacheErrors,
		m.CacheEntriesSwept,
		m.RecordsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Lookups:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "cpi", Name: "lookups_total"}, []string{"outcome"}),
		UpstreamRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "cpi", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "cpi", Name: "upstream_request_duration_seconds"}),
		RecordsParsed:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "cpi", Name: "records_per_fetch"}),
		CacheWrites:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cpi", Name: "cache_writes_total"}),
		CacheErrors:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "cpi", Name: "cache_errors_total"}, []string{"op"}),
		CacheEntriesSwept: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cpi", Name: "cache_entries_swept_total"}),
		RecordsPublished:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cpi", Name: "records_published_total"}),
		PublishErrors:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "cpi", Name: "publish_errors_total"}),
	}
}
