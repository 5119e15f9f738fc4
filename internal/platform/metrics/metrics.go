package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "schoolfin"

// Registry is the process-wide Prometheus registry served on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes the running version as labels; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always 1, version in labels)",
	},
	[]string{"version", "environment"},
)

// Bus metrics
var (
	// BusPublishedTotal counts envelopes dispatched per topic.
	BusPublishedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_published_total",
			Help:      "Total number of envelopes dispatched on the in-process bus",
		},
		[]string{"topic"},
	)

	// BusHandlerFailuresTotal counts handler errors and recovered panics.
	BusHandlerFailuresTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_handler_failures_total",
			Help:      "Total number of bus handler failures",
		},
		[]string{"topic", "kind"}, // kind: error|panic
	)

	// BusRequestsTotal counts coordinator round trips by outcome.
	BusRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_requests_total",
			Help:      "Total number of request/reply round trips",
		},
		[]string{"exchange", "outcome"}, // outcome: resolved|rejected|timeout|cancelled|unexpected
	)

	// BusRequestDuration records round-trip latency in seconds.
	BusRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bus_request_duration_seconds",
			Help:      "Request/reply round-trip latency in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"exchange"},
	)
)

// Report cache metrics
var (
	CacheHitsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_hits_total",
			Help:      "Total number of report cache hits",
		},
		[]string{"report"},
	)

	CacheMissesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_misses_total",
			Help:      "Total number of report cache misses",
		},
		[]string{"report"},
	)
)

// Init registers the runtime collectors and records version information.
func Init(version, environment string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, environment).Set(1)
}
