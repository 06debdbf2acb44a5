package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~20s
		},
		[]string{"method", "route", "status"},
	)

	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of upstream calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"upstream"},
	)

	sparqlQueryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparql_query_duration_seconds",
			Help:    "End-to-end duration of one SPARQL query including decoding.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
		},
		[]string{"shape", "outcome"},
	)

	sparqlQueryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sparql_query_errors_total",
			Help: "Failed SPARQL queries by shape and error kind.",
		},
		[]string{"shape", "kind"},
	)

	sparqlRowsReturned = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sparql_rows_returned",
			Help:    "Rows returned per SPARQL query.",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 250, 500, 1000},
		},
		[]string{"shape"},
	)

	sessionStoreOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_store_ops_total",
			Help: "Session slot operations by result.",
		},
		[]string{"op", "result"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)

	collectors = []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDurationSeconds,
		upstreamLatencySeconds,
		sparqlQueryDurationSeconds,
		sparqlQueryErrorsTotal,
		sparqlRowsReturned,
		sessionStoreOpsTotal,
	}
)

func init() {
	register(prometheus.DefaultRegisterer, append(collectors, buildInfo))
}

var initOnce sync.Once

// Init additionally registers the collectors on reg (the metrics provider's
// registry). app_build_info stays on the default registry since the provider
// exports its own.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled || reg == nil {
		return
	}
	initOnce.Do(func() { register(reg, collectors) })
}

func register(reg prometheus.Registerer, cs []prometheus.Collector) {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

// ObserveQuery records one executed query. outcome is "ok" or an error kind.
func ObserveQuery(shape, outcome string, durationSeconds float64, rows int) {
	sparqlQueryDurationSeconds.WithLabelValues(shape, outcome).Observe(durationSeconds)
	if outcome == "ok" {
		sparqlRowsReturned.WithLabelValues(shape).Observe(float64(rows))
		return
	}
	sparqlQueryErrorsTotal.WithLabelValues(shape, outcome).Inc()
}

func ObserveSessionOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	sessionStoreOpsTotal.WithLabelValues(op, result).Inc()
}

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
