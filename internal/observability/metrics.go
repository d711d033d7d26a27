package observability

import "github.com/prometheus/client_golang/prometheus"

// Completion calls dominate request latency, so the upper buckets reach a minute.
var httpLatencyBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataagent_http_requests_total",
			Help: "Total number of HTTP requests by matched route.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataagent_http_request_duration_seconds",
			Help:    "HTTP request latency by matched route.",
			Buckets: httpLatencyBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpInFlightRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dataagent_http_in_flight_requests",
		Help: "HTTP requests currently being served.",
	})
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDurationSeconds, httpInFlightRequests)
}
