package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Question outcomes reported by ObserveQuestion.
const (
	OutcomeAnswered = "answered"
	OutcomeRefused  = "refused"
	OutcomeFailed   = "failed"
	OutcomeError    = "error"
)

var (
	questionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataagent_questions_total",
			Help: "Total number of questions handled, by outcome.",
		},
		[]string{"outcome"},
	)
	sqlAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataagent_sql_attempts_total",
			Help: "Total number of SQL generation attempts, by attempt number.",
		},
		[]string{"attempt"},
	)
	sqlExecutionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dataagent_sql_execution_failures_total",
			Help: "Total number of generated SQL statements that failed to execute.",
		},
	)
	completionLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dataagent_completion_latency_ms",
			Help:    "Chat completion latency in milliseconds, by step.",
			Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 20000, 60000},
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(
		questionsTotal,
		sqlAttemptsTotal,
		sqlExecutionFailuresTotal,
		completionLatencyMs,
	)
}

func ObserveQuestion(outcome string) {
	questionsTotal.WithLabelValues(outcome).Inc()
}

func ObserveSQLAttempt(attempt int) {
	sqlAttemptsTotal.WithLabelValues(strconv.Itoa(attempt)).Inc()
}

func IncrementSQLExecutionFailure() {
	sqlExecutionFailuresTotal.Inc()
}

func ObserveCompletionLatency(step string, elapsed time.Duration) {
	completionLatencyMs.WithLabelValues(step).Observe(float64(elapsed.Milliseconds()))
}
