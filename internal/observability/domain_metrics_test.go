package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveQuestionCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(questionsTotal.WithLabelValues(OutcomeRefused))
	ObserveQuestion(OutcomeRefused)
	ObserveQuestion(OutcomeRefused)
	if got := testutil.ToFloat64(questionsTotal.WithLabelValues(OutcomeRefused)); got != before+2 {
		t.Fatalf("questions_total{refused} = %v, want %v", got, before+2)
	}
}

func TestObserveSQLAttemptLabelsAttemptNumber(t *testing.T) {
	before := testutil.ToFloat64(sqlAttemptsTotal.WithLabelValues("2"))
	ObserveSQLAttempt(2)
	if got := testutil.ToFloat64(sqlAttemptsTotal.WithLabelValues("2")); got != before+1 {
		t.Fatalf("sql_attempts_total{2} = %v, want %v", got, before+1)
	}
}

func TestIncrementSQLExecutionFailure(t *testing.T) {
	before := testutil.ToFloat64(sqlExecutionFailuresTotal)
	IncrementSQLExecutionFailure()
	if got := testutil.ToFloat64(sqlExecutionFailuresTotal); got != before+1 {
		t.Fatalf("sql_execution_failures_total = %v, want %v", got, before+1)
	}
}

func TestObserveCompletionLatency(t *testing.T) {
	ObserveCompletionLatency("sql", 1500*time.Millisecond)
	if got := testutil.CollectAndCount(completionLatencyMs); got == 0 {
		t.Fatal("completion latency histogram has no series")
	}
}
