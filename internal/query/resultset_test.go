package query

import (
	"context"
	"errors"
	"testing"
)

type stubEngine struct {
	result Result
	err    error
	calls  []Request
}

func (s *stubEngine) Execute(_ context.Context, request Request) (Result, error) {
	s.calls = append(s.calls, request)
	return s.result, s.err
}

func TestExecuteReturnsRowsInColumnOrder(t *testing.T) {
	engine := &stubEngine{result: Result{
		Columns: []string{"name", "city"},
		Rows:    [][]any{{"Alice", "Paris"}, {"Bob", "Lyon"}},
	}}

	rs := Execute(context.Background(), engine, "SELECT name, city FROM customers")
	if rs.Failed {
		t.Fatalf("Execute() failed: %v", rs.Err)
	}
	if len(rs.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rs.Rows))
	}
	if got, _ := rs.Rows[1].Get("city"); got != "Lyon" {
		t.Fatalf("Rows[1][city] = %v", got)
	}
	if engine.calls[0].SQL != "SELECT name, city FROM customers" {
		t.Fatalf("engine SQL = %q", engine.calls[0].SQL)
	}
	if got := rs.Render(); got != `[{"name":"Alice","city":"Paris"},{"name":"Bob","city":"Lyon"}]` {
		t.Fatalf("Render() = %s", got)
	}
}

func TestExecuteEmptySuccessIsNotFailure(t *testing.T) {
	rs := Execute(context.Background(), &stubEngine{result: Result{Columns: []string{"id"}}}, "SELECT id FROM orders WHERE 1=0")
	if rs.Failed {
		t.Fatal("empty result reported as failure")
	}
	if rs.Rows == nil {
		t.Fatal("Rows = nil, want empty slice")
	}
	if !rs.Empty() {
		t.Fatal("Empty() = false, want true")
	}
	if got := rs.Render(); got != "[]" {
		t.Fatalf("Render() = %s", got)
	}
}

func TestExecuteSwallowsEngineErrors(t *testing.T) {
	boom := errors.New("no such table: clients")
	rs := Execute(context.Background(), &stubEngine{err: boom}, "SELECT * FROM clients")
	if !rs.Failed {
		t.Fatal("Failed = false, want true")
	}
	if !errors.Is(rs.Err, boom) {
		t.Fatalf("Err = %v", rs.Err)
	}
	if rs.Rows != nil {
		t.Fatalf("Rows = %v, want nil", rs.Rows)
	}
	if rs.Empty() {
		t.Fatal("failed result reported as empty")
	}
}

func TestExecuteRejectsMissingInputs(t *testing.T) {
	if rs := Execute(context.Background(), nil, "SELECT 1"); !rs.Failed {
		t.Fatal("nil engine should fail")
	}
	engine := &stubEngine{}
	if rs := Execute(context.Background(), engine, "  "); !rs.Failed {
		t.Fatal("blank SQL should fail")
	}
	if len(engine.calls) != 0 {
		t.Fatalf("engine called %d times for blank SQL", len(engine.calls))
	}
}

func TestRowMarshalJSONRejectsMismatchedValues(t *testing.T) {
	if _, err := NewRow([]string{"a", "b"}, []any{1}).MarshalJSON(); err == nil {
		t.Fatal("MarshalJSON() expected error")
	}
}
