package dataagentctl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRunAskCommand(t *testing.T) {
	var gotMethod, gotPath, gotAPIKey string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Nous avons 60 clients."}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"-api-key", "k1",
		"-openrouter-key", "sk-or",
		"ask", "Combien", "de", "clients ?",
	}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/ask" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if gotAPIKey != "k1" {
		t.Fatalf("X-API-Key = %q", gotAPIKey)
	}
	if gotBody["question"] != "Combien de clients ?" || gotBody["api_key"] != "sk-or" {
		t.Fatalf("body = %v", gotBody)
	}
	if strings.TrimSpace(stdout.String()) != "Nous avons 60 clients." {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunAskDebugPrintsTrace(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"response":"ok","trace":{"outcome":"answered"}}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "-debug", "ask", "q"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotQuery != "debug=true" {
		t.Fatalf("query = %q", gotQuery)
	}
	if !strings.Contains(stdout.String(), `"outcome": "answered"`) {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunSnapshotCommand(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"name":"nightly","files":[]}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{"-base-url", srv.URL, "snapshot", "nightly"}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotPath != "/v1/snapshots" || gotBody["name"] != "nightly" {
		t.Fatalf("request = %s %v", gotPath, gotBody)
	}
}

func TestRunSnapshotMaintenanceCommands(t *testing.T) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodDelete {
			_, _ = w.Write([]byte(`{"name":"nightly","deleted_objects":3}`))
			return
		}
		_, _ = w.Write([]byte(`{"snapshots":[{"name":"nightly","complete":true}]}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	if code := Run(context.Background(), []string{"-base-url", srv.URL, "snapshots"}, Options{Stdout: &stdout}); code != 0 {
		t.Fatalf("snapshots exit code = %d", code)
	}
	if code := Run(context.Background(), []string{"-base-url", srv.URL, "snapshot-delete", "nightly"}, Options{Stdout: &stdout}); code != 0 {
		t.Fatalf("snapshot-delete exit code = %d", code)
	}
	want := []string{"GET /v1/snapshots", "DELETE /v1/snapshots/nightly"}
	if strings.Join(requests, ",") != strings.Join(want, ",") {
		t.Fatalf("requests = %v, want %v", requests, want)
	}
	if !strings.Contains(stdout.String(), `"deleted_objects": 3`) {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunHealthCommand(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "health"}, Options{Stdout: &stdout})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotMethod != http.MethodGet || gotPath != "/v1/health" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(stdout.String(), `"status": "ok"`) {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunReturnsErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error_code":"COMPLETION_FAILED"}`))
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "ask", "q"}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "http 502") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunRejectsBadUsage(t *testing.T) {
	cases := [][]string{
		{},
		{"unknown"},
		{"ask"},
		{"snapshot"},
		{"snapshot-delete"},
	}
	for _, args := range cases {
		if code := Run(context.Background(), args, Options{}); code != 2 {
			t.Fatalf("Run(%v) = %d, want 2", args, code)
		}
	}
}

func TestUsageListsEveryCommand(t *testing.T) {
	var stderr bytes.Buffer
	if code := Run(context.Background(), nil, Options{Stderr: &stderr}); code != 2 {
		t.Fatalf("Run() = %d, want 2", code)
	}
	for _, name := range commandOrder {
		if _, ok := commands[name]; !ok {
			t.Fatalf("command %q has no definition", name)
		}
		if !strings.Contains(stderr.String(), "  "+name) {
			t.Fatalf("usage missing %q:\n%s", name, stderr.String())
		}
	}
	if len(commandOrder) != len(commands) {
		t.Fatalf("commandOrder lists %d commands, %d defined", len(commandOrder), len(commands))
	}
}
