//go:build integration

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dataagent/dataagent/internal/agent"
	"github.com/dataagent/dataagent/internal/config"
	"github.com/dataagent/dataagent/internal/llm"
	"github.com/dataagent/dataagent/internal/migrations"
	duckdbengine "github.com/dataagent/dataagent/internal/query/duckdb"
	"github.com/dataagent/dataagent/internal/snapshot"
	s3store "github.com/dataagent/dataagent/internal/storage/s3"
	"github.com/dataagent/dataagent/internal/store"
)

func TestAskFromPostgresSnapshot(t *testing.T) {
	adminDSN := strings.TrimSpace(os.Getenv("DATAAGENT_TEST_PG_DSN"))
	if adminDSN == "" {
		t.Skip("DATAAGENT_TEST_PG_DSN is not set")
	}
	endpoint := envOr("DATAAGENT_TEST_S3_ENDPOINT", "")
	if endpoint == "" {
		t.Skip("DATAAGENT_TEST_S3_ENDPOINT is not set")
	}

	testDSN, cleanup := createTemporaryDatabase(t, adminDSN)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db, err := store.Open(ctx, config.DatabaseConfig{Driver: config.DriverPostgres, DSN: testDSN})
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()
	if _, err := migrations.NewRunner().Up(ctx, db, 0); err != nil {
		t.Fatalf("runner.Up() error = %v", err)
	}
	seeder, err := store.NewSeeder(db, config.SeedConfig{Customers: 12, Products: 6, Orders: 40, RandomSeed: 5}, nil)
	if err != nil {
		t.Fatalf("NewSeeder() error = %v", err)
	}
	if _, err := seeder.Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	objectStore, err := s3store.New(ctx, config.ObjectStoreConfig{
		Endpoint:         endpoint,
		Region:           envOr("DATAAGENT_TEST_S3_REGION", "us-east-1"),
		Bucket:           envOr("DATAAGENT_TEST_S3_BUCKET", "dataagent-it"),
		AccessKeyID:      envOr("DATAAGENT_TEST_S3_ACCESS_KEY", "minio"),
		SecretAccessKey:  envOr("DATAAGENT_TEST_S3_SECRET_KEY", "miniostorage"),
		Prefix:           fmt.Sprintf("api-it-%d", time.Now().UnixNano()),
		AutoCreateBucket: true,
	})
	if err != nil {
		t.Fatalf("s3store.New() error = %v", err)
	}
	exporter, err := snapshot.NewExporter(db, objectStore, nil)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&request)
		content := "SELECT COUNT(*) AS total FROM orders"
		if request.Model == "chat-model" {
			content = "Il y a 40 commandes."
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}}},
		})
	}))
	defer upstream.Close()

	client, err := llm.NewOpenAIClient(llm.Config{BaseURL: upstream.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}
	dataAgent, err := agent.New(client, agent.Config{SQLModel: "sql-model", ChatModel: "chat-model"})
	if err != nil {
		t.Fatalf("agent.New() error = %v", err)
	}

	engine := duckdbengine.NewEngine(objectStore)
	h := NewHandler(loadTestConfig(t, nil), Dependencies{Agent: dataAgent, QueryEngine: engine, Snapshots: exporter})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/snapshots", strings.NewReader(`{"name":"it"}`)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("snapshot status = %d body = %s", rr.Code, rr.Body.String())
	}
	files, err := snapshot.Files(ctx, objectStore, "it")
	if err != nil {
		t.Fatalf("snapshot.Files() error = %v", err)
	}
	engine.Files = files

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, newAskRequest(t, "/v1/ask?debug=true", `{"question":"Combien de commandes ?"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("ask status = %d body = %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Response string      `json:"response"`
		Trace    agent.Trace `json:"trace"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode ask response: %v", err)
	}
	if body.Trace.Outcome != "answered" || len(body.Trace.Attempts) != 1 || body.Trace.Attempts[0].Rows != 1 {
		t.Fatalf("trace = %+v", body.Trace)
	}
}

func createTemporaryDatabase(t *testing.T, adminDSN string) (string, func()) {
	t.Helper()

	parsed, err := url.Parse(adminDSN)
	if err != nil {
		t.Fatalf("url.Parse(adminDSN) error = %v", err)
	}
	if strings.TrimPrefix(parsed.Path, "/") == "" {
		t.Fatal("admin DSN must include a database name")
	}

	adminDB, err := sql.Open("pgx", adminDSN)
	if err != nil {
		t.Fatalf("sql.Open(adminDSN) error = %v", err)
	}

	name := fmt.Sprintf("dataagent_it_api_%d", time.Now().UnixNano())
	if _, err := adminDB.Exec(`CREATE DATABASE ` + name); err != nil {
		t.Fatalf("CREATE DATABASE failed: %v", err)
	}

	testURL := *parsed
	testURL.Path = "/" + name
	testDSN := testURL.String()

	cleanup := func() {
		defer func() { _ = adminDB.Close() }()
		if _, err := adminDB.Exec(`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1`, name); err != nil {
			t.Fatalf("terminate test db sessions: %v", err)
		}
		if _, err := adminDB.Exec(`DROP DATABASE ` + name); err != nil {
			t.Fatalf("DROP DATABASE failed: %v", err)
		}
	}
	return testDSN, cleanup
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
