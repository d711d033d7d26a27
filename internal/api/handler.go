package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dataagent/dataagent/internal/agent"
	"github.com/dataagent/dataagent/internal/auth"
	"github.com/dataagent/dataagent/internal/config"
	"github.com/dataagent/dataagent/internal/observability"
	"github.com/dataagent/dataagent/internal/query"
	"github.com/dataagent/dataagent/internal/snapshot"
)

type ReadinessCheck func(ctx context.Context) error

// Asker answers one question against an engine. *agent.Agent satisfies it.
type Asker interface {
	AnswerWithTrace(ctx context.Context, engine query.Engine, question string) (string, agent.Trace, error)
}

// AskerFactory builds an Asker bound to a caller-supplied completion API key.
type AskerFactory func(apiKey string) (Asker, error)

// SnapshotManager exports and maintains parquet snapshots. *snapshot.Exporter
// satisfies it.
type SnapshotManager interface {
	Export(ctx context.Context, name string) ([]query.TableFile, error)
	List(ctx context.Context) ([]snapshot.Summary, error)
	Delete(ctx context.Context, name string) (int, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	// Agent serves requests that carry no api_key. It is nil when the server
	// has no completion key of its own.
	Agent       Asker
	NewAgent    AskerFactory
	QueryEngine query.Engine
	Snapshots   SnapshotManager
	UI          http.Handler
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "AI Data Agent API is running"})
	})

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	ask := auth.RequireRole(auth.RoleAsker, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	}))
	protected.Handle("POST /v1/ask", ask)
	protected.Handle("POST /ask", ask)
	protected.Handle("POST /v1/snapshots", auth.RequireRole(auth.RoleAdmin, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleExportSnapshot(deps, w, r)
	})))
	protected.Handle("GET /v1/snapshots", auth.RequireRole(auth.RoleAdmin, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleListSnapshots(deps, w, r)
	})))
	protected.Handle("DELETE /v1/snapshots/{name}", auth.RequireRole(auth.RoleAdmin, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleDeleteSnapshot(deps, w, r)
	})))

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/ask", protectedHandler)
	mux.Handle("POST /ask", protectedHandler)
	mux.Handle("POST /v1/snapshots", protectedHandler)
	mux.Handle("GET /v1/snapshots", protectedHandler)
	mux.Handle("DELETE /v1/snapshots/{name}", protectedHandler)
	if deps.UI != nil {
		mux.Handle("GET /ui/", http.StripPrefix("/ui", deps.UI))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func CheckDatabase(db pinger) ReadinessCheck {
	return func(ctx context.Context) error {
		if db == nil {
			return errors.New("database is not configured")
		}
		return db.PingContext(ctx)
	}
}

type bucketPinger interface {
	Ping(ctx context.Context) error
}

// CheckObjectStore reports the snapshot bucket as a readiness dependency.
func CheckObjectStore(store bucketPinger) ReadinessCheck {
	return func(ctx context.Context) error {
		if store == nil {
			return errors.New("object store is not configured")
		}
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("object store: %w", err)
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
