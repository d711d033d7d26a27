package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dataagent/dataagent/internal/agent"
	"github.com/dataagent/dataagent/internal/api"
	"github.com/dataagent/dataagent/internal/api/uistatic"
	"github.com/dataagent/dataagent/internal/auth"
	"github.com/dataagent/dataagent/internal/config"
	"github.com/dataagent/dataagent/internal/llm"
	"github.com/dataagent/dataagent/internal/migrations"
	"github.com/dataagent/dataagent/internal/observability"
	"github.com/dataagent/dataagent/internal/query"
	duckdbengine "github.com/dataagent/dataagent/internal/query/duckdb"
	"github.com/dataagent/dataagent/internal/query/sqldb"
	"github.com/dataagent/dataagent/internal/snapshot"
	s3store "github.com/dataagent/dataagent/internal/storage/s3"
	"github.com/dataagent/dataagent/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("dataagent-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	db, err := store.Open(startupCtx, cfg.Database)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if cfg.Database.AutoMigrate {
		applied, err := migrations.NewRunner().Up(startupCtx, db, 0)
		if err != nil {
			logger.Error("failed to migrate database", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database migrated", slog.Int("applied", applied))
	}
	if cfg.Database.AutoSeed {
		seeder, err := store.NewSeeder(db, cfg.Seed, logger)
		if err != nil {
			logger.Error("invalid seed configuration", slog.Any("error", err))
			os.Exit(1)
		}
		if _, err := seeder.Seed(startupCtx); err != nil {
			logger.Error("failed to seed database", slog.Any("error", err))
			os.Exit(1)
		}
	}

	deps := api.Dependencies{
		Logger:            logger,
		UI:                uistatic.Handler(uistatic.Options{AuthRequired: cfg.Auth.Required}),
		DependencyTimeout: time.Second,
	}

	var queryEngine query.Engine
	switch cfg.Query.Backend {
	case config.QueryBackendSnapshot:
		objectStore, err := s3store.New(startupCtx, cfg.ObjectStore)
		if err != nil {
			logger.Error("failed to initialize object store", slog.Any("error", err))
			os.Exit(1)
		}
		files, err := snapshot.Files(startupCtx, objectStore, cfg.Query.Snapshot)
		if err != nil {
			logger.Error("failed to resolve snapshot", slog.String("snapshot", cfg.Query.Snapshot), slog.Any("error", err))
			os.Exit(1)
		}
		snapshotEngine := duckdbengine.NewEngine(objectStore, files...)
		snapshotEngine.CacheDir = cfg.Query.CacheDir
		queryEngine = snapshotEngine
		deps.Readiness = api.CombineReadinessChecks(api.CheckDatabase(db), api.CheckObjectStore(objectStore))
		exporter, err := snapshot.NewExporter(db, objectStore, logger)
		if err != nil {
			logger.Error("failed to initialize snapshot exporter", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Snapshots = exporter
		logger.Info("answering from snapshot", slog.String("snapshot", cfg.Query.Snapshot), slog.Int("files", len(files)))
	default:
		queryEngine = sqldb.NewEngine(db)
		deps.Readiness = api.CheckDatabase(db)
		if objectStore, err := s3store.New(startupCtx, cfg.ObjectStore); err != nil {
			logger.Warn("object store unavailable, snapshot export disabled", slog.Any("error", err))
		} else if exporter, err := snapshot.NewExporter(db, objectStore, logger); err != nil {
			logger.Warn("snapshot export disabled", slog.Any("error", err))
		} else {
			deps.Snapshots = exporter
		}
	}
	deps.QueryEngine = queryEngine

	newAgent := func(apiKey string) (api.Asker, error) {
		client, err := llm.NewOpenAIClient(llm.Config{
			BaseURL: cfg.AI.BaseURL,
			APIKey:  apiKey,
			Timeout: cfg.AI.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		dataAgent, err := agent.New(client, agent.Config{
			SQLModel:  cfg.AI.SQLModel,
			ChatModel: cfg.AI.ChatModel,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		return dataAgent, nil
	}
	deps.NewAgent = newAgent
	if cfg.AI.APIKey != "" {
		serverAgent, err := newAgent(cfg.AI.APIKey)
		if err != nil {
			logger.Error("failed to initialize agent", slog.Any("error", err))
			os.Exit(1)
		}
		deps.Agent = serverAgent
	} else {
		logger.Warn("no completion api key configured; requests must carry api_key")
	}

	if cfg.Auth.Required {
		validator, err := auth.NewStaticAPIKeyValidator(cfg.Auth.StaticKeys)
		if err != nil {
			logger.Error("failed to parse static auth keys", slog.Any("error", err))
			os.Exit(1)
		}
		deps.AuthMiddleware = auth.Middleware(logger, validator)
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address), slog.String("query_backend", cfg.Query.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}
