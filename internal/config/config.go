package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	QueryBackendDatabase = "database"
	QueryBackendSnapshot = "snapshot"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Query         QueryConfig
	ObjectStore   ObjectStoreConfig
	AI            AIConfig
	Seed          SeedConfig
	Observability ObservabilityConfig
	Auth          AuthConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
	AutoSeed        bool
}

type QueryConfig struct {
	Backend  string
	Snapshot string
	// CacheDir keeps snapshot parquet on local disk between questions.
	CacheDir string
}

type ObjectStoreConfig struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type AIConfig struct {
	BaseURL   string
	APIKey    string
	SQLModel  string
	ChatModel string
	Timeout   time.Duration
}

type SeedConfig struct {
	Customers  int
	Products   int
	Orders     int
	RandomSeed int
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

type AuthConfig struct {
	Required   bool
	StaticKeys string
}

// LoadFromEnv reads an optional .env file in the working directory before
// consulting the process environment. Variables already set win.
func LoadFromEnv(serviceName string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("DATAAGENT_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid DATAAGENT_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	env := envReader{lookup: lookup}
	// OPENROUTER_API_KEY is read first so DATAAGENT_AI_API_KEY overrides it.
	env.str("OPENROUTER_API_KEY", &cfg.AI.APIKey)
	env.str("DATAAGENT_SERVICE_NAME", &cfg.Service.Name)

	env.str("DATAAGENT_HTTP_ADDR", &cfg.HTTP.Address)
	env.duration("DATAAGENT_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout)
	env.duration("DATAAGENT_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout)
	env.duration("DATAAGENT_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout)

	env.str("DATAAGENT_DB_DRIVER", &cfg.Database.Driver)
	env.str("DATAAGENT_DB_DSN", &cfg.Database.DSN)
	env.integer("DATAAGENT_DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	env.integer("DATAAGENT_DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	env.duration("DATAAGENT_DB_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime)
	env.duration("DATAAGENT_DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
	env.boolean("DATAAGENT_DB_AUTO_MIGRATE", &cfg.Database.AutoMigrate)
	env.boolean("DATAAGENT_DB_AUTO_SEED", &cfg.Database.AutoSeed)

	env.str("DATAAGENT_QUERY_BACKEND", &cfg.Query.Backend)
	env.str("DATAAGENT_QUERY_SNAPSHOT", &cfg.Query.Snapshot)
	env.str("DATAAGENT_QUERY_CACHE_DIR", &cfg.Query.CacheDir)

	env.str("DATAAGENT_OBJECTSTORE_ENDPOINT", &cfg.ObjectStore.Endpoint)
	env.str("DATAAGENT_OBJECTSTORE_REGION", &cfg.ObjectStore.Region)
	env.str("DATAAGENT_OBJECTSTORE_BUCKET", &cfg.ObjectStore.Bucket)
	env.str("DATAAGENT_OBJECTSTORE_ACCESS_KEY", &cfg.ObjectStore.AccessKeyID)
	env.str("DATAAGENT_OBJECTSTORE_SECRET_KEY", &cfg.ObjectStore.SecretAccessKey)
	env.boolean("DATAAGENT_OBJECTSTORE_USE_SSL", &cfg.ObjectStore.UseSSL)
	env.str("DATAAGENT_OBJECTSTORE_PREFIX", &cfg.ObjectStore.Prefix)
	env.boolean("DATAAGENT_OBJECTSTORE_AUTO_CREATE_BUCKET", &cfg.ObjectStore.AutoCreateBucket)

	env.str("DATAAGENT_AI_BASE_URL", &cfg.AI.BaseURL)
	env.str("DATAAGENT_AI_API_KEY", &cfg.AI.APIKey)
	env.str("DATAAGENT_AI_SQL_MODEL", &cfg.AI.SQLModel)
	env.str("DATAAGENT_AI_CHAT_MODEL", &cfg.AI.ChatModel)
	env.duration("DATAAGENT_AI_TIMEOUT", &cfg.AI.Timeout)

	env.integer("DATAAGENT_SEED_CUSTOMERS", &cfg.Seed.Customers)
	env.integer("DATAAGENT_SEED_PRODUCTS", &cfg.Seed.Products)
	env.integer("DATAAGENT_SEED_ORDERS", &cfg.Seed.Orders)
	env.integer("DATAAGENT_SEED_RANDOM_SEED", &cfg.Seed.RandomSeed)

	env.boolean("DATAAGENT_LOG_JSON", &cfg.Observability.LogJSON)
	env.logLevel("DATAAGENT_LOG_LEVEL", &cfg.Observability.LogLevel)

	env.boolean("DATAAGENT_AUTH_REQUIRED", &cfg.Auth.Required)
	env.str("DATAAGENT_AUTH_STATIC_KEYS", &cfg.Auth.StaticKeys)

	if env.err != nil {
		return Config{}, env.err
	}

	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)
	cfg.Query.Backend = strings.ToLower(cfg.Query.Backend)

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return Config{}, fmt.Errorf("invalid DATAAGENT_DB_DRIVER: %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return Config{}, fmt.Errorf("database dsn is required")
	}
	switch cfg.Query.Backend {
	case QueryBackendDatabase:
	case QueryBackendSnapshot:
		if cfg.Query.Snapshot == "" {
			return Config{}, fmt.Errorf("DATAAGENT_QUERY_SNAPSHOT is required when query backend is %q", QueryBackendSnapshot)
		}
	default:
		return Config{}, fmt.Errorf("invalid DATAAGENT_QUERY_BACKEND: %q", cfg.Query.Backend)
	}
	if cfg.Seed.Customers < 0 || cfg.Seed.Products < 0 || cfg.Seed.Orders < 0 {
		return Config{}, fmt.Errorf("seed counts must be >= 0")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "dataagent-api"},
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverSQLite,
			DSN:             "file:dataagent.db?_pragma=foreign_keys(1)",
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
			AutoMigrate:     true,
			AutoSeed:        true,
		},
		Query: QueryConfig{
			Backend: QueryBackendDatabase,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "dataagent",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			Prefix:           "snapshots",
			AutoCreateBucket: true,
		},
		AI: AIConfig{
			BaseURL:   "https://openrouter.ai/api/v1",
			SQLModel:  "tngtech/deepseek-r1t2-chimera:free",
			ChatModel: "liquid/lfm-2.5-1.2b-thinking:free",
			Timeout:   60 * time.Second,
		},
		Seed: SeedConfig{
			Customers:  60,
			Products:   30,
			Orders:     250,
			RandomSeed: 42,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
		Auth: AuthConfig{
			Required:   false,
			StaticKeys: "",
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18000"
		cfg.Database.DSN = "file::memory:?cache=shared"
		cfg.Observability.LogLevel = slog.LevelWarn
		cfg.Auth.Required = false
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Auth.Required = true
		cfg.Database.AutoSeed = false
		cfg.ObjectStore.UseSSL = true
		cfg.ObjectStore.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

// envReader applies environment overrides onto config fields. It stops at
// the first malformed value and keeps that error.
type envReader struct {
	lookup LookupFunc
	err    error
}

func (e *envReader) raw(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	value, ok := e.lookup(key)
	return strings.TrimSpace(value), ok
}

func (e *envReader) fail(key, value string, err error) {
	if err != nil {
		e.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
		return
	}
	e.err = fmt.Errorf("invalid %s: %q", key, value)
}

func (e *envReader) str(key string, dst *string) {
	if value, ok := e.raw(key); ok {
		*dst = value
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	value, ok := e.raw(key)
	if !ok {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = parsed
}

func (e *envReader) boolean(key string, dst *bool) {
	value, ok := e.raw(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = parsed
}

func (e *envReader) integer(key string, dst *int) {
	value, ok := e.raw(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, err)
		return
	}
	*dst = parsed
}

func (e *envReader) logLevel(key string, dst *slog.Level) {
	value, ok := e.raw(key)
	if !ok {
		return
	}
	switch strings.ToLower(value) {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		e.fail(key, value, nil)
	}
}
