// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/store/sqlstore"
	"github.com/dalemusser/tripjournal/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Store drivers
const (
	DriverMongo    = "mongo"
	DriverPostgres = sqlstore.DriverPostgres
	DriverSQLite   = sqlstore.DriverSQLite
)

// Notification sinks
const (
	SinkLog   = "log"
	SinkAudit = "audit"
	SinkNATS  = "nats"
	SinkRedis = "redis"
)

// appConfigKeys defines the configuration keys for tripjournal.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: store_driver, mongo_uri, etc.
//   - Environment variables: TRIPJOURNAL_STORE_DRIVER, TRIPJOURNAL_MONGO_URI, etc.
//   - Command-line flags: --store_driver, --mongo_uri, etc.
var appConfigKeys = []config.AppKey{
	{Name: "store_driver", Default: DriverMongo, Desc: "Store backend: 'mongo', 'postgres' or 'sqlite'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "trip_journal", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "postgres_dsn", Default: "", Desc: "PostgreSQL DSN (store_driver=postgres)"},
	{Name: "sqlite_path", Default: "tripjournal.db", Desc: "SQLite database file (store_driver=sqlite)"},

	// Notification fan-out
	{Name: "nats_url", Default: "", Desc: "NATS server URL for the nats sink"},
	{Name: "nats_subject_prefix", Default: "tripjournal", Desc: "Subject prefix for published events"},
	{Name: "redis_addr", Default: "", Desc: "Redis address (host:port) for the redis sink"},
	{Name: "redis_channel", Default: "tripjournal.events", Desc: "Redis pub/sub channel for events"},
	{Name: "notify_sinks", Default: "log,audit", Desc: "Comma-separated sinks: log, audit, nats, redis"},
	{Name: "notify_workers", Default: 2, Desc: "Notification dispatcher worker count"},
	{Name: "notify_queue_size", Default: 1024, Desc: "Notification queue capacity; events beyond it are dropped"},

	// Audit logging settings
	{Name: "audit_log", Default: auditlog.ModeAll, Desc: "Audit logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_retention", Default: "0s", Desc: "Delete audit entries older than this (0 keeps them forever)"},

	// Write rate limit per actor
	{Name: "rate_limit_writes", Default: 120, Desc: "Mutating requests allowed per actor per minute (0 disables)"},

	// Background tasks
	{Name: "health_interval", Default: "30s", Desc: "How often the store is pinged for the store_up gauge (0 disables)"},

	// Timeouts
	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for multi-step operations (swap, cascade)"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for schema setup and batch work"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, TRIPJOURNAL_* for app) and
// command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "TRIPJOURNAL", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreDriver: strings.ToLower(strings.TrimSpace(appValues.String("store_driver"))),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		PostgresDSN: appValues.String("postgres_dsn"),
		SQLitePath:  appValues.String("sqlite_path"),

		NATSURL:           appValues.String("nats_url"),
		NATSSubjectPrefix: appValues.String("nats_subject_prefix"),
		RedisAddr:         appValues.String("redis_addr"),
		RedisChannel:      appValues.String("redis_channel"),
		NotifySinks:       parseSinks(appValues.String("notify_sinks")),
		NotifyWorkers:     appValues.Int("notify_workers"),
		NotifyQueueSize:   appValues.Int("notify_queue_size"),

		AuditLog:       strings.ToLower(strings.TrimSpace(appValues.String("audit_log"))),
		AuditRetention: appValues.Duration("audit_retention", 0),
		HealthInterval: appValues.Duration("health_interval", 30*time.Second),

		RateLimitWrites: appValues.Int("rate_limit_writes"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// parseSinks splits a comma list, lowercases and de-duplicates it.
func parseSinks(raw string) []string {
	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Backend addresses are checked here so a typo fails before any connection
// is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreDriver {
	case DriverMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required when store_driver=%s", DriverMongo)
		}
	case DriverPostgres:
		if appCfg.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required when store_driver=%s", DriverPostgres)
		}
	case DriverSQLite:
		if appCfg.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required when store_driver=%s", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown store_driver %q (want mongo, postgres or sqlite)", appCfg.StoreDriver)
	}

	for _, s := range appCfg.NotifySinks {
		switch s {
		case SinkLog, SinkAudit:
		case SinkNATS:
			if appCfg.NATSURL == "" {
				return fmt.Errorf("notify sink %q requires nats_url", s)
			}
		case SinkRedis:
			if appCfg.RedisAddr == "" {
				return fmt.Errorf("notify sink %q requires redis_addr", s)
			}
		default:
			return fmt.Errorf("unknown notify sink %q", s)
		}
	}

	switch appCfg.AuditLog {
	case auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff, "":
	default:
		return fmt.Errorf("audit_log must be all, db, log or off (got %q)", appCfg.AuditLog)
	}

	if appCfg.AuditRetention < 0 || appCfg.HealthInterval < 0 || appCfg.RateLimitWrites < 0 {
		return fmt.Errorf("audit_retention, health_interval and rate_limit_writes must not be negative")
	}

	return nil
}
