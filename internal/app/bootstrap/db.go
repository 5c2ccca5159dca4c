// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/store/mongostore"
	"github.com/dalemusser/tripjournal/internal/app/store/sqlstore"
	"github.com/dalemusser/waffle/config"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens the configured store and any broker the enabled
// notification sinks need. On error everything already opened is closed.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps, err := OpenStore(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}

	if appCfg.SinkEnabled(SinkNATS) {
		nc, err := nats.Connect(appCfg.NATSURL, nats.Name("tripjournal"))
		if err != nil {
			closeDeps(ctx, deps, logger)
			return DBDeps{}, fmt.Errorf("nats connect: %w", err)
		}
		deps.NATS = nc
		logger.Info("connected to NATS", zap.String("url", nc.ConnectedUrlRedacted()))
	}

	if appCfg.SinkEnabled(SinkRedis) {
		rdb := redis.NewClient(&redis.Options{Addr: appCfg.RedisAddr})
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			_ = rdb.Close()
			closeDeps(ctx, deps, logger)
			return DBDeps{}, fmt.Errorf("redis tracing: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			closeDeps(ctx, deps, logger)
			return DBDeps{}, fmt.Errorf("redis ping %s: %w", appCfg.RedisAddr, err)
		}
		deps.Redis = rdb
		logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr))
	}

	return deps, nil
}

// OpenStore connects only the store backend. The admin CLI uses it directly.
func OpenStore(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	deps := DBDeps{Driver: appCfg.StoreDriver, Runtime: &Runtime{}}

	switch appCfg.StoreDriver {
	case DriverMongo:
		opts := options.Client().
			ApplyURI(appCfg.MongoURI).
			SetMaxPoolSize(appCfg.MongoMaxPoolSize).
			SetMinPoolSize(appCfg.MongoMinPoolSize)

		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()

		client, err := mongo.Connect(connCtx, opts)
		if err != nil {
			return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
		}
		if err := client.Ping(connCtx, readpref.Primary()); err != nil {
			_ = client.Disconnect(ctx)
			return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
		}

		db := client.Database(appCfg.MongoDatabase)
		deps.MongoClient = client
		deps.MongoDatabase = db
		ok, err := mongostore.SupportsTransactions(connCtx, client)
		if err != nil {
			_ = client.Disconnect(ctx)
			return DBDeps{}, fmt.Errorf("mongo hello: %w", err)
		}
		if !ok {
			_ = client.Disconnect(ctx)
			return DBDeps{}, fmt.Errorf("mongo: %w", mongostore.ErrTransactionsUnavailable)
		}
		deps.Mongo = mongostore.New(db, logger)
		deps.Store = deps.Mongo
		logger.Info("connected to MongoDB",
			zap.String("database", appCfg.MongoDatabase),
			zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	case DriverPostgres, DriverSQLite:
		dsn := appCfg.PostgresDSN
		if appCfg.StoreDriver == DriverSQLite {
			dsn = appCfg.SQLitePath
		}
		store, err := sqlstore.Open(sqlstore.Config{Driver: appCfg.StoreDriver, DSN: dsn}, logger)
		if err != nil {
			return DBDeps{}, err
		}
		deps.SQL = store
		deps.Store = store
		logger.Info("opened SQL store", zap.String("driver", appCfg.StoreDriver))

	default:
		return DBDeps{}, fmt.Errorf("unknown store_driver %q", appCfg.StoreDriver)
	}

	return deps, nil
}

// EnsureSchema creates tables, collections and indexes for the configured
// backend. It is idempotent and safe to run on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Store == nil {
		return fmt.Errorf("ensure schema: no store connected")
	}
	if err := deps.Store.EnsureSchema(ctx); err != nil {
		logger.Error("schema setup failed", zap.String("driver", deps.Driver), zap.Error(err))
		return fmt.Errorf("ensure schema (%s): %w", deps.Driver, err)
	}
	logger.Info("schema ready", zap.String("driver", deps.Driver))
	return nil
}
