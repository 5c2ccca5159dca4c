// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/tripjournal/internal/app/feeds"
	"github.com/dalemusser/tripjournal/internal/app/membership"
	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/records"
	"github.com/dalemusser/tripjournal/internal/app/store/mongostore"
	"github.com/dalemusser/tripjournal/internal/app/store/sqlstore"
	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/app/system/notify"
	"github.com/dalemusser/tripjournal/internal/app/system/ratelimit"
	"github.com/dalemusser/tripjournal/internal/app/system/workers"
	"github.com/dalemusser/tripjournal/internal/app/users"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Exactly one of Mongo or SQL is set, matching Driver. Store is whichever
// one was opened. NATS and Redis are nil unless their sink is enabled.
type DBDeps struct {
	Driver string
	Store  ports.Store

	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Mongo         *mongostore.Store
	SQL           *sqlstore.Store

	NATS  *nats.Conn
	Redis *redis.Client

	// Runtime is allocated by ConnectDB and filled in by Startup. WAFFLE
	// passes DBDeps by value, so later hooks reach the services through it.
	Runtime *Runtime
}

// Runtime holds the services and workers built during Startup.
type Runtime struct {
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	Dispatcher *notify.Dispatcher
	Workers    *workers.Group
	Limiter    *ratelimit.Limiter
	Audit      AuditStore

	Users      *users.Service
	Feeds      *feeds.Service
	Membership *membership.Registry
	Records    *records.Service
}
