package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/store/mongostore"
	"github.com/dalemusser/tripjournal/internal/app/store/sqlstore"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoURIEnv names the variable that points tests at a MongoDB server.
const MongoURIEnv = "TRIPJOURNAL_TEST_MONGO_URI"

// PostgresDSNEnv names the variable that points tests at a PostgreSQL server.
// Postgres-backed tests are skipped when it is unset or unreachable.
const PostgresDSNEnv = "TRIPJOURNAL_TEST_POSTGRES_DSN"

// TestContext returns a context with a generous deadline for store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB returns a fresh MongoDB database that is dropped when the test
// ends. The test is skipped when no server answers.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv(MongoURIEnv)
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(2*time.Second))
	if err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		t.Skipf("mongo unavailable: %v", err)
	}

	name := "tripjournal_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	db := client.Database(name)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

// SetupSQLStore returns a migrated SQLite store in the test's temp dir.
func SetupSQLStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverSQLite, DSN: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	ctx, cancel := TestContext()
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store
}

// SetupTxnTestDB is SetupTestDB for tests that need multi-document
// transactions. It skips on a standalone server.
func SetupTxnTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	db := SetupTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	ok, err := mongostore.SupportsTransactions(ctx, db.Client())
	if err != nil {
		t.Skipf("mongo hello failed: %v", err)
	}
	if !ok {
		t.Skip("mongo server is standalone; transactions need a replica set")
	}
	return db
}

// SetupPostgresStore returns a migrated PostgreSQL store in a schema of its
// own, dropped when the test ends. The test is skipped when
// TRIPJOURNAL_TEST_POSTGRES_DSN is unset or the server does not answer.
func SetupPostgresStore(t *testing.T) *sqlstore.Store {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	admin, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverPostgres, DSN: dsn}, zap.NewNop())
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	ctx, cancel := TestContext()
	defer cancel()
	if err := admin.Ping(ctx); err != nil {
		_ = admin.Close(context.Background())
		t.Skipf("postgres unavailable: %v", err)
	}

	schema := "tj_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if err := admin.DB().WithContext(ctx).Exec("CREATE SCHEMA " + schema).Error; err != nil {
		_ = admin.Close(context.Background())
		t.Fatalf("create schema: %v", err)
	}

	store, err := sqlstore.Open(sqlstore.Config{Driver: sqlstore.DriverPostgres, DSN: withSearchPath(dsn, schema)}, zap.NewNop())
	if err != nil {
		t.Fatalf("open postgres store: %v", err)
	}
	// Concurrency tests fan out far wider than a default max_connections.
	if sqlDB, err := store.DB().DB(); err == nil {
		sqlDB.SetMaxOpenConns(20)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = store.Close(ctx)
		_ = admin.DB().WithContext(ctx).Exec("DROP SCHEMA " + schema + " CASCADE").Error
		_ = admin.Close(ctx)
	})

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return store
}

// withSearchPath pins connections opened from dsn to schema. Both URL and
// keyword/value DSNs are accepted.
func withSearchPath(dsn, schema string) string {
	if strings.Contains(dsn, "://") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return dsn + sep + "search_path=" + schema
	}
	return fmt.Sprintf("%s search_path=%s", dsn, schema)
}

// SQLBackend names a SQL store constructor for table-driven tests.
type SQLBackend struct {
	Name string
	Open func(t *testing.T) *sqlstore.Store
}

// SQLBackends lists the SQL stores concurrency tests run against: SQLite
// always, PostgreSQL when TRIPJOURNAL_TEST_POSTGRES_DSN is reachable. Only
// PostgreSQL exercises row locks; SQLite serializes whole transactions.
func SQLBackends() []SQLBackend {
	return []SQLBackend{
		{Name: sqlstore.DriverSQLite, Open: SetupSQLStore},
		{Name: sqlstore.DriverPostgres, Open: SetupPostgresStore},
	}
}
