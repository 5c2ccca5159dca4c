// Package sqlstore implements ports.Store on gorm, against PostgreSQL in
// production and SQLite for local runs and tests.
//
// Every conditional write is a single statement or a single transaction. On
// PostgreSQL rows touched by a multi-row transaction are locked with
// SELECT ... FOR UPDATE in ascending id order, and transactions that touch
// more than one table lock in the same order: feed, memberships, records.
// SQLite has no row locks; the pool is held to one connection so
// transactions run one at a time.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/store/audit"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and addresses the database.
type Config struct {
	// Driver is "postgres" or "sqlite".
	Driver string
	// DSN is a PostgreSQL connection string, or a file path for SQLite.
	DSN string
}

// Store is the SQL backend.
type Store struct {
	db     *gorm.DB
	driver string
	log    *zap.Logger
}

var _ ports.Store = (*Store)(nil)

// SQLiteDSN builds the connection string used for a SQLite file.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)", path)
}

// Open connects to the configured database. Call EnsureSchema before use.
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	gcfg := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	case DriverSQLite:
		if cfg.DSN == "" {
			return nil, errors.New("sqlstore: sqlite path is required")
		}
		db, err = gorm.Open(sqlite.Open(SQLiteDSN(cfg.DSN)), gcfg)
	default:
		return nil, fmt.Errorf("sqlstore: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", cfg.Driver, err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("sqlstore: tracing plugin: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return &Store{db: db, driver: cfg.Driver, log: logger}, nil
}

// DB exposes the gorm handle for tooling and tests.
func (s *Store) DB() *gorm.DB { return s.db }

// Driver returns the configured driver name.
func (s *Store) Driver() string { return s.driver }

// partial and composite indexes AutoMigrate cannot express
var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_memberships_active ON memberships (feed_id, user_id) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS ix_memberships_feed_created ON memberships (feed_id, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_records_feed_date_sequence ON records (feed_id, date, sequence)`,
	`CREATE INDEX IF NOT EXISTS ix_records_feed_author ON records (feed_id, author_id)`,
}

// EnsureSchema migrates tables and creates indexes. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for _, model := range []any{
		&models.User{},
		&models.Feed{},
		&models.Membership{},
		&models.Record{},
		&models.SequenceCounter{},
		&audit.Entry{},
	} {
		s.log.Debug("migrating table", zap.String("model", fmt.Sprintf("%T", model)))
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrate %T: %w", model, err)
		}
	}
	for _, stmt := range indexStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// forUpdate locks selected rows on PostgreSQL and is a no-op on SQLite.
func (s *Store) forUpdate(tx *gorm.DB) *gorm.DB {
	if s.driver == DriverPostgres {
		return tx.Clauses(lockingUpdate)
	}
	return tx
}

// forShare share-locks selected rows on PostgreSQL and is a no-op on SQLite.
func (s *Store) forShare(tx *gorm.DB) *gorm.DB {
	if s.driver == DriverPostgres {
		return tx.Clauses(lockingShare)
	}
	return tx
}

// lockRecordIDs locks the live records matched by where in ascending id
// order and returns their ids.
func (s *Store) lockRecordIDs(tx *gorm.DB, where string, args ...any) ([]string, error) {
	var ids []string
	err := s.forUpdate(tx.Model(&models.Record{})).
		Where(where, args...).
		Where("deleted_at IS NULL").
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// softDeleteRecords marks the given records deleted.
func softDeleteRecords(tx *gorm.DB, ids []string, now time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Model(&models.Record{}).
		Where("id IN ? AND deleted_at IS NULL", ids).
		Updates(map[string]any{"deleted_at": now, "updated_at": now}).Error
}

// isDuplicate reports a unique-constraint violation from either dialect.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = unique_violation
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrNotFound
	}
	return err
}
