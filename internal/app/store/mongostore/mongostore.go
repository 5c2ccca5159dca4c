// Package mongostore implements ports.Store on MongoDB.
//
// Single-document conditions (the active membership, the counter increment,
// CAS updates on one record) rely on unique indexes and findAndModify.
// Multi-document effects (record insert under the author check, the
// expel/leave cascade, the sequence swap, feed deletion) run through
// txn.Require, so the store needs a replica set or sharded cluster.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/store/audit"
	"github.com/dalemusser/tripjournal/internal/app/system/indexes"
	"github.com/dalemusser/tripjournal/internal/app/system/txn"
	"github.com/dalemusser/tripjournal/internal/app/system/validators"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ErrTransactionsUnavailable is returned for multi-document writes when the
// deployment cannot run transactions.
var ErrTransactionsUnavailable = errors.New("mongostore: multi-document transactions unavailable (replica set required)")

// Store is the MongoDB backend.
type Store struct {
	db  *mongo.Database
	log *zap.Logger

	users       *mongo.Collection
	feeds       *mongo.Collection
	memberships *mongo.Collection
	records     *mongo.Collection
	counters    *mongo.Collection
}

var _ ports.Store = (*Store)(nil)

// New creates a Store on db.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:          db,
		log:         logger,
		users:       db.Collection("users"),
		feeds:       db.Collection("feeds"),
		memberships: db.Collection("memberships"),
		records:     db.Collection("records"),
		counters:    db.Collection("sequence_counters"),
	}
}

// Audit returns the audit entry store sharing this database.
func (s *Store) Audit() *audit.Store {
	return audit.New(s.db)
}

// EnsureSchema creates the collections with their validators, then
// reconciles all indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := validators.EnsureAll(ctx, s.db, s.log); err != nil {
		return fmt.Errorf("validators: %w", err)
	}
	return indexes.EnsureAll(ctx, s.db, s.log)
}

// Ping checks the primary.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// SupportsTransactions reports whether the deployment behind client can run
// multi-document transactions: a replica set member or a mongos router.
func SupportsTransactions(ctx context.Context, client *mongo.Client) (bool, error) {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	if err != nil {
		return false, err
	}
	return hello.SetName != "" || hello.Msg == "isdbgrid", nil
}

// inTxn runs fn as one transaction. There is no fallback: a deployment
// without transactions gets ErrTransactionsUnavailable.
func (s *Store) inTxn(ctx context.Context, fn func(ctx context.Context) error) error {
	err := txn.Require(ctx, s.db, fn)
	if txn.IsNotSupported(err) {
		s.log.Error("mongo transactions unavailable", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransactionsUnavailable, err)
	}
	return err
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ports.ErrNotFound
	}
	return err
}
