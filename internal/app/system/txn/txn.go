// Package txn runs multi-document MongoDB writes as one transaction.
//
// Compound effects in the journal (membership flip plus record cascade, the
// three-step sequence swap, feed deletion, record insert under the author
// check) must never be observable half applied, so they go through Require.
// There is no non-transactional fallback; callers use IsNotSupported to
// report a deployment that cannot provide transactions.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Require executes fn inside a transaction and fails if the deployment cannot
// provide one. Transient transaction errors (write conflicts) are retried by
// the driver; fn must therefore be safe to re-run from the start.
func Require(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// IsNotSupported reports whether err means the server cannot run
// multi-document transactions (standalone mongod, old servers, some
// DocumentDB configurations).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263: // IllegalOperation, ... , OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	hasTxn := strings.Contains(s, "transaction")
	switch {
	case hasTxn && strings.Contains(s, "replica set"):
		return true
	case strings.Contains(s, "session") && (hasTxn || strings.Contains(s, "not supported")):
		return true
	case hasTxn && strings.Contains(s, "illegal operation"):
		return true
	}
	return false
}
