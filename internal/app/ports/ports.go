// Package ports declares the contracts the journal core consumes: the store
// primitives and the collaborator directories around it.
//
// The store is the only shared state between replicas. Each primitive below is
// a single indivisible operation; callers never check-then-act across two of
// them.
package ports

import (
	"context"
	"errors"

	"github.com/dalemusser/tripjournal/internal/domain/models"
)

// Outcomes reported by store primitives. Services translate them into
// journalerr values at the boundary.
var (
	// ErrNotFound: the addressed row does not exist (or is soft-deleted).
	ErrNotFound = errors.New("store: not found")
	// ErrConflict: a conditional insert was rejected because a conflicting
	// row already exists.
	ErrConflict = errors.New("store: conflict")
	// ErrNotMatched: a conditional update found no row satisfying its
	// precondition.
	ErrNotMatched = errors.New("store: precondition not matched")
)

// FeedDirectory answers feed existence, ownership and date window.
// Feed returns ErrNotFound for missing and soft-deleted feeds.
type FeedDirectory interface {
	Feed(ctx context.Context, feedID string) (*models.Feed, error)
}

// UserDirectory answers user existence.
type UserDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Authorizer decides owner/contributor permissions for a feed.
type Authorizer interface {
	IsOwnerOrActiveContributor(ctx context.Context, userID string, feed *models.Feed) (bool, error)
}

// Notifier emits events asynchronously. Emit never blocks on delivery and
// never reports delivery failure to the caller.
type Notifier interface {
	Emit(ctx context.Context, ev models.Event)
}

// MembershipStore holds the membership rows.
type MembershipStore interface {
	// InsertActiveMembership inserts m as the active row for (m.FeedID, m.UserID).
	// Returns ErrConflict if an active row already exists for that pair.
	InsertActiveMembership(ctx context.Context, m *models.Membership) error

	// EndActiveMembership closes the active row for (feedID, userID) with
	// status and soft-deletes the user's records in the feed, as one unit.
	// Returns ErrNotMatched if no active row exists.
	EndActiveMembership(ctx context.Context, feedID, userID string, status models.MembershipStatus) (*models.Membership, error)

	IsActiveMember(ctx context.Context, feedID, userID string) (bool, error)

	// ListMemberships returns active rows, or every row when includeHistory.
	ListMemberships(ctx context.Context, feedID string, includeHistory bool) ([]models.Membership, error)
}

// CounterStore holds the per-(feed, date) sequence counters.
type CounterStore interface {
	// IncrementCounter inserts the counter at 1 or increments it, returning
	// the post-increment value, atomically.
	IncrementCounter(ctx context.Context, feedID string, date models.Date) (int64, error)

	// CurrentCounter returns the last issued value, 0 if none.
	CurrentCounter(ctx context.Context, feedID string, date models.Date) (int64, error)
}

// RecordStore holds the records.
type RecordStore interface {
	// InsertRecord returns ErrConflict if (FeedID, Date, Sequence) is taken.
	InsertRecord(ctx context.Context, r *models.Record) error
	GetRecord(ctx context.Context, recordID string) (*models.Record, error)
	// ListRecords returns live records of a feed ordered by date then
	// sequence. An empty date lists every date.
	ListRecords(ctx context.Context, feedID string, date models.Date) ([]models.Record, error)
	UpdateRecordContent(ctx context.Context, recordID string, p models.RecordPayload) (*models.Record, error)
	SoftDeleteRecord(ctx context.Context, recordID string) error

	// SwapSequences exchanges the sequences of two live records atomically.
	// Rows are locked in ascending id order. Returns ErrNotFound if either
	// record is gone and ErrNotMatched if either changed underneath the swap.
	SwapSequences(ctx context.Context, firstID, secondID string) error
}

// FeedStore creates and deletes feeds.
type FeedStore interface {
	CreateFeed(ctx context.Context, f *models.Feed) error
	// SoftDeleteFeed marks the feed deleted, soft-deletes its records and
	// closes its active memberships, as one unit.
	SoftDeleteFeed(ctx context.Context, feedID string) error
}

// UserStore creates users. Production deployments sync users from the
// identity service; this exists for seeding and tests.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
}

// Store is the full backend.
type Store interface {
	FeedDirectory
	UserDirectory
	MembershipStore
	CounterStore
	RecordStore
	FeedStore
	UserStore

	// EnsureSchema creates tables/collections and indexes. Idempotent.
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
