package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/google/uuid"
)

// Fixtures provides helper methods for creating test data through a store.
type Fixtures struct {
	store ports.Store
	t     *testing.T
}

// NewFixtures creates a new Fixtures instance for the given store.
func NewFixtures(t *testing.T, store ports.Store) *Fixtures {
	t.Helper()
	return &Fixtures{store: store, t: t}
}

// Store returns the underlying store for direct access in tests.
func (f *Fixtures) Store() ports.Store {
	return f.store
}

// CreateUser creates a test user with the given name.
func (f *Fixtures) CreateUser(ctx context.Context, name string) models.User {
	f.t.Helper()

	u := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     name + "@example.test",
		CreatedAt: time.Now().UTC(),
	}
	if err := f.store.CreateUser(ctx, &u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateFeed creates a feed owned by ownerID covering [start, end].
func (f *Fixtures) CreateFeed(ctx context.Context, ownerID string, start, end models.Date) models.Feed {
	f.t.Helper()

	now := time.Now().UTC()
	feed := models.Feed{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     "Test Trip",
		StartAt:   start,
		EndAt:     end,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.store.CreateFeed(ctx, &feed); err != nil {
		f.t.Fatalf("failed to create test feed: %v", err)
	}
	return feed
}

// CreateOwnedFeed creates an owner and a feed covering July 2024.
func (f *Fixtures) CreateOwnedFeed(ctx context.Context) models.Feed {
	f.t.Helper()
	owner := f.CreateUser(ctx, "owner")
	return f.CreateFeed(ctx, owner.ID, "2024-07-01", "2024-07-31")
}

// AddMember inserts an active membership directly, bypassing the registry.
func (f *Fixtures) AddMember(ctx context.Context, feedID, userID string) models.Membership {
	f.t.Helper()

	m := models.Membership{
		ID:        uuid.NewString(),
		FeedID:    feedID,
		UserID:    userID,
		Status:    models.MembershipActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := f.store.InsertActiveMembership(ctx, &m); err != nil {
		f.t.Fatalf("failed to add test member: %v", err)
	}
	return m
}

// CreateRecord inserts a record with an explicit sequence, bypassing the
// allocator. The author must own the feed or be an active member.
func (f *Fixtures) CreateRecord(ctx context.Context, feedID, authorID string, date models.Date, seq int64) models.Record {
	f.t.Helper()

	now := time.Now().UTC()
	r := models.Record{
		ID:        uuid.NewString(),
		FeedID:    feedID,
		AuthorID:  authorID,
		Date:      date,
		Sequence:  seq,
		Title:     "entry",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := f.store.InsertRecord(ctx, &r); err != nil {
		f.t.Fatalf("failed to create test record: %v", err)
	}
	return r
}
