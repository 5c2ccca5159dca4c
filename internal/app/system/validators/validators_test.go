package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/system/validators"
	"github.com/dalemusser/tripjournal/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := validators.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"users", "feeds", "memberships", "records", "sequence_counters", "audit_events"} {
		if !have[want] {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestMembershipsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection("memberships")
	now := time.Now().UTC()

	tests := []struct {
		name    string
		doc     bson.M
		wantErr bool
	}{
		{"valid active", bson.M{"_id": uuid.NewString(), "feed_id": "f", "user_id": "u", "status": "active", "created_at": now}, false},
		{"valid expelled", bson.M{"_id": uuid.NewString(), "feed_id": "f", "user_id": "u", "status": "expelled", "created_at": now, "ended_at": now}, false},
		{"unknown status", bson.M{"_id": uuid.NewString(), "feed_id": "f", "user_id": "u", "status": "banned", "created_at": now}, true},
		{"missing user", bson.M{"_id": uuid.NewString(), "feed_id": "f", "status": "active", "created_at": now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := coll.InsertOne(ctx, tt.doc)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRecordsValidator(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	coll := db.Collection("records")

	base := func() bson.M {
		return bson.M{"_id": uuid.NewString(), "feed_id": "f", "author_id": "a", "date": "2024-07-01", "sequence": int64(1)}
	}

	tests := []struct {
		name    string
		mutate  func(bson.M)
		wantErr bool
	}{
		{"valid", func(bson.M) {}, false},
		{"parked negative sequence", func(d bson.M) { d["sequence"] = int64(-3) }, false},
		{"string sequence", func(d bson.M) { d["sequence"] = "1" }, true},
		{"bad date", func(d bson.M) { d["date"] = "July 1" }, true},
		{"missing author", func(d bson.M) { delete(d, "author_id") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := base()
			tt.mutate(doc)
			_, err := coll.InsertOne(ctx, doc)
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
