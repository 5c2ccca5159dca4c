package mongostore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertActiveMembership inserts m as the active row. The partial unique
// index uniq_memberships_active_feed_user rejects a second one.
func (s *Store) InsertActiveMembership(ctx context.Context, m *models.Membership) error {
	m.Status = models.MembershipActive
	m.EndedAt = nil
	if _, err := s.memberships.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

// EndActiveMembership flips the active row to status and soft-deletes the
// user's records in the feed.
func (s *Store) EndActiveMembership(ctx context.Context, feedID, userID string, status models.MembershipStatus) (*models.Membership, error) {
	if !status.Valid() || status == models.MembershipActive {
		return nil, errors.New("mongostore: end status must be left or expelled")
	}

	var ended models.Membership
	err := s.inTxn(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		err := s.memberships.FindOneAndUpdate(ctx,
			bson.M{"feed_id": feedID, "user_id": userID, "status": models.MembershipActive},
			bson.M{"$set": bson.M{"status": status, "ended_at": now}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&ended)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ports.ErrNotMatched
		}
		if err != nil {
			return err
		}
		_, err = s.records.UpdateMany(ctx,
			live(bson.M{"feed_id": feedID, "author_id": userID}),
			bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ended, nil
}

// IsActiveMember reports whether userID holds the active row for feedID.
func (s *Store) IsActiveMember(ctx context.Context, feedID, userID string) (bool, error) {
	n, err := s.memberships.CountDocuments(ctx,
		bson.M{"feed_id": feedID, "user_id": userID, "status": models.MembershipActive},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListMemberships returns memberships oldest first.
func (s *Store) ListMemberships(ctx context.Context, feedID string, includeHistory bool) ([]models.Membership, error) {
	filter := bson.M{"feed_id": feedID}
	if !includeHistory {
		filter["status"] = models.MembershipActive
	}
	cur, err := s.memberships.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Membership{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
