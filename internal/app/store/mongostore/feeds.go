package mongostore

import (
	"context"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
)

// live matches documents that are not soft-deleted.
func live(filter bson.M) bson.M {
	filter["deleted_at"] = nil
	return filter
}

// Feed returns a live feed.
func (s *Store) Feed(ctx context.Context, feedID string) (*models.Feed, error) {
	var f models.Feed
	if err := s.feeds.FindOne(ctx, live(bson.M{"_id": feedID})).Decode(&f); err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// CreateFeed inserts f.
func (s *Store) CreateFeed(ctx context.Context, f *models.Feed) error {
	if _, err := s.feeds.InsertOne(ctx, f); err != nil {
		if wafflemongo.IsDup(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

// SoftDeleteFeed marks the feed and its records deleted and expels every
// active contributor, in one transaction.
func (s *Store) SoftDeleteFeed(ctx context.Context, feedID string) error {
	return s.inTxn(ctx, func(ctx context.Context) error {
		now := time.Now().UTC()
		res, err := s.feeds.UpdateOne(ctx,
			live(bson.M{"_id": feedID}),
			bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ports.ErrNotFound
		}
		if _, err := s.memberships.UpdateMany(ctx,
			bson.M{"feed_id": feedID, "status": models.MembershipActive},
			bson.M{"$set": bson.M{"status": models.MembershipExpelled, "ended_at": now}}); err != nil {
			return err
		}
		_, err = s.records.UpdateMany(ctx,
			live(bson.M{"feed_id": feedID}),
			bson.M{"$set": bson.M{"deleted_at": now, "updated_at": now}})
		return err
	})
}

// UserExists reports whether a user document exists.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": userID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateUser inserts u.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}
