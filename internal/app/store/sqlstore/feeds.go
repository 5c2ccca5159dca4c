package sqlstore

import (
	"context"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	lockingUpdate = clause.Locking{Strength: "UPDATE"}
	lockingShare  = clause.Locking{Strength: "SHARE"}
)

// Feed returns a live feed.
func (s *Store) Feed(ctx context.Context, feedID string) (*models.Feed, error) {
	var f models.Feed
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", feedID).
		Take(&f).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// CreateFeed inserts f. Returns ports.ErrConflict on a duplicate id.
func (s *Store) CreateFeed(ctx context.Context, f *models.Feed) error {
	if err := s.db.WithContext(ctx).Create(f).Error; err != nil {
		if isDuplicate(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

// SoftDeleteFeed marks the feed, its records and its active memberships as
// ended in one transaction. Memberships are closed before records are
// touched, the same order EndActiveMembership uses.
func (s *Store) SoftDeleteFeed(ctx context.Context, feedID string) error {
	now := time.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Feed{}).
			Where("id = ? AND deleted_at IS NULL", feedID).
			Updates(map[string]any{"deleted_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrNotFound
		}

		var memberIDs []string
		if err := s.forUpdate(tx.Model(&models.Membership{})).
			Where("feed_id = ? AND status = ?", feedID, models.MembershipActive).
			Order("id ASC").
			Pluck("id", &memberIDs).Error; err != nil {
			return err
		}
		if len(memberIDs) > 0 {
			if err := tx.Model(&models.Membership{}).
				Where("id IN ? AND status = ?", memberIDs, models.MembershipActive).
				Updates(map[string]any{"status": models.MembershipExpelled, "ended_at": now}).Error; err != nil {
				return err
			}
		}

		recordIDs, err := s.lockRecordIDs(tx, "feed_id = ?", feedID)
		if err != nil {
			return err
		}
		return softDeleteRecords(tx, recordIDs, now)
	})
}

// UserExists reports whether a user row exists.
func (s *Store) UserExists(ctx context.Context, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateUser inserts u. Returns ports.ErrConflict on a duplicate id.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicate(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}
