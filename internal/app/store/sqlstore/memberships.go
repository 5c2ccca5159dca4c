package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"gorm.io/gorm"
)

// InsertActiveMembership inserts m as the active row. The partial unique
// index ux_memberships_active rejects a second active row for the pair.
func (s *Store) InsertActiveMembership(ctx context.Context, m *models.Membership) error {
	m.Status = models.MembershipActive
	m.EndedAt = nil
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicate(err) {
			return ports.ErrConflict
		}
		return err
	}
	return nil
}

// EndActiveMembership closes the active row with status and soft-deletes the
// user's records in the feed. The membership row is locked first, then the
// records in ascending id order.
func (s *Store) EndActiveMembership(ctx context.Context, feedID, userID string, status models.MembershipStatus) (*models.Membership, error) {
	if !status.Valid() || status == models.MembershipActive {
		return nil, errors.New("sqlstore: end status must be left or expelled")
	}
	var ended models.Membership
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := s.forUpdate(tx).
			Where("feed_id = ? AND user_id = ? AND status = ?", feedID, userID, models.MembershipActive).
			Take(&ended).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ErrNotMatched
		}
		if err != nil {
			return err
		}

		res := tx.Model(&models.Membership{}).
			Where("id = ? AND status = ?", ended.ID, models.MembershipActive).
			Updates(map[string]any{"status": status, "ended_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrNotMatched
		}

		recordIDs, err := s.lockRecordIDs(tx, "feed_id = ? AND author_id = ?", feedID, userID)
		if err != nil {
			return err
		}
		return softDeleteRecords(tx, recordIDs, now)
	})
	if err != nil {
		return nil, err
	}
	ended.Status = status
	ended.EndedAt = &now
	return &ended, nil
}

// IsActiveMember reports whether userID holds the active row for feedID.
func (s *Store) IsActiveMember(ctx context.Context, feedID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Membership{}).
		Where("feed_id = ? AND user_id = ? AND status = ?", feedID, userID, models.MembershipActive).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListMemberships returns memberships oldest first.
func (s *Store) ListMemberships(ctx context.Context, feedID string, includeHistory bool) ([]models.Membership, error) {
	q := s.db.WithContext(ctx).Where("feed_id = ?", feedID)
	if !includeHistory {
		q = q.Where("status = ?", models.MembershipActive)
	}
	var out []models.Membership
	if err := q.Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
