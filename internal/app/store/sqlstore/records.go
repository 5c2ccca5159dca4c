package sqlstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"gorm.io/gorm"
)

const upsertCounterSQL = `INSERT INTO sequence_counters (feed_id, date, value) VALUES (?, ?, 1)
ON CONFLICT (feed_id, date) DO UPDATE SET value = sequence_counters.value + 1
RETURNING value`

// IncrementCounter creates the counter at 1 or bumps it, in one statement.
func (s *Store) IncrementCounter(ctx context.Context, feedID string, date models.Date) (int64, error) {
	var value int64
	err := s.db.WithContext(ctx).Raw(upsertCounterSQL, feedID, date.String()).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

// CurrentCounter returns the last issued value, or 0.
func (s *Store) CurrentCounter(ctx context.Context, feedID string, date models.Date) (int64, error) {
	var c models.SequenceCounter
	err := s.db.WithContext(ctx).
		Where("feed_id = ? AND date = ?", feedID, date.String()).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return c.Value, nil
}

// InsertRecord inserts r if its author may still write to the feed: the feed
// is live and the author owns it or holds the active membership. Both rows
// are share-locked for the transaction, so a concurrent expel, leave or feed
// delete either waits for the insert and then cascades over it, or commits
// first and the insert sees the closed row. A closed membership is
// ports.ErrNotMatched, a deleted feed ports.ErrNotFound, and a taken
// (feed, date, sequence) ports.ErrConflict.
func (s *Store) InsertRecord(ctx context.Context, r *models.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var f models.Feed
		err := s.forShare(tx).
			Where("id = ? AND deleted_at IS NULL", r.FeedID).
			Take(&f).Error
		if err != nil {
			return notFound(err)
		}
		if !f.IsOwner(r.AuthorID) {
			var m models.Membership
			err := s.forShare(tx).
				Where("feed_id = ? AND user_id = ? AND status = ?", r.FeedID, r.AuthorID, models.MembershipActive).
				Take(&m).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotMatched
			}
			if err != nil {
				return err
			}
		}
		if err := tx.Create(r).Error; err != nil {
			if isDuplicate(err) {
				return ports.ErrConflict
			}
			return err
		}
		return nil
	})
}

// GetRecord returns a live record.
func (s *Store) GetRecord(ctx context.Context, recordID string) (*models.Record, error) {
	var r models.Record
	err := s.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", recordID).
		Take(&r).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &r, nil
}

// ListRecords returns live records ordered by date then sequence.
func (s *Store) ListRecords(ctx context.Context, feedID string, date models.Date) ([]models.Record, error) {
	q := s.db.WithContext(ctx).Where("feed_id = ? AND deleted_at IS NULL", feedID)
	if date != "" {
		q = q.Where("date = ?", date.String())
	}
	var out []models.Record
	if err := q.Order("date ASC").Order("sequence ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRecordContent replaces title and content of a live record.
func (s *Store) UpdateRecordContent(ctx context.Context, recordID string, p models.RecordPayload) (*models.Record, error) {
	res := s.db.WithContext(ctx).Model(&models.Record{}).
		Where("id = ? AND deleted_at IS NULL", recordID).
		Updates(map[string]any{
			"title":      p.Title,
			"content":    p.Content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ports.ErrNotFound
	}
	return s.GetRecord(ctx, recordID)
}

// SoftDeleteRecord marks a live record deleted. Its sequence stays taken.
func (s *Store) SoftDeleteRecord(ctx context.Context, recordID string) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Record{}).
		Where("id = ? AND deleted_at IS NULL", recordID).
		Updates(map[string]any{"deleted_at": now, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SwapSequences exchanges the sequences of two live records in one
// transaction. The first row parks on the negated value so the unique
// (feed_id, date, sequence) index holds after every statement.
func (s *Store) SwapSequences(ctx context.Context, firstID, secondID string) error {
	if firstID == secondID {
		return nil
	}
	ids := []string{firstID, secondID}
	sort.Strings(ids)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.Record
		err := s.forUpdate(tx).
			Where("id IN ? AND deleted_at IS NULL", ids).
			Order("id ASC").
			Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) != 2 {
			return ports.ErrNotFound
		}
		a, b := rows[0], rows[1]
		if a.FeedID != b.FeedID || a.Date != b.Date {
			return ports.ErrNotMatched
		}

		now := time.Now().UTC()
		steps := []struct {
			id       string
			from, to int64
		}{
			{a.ID, a.Sequence, -a.Sequence},
			{b.ID, b.Sequence, a.Sequence},
			{a.ID, -a.Sequence, b.Sequence},
		}
		for _, st := range steps {
			res := tx.Model(&models.Record{}).
				Where("id = ? AND sequence = ? AND deleted_at IS NULL", st.id, st.from).
				Updates(map[string]any{"sequence": st.to, "updated_at": now})
			if res.Error != nil {
				if isDuplicate(res.Error) {
					return ports.ErrNotMatched
				}
				return res.Error
			}
			if res.RowsAffected != 1 {
				return ports.ErrNotMatched
			}
		}
		return nil
	})
}
