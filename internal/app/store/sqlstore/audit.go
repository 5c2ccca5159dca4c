package sqlstore

import (
	"context"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/store/audit"
	"gorm.io/gorm/clause"
)

// AuditRecorder writes audit entries to the audit_events table.
type AuditRecorder struct {
	s *Store
}

// Audit returns the recorder for this store.
func (s *Store) Audit() *AuditRecorder { return &AuditRecorder{s: s} }

// Log inserts one entry.
func (r *AuditRecorder) Log(ctx context.Context, e audit.Entry) error {
	audit.Prepare(&e)
	return r.s.db.WithContext(ctx).Create(&e).Error
}

// ByFeed returns the newest entries for a feed.
func (r *AuditRecorder) ByFeed(ctx context.Context, feedID string, limit int64) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []audit.Entry
	err := r.s.db.WithContext(ctx).
		Where("feed_id = ?", feedID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Limit(int(limit)).
		Find(&out).Error
	return out, err
}

// DeleteBefore removes entries older than cutoff.
func (r *AuditRecorder) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&audit.Entry{})
	return res.RowsAffected, res.Error
}
