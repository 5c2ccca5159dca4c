// internal/domain/models/feed.go
package models

import "time"

// Feed is a trip journal owned by one user.
//
// NOTE:
//   - The owner is never stored as a membership row; ownership is OwnerID.
//   - StartAt/EndAt bound the dates records may be filed under (inclusive).
//   - Deletion is soft: DeletedAt is set and the feed disappears from the
//     FeedDirectory.
type Feed struct {
	ID      string `bson:"_id" json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	OwnerID string `bson:"owner_id" json:"owner_id" gorm:"column:owner_id;type:varchar(36);not null;index"`
	Title   string `bson:"title" json:"title" gorm:"column:title;not null"`
	StartAt Date   `bson:"start_at" json:"start_at" gorm:"column:start_at;type:varchar(10);not null"`
	EndAt   Date   `bson:"end_at" json:"end_at" gorm:"column:end_at;type:varchar(10);not null"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at" gorm:"column:updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty" gorm:"column:deleted_at"`
}

func (Feed) TableName() string { return "feeds" }

// IsOwner reports whether userID owns the feed.
func (f *Feed) IsOwner(userID string) bool {
	return f != nil && userID != "" && f.OwnerID == userID
}

// InWindow reports whether d falls inside [StartAt, EndAt].
func (f *Feed) InWindow(d Date) bool {
	return !d.Before(f.StartAt) && !d.After(f.EndAt)
}
