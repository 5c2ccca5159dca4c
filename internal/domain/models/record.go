// internal/domain/models/record.go
package models

import "time"

// Record is one diary entry inside a feed.
//
// Sequence orders records within (FeedID, Date). It is unique in that bucket,
// starts at 1 and is never reused, so soft-deleted rows keep theirs and gaps
// are expected.
type Record struct {
	ID       string `bson:"_id" json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	FeedID   string `bson:"feed_id" json:"feed_id" gorm:"column:feed_id;type:varchar(36);not null"`
	AuthorID string `bson:"author_id" json:"author_id" gorm:"column:author_id;type:varchar(36);not null"`
	Date     Date   `bson:"date" json:"date" gorm:"column:date;type:varchar(10);not null"`
	Sequence int64  `bson:"sequence" json:"sequence" gorm:"column:sequence;not null"`

	Title   string `bson:"title" json:"title" gorm:"column:title"`
	Content string `bson:"content" json:"content" gorm:"column:content"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at" gorm:"column:created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at" gorm:"column:updated_at"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty" gorm:"column:deleted_at"`
}

func (Record) TableName() string { return "records" }

// RecordPayload carries the author-editable fields of a record.
type RecordPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
