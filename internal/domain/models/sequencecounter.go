// internal/domain/models/sequencecounter.go
package models

// SequenceCounter holds the last sequence issued for one (FeedID, Date)
// bucket. The row is created by the first increment.
type SequenceCounter struct {
	FeedID string `bson:"feed_id" json:"feed_id" gorm:"column:feed_id;primaryKey;type:varchar(36)"`
	Date   Date   `bson:"date" json:"date" gorm:"column:date;primaryKey;type:varchar(10)"`
	Value  int64  `bson:"value" json:"value" gorm:"column:value;not null"`
}

func (SequenceCounter) TableName() string { return "sequence_counters" }
