// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry categories
const (
	CategoryMembership = "membership"
	CategoryRecord     = "record"
	CategoryFeed       = "feed"
)

// Entry is one persisted audit row. The same shape is stored in Mongo
// (audit_events collection) and SQL (audit_events table).
type Entry struct {
	ID        string    `json:"id" bson:"_id" gorm:"column:id;primaryKey;type:varchar(36)"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp" gorm:"column:timestamp;index:idx_audit_feed_ts,priority:2"`

	Category  string `json:"category" bson:"category" gorm:"column:category;type:varchar(32)"`
	EventType string `json:"event_type" bson:"event_type" gorm:"column:event_type;type:varchar(64)"`

	FeedID   string `json:"feed_id" bson:"feed_id" gorm:"column:feed_id;type:varchar(36);index:idx_audit_feed_ts,priority:1"`
	ActorID  string `json:"actor_id" bson:"actor_id" gorm:"column:actor_id;type:varchar(36);index"`
	TargetID string `json:"target_id,omitempty" bson:"target_id,omitempty" gorm:"column:target_id;type:varchar(36)"`

	Details map[string]string `json:"details,omitempty" bson:"details,omitempty" gorm:"serializer:json;column:details;type:text"`
}

func (Entry) TableName() string { return "audit_events" }

// QueryFilter narrows a Query. Zero fields are ignored.
type QueryFilter struct {
	FeedID    string
	ActorID   string
	EventType string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit entries in Mongo.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Log records an audit entry.
func (s *Store) Log(ctx context.Context, e Entry) error {
	Prepare(&e)
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// Prepare fills ID and Timestamp when unset.
func Prepare(e *Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}

// Query retrieves entries matching filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	query := bson.M{}
	if filter.FeedID != "" {
		query["feed_id"] = filter.FeedID
	}
	if filter.ActorID != "" {
		query["actor_id"] = filter.ActorID
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []Entry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ByFeed retrieves recent entries for one feed.
func (s *Store) ByFeed(ctx context.Context, feedID string, limit int64) ([]Entry, error) {
	return s.Query(ctx, QueryFilter{FeedID: feedID, Limit: limit})
}

// DeleteBefore removes entries older than cutoff and returns how many went.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
