// internal/domain/models/event.go
package models

import "time"

// Event types emitted after a state change commits.
const (
	EventMemberInvited   = "membership.invited"
	EventMemberExpelled  = "membership.expelled"
	EventMemberLeft      = "membership.left"
	EventRecordCreated   = "record.created"
	EventRecordUpdated   = "record.updated"
	EventRecordDeleted   = "record.deleted"
	EventSequenceSwapped = "record.sequence_swapped"
	EventFeedDeleted     = "feed.deleted"
)

// Event is a fire-and-forget notification about a committed change.
type Event struct {
	ID       string            `json:"id" bson:"_id"`
	Type     string            `json:"type" bson:"type"`
	FeedID   string            `json:"feed_id" bson:"feed_id"`
	ActorID  string            `json:"actor_id" bson:"actor_id"`
	TargetID string            `json:"target_id,omitempty" bson:"target_id,omitempty"`
	At       time.Time         `json:"at" bson:"at"`
	Details  map[string]string `json:"details,omitempty" bson:"details,omitempty"`
}
