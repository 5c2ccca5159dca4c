// internal/domain/models/membership.go
package models

import (
	"database/sql/driver"
	"time"
)

// MembershipStatus is the lifecycle state of one membership row.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipLeft     MembershipStatus = "left"
	MembershipExpelled MembershipStatus = "expelled"
)

// Valid reports whether s is one of the known statuses.
func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipActive, MembershipLeft, MembershipExpelled:
		return true
	}
	return false
}

// Value stores the status as a plain string.
func (s MembershipStatus) Value() (driver.Value, error) { return string(s), nil }

// Membership links a contributor to a feed.
//
// Rows are append-mostly: invite inserts a new active row, expel/leave close
// the active row (status left/expelled, EndedAt set) and a later re-invite
// inserts another row. At most one row per (FeedID, UserID) is active; the
// store enforces that with a partial unique index.
type Membership struct {
	ID        string           `bson:"_id" json:"id" gorm:"column:id;primaryKey;type:varchar(36)"`
	FeedID    string           `bson:"feed_id" json:"feed_id" gorm:"column:feed_id;type:varchar(36);not null"`
	UserID    string           `bson:"user_id" json:"user_id" gorm:"column:user_id;type:varchar(36);not null"`
	Status    MembershipStatus `bson:"status" json:"status" gorm:"column:status;type:varchar(16);not null"`
	CreatedAt time.Time        `bson:"created_at" json:"created_at" gorm:"column:created_at"`
	EndedAt   *time.Time       `bson:"ended_at,omitempty" json:"ended_at,omitempty" gorm:"column:ended_at"`
}

func (Membership) TableName() string { return "memberships" }

// IsActive reports whether the row is the current membership.
func (m *Membership) IsActive() bool {
	return m.Status == MembershipActive
}
