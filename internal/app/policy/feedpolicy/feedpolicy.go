// internal/app/policy/feedpolicy/feedpolicy.go
package feedpolicy

import (
	"context"

	"github.com/dalemusser/tripjournal/internal/domain/models"
)

// MemberLookup answers whether a user holds the active membership of a feed.
type MemberLookup interface {
	IsActiveMember(ctx context.Context, feedID, userID string) (bool, error)
}

// Policy is the feed Authorizer: the owner can always act, other users only
// while their membership is active.
type Policy struct {
	members MemberLookup
}

// New creates a Policy backed by the membership store.
func New(members MemberLookup) *Policy {
	return &Policy{members: members}
}

// IsOwnerOrActiveContributor reports whether userID may write to feed.
// Returns an error if the membership lookup fails, so callers can tell
// "not authorized" (false, nil) apart from a store failure (false, err).
func (p *Policy) IsOwnerOrActiveContributor(ctx context.Context, userID string, feed *models.Feed) (bool, error) {
	if feed == nil || userID == "" {
		return false, nil
	}
	if feed.IsOwner(userID) {
		return true, nil
	}
	return p.members.IsActiveMember(ctx, feed.ID, userID)
}

// CanManageMembers reports whether userID may invite or expel in feed.
// Only the owner manages membership.
func CanManageMembers(userID string, feed *models.Feed) bool {
	return feed != nil && userID != "" && feed.IsOwner(userID)
}
