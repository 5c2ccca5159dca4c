// Package membership owns the contributor state machine of a feed.
//
//	∅ --invite--> active --expel--> expelled
//	                     --leave--> left
//
// Ended rows are terminal; a later invite inserts a new active row. Every
// transition is a single conditional store operation, so concurrent callers
// across replicas see exactly one winner.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/policy/feedpolicy"
	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the subset of ports.Store the registry needs.
type Store interface {
	ports.FeedDirectory
	ports.UserDirectory
	ports.MembershipStore
}

// Registry implements invite, expel and leave.
type Registry struct {
	store    Store
	auth     ports.Authorizer
	notifier ports.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// New creates a Registry. metrics may be nil.
func New(store Store, auth ports.Authorizer, notifier ports.Notifier, m *metrics.Metrics, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:    store,
		auth:     auth,
		notifier: notifier,
		metrics:  m,
		log:      logger,
	}
}

func (r *Registry) feed(ctx context.Context, feedID string) (*models.Feed, error) {
	f, err := r.store.Feed(ctx, feedID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, journalerr.ErrFeedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	return f, nil
}

// Invite adds targetUserID as an active contributor of feedID.
func (r *Registry) Invite(ctx context.Context, actingUserID, feedID, targetUserID string) (_ *models.Membership, err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveOp("invite", start, err) }()

	feed, err := r.feed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if !feedpolicy.CanManageMembers(actingUserID, feed) {
		return nil, journalerr.ErrForbidden
	}
	exists, err := r.store.UserExists(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, journalerr.ErrUserNotFound
	}
	if targetUserID == feed.OwnerID {
		return nil, journalerr.ErrSelfInvitationNotAllowed
	}

	m := &models.Membership{
		ID:        uuid.NewString(),
		FeedID:    feed.ID,
		UserID:    targetUserID,
		Status:    models.MembershipActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertActiveMembership(ctx, m); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return nil, journalerr.ErrUserAlreadyInvited
		}
		return nil, fmt.Errorf("insert membership: %w", err)
	}

	r.log.Info("contributor invited",
		zap.String("feed_id", feed.ID),
		zap.String("user_id", targetUserID),
		zap.String("membership_id", m.ID))
	r.notifier.Emit(ctx, models.Event{
		Type:     models.EventMemberInvited,
		FeedID:   feed.ID,
		ActorID:  actingUserID,
		TargetID: targetUserID,
	})
	return m, nil
}

// Expel ends targetUserID's active membership and deletes their records in
// the feed, as one unit.
func (r *Registry) Expel(ctx context.Context, ownerID, feedID, targetUserID string) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveOp("expel", start, err) }()

	feed, err := r.feed(ctx, feedID)
	if err != nil {
		return err
	}
	if !feedpolicy.CanManageMembers(ownerID, feed) {
		return journalerr.ErrForbidden
	}
	if targetUserID == feed.OwnerID {
		return journalerr.ErrSelfExpellingNotAllowed
	}
	return r.end(ctx, feed, ownerID, targetUserID, models.MembershipExpelled)
}

// Leave ends the caller's own active membership and deletes their records in
// the feed, as one unit.
func (r *Registry) Leave(ctx context.Context, userID, feedID string) (err error) {
	start := time.Now()
	defer func() { r.metrics.ObserveOp("leave", start, err) }()

	feed, err := r.feed(ctx, feedID)
	if err != nil {
		return err
	}
	if feed.IsOwner(userID) {
		return journalerr.ErrFeedOwnerLeavingNotAllowed
	}
	return r.end(ctx, feed, userID, userID, models.MembershipLeft)
}

func (r *Registry) end(ctx context.Context, feed *models.Feed, actorID, userID string, status models.MembershipStatus) error {
	ended, err := r.store.EndActiveMembership(ctx, feed.ID, userID, status)
	if errors.Is(err, ports.ErrNotMatched) {
		return journalerr.ErrUserNotInvited
	}
	if err != nil {
		return fmt.Errorf("end membership: %w", err)
	}

	evType := models.EventMemberLeft
	if status == models.MembershipExpelled {
		evType = models.EventMemberExpelled
	}
	r.log.Info("membership ended",
		zap.String("feed_id", feed.ID),
		zap.String("user_id", userID),
		zap.String("status", string(status)),
		zap.String("membership_id", ended.ID))
	r.notifier.Emit(ctx, models.Event{
		Type:     evType,
		FeedID:   feed.ID,
		ActorID:  actorID,
		TargetID: userID,
		Details:  map[string]string{"membership_id": ended.ID},
	})
	return nil
}

// Members lists the feed's memberships. Only the owner and active
// contributors may read them.
func (r *Registry) Members(ctx context.Context, actingUserID, feedID string, includeHistory bool) ([]models.Membership, error) {
	feed, err := r.feed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	ok, err := r.auth.IsOwnerOrActiveContributor(ctx, actingUserID, feed)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return nil, journalerr.ErrForbidden
	}
	rows, err := r.store.ListMemberships(ctx, feed.ID, includeHistory)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return rows, nil
}
