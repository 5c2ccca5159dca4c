// Package feeds creates, reads and deletes trip journals.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxTitleLen bounds a feed title after sanitizing.
const MaxTitleLen = 200

// Store is the subset of ports.Store the service needs.
type Store interface {
	ports.FeedDirectory
	ports.UserDirectory
	ports.FeedStore
}

// Service manages feeds.
type Service struct {
	store    Store
	auth     ports.Authorizer
	notifier ports.Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// New creates a Service. metrics may be nil.
func New(store Store, auth ports.Authorizer, notifier ports.Notifier, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, auth: auth, notifier: notifier, metrics: m, log: logger}
}

func (s *Service) load(ctx context.Context, feedID string) (*models.Feed, error) {
	f, err := s.store.Feed(ctx, feedID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, journalerr.ErrFeedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	return f, nil
}

// Create opens a feed owned by ownerID covering [startAt, endAt].
func (s *Service) Create(ctx context.Context, ownerID, title string, startAt, endAt models.Date) (_ *models.Feed, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("create_feed", start, err) }()

	title = htmlsanitize.PlainText(title)
	if title == "" {
		return nil, journalerr.Invalid("title is required")
	}
	if len([]rune(title)) > MaxTitleLen {
		return nil, journalerr.Invalid(fmt.Sprintf("title must be at most %d characters", MaxTitleLen))
	}
	from, err := models.ParseDate(startAt.String())
	if err != nil {
		return nil, journalerr.Invalid(err.Error())
	}
	to, err := models.ParseDate(endAt.String())
	if err != nil {
		return nil, journalerr.Invalid(err.Error())
	}
	if to.Before(from) {
		return nil, journalerr.Invalid("end date is before start date")
	}

	exists, err := s.store.UserExists(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("check owner: %w", err)
	}
	if !exists {
		return nil, journalerr.ErrUserNotFound
	}

	now := time.Now().UTC()
	f := &models.Feed{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		StartAt:   from,
		EndAt:     to,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateFeed(ctx, f); err != nil {
		return nil, fmt.Errorf("insert feed: %w", err)
	}
	s.log.Info("feed created", zap.String("feed_id", f.ID), zap.String("user_id", ownerID))
	return f, nil
}

// Get returns the feed to its owner or an active contributor.
func (s *Service) Get(ctx context.Context, userID, feedID string) (*models.Feed, error) {
	f, err := s.load(ctx, feedID)
	if err != nil {
		return nil, err
	}
	ok, err := s.auth.IsOwnerOrActiveContributor(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return nil, journalerr.ErrForbidden
	}
	return f, nil
}

// Delete soft-deletes the feed with its records and ends every active
// membership, as one unit. Owner only.
func (s *Service) Delete(ctx context.Context, userID, feedID string) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("delete_feed", start, err) }()

	f, err := s.load(ctx, feedID)
	if err != nil {
		return err
	}
	if !f.IsOwner(userID) {
		return journalerr.ErrForbidden
	}
	if err := s.store.SoftDeleteFeed(ctx, f.ID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return journalerr.ErrFeedNotFound
		}
		return fmt.Errorf("delete feed: %w", err)
	}

	s.log.Info("feed deleted", zap.String("feed_id", f.ID), zap.String("user_id", userID))
	s.notifier.Emit(ctx, models.Event{
		Type:    models.EventFeedDeleted,
		FeedID:  f.ID,
		ActorID: userID,
	})
	return nil
}
