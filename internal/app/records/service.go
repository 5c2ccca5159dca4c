// Package records creates, reorders and edits the records of a feed.
package records

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/sequence"
	"github.com/dalemusser/tripjournal/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the subset of ports.Store the service needs.
type Store interface {
	ports.FeedDirectory
	ports.RecordStore
}

// Service is the record ordering service.
type Service struct {
	store     Store
	allocator *sequence.Allocator
	auth      ports.Authorizer
	notifier  ports.Notifier
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// New creates a Service. metrics may be nil.
func New(store Store, allocator *sequence.Allocator, auth ports.Authorizer, notifier ports.Notifier, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		allocator: allocator,
		auth:      auth,
		notifier:  notifier,
		metrics:   m,
		log:       logger,
	}
}

func (s *Service) feed(ctx context.Context, feedID string) (*models.Feed, error) {
	f, err := s.store.Feed(ctx, feedID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, journalerr.ErrFeedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load feed: %w", err)
	}
	return f, nil
}

func (s *Service) record(ctx context.Context, recordID string) (*models.Record, error) {
	r, err := s.store.GetRecord(ctx, recordID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, journalerr.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	return r, nil
}

func (s *Service) authorize(ctx context.Context, userID string, feed *models.Feed) error {
	ok, err := s.auth.IsOwnerOrActiveContributor(ctx, userID, feed)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if !ok {
		return journalerr.ErrForbidden
	}
	return nil
}

func clean(p models.RecordPayload) models.RecordPayload {
	return models.RecordPayload{
		Title:   htmlsanitize.PlainText(p.Title),
		Content: htmlsanitize.Sanitize(p.Content),
	}
}

// Create files a new record under (feedID, date) with the next sequence.
func (s *Service) Create(ctx context.Context, userID, feedID string, date models.Date, payload models.RecordPayload) (_ *models.Record, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("create_record", start, err) }()

	feed, err := s.feed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, feed); err != nil {
		return nil, err
	}
	d, err := models.ParseDate(date.String())
	if err != nil {
		return nil, journalerr.Invalid(err.Error())
	}
	if !feed.InWindow(d) {
		return nil, journalerr.ErrDateOutOfRange
	}

	seq, err := s.allocator.Next(ctx, feed.ID, d)
	if err != nil {
		return nil, err
	}

	p := clean(payload)
	now := time.Now().UTC()
	rec := &models.Record{
		ID:        uuid.NewString(),
		FeedID:    feed.ID,
		AuthorID:  userID,
		Date:      d,
		Sequence:  seq,
		Title:     p.Title,
		Content:   p.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	// The store re-checks the write right atomically with the insert; an
	// expel, leave or feed delete that won the race since authorize lands here.
	if err := s.store.InsertRecord(ctx, rec); err != nil {
		// the allocated sequence is abandoned, never reissued
		switch {
		case errors.Is(err, ports.ErrNotMatched):
			return nil, journalerr.ErrForbidden
		case errors.Is(err, ports.ErrNotFound):
			return nil, journalerr.ErrFeedNotFound
		}
		if errors.Is(err, ports.ErrConflict) {
			s.log.Error("allocated sequence already taken",
				zap.String("feed_id", feed.ID),
				zap.String("date", d.String()),
				zap.Int64("sequence", seq))
			return nil, journalerr.ErrConcurrentModification
		}
		return nil, fmt.Errorf("insert record: %w", err)
	}

	s.notifier.Emit(ctx, models.Event{
		Type:     models.EventRecordCreated,
		FeedID:   feed.ID,
		ActorID:  userID,
		TargetID: rec.ID,
		Details: map[string]string{
			"date":     d.String(),
			"sequence": strconv.FormatInt(seq, 10),
		},
	})
	return rec, nil
}

// SwapSequence exchanges the sequences of two records of the same feed and
// date. Applying it twice restores the original order.
func (s *Service) SwapSequence(ctx context.Context, userID, originalRecordID, targetRecordID string) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("swap_sequence", start, err) }()

	a, err := s.record(ctx, originalRecordID)
	if err != nil {
		return err
	}
	b, err := s.record(ctx, targetRecordID)
	if err != nil {
		return err
	}
	if a.FeedID != b.FeedID {
		return journalerr.ErrCrossFeedSwap
	}
	if a.Date != b.Date {
		return journalerr.ErrCrossDateSwap
	}
	feed, err := s.feed(ctx, a.FeedID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, userID, feed); err != nil {
		return err
	}
	if a.ID == b.ID {
		return nil
	}

	if err := s.store.SwapSequences(ctx, a.ID, b.ID); err != nil {
		switch {
		case errors.Is(err, ports.ErrNotFound):
			return journalerr.ErrRecordNotFound
		case errors.Is(err, ports.ErrNotMatched):
			return journalerr.ErrConcurrentModification
		}
		return fmt.Errorf("swap sequences: %w", err)
	}

	s.notifier.Emit(ctx, models.Event{
		Type:     models.EventSequenceSwapped,
		FeedID:   feed.ID,
		ActorID:  userID,
		TargetID: a.ID,
		Details: map[string]string{
			"other_record_id": b.ID,
			"date":            a.Date.String(),
		},
	})
	return nil
}

// Get returns one record to the owner or an active contributor.
func (s *Service) Get(ctx context.Context, userID, recordID string) (*models.Record, error) {
	rec, err := s.record(ctx, recordID)
	if err != nil {
		return nil, err
	}
	feed, err := s.feed(ctx, rec.FeedID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, feed); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the live records of a feed ordered by date then sequence.
// An empty date lists the whole trip.
func (s *Service) List(ctx context.Context, userID, feedID string, date models.Date) ([]models.Record, error) {
	feed, err := s.feed(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, userID, feed); err != nil {
		return nil, err
	}
	if date != "" {
		if _, err := models.ParseDate(date.String()); err != nil {
			return nil, journalerr.Invalid(err.Error())
		}
	}
	out, err := s.store.ListRecords(ctx, feed.ID, date)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

// mutable loads a record the user may edit: its author or the feed owner.
func (s *Service) mutable(ctx context.Context, userID, recordID string) (*models.Record, *models.Feed, error) {
	rec, err := s.record(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	feed, err := s.feed(ctx, rec.FeedID)
	if err != nil {
		return nil, nil, err
	}
	if rec.AuthorID != userID && !feed.IsOwner(userID) {
		return nil, nil, journalerr.ErrForbidden
	}
	return rec, feed, nil
}

// Update replaces the title and content of a record.
func (s *Service) Update(ctx context.Context, userID, recordID string, payload models.RecordPayload) (_ *models.Record, err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("update_record", start, err) }()

	rec, feed, err := s.mutable(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.UpdateRecordContent(ctx, rec.ID, clean(payload))
	if errors.Is(err, ports.ErrNotFound) {
		return nil, journalerr.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	s.notifier.Emit(ctx, models.Event{
		Type:     models.EventRecordUpdated,
		FeedID:   feed.ID,
		ActorID:  userID,
		TargetID: rec.ID,
	})
	return updated, nil
}

// Delete soft-deletes a record. Its sequence is not reused.
func (s *Service) Delete(ctx context.Context, userID, recordID string) (err error) {
	start := time.Now()
	defer func() { s.metrics.ObserveOp("delete_record", start, err) }()

	rec, feed, err := s.mutable(ctx, userID, recordID)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteRecord(ctx, rec.ID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return journalerr.ErrRecordNotFound
		}
		return fmt.Errorf("delete record: %w", err)
	}
	s.notifier.Emit(ctx, models.Event{
		Type:     models.EventRecordDeleted,
		FeedID:   feed.ID,
		ActorID:  userID,
		TargetID: rec.ID,
	})
	return nil
}
