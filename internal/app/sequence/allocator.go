// Package sequence hands out per-(feed, date) record sequence numbers.
package sequence

import (
	"context"
	"fmt"

	"github.com/dalemusser/tripjournal/internal/app/ports"
	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"github.com/dalemusser/tripjournal/internal/domain/models"
)

// Allocator issues sequences from the store's atomic counter. It keeps no
// state of its own.
type Allocator struct {
	counters ports.CounterStore
	metrics  *metrics.Metrics
}

// New creates an Allocator. metrics may be nil.
func New(counters ports.CounterStore, m *metrics.Metrics) *Allocator {
	return &Allocator{counters: counters, metrics: m}
}

func validate(feedID string, date models.Date) error {
	if feedID == "" {
		return journalerr.Invalid("feed id is required")
	}
	if _, err := models.ParseDate(date.String()); err != nil {
		return journalerr.Invalid(err.Error())
	}
	return nil
}

// Next returns the next sequence for (feedID, date), starting at 1. A value
// is never handed out twice, even if the caller then fails to use it.
func (a *Allocator) Next(ctx context.Context, feedID string, date models.Date) (int64, error) {
	if err := validate(feedID, date); err != nil {
		return 0, err
	}
	v, err := a.counters.IncrementCounter(ctx, feedID, date)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s/%s: %w", feedID, date, err)
	}
	a.metrics.SequenceIssued()
	return v, nil
}

// Current returns the last issued sequence for (feedID, date), 0 if none.
func (a *Allocator) Current(ctx context.Context, feedID string, date models.Date) (int64, error) {
	if err := validate(feedID, date); err != nil {
		return 0, err
	}
	v, err := a.counters.CurrentCounter(ctx, feedID, date)
	if err != nil {
		return 0, fmt.Errorf("read counter %s/%s: %w", feedID, date, err)
	}
	return v, nil
}
