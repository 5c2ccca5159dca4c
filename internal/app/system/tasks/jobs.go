// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Pinger is satisfied by every store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AuditPruner deletes audit entries older than a cutoff.
type AuditPruner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// StoreHealthJob pings the store and publishes the result as the store_up gauge.
func StoreHealthJob(store Pinger, m *metrics.Metrics, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "store-health",
		Interval: interval,
		Run: func(ctx context.Context) error {
			err := store.Ping(ctx)
			m.SetStoreUp(err == nil)
			if err != nil {
				logger.Warn("store ping failed", zap.Error(err))
			}
			return err
		},
	}
}

// AuditRetentionJob removes audit entries older than retention.
// This is a backup for deployments without a TTL index on audit_events.
func AuditRetentionJob(pruner AuditPruner, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "audit-retention",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := pruner.DeleteBefore(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("pruned audit entries",
					zap.Int64("count", count),
					zap.Duration("retention", retention))
			}
			return nil
		},
	}
}
