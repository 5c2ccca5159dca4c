// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/feeds"
	"github.com/dalemusser/tripjournal/internal/app/membership"
	"github.com/dalemusser/tripjournal/internal/app/policy/feedpolicy"
	"github.com/dalemusser/tripjournal/internal/app/records"
	"github.com/dalemusser/tripjournal/internal/app/sequence"
	"github.com/dalemusser/tripjournal/internal/app/store/audit"
	"github.com/dalemusser/tripjournal/internal/app/system/auditlog"
	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/app/system/notify"
	"github.com/dalemusser/tripjournal/internal/app/system/ratelimit"
	"github.com/dalemusser/tripjournal/internal/app/system/tasks"
	"github.com/dalemusser/tripjournal/internal/app/system/timeouts"
	"github.com/dalemusser/tripjournal/internal/app/system/workers"
	"github.com/dalemusser/tripjournal/internal/app/users"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// AuditStore is the audit backend shared by the audit sink, the audit
// history endpoint and the retention task.
type AuditStore interface {
	Log(ctx context.Context, e audit.Entry) error
	ByFeed(ctx context.Context, feedID string, limit int64) ([]audit.Entry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It builds
// metrics, the notification dispatcher, the journal services and the
// background tasks, and stores them on deps.Runtime.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	rt := deps.Runtime
	if rt == nil || deps.Store == nil {
		return errors.New("startup: store not connected")
	}

	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("timeouts configured",
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	rt.Registry = prometheus.NewRegistry()
	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rt.Metrics = metrics.New(rt.Registry)
	rt.Audit = auditStoreFor(deps)

	sinks := buildSinks(appCfg, deps, rt.Audit, logger)
	rt.Dispatcher = notify.NewDispatcher(logger, rt.Metrics, notify.Options{
		Workers:   appCfg.NotifyWorkers,
		QueueSize: appCfg.NotifyQueueSize,
	}, sinks...)
	rt.Dispatcher.Start()

	policy := feedpolicy.New(deps.Store)
	rt.Users = users.New(deps.Store, logger)
	rt.Feeds = feeds.New(deps.Store, policy, rt.Dispatcher, rt.Metrics, logger)
	rt.Membership = membership.New(deps.Store, policy, rt.Dispatcher, rt.Metrics, logger)
	rt.Records = records.New(deps.Store, sequence.New(deps.Store, rt.Metrics), policy, rt.Dispatcher, rt.Metrics, logger)

	if appCfg.RateLimitWrites > 0 {
		rt.Limiter = ratelimit.New(appCfg.RateLimitWrites, time.Minute)
	}

	rt.Workers = workers.NewGroup(logger, rt.Metrics, timeouts.Long(), backgroundJobs(appCfg, deps, rt, logger)...)
	rt.Workers.Start()

	return nil
}

func auditStoreFor(deps DBDeps) AuditStore {
	if deps.Mongo != nil {
		return deps.Mongo.Audit()
	}
	if deps.SQL != nil {
		return deps.SQL.Audit()
	}
	return nil
}

// buildSinks returns the enabled sinks in a fixed order. A sink whose
// backend is missing is skipped with a warning.
func buildSinks(appCfg AppConfig, deps DBDeps, auditStore AuditStore, logger *zap.Logger) []notify.Sink {
	var sinks []notify.Sink
	if appCfg.SinkEnabled(SinkLog) {
		sinks = append(sinks, notify.NewLogSink(logger))
	}
	if appCfg.SinkEnabled(SinkAudit) {
		var rec auditlog.Recorder
		if auditStore != nil {
			rec = auditStore
		}
		sinks = append(sinks, notify.NewAuditSink(auditlog.New(rec, logger, auditlog.Config{Mode: appCfg.AuditLog})))
	}
	if appCfg.SinkEnabled(SinkNATS) {
		if deps.NATS != nil {
			sinks = append(sinks, notify.NewNATSSink(deps.NATS, appCfg.NATSSubjectPrefix))
		} else {
			logger.Warn("nats sink enabled but no connection; skipping")
		}
	}
	if appCfg.SinkEnabled(SinkRedis) {
		if deps.Redis != nil {
			sinks = append(sinks, notify.NewRedisSink(deps.Redis, appCfg.RedisChannel))
		} else {
			logger.Warn("redis sink enabled but no client; skipping")
		}
	}
	return sinks
}

func backgroundJobs(appCfg AppConfig, deps DBDeps, rt *Runtime, logger *zap.Logger) []tasks.Job {
	var jobs []tasks.Job
	if appCfg.HealthInterval > 0 {
		jobs = append(jobs, tasks.StoreHealthJob(deps.Store, rt.Metrics, logger, appCfg.HealthInterval))
	}
	if appCfg.AuditRetention > 0 && rt.Audit != nil {
		jobs = append(jobs, tasks.AuditRetentionJob(rt.Audit, logger, appCfg.AuditRetention))
	}
	return jobs
}
