package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/tripjournal/internal/app/system/auditlog"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// LogSink writes each event as a structured log line.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink { return &LogSink{log: logger} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, ev models.Event) error {
	s.log.Info("journal event",
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.Type),
		zap.String("feed_id", ev.FeedID),
		zap.String("actor_id", ev.ActorID),
		zap.String("target_id", ev.TargetID),
		zap.Time("at", ev.At))
	return nil
}

// AuditSink persists events through the audit logger.
type AuditSink struct {
	audit *auditlog.Logger
}

func NewAuditSink(a *auditlog.Logger) *AuditSink { return &AuditSink{audit: a} }

func (s *AuditSink) Name() string { return "audit" }

func (s *AuditSink) Deliver(ctx context.Context, ev models.Event) error {
	return s.audit.Log(ctx, ev)
}

// NATSSink publishes JSON events on <prefix>.<event type>, with the trace
// context in the message headers.
type NATSSink struct {
	nc     *nats.Conn
	prefix string
}

func NewNATSSink(nc *nats.Conn, subjectPrefix string) *NATSSink {
	return &NATSSink{nc: nc, prefix: subjectPrefix}
}

func (s *NATSSink) Name() string { return "nats" }

// Subject returns the subject an event type is published on.
func Subject(prefix, eventType string) string {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

func (s *NATSSink) Deliver(ctx context.Context, ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := &nats.Msg{
		Subject: Subject(s.prefix, ev.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return s.nc.PublishMsg(msg)
}

// RedisSink publishes JSON events on a Redis pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, ev models.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.client.Publish(ctx, s.channel, data).Err()
}
