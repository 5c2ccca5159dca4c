// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strings"

	"github.com/dalemusser/tripjournal/internal/app/store/audit"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"go.uber.org/zap"
)

// Destination modes.
const (
	ModeAll = "all" // store + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Recorder persists audit entries. audit.Store and the SQL backend both
// satisfy it.
type Recorder interface {
	Log(ctx context.Context, e audit.Entry) error
}

// Config holds audit logging configuration.
type Config struct {
	// Mode is one of "all", "db", "log" or "off". Empty means "all".
	Mode string
}

// Logger writes journal events to the audit trail.
type Logger struct {
	store  Recorder
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger. store may be nil when Mode is "log" or "off".
func New(store Recorder, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// CategoryOf maps an event type to its audit category.
func CategoryOf(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "membership."):
		return audit.CategoryMembership
	case strings.HasPrefix(eventType, "record."):
		return audit.CategoryRecord
	case strings.HasPrefix(eventType, "feed."):
		return audit.CategoryFeed
	default:
		return "other"
	}
}

// EntryFor converts a journal event to an audit entry.
func EntryFor(ev models.Event) audit.Entry {
	return audit.Entry{
		ID:        ev.ID,
		Timestamp: ev.At,
		Category:  CategoryOf(ev.Type),
		EventType: ev.Type,
		FeedID:    ev.FeedID,
		ActorID:   ev.ActorID,
		TargetID:  ev.TargetID,
		Details:   ev.Details,
	}
}

func (l *Logger) logToZap(e audit.Entry) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", e.Category),
		zap.String("event_type", e.EventType),
		zap.String("feed_id", e.FeedID),
		zap.String("actor_id", e.ActorID),
	}
	if e.TargetID != "" {
		fields = append(fields, zap.String("target_id", e.TargetID))
	}
	for k, v := range e.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records ev according to the configured mode.
// A nil Logger is a no-op.
func (l *Logger) Log(ctx context.Context, ev models.Event) error {
	if l == nil {
		return nil
	}
	mode := l.config.Mode
	if mode == "" {
		mode = ModeAll
	}
	if mode == ModeOff {
		return nil
	}

	entry := EntryFor(ev)
	if mode == ModeAll || mode == ModeLog {
		l.logToZap(entry)
	}
	if (mode == ModeAll || mode == ModeDB) && l.store != nil {
		if err := l.store.Log(ctx, entry); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", entry.EventType),
			)
			return err
		}
	}
	return nil
}
