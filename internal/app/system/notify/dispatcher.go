// Package notify delivers journal events to external sinks off the request
// path.
//
// Emit enqueues and returns. A fixed pool of workers drains the queue and
// hands each event to every sink with its own timeout. A full queue drops
// the event and counts it; the originating operation has already committed
// and is never affected.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/domain/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives events. Deliver may block up to the context deadline.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev models.Event) error
}

// Options tunes the dispatcher. Zero values take defaults.
type Options struct {
	Workers     int
	QueueSize   int
	SinkTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 1024
	}
	if o.SinkTimeout <= 0 {
		o.SinkTimeout = 5 * time.Second
	}
	return o
}

type job struct {
	ctx context.Context
	ev  models.Event
}

// Dispatcher is the asynchronous ports.Notifier.
type Dispatcher struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	sinks   []Sink
	opts    Options

	mu      sync.RWMutex
	closed  bool
	started bool
	queue   chan job
	wg      sync.WaitGroup

	dropped atomic.Int64
}

// NewDispatcher creates a dispatcher. Call Start before events are drained.
func NewDispatcher(logger *zap.Logger, m *metrics.Metrics, opts Options, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	return &Dispatcher{
		log:     logger,
		metrics: m,
		sinks:   sinks,
		opts:    opts,
		queue:   make(chan job, opts.QueueSize),
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	d.log.Info("notification dispatcher started",
		zap.Int("workers", d.opts.Workers),
		zap.Int("queue_size", d.opts.QueueSize),
		zap.Strings("sinks", names))
}

// Stop refuses new events, drains what is queued and waits for the workers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if started {
		d.wg.Wait()
	}
	d.log.Info("notification dispatcher stopped", zap.Int64("dropped", d.dropped.Load()))
}

// Emit enqueues ev without blocking. ID and At are filled when unset.
// The context's values (trace span) travel with the event; its cancellation
// does not.
func (d *Dispatcher) Emit(ctx context.Context, ev models.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(ev, "dispatcher stopped")
		return
	}
	select {
	case d.queue <- job{ctx: context.WithoutCancel(ctx), ev: ev}:
	default:
		d.drop(ev, "queue full")
	}
}

// Dropped returns how many events were discarded.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

func (d *Dispatcher) drop(ev models.Event, reason string) {
	d.dropped.Add(1)
	d.metrics.NotificationDropped()
	d.log.Warn("notification dropped",
		zap.String("reason", reason),
		zap.String("event_type", ev.Type),
		zap.String("feed_id", ev.FeedID))
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

func (d *Dispatcher) deliver(j job) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(j.ctx, d.opts.SinkTimeout)
		err := s.Deliver(ctx, j.ev)
		cancel()
		d.metrics.NotificationDelivered(s.Name(), err)
		if err != nil {
			d.log.Warn("notification delivery failed",
				zap.String("sink", s.Name()),
				zap.String("event_type", j.ev.Type),
				zap.String("event_id", j.ev.ID),
				zap.Error(err))
		}
	}
}

// Discard is a Notifier that drops everything silently.
type Discard struct{}

func (Discard) Emit(context.Context, models.Event) {}
