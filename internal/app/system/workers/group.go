// internal/app/system/workers/group.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/tripjournal/internal/app/system/metrics"
	"github.com/dalemusser/tripjournal/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Group runs a set of periodic jobs, each on its own ticker.
type Group struct {
	jobs    []tasks.Job
	log     *zap.Logger
	m       *metrics.Metrics
	timeout time.Duration
	stopCh  chan struct{}
	once    sync.Once
	wg      sync.WaitGroup
}

// NewGroup creates a worker group. timeout bounds each individual run.
// Jobs with a non-positive interval are skipped.
func NewGroup(logger *zap.Logger, m *metrics.Metrics, timeout time.Duration, jobs ...tasks.Job) *Group {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	g := &Group{
		log:     logger,
		m:       m,
		timeout: timeout,
		stopCh:  make(chan struct{}),
	}
	for _, j := range jobs {
		if j.Interval > 0 && j.Run != nil {
			g.jobs = append(g.jobs, j)
		}
	}
	return g
}

// Len returns the number of scheduled jobs.
func (g *Group) Len() int { return len(g.jobs) }

// Start launches one goroutine per job.
func (g *Group) Start() {
	for _, j := range g.jobs {
		g.wg.Add(1)
		go g.run(j)
		g.log.Info("background task started",
			zap.String("task", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals every job to stop and waits for in-flight runs. Safe to call twice.
func (g *Group) Stop() {
	g.once.Do(func() { close(g.stopCh) })
	g.wg.Wait()
	g.log.Info("background tasks stopped")
}

func (g *Group) run(j tasks.Job) {
	defer g.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			return
		case <-ticker.C:
			g.runOnce(j)
		}
	}
}

func (g *Group) runOnce(j tasks.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()

	err := j.Run(ctx)
	g.m.TaskRun(j.Name, err)
	if err != nil {
		g.log.Error("background task failed", zap.String("task", j.Name), zap.Error(err))
	}
}
