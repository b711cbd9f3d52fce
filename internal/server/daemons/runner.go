// Package daemons runs the catalog background loops: index sync and
// tombstone retention. Each loop is a Runner that owns one goroutine and is
// controlled only through Start and Shutdown.
package daemons

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/catalog/internal/logging"
	"github.com/dmitrijs2005/catalog/internal/server/metrics"
)

// Cycle is one unit of background work.
type Cycle func(ctx context.Context) error

// Runner calls a Cycle at a fixed interval. The first cycle runs right after
// Start and cycles never overlap. A cycle error or panic is logged and
// counted as a failed cycle.
type Runner struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	cycle    Cycle
	logger   logging.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner builds an idle Runner. A zero timeout lets a cycle run until the
// runner is shut down.
func NewRunner(name string, interval, timeout time.Duration, cycle Cycle, logger logging.Logger, m *metrics.Metrics) *Runner {
	return &Runner{
		name:     name,
		interval: interval,
		timeout:  timeout,
		cycle:    cycle,
		logger:   logger.With("module", name),
		metrics:  m,
	}
}

// Start launches the loop. Calling Start on a running Runner does nothing,
// and a Runner with a non-positive interval logs an error and stays idle.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return
	}
	if r.interval <= 0 {
		r.logger.Error(ctx, "daemon not started", "error", fmt.Errorf("non-positive interval %s", r.interval))
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)
}

// Shutdown stops the loop and waits for an in-flight cycle to return.
func (r *Runner) Shutdown() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	r.logger.Info(ctx, "daemon started", "interval", r.interval.String())

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info(context.Background(), "daemon stopped")
			return
		case <-ticker.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	cctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err := r.safeCycle(cctx)
	r.metrics.Cycle(r.name, time.Since(start).Seconds(), err)

	if err != nil {
		r.logger.Error(ctx, "cycle failed", "error", err)
	}
}

func (r *Runner) safeCycle(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cycle panic: %v", p)
		}
	}()
	return r.cycle(ctx)
}
