package reconciler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/metrics"
)

// Loop is one periodic reconciliation loop. A tick observes cluster state
// and issues corrective actions; it must be safe to repeat, because the
// runner retries nothing within a tick and simply ticks again later.
type Loop interface {
	Name() string
	Interval() time.Duration
	Tick(ctx context.Context) error
}

// Runner drives a set of loops, each on its own fixed-interval ticker.
// A failing or panicking tick is logged and counted; it never stops the
// loop's ticker and never affects the other loops.
type Runner struct {
	loops  []Loop
	log    zerolog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRunner creates a runner for the given loops
func NewRunner(loops ...Loop) *Runner {
	return &Runner{
		loops:  loops,
		log:    log.WithComponent("runner"),
		stopCh: make(chan struct{}),
	}
}

// Start launches one goroutine per loop. Each loop ticks immediately, then
// on its interval.
func (r *Runner) Start() {
	for _, loop := range r.loops {
		r.wg.Add(1)
		go r.run(loop)
	}
}

// Stop stops scheduling new ticks and waits for in-flight ticks to finish.
// A tick is never cancelled mid-flight; every action is resumable on the
// next tick of a future run.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

// run is the per-loop tick loop
func (r *Runner) run(loop Loop) {
	defer r.wg.Done()

	ticker := time.NewTicker(loop.Interval())
	defer ticker.Stop()

	r.tick(loop)
	for {
		select {
		case <-ticker.C:
			r.tick(loop)
		case <-r.stopCh:
			return
		}
	}
}

// tick runs one guarded tick of a loop
func (r *Runner) tick(loop Loop) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.LoopDuration.WithLabelValues(loop.Name()))

	defer func() {
		if v := recover(); v != nil {
			metrics.LoopRunsTotal.WithLabelValues(loop.Name(), "panic").Inc()
			r.log.Error().Str("loop", loop.Name()).Any("panic", v).Msg("loop tick panicked")
		}
	}()

	if err := loop.Tick(context.Background()); err != nil {
		metrics.LoopRunsTotal.WithLabelValues(loop.Name(), "error").Inc()
		r.log.Error().Err(err).Str("loop", loop.Name()).Msg("loop tick failed")
		return
	}
	metrics.LoopRunsTotal.WithLabelValues(loop.Name(), "ok").Inc()
}
