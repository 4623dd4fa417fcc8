// Package runner drives a generator at a fixed tick rate and lets other
// goroutines observe it safely.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/zeusync/scatter/internal/core/observability/log"
	"github.com/zeusync/scatter/internal/generator"
)

// Runner owns a generator. Only the loop goroutine touches it; other
// goroutines request clears and read stats through the runner.
type Runner struct {
	gen     *generator.Generator
	logger  log.Log
	limiter *rate.Limiter

	clearCh  chan struct{}
	stats    atomic.Pointer[generator.Stats]
	maxTicks uint64
	running  atomic.Bool
}

// Option customizes a Runner.
type Option func(*Runner)

// WithMaxTicks stops the loop after n ticks. Zero runs until cancelled.
func WithMaxTicks(n uint64) Option {
	return func(r *Runner) { r.maxTicks = n }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l log.Log) Option {
	return func(r *Runner) { r.logger = l }
}

// New paces gen at tickRate ticks per second. A rate of rate.Inf ticks as
// fast as possible.
func New(gen *generator.Generator, tickRate float64, opts ...Option) (*Runner, error) {
	if gen == nil {
		return nil, errors.New("runner: nil generator")
	}
	if tickRate <= 0 {
		return nil, fmt.Errorf("runner: tick rate must be positive, got %v", tickRate)
	}
	r := &Runner{
		gen:     gen,
		logger:  log.NewNop(),
		limiter: rate.NewLimiter(rate.Limit(tickRate), 1),
		clearCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.publishStats()
	return r, nil
}

// RequestClear asks the loop to clear on its next tick. Safe from any
// goroutine; repeated requests before that tick collapse into one.
func (r *Runner) RequestClear() {
	select {
	case r.clearCh <- struct{}{}:
	default:
	}
}

// Stats returns the counters published after the latest tick.
func (r *Runner) Stats() generator.Stats {
	return *r.stats.Load()
}

// StatsAny adapts Stats for JSON endpoints.
func (r *Runner) StatsAny() any {
	return r.Stats()
}

// Loop ticks until ctx is done or the tick budget is spent, then closes the
// generator. Tick failures are logged and the loop continues.
func (r *Runner) Loop(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return errors.New("runner: loop already running")
	}
	defer r.running.Store(false)

	r.logger.Info("Tick loop started",
		log.Float64("tick_rate", float64(r.limiter.Limit())),
		log.Uint64("max_ticks", r.maxTicks))

	var ticks uint64
	for r.maxTicks == 0 || ticks < r.maxTicks {
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
		select {
		case <-r.clearCh:
			r.gen.RequestClear()
		default:
		}

		if _, err := r.gen.Tick(ctx); err != nil {
			if errors.Is(err, generator.ErrClosed) {
				return err
			}
			if ctx.Err() != nil {
				break
			}
			r.logger.Debug("Tick failed", log.Uint64("tick", ticks), log.Error(err))
		}
		ticks++
		r.publishStats()
	}

	err := r.gen.Close()
	r.publishStats()
	r.logger.Info("Tick loop stopped", log.Uint64("ticks", ticks))
	if err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	return nil
}

func (r *Runner) publishStats() {
	s := r.gen.Stats()
	r.stats.Store(&s)
}
