// Package wave runs tasks in fixed-size concurrent waves.
//
// Tasks are submitted one by one; once Size tasks are in flight the pool
// blocks until that whole wave has finished before accepting more. A slow
// task stalls its wave, and nothing is rebalanced between waves.
//
// A failed task is re-run inside the same wave barrier. Each wave tolerates
// MaxFailures failed attempts; one more failure is fatal and the pool
// returns ErrRetryExhausted.
//
// Example usage:
//
//	pool := wave.New[[]string](ctx, wave.DefaultConfig())
//	for _, id := range ids {
//		if err := pool.Go(func(ctx context.Context) ([]string, error) { return fetch(ctx, id) }); err != nil {
//			return err
//		}
//	}
//	results, err := pool.Wait()
package wave

import (
	"context"
	"errors"
	"fmt"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrRetryExhausted is returned when a wave sees more failed attempts than
// its failure budget allows.
var ErrRetryExhausted = errors.New("wave failure budget exhausted")

var (
	wavesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speedstats_waves_total",
		Help: "Total number of completed task waves",
	})

	waveTaskFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speedstats_wave_task_failures_total",
		Help: "Total number of failed task attempts inside waves",
	})
)

// Config holds pool configuration.
type Config struct {
	// Size is the number of tasks submitted per wave.
	Size int

	// MaxFailures is the number of failed attempts a wave absorbs by
	// re-running the task. The next failure aborts the pool.
	MaxFailures int
}

// DefaultConfig returns the scraper defaults: waves of 2, 2 tolerated failures.
func DefaultConfig() Config {
	return Config{
		Size:        2,
		MaxFailures: 2,
	}
}

// Task is one unit of work.
type Task[T any] func(ctx context.Context) (T, error)

type slot[T any] struct {
	task  Task[T]
	value T
	err   error
}

// Pool submits tasks in waves and collects their results in join order.
// A Pool is driven by a single goroutine and is not reusable after Wait.
type Pool[T any] struct {
	ctx     context.Context
	config  Config
	group   *errgroup.Group
	wave    []*slot[T]
	results []T
	err     error
	logger  zerolog.Logger
}

// New creates a pool. A non-positive size falls back to the default; a
// negative failure budget means no failure is tolerated.
func New[T any](ctx context.Context, config Config) *Pool[T] {
	if config.Size <= 0 {
		config.Size = DefaultConfig().Size
	}
	if config.MaxFailures < 0 {
		config.MaxFailures = 0
	}

	return &Pool[T]{
		ctx:    ctx,
		config: config,
		logger: logging.NewLogger("wave"),
	}
}

// Go starts task as part of the current wave. When the wave is full it
// joins the wave before returning. Returns the fatal error, if any, of the
// wave that was joined.
func (p *Pool[T]) Go(task Task[T]) error {
	if p.err != nil {
		return p.err
	}
	if err := p.ctx.Err(); err != nil {
		p.err = err
		return err
	}

	if p.group == nil {
		p.group = &errgroup.Group{}
	}
	s := &slot[T]{task: task}
	p.wave = append(p.wave, s)
	p.start(p.group, s)

	if len(p.wave) >= p.config.Size {
		p.err = p.join()
	}
	return p.err
}

// Wait joins the last, possibly partial, wave and returns every result.
func (p *Pool[T]) Wait() ([]T, error) {
	if p.err == nil && len(p.wave) > 0 {
		p.err = p.join()
	}
	return p.results, p.err
}

// start runs s on g. Tasks record their own outcome and never fail the
// group, so one failing task does not cancel its siblings.
func (p *Pool[T]) start(g *errgroup.Group, s *slot[T]) {
	g.Go(func() error {
		s.value, s.err = s.task(p.ctx)
		return nil
	})
}

// join waits for the current wave, re-running failed tasks while the wave's
// failure budget lasts.
func (p *Pool[T]) join() error {
	wave := p.wave
	g := p.group
	p.wave = nil
	p.group = nil

	failures := 0
	for {
		_ = g.Wait()

		var failed []*slot[T]
		for idx, s := range wave {
			if s.err == nil {
				continue
			}
			waveTaskFailuresTotal.Inc()
			if ctxErr := p.ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if failures >= p.config.MaxFailures {
				p.logger.Error().
					Err(s.err).
					Int("task", idx).
					Int("failures", failures+1).
					Msg("Task failed with no retries left")
				return fmt.Errorf("%w: task %d: %w", ErrRetryExhausted, idx, s.err)
			}
			failures++
			p.logger.Warn().
				Err(s.err).
				Int("task", idx).
				Int("failures", failures).
				Msgf("Task %d failed to return a value. Retrying...", idx)
			s.err = nil
			failed = append(failed, s)
		}
		if len(failed) == 0 {
			break
		}

		g = &errgroup.Group{}
		for _, s := range failed {
			p.start(g, s)
		}
	}

	for _, s := range wave {
		p.results = append(p.results, s.value)
	}
	wavesTotal.Inc()
	return nil
}
