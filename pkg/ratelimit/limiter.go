// Package ratelimit serializes calls against a shared external quota.
// Tasks are dispatched strictly in submission order, one at a time, with a
// fixed minimum spacing between the start of consecutive tasks.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limiter operations.
var (
	tasksScheduledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_rate_limiter_tasks_total",
		Help: "Total number of tasks accepted by the rate limiter",
	})

	tasksAbandonedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_rate_limiter_tasks_abandoned_total",
		Help: "Total number of tasks cancelled while waiting in the queue",
	})

	queueWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_rate_limiter_queue_wait_seconds",
		Help:    "Time a task spent between submission and completion",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
)

// DefaultInterval matches the external quota of one request per 500ms.
const DefaultInterval = 500 * time.Millisecond

// ErrClosed is returned for tasks submitted after Close.
var ErrClosed = errors.New("rate limiter closed")

type task struct {
	ctx  context.Context
	run  func(context.Context) error
	done chan error
}

// Limiter is a FIFO task serializer. A single dispatcher goroutine runs
// tasks inline, so at most one task is in flight and the gap between the
// start times of consecutive tasks is at least the configured interval.
type Limiter struct {
	interval time.Duration
	queue    chan *task
	logger   zerolog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// New creates a limiter and starts its dispatcher.
func New(interval time.Duration, logger zerolog.Logger) *Limiter {
	if interval <= 0 {
		interval = DefaultInterval
	}

	l := &Limiter{
		interval: interval,
		queue:    make(chan *task, 256),
		logger:   logger,
		closed:   make(chan struct{}),
	}
	go l.dispatch()

	return l
}

// Schedule submits a task and blocks until it has run. The returned error
// is the task's own error; a failing task never affects other callers.
func (l *Limiter) Schedule(ctx context.Context, fn func(context.Context) error) error {
	t := &task{ctx: ctx, run: fn, done: make(chan error, 1)}
	submitted := time.Now()

	select {
	case l.queue <- t:
		tasksScheduledTotal.Inc()
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closed:
		return ErrClosed
	}

	select {
	case err := <-t.done:
		queueWaitSeconds.Observe(time.Since(submitted).Seconds())
		return err
	case <-ctx.Done():
		// The dispatcher sees the cancelled context and never starts
		// the task.
		return ctx.Err()
	case <-l.closed:
		return ErrClosed
	}
}

// Close stops the dispatcher. Queued tasks are abandoned.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
}

func (l *Limiter) dispatch() {
	var lastStart time.Time

	for {
		select {
		case <-l.closed:
			return
		case t := <-l.queue:
			if !lastStart.IsZero() {
				if wait := l.interval - time.Since(lastStart); wait > 0 {
					timer := time.NewTimer(wait)
					select {
					case <-timer.C:
					case <-l.closed:
						timer.Stop()
						return
					}
				}
			}

			select {
			case <-t.ctx.Done():
				tasksAbandonedTotal.Inc()
				l.logger.Debug().Err(t.ctx.Err()).Msg("Dropping task cancelled while queued")
				t.done <- t.ctx.Err()
				continue
			default:
			}

			lastStart = time.Now()
			t.done <- t.run(t.ctx)
		}
	}
}
