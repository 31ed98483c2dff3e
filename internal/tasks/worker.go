// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"
)

// DefaultMaxSleep is the exclusive upper bound of a task's random sleep.
const DefaultMaxSleep = 1000 * time.Millisecond

// =============================================================================
// WORKER
// =============================================================================

// Worker executes individual tasks. The duration source, sleeper, clock and
// logger are replaceable so tests can run without wall-clock waits.
type Worker struct {
	maxSleep time.Duration
	duration func(i int) time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	logger   *log.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithMaxSleep sets the exclusive upper bound of the random sleep.
func WithMaxSleep(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d >= 0 {
			w.maxSleep = d
		}
	}
}

// WithDurations replaces the random duration source.
func WithDurations(fn func(i int) time.Duration) WorkerOption {
	return func(w *Worker) {
		if fn != nil {
			w.duration = fn
		}
	}
}

// WithSleeper replaces the context-aware sleep.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) WorkerOption {
	return func(w *Worker) {
		if fn != nil {
			w.sleep = fn
		}
	}
}

// WithClock replaces time.Now for the diagnostic measurement.
func WithClock(fn func() time.Time) WorkerOption {
	return func(w *Worker) {
		if fn != nil {
			w.now = fn
		}
	}
}

// WithWorkerLogger sets the destination of the per-task diagnostic line.
func WithWorkerLogger(l *log.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWorker creates a worker that sleeps a uniformly random duration in
// [0, DefaultMaxSleep).
func NewWorker(opts ...WorkerOption) *Worker {
	w := &Worker{
		maxSleep: DefaultMaxSleep,
		sleep:    sleepContext,
		now:      time.Now,
		logger:   log.Default(),
	}
	w.duration = w.randomDuration
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// =============================================================================
// EXECUTION
// =============================================================================

// Attempt runs task i and reports how it ended. A panic inside the attempt is
// recovered and reported as an interruption.
func (w *Worker) Attempt(ctx context.Context, i int) (out Outcome) {
	name := TaskName(i)
	defer func() {
		if p := recover(); p != nil {
			out = Interrupted{Name: name, Cause: fmt.Errorf("%w: %v", ErrTaskPanic, p)}
		}
	}()

	d := w.duration(i)
	if err := w.sleep(ctx, d); err != nil {
		return Interrupted{Name: name, Cause: err}
	}
	return Completed{Result: Result{Name: name, ElapsedMillis: d.Milliseconds()}}
}

// Execute runs task i and always returns a Result, substituting the sentinel
// for an interrupted attempt. The line "<name> took <n> ms" is logged with
// the measured wall-clock time whatever the outcome.
func (w *Worker) Execute(ctx context.Context, i int) Result {
	start := w.now()
	name := TaskName(i)
	defer func() {
		w.logger.Printf("%s took %d ms", name, w.now().Sub(start).Milliseconds())
	}()

	return Collapse(w.Attempt(ctx, i))
}

// randomDuration draws whole milliseconds uniformly from [0, maxSleep).
func (w *Worker) randomDuration(int) time.Duration {
	bound := w.maxSleep.Milliseconds()
	if bound <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(bound)) * time.Millisecond
}

// sleepContext blocks for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
