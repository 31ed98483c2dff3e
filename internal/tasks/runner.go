// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/time/rate"
)

// DefaultTaskCount is the number of tasks in a run.
const DefaultTaskCount = 10

// =============================================================================
// OWNER INTERFACES
// =============================================================================

// Log is the ordered result log. Implementations are not expected to be safe
// for concurrent use: the runner only calls them from the owner goroutine.
type Log interface {
	Append(entry string)
	Clear()
	Len() int
}

// Poster submits work to the owner goroutine without waiting for it to run.
type Poster interface {
	Post(fn func())
}

// PostFunc adapts an ordinary function to the Poster interface.
type PostFunc func(fn func())

// Post calls f(fn).
func (f PostFunc) Post(fn func()) { f(fn) }

// =============================================================================
// TASK RUNNER
// =============================================================================

// Runner starts batches of tasks against a result log.
type Runner struct {
	log      Log
	poster   Poster
	worker   *Worker
	registry *Registry
	logger   *log.Logger

	taskCount int
	threshold int64
	poolSize  int
	limiter   *rate.Limiter
	onResult  func(*Run, Result)
}

// Option configures a Runner.
type Option func(*Runner)

// WithTaskCount sets the number of tasks per run. Negative values are ignored.
func WithTaskCount(n int) Option {
	return func(r *Runner) {
		if n >= 0 {
			r.taskCount = n
		}
	}
}

// WithThreshold sets the slow threshold in milliseconds.
func WithThreshold(ms int64) Option {
	return func(r *Runner) {
		if ms >= 0 {
			r.threshold = ms
		}
	}
}

// WithPoolSize bounds the number of tasks a fan-out run executes at once.
// Zero or less selects runtime.NumCPU().
func WithPoolSize(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.poolSize = n
		}
	}
}

// WithRateLimit throttles how fast a fan-out run dispatches tasks.
// tasksPerSecond <= 0 disables throttling.
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(r *Runner) {
		if tasksPerSecond <= 0 {
			r.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
	}
}

// WithWorker replaces the task worker.
func WithWorker(w *Worker) Option {
	return func(r *Runner) {
		if w != nil {
			r.worker = w
		}
	}
}

// WithRegistry shares a registry between runners.
func WithRegistry(g *Registry) Option {
	return func(r *Runner) {
		if g != nil {
			r.registry = g
		}
	}
}

// WithResultHook registers fn to be called with every classified result,
// on the goroutine that hands it to the owner.
func WithResultHook(fn func(*Run, Result)) Option {
	return func(r *Runner) {
		r.onResult = fn
	}
}

// WithLogger sets the runner's diagnostic logger. The worker's per-task line
// follows it unless a worker was supplied explicitly.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner that appends to entries and reaches the owner
// through poster.
func NewRunner(entries Log, poster Poster, opts ...Option) *Runner {
	r := &Runner{
		log:       entries,
		poster:    poster,
		logger:    log.Default(),
		taskCount: DefaultTaskCount,
		threshold: DefaultThresholdMillis,
		poolSize:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.worker == nil {
		r.worker = NewWorker(WithWorkerLogger(r.logger))
	}
	if r.registry == nil {
		r.registry = NewRegistry(50, WithRegistryLogger(r.logger))
	}
	return r
}

// Registry returns the registry tracking this runner's runs.
func (r *Runner) Registry() *Registry { return r.registry }

// TaskCount returns the configured number of tasks per run.
func (r *Runner) TaskCount() int { return r.taskCount }

// Threshold returns the configured slow threshold in milliseconds.
func (r *Runner) Threshold() int64 { return r.threshold }

// PoolSize returns the fan-out concurrency bound.
func (r *Runner) PoolSize() int { return r.poolSize }

// =============================================================================
// OWNER OPERATIONS
// =============================================================================

// Start clears the log and runs a batch under policy. It must be called on
// the owner goroutine. A Blocking run returns only after every entry has been
// appended; the other policies return immediately and deliver through the
// poster. Runs already in flight are not canceled.
func (r *Runner) Start(ctx context.Context, policy Policy) (*Run, error) {
	if !policy.Valid() {
		return nil, fmt.Errorf("start run: %w: %s", ErrUnknownPolicy, policy)
	}

	r.log.Clear()

	run := newRun(policy, r.taskCount, r.threshold)
	r.registry.add(run)
	if active := r.registry.ActiveCount(); active > 1 {
		r.logger.Printf("WARNING: %d runs in flight; earlier runs keep appending to the log", active)
	}

	switch policy {
	case Blocking:
		r.runBlocking(ctx, run)
	case ThreadOffload:
		go r.runOffload(ctx, run)
	case ReactiveFanOut:
		r.startFanOut(ctx, run)
	}
	return run, nil
}

// Clear empties the log. It must be called on the owner goroutine and is a
// no-op when the log is already empty.
func (r *Runner) Clear() {
	if r.log.Len() == 0 {
		return
	}
	r.log.Clear()
}

// =============================================================================
// SEQUENTIAL POLICIES
// =============================================================================

// runBlocking executes every task on the calling goroutine and appends
// directly.
func (r *Runner) runBlocking(ctx context.Context, run *Run) {
	for i := 1; i <= run.taskCount; i++ {
		res := r.produce(ctx, run, i)
		r.log.Append(res.Display())
	}
	r.finish(ctx, run)
}

// runOffload executes every task on one background goroutine and posts each
// append to the owner as soon as the result exists.
func (r *Runner) runOffload(ctx context.Context, run *Run) {
	for i := 1; i <= run.taskCount; i++ {
		res := r.produce(ctx, run, i)
		r.post(res)
	}
	r.finish(ctx, run)
}

// produce executes task i, classifies it and records it on the run.
func (r *Runner) produce(ctx context.Context, run *Run, i int) Result {
	return r.deliverable(run, Classify(r.worker.Execute(ctx, i), run.threshold))
}

// deliverable records a classified result and fires the hook.
func (r *Runner) deliverable(run *Run, res Result) Result {
	run.record(res)
	if r.onResult != nil {
		r.onResult(run, res)
	}
	return res
}

// post hands one append to the owner without waiting.
func (r *Runner) post(res Result) {
	entry := res.Display()
	r.poster.Post(func() {
		r.log.Append(entry)
	})
}

// finish marks the run done once every append has been handed over.
func (r *Runner) finish(ctx context.Context, run *Run) {
	status := RunStatusComplete
	if ctx.Err() != nil {
		status = RunStatusCanceled
	}
	r.registry.complete(run, status)
}
