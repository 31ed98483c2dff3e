// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// RUN STATUS
// =============================================================================

// RunStatus represents the state of a started run.
type RunStatus string

const (
	// RunStatusRunning indicates results are still being produced or delivered
	RunStatusRunning RunStatus = "Running"

	// RunStatusComplete indicates every result has been handed to the owner
	RunStatusComplete RunStatus = "Complete"

	// RunStatusCanceled indicates the run finished under a canceled context,
	// so some of its results may be sentinels
	RunStatusCanceled RunStatus = "Canceled"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// =============================================================================
// RUN
// =============================================================================

// Run is the handle of one started batch. It never exposes the result log;
// Results returns the classified results in the order they were produced.
type Run struct {
	id        string
	policy    Policy
	taskCount int
	threshold int64

	mu        sync.RWMutex
	status    RunStatus
	startTime time.Time
	endTime   time.Time
	results   []Result

	done chan struct{}
}

func newRun(policy Policy, taskCount int, threshold int64) *Run {
	return &Run{
		id:        uuid.New().String(),
		policy:    policy,
		taskCount: taskCount,
		threshold: threshold,
		status:    RunStatusRunning,
		startTime: time.Now(),
		results:   make([]Result, 0, taskCount),
		done:      make(chan struct{}),
	}
}

// ID returns the unique run identifier.
func (r *Run) ID() string { return r.id }

// ShortID returns the first eight characters of the identifier.
func (r *Run) ShortID() string {
	if len(r.id) < 8 {
		return r.id
	}
	return r.id[:8]
}

// Policy returns the policy the run was started with.
func (r *Run) Policy() Policy { return r.policy }

// TaskCount returns the number of tasks in the run.
func (r *Run) TaskCount() int { return r.taskCount }

// Threshold returns the slow threshold in milliseconds.
func (r *Run) Threshold() int64 { return r.threshold }

// StartedAt returns when the run was started.
func (r *Run) StartedAt() time.Time { return r.startTime }

// Done is closed after the last result has been handed to the owner.
func (r *Run) Done() <-chan struct{} { return r.done }

// Wait blocks until the run is done or ctx ends.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current run status (thread-safe).
func (r *Run) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// IsComplete reports whether the run has finished delivering.
func (r *Run) IsComplete() bool {
	return r.Status() != RunStatusRunning
}

// FinishedAt returns when the run finished, or the zero time while running.
func (r *Run) FinishedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endTime
}

// Elapsed returns how long the run has been going or took to finish.
func (r *Run) Elapsed() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.endTime.IsZero() {
		return time.Since(r.startTime)
	}
	return r.endTime.Sub(r.startTime)
}

// Produced returns how many results have been produced so far.
func (r *Run) Produced() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.results)
}

// Results returns a copy of the results produced so far.
func (r *Run) Results() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Result(nil), r.results...)
}

// SlowCount returns how many produced results were marked slow.
func (r *Run) SlowCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, res := range r.results {
		if res.IsSlow() {
			n++
		}
	}
	return n
}

// SentinelCount returns how many produced results were sentinels.
func (r *Run) SentinelCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, res := range r.results {
		if res.IsSentinel() {
			n++
		}
	}
	return n
}

// Summary returns a one-line summary of the run.
func (r *Run) Summary() string {
	return fmt.Sprintf("[%s] %s - %s (%d/%d, %.1fs)",
		r.ShortID(),
		r.policy,
		r.Status(),
		r.Produced(),
		r.taskCount,
		r.Elapsed().Seconds(),
	)
}

// record appends a produced result (thread-safe).
func (r *Run) record(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

// finish marks the run terminal and releases waiters. Safe to call once.
func (r *Run) finish(status RunStatus) {
	r.mu.Lock()
	r.status = status
	r.endTime = time.Now()
	r.mu.Unlock()
	close(r.done)
}
