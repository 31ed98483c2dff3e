// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// =============================================================================
// REACTIVE FAN-OUT
// =============================================================================

// startFanOut wires the two stages of a fan-out run: a bounded pool that
// executes and classifies tasks, and a single delivery goroutine that posts
// each result to the owner in the order the pool completed them.
func (r *Runner) startFanOut(ctx context.Context, run *Run) {
	completed := make(chan Result, run.taskCount)

	go r.execute(ctx, run, completed)
	go r.deliver(ctx, run, completed)
}

// execute runs every task on the pool and closes out when all have finished.
// Task failures are already collapsed into sentinels, so no worker returns an
// error and one slow task never cancels the others.
func (r *Runner) execute(ctx context.Context, run *Run, out chan<- Result) {
	defer close(out)

	var g errgroup.Group
	g.SetLimit(r.poolSize)

	for i := 1; i <= run.taskCount; i++ {
		if r.limiter != nil {
			// A canceled context releases the limiter early; the task still
			// runs and reports the sentinel.
			_ = r.limiter.Wait(ctx)
		}
		g.Go(func() error {
			out <- Classify(r.worker.Execute(ctx, i), run.threshold)
			return nil
		})
	}

	_ = g.Wait()
}

// deliver is the only consumer of the completion channel.
func (r *Runner) deliver(ctx context.Context, run *Run, in <-chan Result) {
	for res := range in {
		r.post(r.deliverable(run, res))
	}
	r.finish(ctx, run)
}
