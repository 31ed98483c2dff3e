// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks runs a batch of short simulated tasks and hands their results
// to a result log that only one goroutine may touch.
//
// Each task sleeps for a random duration, reports how long it slept, and is
// classified as slow when that duration exceeds a threshold. The batch can be
// executed under three policies that differ only in where tasks run and how
// results reach the log owner.
//
// # Key Types
//
//   - Result: Name and elapsed milliseconds of one task
//   - Worker: Executes a single task, swallowing interruption into a sentinel
//   - Policy: Blocking, ThreadOffload or ReactiveFanOut
//   - Runner: Starts runs against a Log through a Poster
//   - Run: Handle for one started run (completion signal, result snapshot)
//   - Registry: Tracks started runs and publishes completion notifications
//
// # Usage
//
// The runner must be driven from the goroutine that owns the log:
//
//	owner := resultlog.NewOwner(64)
//	owner.Start()
//	defer owner.Close()
//
//	entries := resultlog.New()
//	runner := tasks.NewRunner(entries, owner, tasks.WithTaskCount(10))
//
//	var run *tasks.Run
//	owner.Do(func() { run, _ = runner.Start(ctx, tasks.ReactiveFanOut) })
//	<-run.Done()
//
// Clear never cancels a run that is still delivering results; its remaining
// entries land in the freshly cleared log.
package tasks
