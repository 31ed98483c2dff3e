// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// session.go - Headless owner wiring shared by `run` and `shell`.

package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/history"
	"github.com/jeranaias/fanout-tui/internal/resultlog"
	"github.com/jeranaias/fanout-tui/internal/tasks"
)

// =============================================================================
// ECHO LOG
// =============================================================================

// echoLog is a result log that also prints every entry as it is appended.
// It is only touched on the owner goroutine.
type echoLog struct {
	*resultlog.Log

	w io.Writer
	// before runs ahead of each print, e.g. to clear a progress bar line
	before func()
}

func (l *echoLog) Append(entry string) {
	l.Log.Append(entry)
	if l.w == nil {
		return
	}
	if l.before != nil {
		l.before()
	}
	fmt.Fprintln(l.w, ColorEntry(entry))
}

// =============================================================================
// SESSION
// =============================================================================

// SessionOptions configures NewSession.
type SessionOptions struct {
	// Echo receives each display string as the owner appends it (nil = silent)
	Echo io.Writer
	// BeforeEcho runs on the owner ahead of each echoed line
	BeforeEcho func()
	// Diagnostics receives "<name> took <n> ms" lines (nil = discarded)
	Diagnostics io.Writer
	// Warnings receives owner and runner warnings (nil = discarded)
	Warnings io.Writer
	// OnResult is called for every classified result on the producing goroutine
	OnResult func(*tasks.Run, tasks.Result)
	// RunnerOptions are applied after the config-derived ones
	RunnerOptions []tasks.Option
	// WorkerOptions are applied after the config-derived ones
	WorkerOptions []tasks.WorkerOption
}

// Session owns one result log through a dedicated owner goroutine. Every
// log mutation, including Start and Clear, runs on that goroutine.
type Session struct {
	cfg     *config.Config
	log     *echoLog
	owner   *resultlog.Owner
	runner  *tasks.Runner
	warn    *log.Logger
	journal *history.Store

	closeOnce sync.Once
}

// NewSession builds and starts a session from cfg. A journal that cannot be
// opened is reported as a warning and history is skipped.
func NewSession(cfg *config.Config, opts SessionOptions) *Session {
	warn := newLogger(opts.Warnings, "")
	diag := newLogger(opts.Diagnostics, "")

	entries := &echoLog{
		Log:    resultlog.New(),
		w:      opts.Echo,
		before: opts.BeforeEcho,
	}

	owner := resultlog.NewOwner(cfg.Owner.QueueSize)
	owner.SetLogger(warn)
	owner.Start()

	workerOpts := []tasks.WorkerOption{
		tasks.WithMaxSleep(time.Duration(cfg.Run.MaxSleepMs) * time.Millisecond),
		tasks.WithWorkerLogger(diag),
	}
	workerOpts = append(workerOpts, opts.WorkerOptions...)

	runnerOpts := []tasks.Option{
		tasks.WithTaskCount(cfg.Run.TaskCount),
		tasks.WithThreshold(cfg.Run.SlowThresholdMs),
		tasks.WithPoolSize(cfg.Run.PoolSize),
		tasks.WithRateLimit(cfg.Run.RateLimit, cfg.Run.RateBurst),
		tasks.WithWorker(tasks.NewWorker(workerOpts...)),
		tasks.WithLogger(warn),
		tasks.WithRegistry(tasks.NewRegistry(50, tasks.WithoutNotifications(), tasks.WithRegistryLogger(warn))),
	}
	if opts.OnResult != nil {
		runnerOpts = append(runnerOpts, tasks.WithResultHook(opts.OnResult))
	}
	runnerOpts = append(runnerOpts, opts.RunnerOptions...)

	s := &Session{
		cfg:    cfg,
		log:    entries,
		owner:  owner,
		runner: tasks.NewRunner(entries, owner, runnerOpts...),
		warn:   warn,
	}

	if cfg.History.Enabled {
		if store, err := openJournal(cfg); err != nil {
			warn.Printf("WARNING: history disabled: %v", err)
		} else {
			s.journal = store
		}
	}
	return s
}

// newLogger returns a logger on w, or one that discards everything.
func newLogger(w io.Writer, prefix string) *log.Logger {
	if w == nil {
		w = io.Discard
	}
	return log.New(w, prefix, 0)
}

// openJournal opens the history store at the configured path.
func openJournal(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

// Runner returns the session's runner.
func (s *Session) Runner() *tasks.Runner {
	return s.runner
}

// Start clears the log and starts a run on the owner goroutine. A blocking
// run has finished by the time Start returns.
func (s *Session) Start(ctx context.Context, policy tasks.Policy) (*tasks.Run, error) {
	var run *tasks.Run
	var startErr error
	if err := s.owner.Do(func() {
		run, startErr = s.runner.Start(ctx, policy)
	}); err != nil {
		return nil, err
	}
	return run, startErr
}

// Wait blocks until run has handed every result to the owner, then returns
// the log as the owner holds it once those appends have run.
func (s *Session) Wait(run *tasks.Run) ([]string, error) {
	<-run.Done()
	return s.Snapshot()
}

// Snapshot copies the log on the owner goroutine.
func (s *Session) Snapshot() ([]string, error) {
	var entries []string
	if err := s.owner.Do(func() {
		entries = s.log.Entries()
	}); err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear empties the log on the owner goroutine.
func (s *Session) Clear() error {
	return s.owner.Do(s.runner.Clear)
}

// Record journals a finished run when history is enabled, pruning to the
// configured maximum. It is a no-op otherwise.
func (s *Session) Record(ctx context.Context, run *tasks.Run, entries []string) error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.Record(ctx, history.FromRun(run, entries)); err != nil {
		return err
	}
	if max := s.cfg.History.MaxRecords; max > 0 {
		if _, err := s.journal.Prune(ctx, max); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the owner after draining queued work and closes the journal.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.owner.Close()
		if s.journal != nil {
			err = s.journal.Close()
		}
	})
	return err
}
