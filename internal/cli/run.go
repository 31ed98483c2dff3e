// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// run.go - Headless batch execution: `fanout run`.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/export"
	"github.com/jeranaias/fanout-tui/internal/tasks"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// =============================================================================
// RUN COMMAND
// =============================================================================

// HandleRun handles `fanout run`. Ctrl+C cancels the run: unfinished tasks
// report the sentinel and the command exits with an error after printing
// the summary.
func HandleRun(args Args) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runHeadless(ctx, args, SessionOptions{})
}

// runHeadless performs one run with base session options; the flags and
// config decide the rest.
func runHeadless(ctx context.Context, args Args, base SessionOptions) error {
	cfg, err := args.LoadConfig()
	if err != nil {
		return NewCommandError("run", "load config", "invalid configuration", err)
	}
	cfg = cfg.Clone()

	policy, err := applyRunFlags(cfg, args.Parser)
	if err != nil {
		return err
	}

	diagnostics, closeDiag, err := openDiagnostics(cfg, args)
	if err != nil {
		return NewCommandError("run", "open diagnostics", "cannot write diagnostic log", err)
	}
	defer closeDiag()

	opts := base
	opts.Diagnostics = diagnostics
	if opts.Warnings == nil {
		opts.Warnings = args.Err()
	}
	if !args.Quiet && !args.JSON {
		opts.Echo = args.Out()
	}

	var bar *progressbar.ProgressBar
	if !args.JSON && !args.Parser.BoolFlag("no-progress") && args.Stderr == nil && IsStderrTTY() {
		bar = newRunBar(cfg.Run.TaskCount, policy)
		hook := opts.OnResult
		opts.OnResult = func(run *tasks.Run, res tasks.Result) {
			_ = bar.Add(1)
			if hook != nil {
				hook(run, res)
			}
		}
		opts.BeforeEcho = func() { _ = bar.Clear() }
	}

	sess := NewSession(cfg, opts)
	defer sess.Close()

	if !args.Quiet && !args.JSON {
		Bold.Fprintf(args.Err(), "Running %d tasks (%s, slow > %s)\n",
			cfg.Run.TaskCount, policy, util.FormatMillis(cfg.Run.SlowThresholdMs))
	}

	run, err := sess.Start(ctx, policy)
	if err != nil {
		return NewCommandError("run", "start", "cannot start run", err)
	}
	entries, err := sess.Wait(run)
	if err != nil {
		return NewCommandError("run", "collect", "owner stopped", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	report := export.NewReport(run, entries)

	// The journal write outlives a Ctrl+C so canceled runs are kept too.
	if err := sess.Record(context.WithoutCancel(ctx), run, entries); err != nil {
		fmt.Fprintf(args.Err(), "Warning: could not record run: %v\n", err)
	}

	if path := args.Parser.Flag("export"); path != "" {
		if err := export.WriteFile(report, export.ExporterFor(path, nil), path); err != nil {
			return NewCommandError("run", "export", "cannot write report", err)
		}
		if !args.JSON {
			fmt.Fprintf(args.Err(), "Exported to %s\n", path)
		}
	}

	if args.JSON {
		if err := NewJSONResponse("run", report).Write(args.Out()); err != nil {
			return err
		}
	} else {
		printRunSummary(args.Out(), run, entries)
	}

	if run.Status() == tasks.RunStatusCanceled {
		return NewCommandError("run", "wait", "interrupted", ctx.Err())
	}
	return nil
}

// applyRunFlags folds --policy, --tasks, --threshold and --pool into cfg and
// returns the policy to run.
func applyRunFlags(cfg *config.Config, p *ArgParser) (tasks.Policy, error) {
	if n, ok, err := p.FlagInt("tasks", "n"); err != nil {
		return 0, NewUsageError(err.Error())
	} else if ok {
		cfg.Run.TaskCount = n
	}
	if n, ok, err := p.FlagInt("threshold", "t"); err != nil {
		return 0, NewUsageError(err.Error())
	} else if ok {
		cfg.Run.SlowThresholdMs = int64(n)
	}
	if n, ok, err := p.FlagInt("pool"); err != nil {
		return 0, NewUsageError(err.Error())
	} else if ok {
		cfg.Run.PoolSize = n
	}
	if name := p.FlagAny("policy", "p"); name != "" {
		cfg.Run.DefaultPolicy = name
	}

	if err := cfg.Validate(); err != nil {
		return 0, NewUsageError(err.Error())
	}
	return tasks.ParsePolicy(cfg.Run.DefaultPolicy)
}

// openDiagnostics picks where "<name> took <n> ms" lines go: stderr with
// --verbose, the diagnostic log file when enabled, otherwise nowhere.
func openDiagnostics(cfg *config.Config, args Args) (io.Writer, func(), error) {
	noop := func() {}
	if args.Verbose {
		return args.Err(), noop, nil
	}
	if !cfg.Diagnostics.Enabled {
		return nil, noop, nil
	}
	path, err := cfg.LogFilePath()
	if err != nil {
		return nil, noop, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, noop, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, noop, err
	}
	return f, func() { _ = f.Close() }, nil
}

// =============================================================================
// OUTPUT
// =============================================================================

// newRunBar draws produced/N on stderr.
func newRunBar(total int, policy tasks.Policy) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(policy.String()),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// printRunSummary prints a one-row table describing the finished run.
func printRunSummary(w io.Writer, run *tasks.Run, entries []string) {
	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.Header("Run", "Policy", "Status", "Entries", "Slow", "Interrupted", "Elapsed")
	_ = table.Append(
		run.ShortID(),
		run.Policy().String(),
		ColorStatus(run.Status().String()),
		fmt.Sprintf("%d/%d", len(entries), run.TaskCount()),
		util.FormatCount(int64(run.SlowCount())),
		util.FormatCount(int64(run.SentinelCount())),
		util.FormatMillis(run.Elapsed().Milliseconds()),
	)
	_ = table.Render()
}
