// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// shell.go - Line-mode REPL over one result log: `fanout shell`.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/tasks"
)

const shellHelp = `Commands:
  blocking [&]   Run on the owner, in submission order
  offload [&]    Run on one background worker, in submission order
  reactive [&]   Fan out to the pool, in completion order
  clear          Empty the log (does not stop runs in flight)
  list           Print the log
  status         Show tracked runs
  help           Show this help
  quit           Leave the shell

A trailing & returns to the prompt without waiting; the run keeps appending
to the log, including after a clear.
`

// =============================================================================
// SHELL COMMAND
// =============================================================================

// HandleShell handles `fanout shell`.
func HandleShell(args Args) error {
	if !IsTTY() {
		return NewUsageError("fanout shell needs an interactive terminal")
	}

	cfg, err := args.LoadConfig()
	if err != nil {
		return NewCommandError("shell", "load config", "invalid configuration", err)
	}
	diagnostics, closeDiag, err := openDiagnostics(cfg, args)
	if err != nil {
		return NewCommandError("shell", "open diagnostics", "cannot write diagnostic log", err)
	}
	defer closeDiag()

	sess := NewSession(cfg, SessionOptions{
		Echo:        args.Out(),
		Diagnostics: diagnostics,
		Warnings:    args.Err(),
	})
	defer sess.Close()

	sh := &shell{
		sess: sess,
		out:  args.Out(),
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completeShell)

	historyPath := shellHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}

	Bold.Fprintln(args.Out(), "fanout shell - type 'help' for commands")

	ctx := context.Background()
	for {
		input, err := line.Prompt("fanout> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}
			return NewCommandError("shell", "read", "prompt failed", err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		quit, err := sh.exec(ctx, input)
		if err != nil {
			fmt.Fprintf(args.Err(), "Error: %v\n", err)
		}
		if quit {
			break
		}
	}

	if historyPath != "" {
		if err := config.EnsureConfigDir(); err == nil {
			if f, err := os.OpenFile(historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
				_, _ = line.WriteHistory(f)
				f.Close()
			}
		}
	}
	return nil
}

// shellHistoryPath returns ~/.fanout/shell_history, or "" when the config
// directory cannot be resolved.
func shellHistoryPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "shell_history")
}

// completeShell completes command words.
func completeShell(line string) []string {
	var out []string
	for _, word := range []string{"blocking", "offload", "reactive", "clear", "list", "status", "help", "quit"} {
		if strings.HasPrefix(word, strings.ToLower(line)) {
			out = append(out, word)
		}
	}
	return out
}

// =============================================================================
// INTERPRETER
// =============================================================================

// shell interprets one command line at a time against a session.
type shell struct {
	sess *Session
	out  io.Writer
}

// exec runs one command line. quit is true when the shell should exit.
func (sh *shell) exec(ctx context.Context, input string) (quit bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false, nil
	}
	word := strings.ToLower(fields[0])
	background := len(fields) > 1 && fields[len(fields)-1] == "&"
	if strings.HasSuffix(word, "&") {
		word = strings.TrimSuffix(word, "&")
		background = true
	}

	switch word {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(sh.out, shellHelp)
	case "clear", "c":
		if err := sh.sess.Clear(); err != nil {
			return false, err
		}
		fmt.Fprintln(sh.out, "Cleared.")
	case "list", "ls":
		return false, sh.list()
	case "status":
		fmt.Fprintln(sh.out, sh.sess.Runner().Registry().Summary())
	default:
		policy, perr := tasks.ParsePolicy(word)
		if perr != nil {
			return false, fmt.Errorf("unknown command %q (type 'help')", fields[0])
		}
		return false, sh.start(ctx, policy, background)
	}
	return false, nil
}

// start begins a run and, unless background is set, waits for it.
func (sh *shell) start(ctx context.Context, policy tasks.Policy, background bool) error {
	run, err := sh.sess.Start(ctx, policy)
	if err != nil {
		return err
	}

	if background {
		fmt.Fprintf(sh.out, "Started %s run %s\n", policy, run.ShortID())
		go func() {
			entries, err := sh.sess.Wait(run)
			if err != nil {
				return
			}
			_ = sh.sess.Record(ctx, run, entries)
			fmt.Fprintf(sh.out, "%s\n", run.Summary())
		}()
		return nil
	}

	entries, err := sh.sess.Wait(run)
	if err != nil {
		return err
	}
	if err := sh.sess.Record(ctx, run, entries); err != nil {
		fmt.Fprintf(sh.out, "Warning: could not record run: %v\n", err)
	}
	fmt.Fprintln(sh.out, run.Summary())
	return nil
}

// list prints the log with 1-based indexes.
func (sh *shell) list() error {
	entries, err := sh.sess.Snapshot()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(sh.out, DimStyle.Render("(empty)"))
		return nil
	}
	for i, entry := range entries {
		fmt.Fprintf(sh.out, "%3d  %s\n", i+1, ColorEntry(entry))
	}
	return nil
}
