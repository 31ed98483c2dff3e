// fanout - runs a batch of sleeping tasks under three execution policies and
// collects their results in a single-writer log.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/fanout-tui/internal/cli"
	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/history"
	"github.com/jeranaias/fanout-tui/internal/tasks"
	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for posting work back to the owner
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse(os.Args[1:])

	var err error
	if cmd == cli.CmdTUI {
		err = runTUI(args)
	} else {
		err = cli.Dispatch(cmd, args)
	}
	if err != nil {
		cli.DisplayError(os.Stderr, err, args.JSON)
		os.Exit(cli.GetExitCode(err))
	}
}

// sendToProgram delivers msg to the running program. Messages sent before
// the program exists or after it exits are dropped.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// postToProgram is the TUI's Poster: fn runs inside Update.
func postToProgram(fn func()) {
	sendToProgram(postedMsg(fn))
}

// runTUI starts the interactive front end.
func runTUI(args cli.Args) error {
	cfg, err := args.LoadConfig()
	if err != nil {
		return cli.NewCommandError("tui", "load config", "invalid configuration", err)
	}

	// The TUI owns the terminal, so the standard logger goes to a file.
	if cfg.Diagnostics.Enabled {
		logPath, err := cfg.LogFilePath()
		if err == nil {
			err = config.EnsureConfigDir()
		}
		if err != nil {
			return cli.NewCommandError("tui", "open log", "cannot resolve log file", err)
		}
		f, err := tea.LogToFile(logPath, "")
		if err != nil {
			return cli.NewCommandError("tui", "open log", "cannot open log file", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	theme := styles.NewTheme(cfg.UI.Theme)
	m := NewModel(theme, cfg, tasks.PostFunc(postToProgram))
	defer m.Shutdown()

	if cfg.History.Enabled {
		if path, err := cfg.HistoryPath(); err == nil {
			if store, err := history.Open(path); err != nil {
				log.Printf("WARNING: history disabled: %v", err)
			} else {
				defer store.Close()
				m.SetJournal(store)
			}
		}
	}

	if cfg.UI.WatchConfig {
		if w := startWatcher(args); w != nil {
			defer w.Close()
		}
	}

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),       // Use alternate screen buffer
		tea.WithMouseCellMotion(), // Enable mouse support
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	_, err = p.Run()

	programMu.Lock()
	programRef = nil
	programMu.Unlock()

	if err != nil {
		return fmt.Errorf("running fanout: %w", err)
	}
	return nil
}

// startWatcher reloads the config file on change. Reloads apply to the next
// run. Returns nil when there is nothing to watch.
func startWatcher(args cli.Args) *config.Watcher {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return nil
		}
		path = p
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	w, err := config.NewWatcher(path, func(cfg *config.Config) {
		sendToProgram(configChangedMsg{cfg: cfg})
	})
	if err != nil {
		log.Printf("WARNING: config watch disabled: %v", err)
		return nil
	}
	if err := w.Watch(); err != nil {
		log.Printf("WARNING: config watch disabled: %v", err)
		_ = w.Close()
		return nil
	}
	return w
}
