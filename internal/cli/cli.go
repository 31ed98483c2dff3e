// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command dispatch for fanout.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/fanout-tui/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdRun
	CmdShell
	CmdConfig
	CmdHistory
	CmdExplain
	CmdVersion
	CmdHelp
	CmdUnknown
)

// boolFlags are never given a value by the parser.
var boolFlags = []string{
	"json", "quiet", "q", "verbose", "force", "confirm", "no-progress", "wait",
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet      bool
	Verbose    bool
	JSON       bool
	ConfigPath string // --config FILE replaces the default lookup

	// Command is the command word as typed; Subcommand is the first word
	// after it.
	Command    string
	Subcommand string

	// Parser holds command-specific flags and positionals (without the
	// command word).
	Parser *ArgParser

	// Raw args after the command word
	Raw []string

	// Output streams; nil means os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// Out returns the stdout writer.
func (a Args) Out() io.Writer {
	if a.Stdout != nil {
		return a.Stdout
	}
	return os.Stdout
}

// Err returns the stderr writer.
func (a Args) Err() io.Writer {
	if a.Stderr != nil {
		return a.Stderr
	}
	return os.Stderr
}

// LoadConfig returns the configuration named by --config, or the global one.
func (a Args) LoadConfig() (*config.Config, error) {
	if a.ConfigPath != "" {
		return config.LoadFromPath(a.ConfigPath)
	}
	return config.Global(), nil
}

const usageText = `fanout - task runner and result collector

Runs a batch of simulated tasks under one of three execution policies and
collects their results into an ordered log owned by a single goroutine.

Usage:
  fanout                      Start the TUI (default)
  fanout run [flags]          Run one batch headless and print the log
  fanout shell                Line-mode REPL
  fanout config [subcommand]  Configuration
  fanout history [subcommand] Run journal
  fanout explain              Describe the execution policies
  fanout version              Show version
  fanout help                 Show this help

Run Flags:
  -p, --policy NAME           blocking | offload | reactive (default from config)
  -n, --tasks N               Tasks per run (default 10)
  -t, --threshold MS          Slow threshold in milliseconds (default 500)
      --pool N                Fan-out pool size (0 = number of CPUs)
      --export FILE           Write a report (.json or .md) when the run ends
      --no-progress           Never draw the progress bar

Config Subcommands:
  fanout config show          Print the effective configuration as TOML
  fanout config path          Print the config file path
  fanout config init [--force] Write a default config file
  fanout config get KEY       Print one value (e.g. run.task_count)
  fanout config validate      Validate the config file

History Subcommands:
  fanout history list [--limit N]   List recorded runs
  fanout history show ID            Show one run and its entries
  fanout history export ID FILE     Write a recorded run as a report
  fanout history clear --confirm    Delete every record

Global Flags:
  -q, --quiet                 Suppress per-entry output
      --json                  Output in JSON format
      --config FILE           Use FILE instead of ~/.fanout/config.toml
      --verbose               Show diagnostics

Environment:
  FANOUT_HOME                 Config directory (default ~/.fanout)
  FANOUT_TASKS, FANOUT_THRESHOLD_MS, FANOUT_MAX_SLEEP_MS, FANOUT_POLICY,
  FANOUT_POOL_SIZE, FANOUT_HISTORY, FANOUT_LOG_FILE
  NO_COLOR                    Disable colored output

Examples:
  fanout run --policy reactive
  fanout run -p blocking -n 20 --threshold 250 --export run.md
  fanout history list --limit 5
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "fanout version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		args.Parser = NewArgParser(nil, boolFlags...)
		return CmdTUI, args
	}

	args.Command = strings.ToLower(remaining[0])
	args.Raw = remaining[1:]
	args.Parser = NewArgParser(args.Raw, boolFlags...)
	args.Subcommand = strings.ToLower(args.Parser.Subcommand())

	switch args.Command {
	case "tui":
		return CmdTUI, args
	case "run":
		return CmdRun, args
	case "shell", "repl":
		return CmdShell, args
	case "config":
		return CmdConfig, args
	case "history":
		return CmdHistory, args
	case "explain":
		return CmdExplain, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		return CmdUnknown, args
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--config":
			if i+1 < len(argv) {
				i++
				args.ConfigPath = argv[i]
			}
		default:
			if strings.HasPrefix(arg, "--config=") {
				args.ConfigPath = strings.TrimPrefix(arg, "--config=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, args
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch runs a headless command. CmdTUI is handled by main.
func Dispatch(cmd Command, args Args) error {
	switch cmd {
	case CmdRun:
		return HandleRun(args)
	case CmdShell:
		return HandleShell(args)
	case CmdConfig:
		return HandleConfig(args)
	case CmdHistory:
		return HandleHistory(args)
	case CmdExplain:
		return HandleExplain(args)
	case CmdVersion:
		return HandleVersion(args)
	case CmdHelp:
		HandleHelp()
		return nil
	case CmdTUI:
		return fmt.Errorf("the TUI is started by main")
	default:
		return NewUsageError(fmt.Sprintf("unknown command %q (run 'fanout help')", args.Command))
	}
}

// HandleVersion handles the "version" command with JSON output support.
func HandleVersion(args Args) error {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		return NewJSONResponse("version", data).Write(args.Out())
	}
	PrintVersion(args.Out())
	return nil
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
