// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/export"
	"github.com/jeranaias/fanout-tui/internal/history"
	"github.com/jeranaias/fanout-tui/internal/tasks"
)

// =============================================================================
// HELPERS
// =============================================================================

// isolate points the config directory at a temp dir and clears FANOUT_*
// overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("FANOUT_HOME", home)
	for _, name := range []string{
		"FANOUT_TASKS", "FANOUT_THRESHOLD_MS", "FANOUT_MAX_SLEEP_MS", "FANOUT_POLICY",
		"FANOUT_POOL_SIZE", "FANOUT_HISTORY", "FANOUT_LOG_FILE",
	} {
		t.Setenv(name, "")
	}
	config.ResetGlobalForTesting()
	t.Cleanup(config.ResetGlobalForTesting)
	ForceColorsEnabled(false)
	return home
}

// instantWorker never waits. Task 2 reports 700 ms, the rest i*10 ms.
func instantWorker() []tasks.WorkerOption {
	return []tasks.WorkerOption{
		tasks.WithDurations(func(i int) time.Duration {
			if i == 2 {
				return 700 * time.Millisecond
			}
			return time.Duration(i) * 10 * time.Millisecond
		}),
		tasks.WithSleeper(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
	}
}

// parseTo parses argv and captures both output streams.
func parseTo(argv ...string) (Command, Args, *bytes.Buffer, *bytes.Buffer) {
	cmd, args := Parse(argv)
	var out, errOut bytes.Buffer
	args.Stdout = &out
	args.Stderr = &errOut
	return cmd, args, &out, &errOut
}

// runTo performs a headless run with the instant worker.
func runTo(t *testing.T, argv ...string) (string, string, error) {
	t.Helper()
	_, args, out, errOut := parseTo(append([]string{"run"}, argv...)...)
	err := runHeadless(context.Background(), args, SessionOptions{WorkerOptions: instantWorker()})
	return out.String(), errOut.String(), err
}

// =============================================================================
// ARG PARSER TESTS (args.go)
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantSub  string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name:    "simple subcommand",
			args:    []string{"show"},
			wantSub: "show",
		},
		{
			name:    "subcommand with flag",
			args:    []string{"list", "--limit", "50"},
			wantSub: "list",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("limit") != "50" {
					t.Errorf("Flag(limit) = %q, want %q", p.Flag("limit"), "50")
				}
			},
		},
		{
			name:    "flag with equals",
			args:    []string{"run", "--policy=offload"},
			wantSub: "run",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("policy") != "offload" {
					t.Errorf("Flag(policy) = %q, want %q", p.Flag("policy"), "offload")
				}
			},
		},
		{
			name:    "boolean flag",
			args:    []string{"clear", "--confirm"},
			wantSub: "clear",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
			},
		},
		{
			name:    "declared boolean does not swallow positional",
			args:    []string{"--confirm", "clear"},
			wantSub: "clear",
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("confirm") {
					t.Error("BoolFlag(confirm) should be true")
				}
			},
		},
		{
			name:    "short flag",
			args:    []string{"run", "-n", "3"},
			wantSub: "run",
			validate: func(t *testing.T, p *ArgParser) {
				if p.FlagAny("tasks", "n") != "3" {
					t.Errorf("FlagAny(tasks, n) = %q, want %q", p.FlagAny("tasks", "n"), "3")
				}
			},
		},
		{
			name:    "negative number is a value",
			args:    []string{"run", "--threshold", "-5"},
			wantSub: "run",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("threshold") != "-5" {
					t.Errorf("Flag(threshold) = %q, want %q", p.Flag("threshold"), "-5")
				}
			},
		},
		{
			name:    "positionals after subcommand",
			args:    []string{"export", "abc123", "run.md"},
			wantSub: "export",
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "abc123" || p.Positional(2) != "run.md" {
					t.Errorf("positionals = %q %q", p.Positional(1), p.Positional(2))
				}
				if p.Positional(3) != "" {
					t.Errorf("Positional(3) = %q, want empty", p.Positional(3))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewArgParser(tt.args, boolFlags...)
			if p.Subcommand() != tt.wantSub {
				t.Errorf("Subcommand() = %q, want %q", p.Subcommand(), tt.wantSub)
			}
			if tt.validate != nil {
				tt.validate(t, p)
			}
		})
	}
}

func TestArgParser_FlagInt(t *testing.T) {
	p := NewArgParser([]string{"--limit", "7", "--pool", "many"})

	n, ok, err := p.FlagInt("limit", "l")
	if err != nil || !ok || n != 7 {
		t.Errorf("FlagInt(limit) = %d, %v, %v; want 7, true, nil", n, ok, err)
	}

	_, ok, err = p.FlagInt("missing")
	if err != nil || ok {
		t.Errorf("FlagInt(missing) ok=%v err=%v; want false, nil", ok, err)
	}

	_, ok, err = p.FlagInt("pool")
	if err == nil || !ok {
		t.Errorf("FlagInt(pool) ok=%v err=%v; want true and an error", ok, err)
	}
}

func TestArgParser_HasFlag(t *testing.T) {
	p := NewArgParser([]string{"--limit", "5", "--force"}, "force")
	if !p.HasFlag("limit") || !p.HasFlag("--force") {
		t.Error("HasFlag should find both string and bool flags")
	}
	if p.HasFlag("json") {
		t.Error("HasFlag(json) should be false")
	}
}

func TestArgParser_EmptyArgs(t *testing.T) {
	p := NewArgParser(nil)
	if p.Subcommand() != "" || p.PositionalCount() != 0 {
		t.Errorf("empty parser: sub=%q count=%d", p.Subcommand(), p.PositionalCount())
	}
	if p.FlagOrDefault("policy", "reactive") != "reactive" {
		t.Error("FlagOrDefault should fall back")
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"true", true, false},
		{"YES", true, false},
		{"1", true, false},
		{"off", false, false},
		{"n", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := ParseBoolString(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBoolString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseBoolString(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// =============================================================================
// COMMAND PARSING TESTS (cli.go)
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantCommand Command
		validate    func(*testing.T, Args)
	}{
		{name: "no args starts the TUI", args: nil, wantCommand: CmdTUI},
		{name: "tui", args: []string{"tui"}, wantCommand: CmdTUI},
		{
			name:        "run with flags",
			args:        []string{"run", "--policy", "blocking", "-n", "4"},
			wantCommand: CmdRun,
			validate: func(t *testing.T, a Args) {
				if a.Parser.Flag("policy") != "blocking" || a.Parser.Flag("n") != "4" {
					t.Errorf("flags = %q %q", a.Parser.Flag("policy"), a.Parser.Flag("n"))
				}
			},
		},
		{
			name:        "global flags anywhere",
			args:        []string{"--json", "history", "list", "-q"},
			wantCommand: CmdHistory,
			validate: func(t *testing.T, a Args) {
				if !a.JSON || !a.Quiet {
					t.Errorf("JSON=%v Quiet=%v, want both true", a.JSON, a.Quiet)
				}
				if a.Subcommand != "list" {
					t.Errorf("Subcommand = %q, want list", a.Subcommand)
				}
			},
		},
		{
			name:        "config file flag",
			args:        []string{"--config=/tmp/f.toml", "config", "show"},
			wantCommand: CmdConfig,
			validate: func(t *testing.T, a Args) {
				if a.ConfigPath != "/tmp/f.toml" {
					t.Errorf("ConfigPath = %q", a.ConfigPath)
				}
			},
		},
		{name: "shell", args: []string{"shell"}, wantCommand: CmdShell},
		{name: "explain", args: []string{"explain"}, wantCommand: CmdExplain},
		{name: "version flag", args: []string{"-v"}, wantCommand: CmdVersion},
		{name: "help flag", args: []string{"--help"}, wantCommand: CmdHelp},
		{name: "unknown", args: []string{"frobnicate"}, wantCommand: CmdUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := Parse(tt.args)
			if cmd != tt.wantCommand {
				t.Errorf("Parse(%v) command = %v, want %v", tt.args, cmd, tt.wantCommand)
			}
			if args.Parser == nil {
				t.Fatal("Parser should never be nil")
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestDispatchUnknownCommand(t *testing.T) {
	cmd, args := Parse([]string{"frobnicate"})
	err := Dispatch(cmd, args)
	require.Error(t, err)
	require.True(t, IsUsageError(err))
	require.Equal(t, ExitError, GetExitCode(err))
	require.Equal(t, ExitSuccess, GetExitCode(nil))

	var buf bytes.Buffer
	DisplayError(&buf, err, false)
	require.True(t, strings.HasPrefix(buf.String(), "Error: unknown command"))
}

func TestHandleVersionJSON(t *testing.T) {
	_, args, out, _ := parseTo("--json", "version")
	require.NoError(t, HandleVersion(args))

	var resp struct {
		Success bool        `json:"success"`
		Data    VersionData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, Version, resp.Data.Version)
}

// =============================================================================
// RUN COMMAND TESTS (run.go, session.go)
// =============================================================================

func TestRunBlockingPrintsEntriesInOrder(t *testing.T) {
	home := isolate(t)

	out, errOut, err := runTo(t, "--policy", "blocking", "--tasks", "3")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Task1\nTask2 (slow)\nTask3\n"), "output:\n%s", out)
	require.Contains(t, out, "3/3")
	require.Contains(t, errOut, "Running 3 tasks (blocking")

	diag, err := os.ReadFile(filepath.Join(home, "fanout.log"))
	require.NoError(t, err)
	for _, name := range []string{"Task1", "Task2", "Task3"} {
		require.Contains(t, string(diag), name+" took ")
	}
}

func TestRunOffloadKeepsSubmissionOrder(t *testing.T) {
	isolate(t)

	out, _, err := runTo(t, "-p", "offload", "-n", "4")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Task1\nTask2 (slow)\nTask3\nTask4\n"), "output:\n%s", out)
}

func TestRunReactiveJSON(t *testing.T) {
	isolate(t)

	out, _, err := runTo(t, "--policy", "reactive", "--tasks", "5", "--pool", "2", "--json")
	require.NoError(t, err)

	var resp struct {
		Success bool          `json:"success"`
		Data    export.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "reactive", resp.Data.Policy)
	require.ElementsMatch(t,
		[]string{"Task1", "Task2 (slow)", "Task3", "Task4", "Task5"},
		resp.Data.Entries)
	require.Equal(t, 1, resp.Data.SlowCount)
}

func TestRunQuietSuppressesEntries(t *testing.T) {
	isolate(t)

	out, errOut, err := runTo(t, "--policy", "blocking", "--tasks", "2", "--quiet")
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(out, "Task1\n"))
	require.NotContains(t, errOut, "Running")
}

func TestRunThresholdFlag(t *testing.T) {
	isolate(t)

	// 700 ms is exactly at the threshold and stays unmarked.
	out, _, err := runTo(t, "--policy", "blocking", "--tasks", "2", "--threshold", "700")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "Task1\nTask2\n"), "output:\n%s", out)
}

func TestRunExport(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "run.md")

	_, errOut, err := runTo(t, "--policy", "blocking", "--tasks", "2", "--export", path)
	require.NoError(t, err)
	require.Contains(t, errOut, "Exported to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Task2 (slow)")
}

func TestRunRejectsBadFlags(t *testing.T) {
	isolate(t)

	tests := [][]string{
		{"--tasks", "0"},
		{"--tasks", "many"},
		{"--policy", "sideways"},
		{"--threshold", "-1"},
	}
	for _, argv := range tests {
		_, _, err := runTo(t, argv...)
		if err == nil {
			t.Errorf("run %v should fail", argv)
			continue
		}
		if !IsUsageError(err) {
			t.Errorf("run %v error = %v, want a usage error", argv, err)
		}
	}
}

func TestRunCanceledContext(t *testing.T) {
	isolate(t)
	_, args, out, _ := parseTo("run", "--policy", "offload", "--tasks", "3")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := runHeadless(ctx, args, SessionOptions{WorkerOptions: instantWorker()})
	require.Error(t, err)
	require.True(t, strings.HasPrefix(out.String(), "-\n-\n-\n"), "output:\n%s", out.String())
}

// =============================================================================
// HISTORY TESTS (history_cmd.go)
// =============================================================================

func TestHistoryDisabled(t *testing.T) {
	isolate(t)
	_, args, _, _ := parseTo("history", "list")
	err := HandleHistory(args)
	require.ErrorIs(t, err, history.ErrDisabled)
}

func TestHistoryFlow(t *testing.T) {
	isolate(t)
	t.Setenv("FANOUT_HISTORY", "1")
	config.ResetGlobalForTesting()

	_, _, err := runTo(t, "--policy", "blocking", "--tasks", "3", "--quiet")
	require.NoError(t, err)

	// list --json gives the ID back
	_, args, out, _ := parseTo("--json", "history", "list")
	require.NoError(t, HandleHistory(args))
	var listed struct {
		Data HistoryListData `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &listed))
	require.Equal(t, 1, listed.Data.Total)
	require.Len(t, listed.Data.Records, 1)
	rec := listed.Data.Records[0]
	require.Equal(t, "blocking", rec.Policy)
	require.Equal(t, 1, rec.SlowCount)

	// table listing
	_, args, out, _ = parseTo("history", "list", "--limit", "5")
	require.NoError(t, HandleHistory(args))
	require.Contains(t, out.String(), shortRunID(rec.ID))

	// show by prefix
	_, args, out, _ = parseTo("history", "show", rec.ID[:8])
	require.NoError(t, HandleHistory(args))
	require.Contains(t, out.String(), "Task2 (slow)")

	// export
	path := filepath.Join(t.TempDir(), "run.json")
	_, args, _, _ = parseTo("history", "export", rec.ID, path)
	require.NoError(t, HandleHistory(args))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), rec.ID)

	// unknown ID
	_, args, _, _ = parseTo("history", "show", "zzzzzzzz")
	require.True(t, IsNotFoundError(HandleHistory(args)))

	// clear needs --confirm
	_, args, _, _ = parseTo("history", "clear")
	require.True(t, IsUsageError(HandleHistory(args)))

	_, args, _, _ = parseTo("history", "clear", "--confirm")
	require.NoError(t, HandleHistory(args))

	_, args, out, _ = parseTo("history", "list")
	require.NoError(t, HandleHistory(args))
	require.Contains(t, out.String(), "No recorded runs.")
}

// =============================================================================
// CONFIG TESTS (config_cmd.go)
// =============================================================================

func TestConfigCommands(t *testing.T) {
	home := isolate(t)

	_, args, out, _ := parseTo("config", "get", "run.task_count")
	require.NoError(t, HandleConfig(args))
	require.Equal(t, "10\n", out.String())

	_, args, _, _ = parseTo("config", "get", "run.nope")
	require.Error(t, HandleConfig(args))

	_, args, _, _ = parseTo("config", "get")
	require.True(t, IsUsageError(HandleConfig(args)))

	_, args, out, _ = parseTo("config", "path")
	require.NoError(t, HandleConfig(args))
	require.Equal(t, filepath.Join(home, "config.toml")+"\n", out.String())

	_, args, out, _ = parseTo("config", "validate")
	require.NoError(t, HandleConfig(args))
	require.Contains(t, out.String(), "defaults are in effect")

	_, args, _, _ = parseTo("config", "init")
	require.NoError(t, HandleConfig(args))
	_, err := os.Stat(filepath.Join(home, "config.toml"))
	require.NoError(t, err)

	_, args, _, _ = parseTo("config", "init")
	require.Error(t, HandleConfig(args), "init must not overwrite without --force")

	_, args, _, _ = parseTo("config", "init", "--force")
	require.NoError(t, HandleConfig(args))

	_, args, out, _ = parseTo("config", "validate")
	require.NoError(t, HandleConfig(args))
	require.Contains(t, out.String(), "is valid")

	_, args, out, _ = parseTo("config", "show")
	require.NoError(t, HandleConfig(args))
	require.Contains(t, out.String(), "task_count = 10")
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[run]\nslow_threshold_ms = -3\n"), 0644))

	_, args, _, _ := parseTo("--config", path, "config", "validate")
	require.Error(t, HandleConfig(args))
}

// =============================================================================
// SHELL TESTS (shell.go)
// =============================================================================

func TestSessionRunsManyBatchesQuietly(t *testing.T) {
	cfg := config.Default()
	cfg.Run.TaskCount = 1

	var warnings bytes.Buffer
	sess := NewSession(cfg, SessionOptions{Warnings: &warnings, WorkerOptions: instantWorker()})
	defer sess.Close()

	for i := 0; i < 105; i++ {
		_, err := sess.Start(context.Background(), tasks.Blocking)
		require.NoError(t, err)
	}
	require.Nil(t, sess.Runner().Registry().Notifications())
	require.Empty(t, warnings.String())
}

func TestShellExec(t *testing.T) {
	ForceColorsEnabled(false)
	cfg := config.Default()
	cfg.Run.TaskCount = 3

	var out bytes.Buffer
	sess := NewSession(cfg, SessionOptions{Echo: &out, WorkerOptions: instantWorker()})
	defer sess.Close()
	sh := &shell{sess: sess, out: &out}
	ctx := context.Background()

	quit, err := sh.exec(ctx, "blocking")
	require.NoError(t, err)
	require.False(t, quit)
	require.True(t, strings.HasPrefix(out.String(), "Task1\nTask2 (slow)\nTask3\n"), "output:\n%s", out.String())

	out.Reset()
	_, err = sh.exec(ctx, "list")
	require.NoError(t, err)
	require.Contains(t, out.String(), "  2  Task2 (slow)")

	_, err = sh.exec(ctx, "offload")
	require.NoError(t, err)
	entries, err := sess.Snapshot()
	require.NoError(t, err)
	require.Equal(t, []string{"Task1", "Task2 (slow)", "Task3"}, entries)

	_, err = sh.exec(ctx, "clear")
	require.NoError(t, err)
	_, err = sh.exec(ctx, "clear")
	require.NoError(t, err, "clearing an empty log is a no-op")

	out.Reset()
	_, err = sh.exec(ctx, "list")
	require.NoError(t, err)
	require.Contains(t, out.String(), "(empty)")

	_, err = sh.exec(ctx, "sideways")
	require.Error(t, err)

	quit, err = sh.exec(ctx, "quit")
	require.NoError(t, err)
	require.True(t, quit)
}

func TestCompleteShell(t *testing.T) {
	require.Equal(t, []string{"reactive"}, completeShell("re"))
	require.Empty(t, completeShell("zzz"))
}

// =============================================================================
// EXPLAIN / STYLES
// =============================================================================

func TestHandleExplainPlain(t *testing.T) {
	_, args, out, _ := parseTo("explain")
	require.NoError(t, HandleExplain(args))
	require.Contains(t, out.String(), "# Run policies")
	require.Contains(t, out.String(), "Clearing during a run")
}

func TestColorEntryPlain(t *testing.T) {
	ForceColorsEnabled(false)
	for _, entry := range []string{"Task1", "Task2 (slow)", "-"} {
		if got := ColorEntry(entry); got != entry {
			t.Errorf("ColorEntry(%q) = %q without colors", entry, got)
		}
	}
}
