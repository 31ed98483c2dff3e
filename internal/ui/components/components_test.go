// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fanout-tui/internal/resultlog"
	"github.com/jeranaias/fanout-tui/internal/tasks"
	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// blockingRun produces a finished run of n instant tasks; task 2 is slow.
func blockingRun(t *testing.T, n int) (*tasks.Run, *resultlog.Log) {
	t.Helper()
	log := resultlog.New()
	worker := tasks.NewWorker(
		tasks.WithDurations(func(i int) time.Duration {
			if i == 2 {
				return 700 * time.Millisecond
			}
			return time.Duration(i) * time.Millisecond
		}),
		tasks.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	runner := tasks.NewRunner(log, tasks.PostFunc(func(fn func()) { fn() }),
		tasks.WithTaskCount(n), tasks.WithWorker(worker))
	run, err := runner.Start(context.Background(), tasks.Blocking)
	require.NoError(t, err)
	return run, log
}

// =============================================================================
// KEY MAP TESTS
// =============================================================================

func TestDefaultKeyMap(t *testing.T) {
	keys := DefaultKeyMap()

	tests := []struct {
		key     string
		binding key.Binding
	}{
		{"b", keys.RunBlocking},
		{"n", keys.RunOffload},
		{"r", keys.RunReactive},
		{"c", keys.Clear},
		{"e", keys.Export},
		{"y", keys.Copy},
		{"?", keys.Help},
		{"q", keys.Quit},
		{"ctrl+c", keys.Quit},
		{"pgdown", keys.PageDown},
	}
	for _, tc := range tests {
		var msg tea.KeyMsg
		switch tc.key {
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "pgdown":
			msg = tea.KeyMsg{Type: tea.KeyPgDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(tc.key)}
		}
		require.True(t, key.Matches(msg, tc.binding), "key %q should match", tc.key)
	}

	count := 0
	for _, group := range keys.FullHelp() {
		count += len(group)
	}
	require.Equal(t, 14, count)
}

// =============================================================================
// RESULT LIST TESTS
// =============================================================================

func TestResultListEmpty(t *testing.T) {
	rl := NewResultList(testTheme())
	rl.SetSize(80, 5)
	require.Contains(t, rl.View(), "No results")
	require.Equal(t, 0, rl.Len())
}

func TestResultListRendersEntriesInOrder(t *testing.T) {
	rl := NewResultList(testTheme())
	rl.SetSize(80, 10)
	rl.SetEntries([]string{"Task3", "Task1 (slow)", "-"})

	view := rl.View()
	i3 := strings.Index(view, "Task3")
	i1 := strings.Index(view, "Task1 (slow)")
	require.True(t, i3 >= 0 && i1 > i3, "entries should render in log order:\n%s", view)
	require.Contains(t, view, styles.StatusIndicators.Slow)
	require.Contains(t, view, styles.StatusIndicators.Interrupted)
}

func TestResultListSnapshotIsCopied(t *testing.T) {
	rl := NewResultList(testTheme())
	rl.SetSize(80, 10)
	entries := []string{"Task1"}
	rl.SetEntries(entries)
	entries[0] = "changed"
	require.Contains(t, rl.View(), "Task1")
}

func TestResultListFollowsTail(t *testing.T) {
	rl := NewResultList(testTheme())
	rl.SetSize(80, 3)

	var entries []string
	for i := 1; i <= 20; i++ {
		entries = append(entries, fmt.Sprintf("Task%d", i))
	}
	rl.SetEntries(entries)
	require.True(t, rl.Following())
	require.Contains(t, rl.View(), "Task20")

	rl.GotoTop()
	require.False(t, rl.Following())
	require.Contains(t, rl.View(), "Task1")
	require.NotContains(t, rl.View(), "Task20")

	// New entries do not yank the view while scrolled up
	rl.SetEntries(append(entries, "Task21"))
	require.NotContains(t, rl.View(), "Task21")

	rl.GotoBottom()
	require.True(t, rl.Following())
	require.Contains(t, rl.View(), "Task21")

	// Clearing the log resets to follow mode
	rl.GotoTop()
	rl.SetEntries(nil)
	require.True(t, rl.Following())
}

func TestResultListTruncatesWideEntries(t *testing.T) {
	rl := NewResultList(testTheme())
	rl.SetSize(20, 3)
	rl.SetEntries([]string{strings.Repeat("x", 60)})
	require.Contains(t, rl.View(), "...")
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBarIdle(t *testing.T) {
	sb := NewStatusBar(testTheme(), DefaultKeyMap())
	sb.SetWidth(120)
	require.Contains(t, sb.View(), "idle")
	require.Nil(t, sb.Run())

	sb.SetWidth(40)
	require.Contains(t, sb.View(), "idle")
}

func TestStatusBarTracksRun(t *testing.T) {
	run, log := blockingRun(t, 3)

	sb := NewStatusBar(testTheme(), DefaultKeyMap())
	sb.SetWidth(160)
	require.Nil(t, sb.Track(run), "finished runs need no spinner")
	sb.Refresh(log.Len())

	view := sb.View()
	require.Contains(t, view, "blocking")
	require.Contains(t, view, run.ShortID())
	require.Contains(t, view, "3/3")
	require.Contains(t, view, "Complete")
	require.Contains(t, view, "log 3")

	sb.SetNotice("exported")
	require.Contains(t, sb.View(), "exported")
	require.Equal(t, "exported", sb.Notice())
}

func TestStatusBarNarrow(t *testing.T) {
	run, _ := blockingRun(t, 2)
	sb := NewStatusBar(testTheme(), DefaultKeyMap())
	sb.SetWidth(40)
	sb.Track(run)
	view := sb.View()
	require.Contains(t, view, "[blocking]")
	require.Contains(t, view, "2/2")
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeader(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(100)
	h.SetSettings(10, 500, 8)

	view := h.View()
	require.Contains(t, view, "fanout")
	require.Contains(t, view, "10 tasks")
	require.Contains(t, view, "slow > 500ms")

	h.SetWidth(30)
	require.NotContains(t, h.View(), "10 tasks")
}

// =============================================================================
// MARKDOWN, HIGHLIGHT AND CLIPBOARD TESTS
// =============================================================================

func TestHelpMarkdown(t *testing.T) {
	md := HelpMarkdown(DefaultKeyMap())
	require.Contains(t, md, "| `b` | run blocking |")
	require.Contains(t, md, "- **reactive**:")
	require.Contains(t, md, "Clearing during a run")
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("# Title\n\nSome *text*.", 40, "notty")
	require.Contains(t, out, "Title")
	require.Contains(t, out, "text")
}

func TestHighlightTOML(t *testing.T) {
	src := "[run]\ntask_count = 10\n"
	out := HighlightTOML(src)
	require.Contains(t, out, "task_count")
	require.Contains(t, out, "10")
}

func TestCopyEntries(t *testing.T) {
	var got string
	orig := writeClipboard
	writeClipboard = func(s string) error {
		got = s
		return nil
	}
	defer func() { writeClipboard = orig }()

	require.ErrorIs(t, CopyEntries(nil), ErrNothingToCopy)
	require.NoError(t, CopyEntries([]string{"Task2", "-"}))
	require.Equal(t, "Task2\n-\n", got)
}
