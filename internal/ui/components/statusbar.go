// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fanout-tui/internal/tasks"
	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// StatusBar is the bottom bar: policy, run ID, produced/N, spinner and
// progress while a run is in flight, log length and a transient notice.
type StatusBar struct {
	Width int

	theme    *styles.Theme
	keys     KeyMap
	spinner  Spinner
	progress progress.Model

	run    *tasks.Run
	logLen int
	notice string
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme, keys KeyMap) *StatusBar {
	return &StatusBar{
		Width:   80,
		theme:   theme,
		keys:    keys,
		spinner: NewSpinner(),
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
			progress.WithWidth(20),
		),
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetNotice sets a one-line message shown until the next notice or run.
func (s *StatusBar) SetNotice(notice string) {
	s.notice = notice
}

// Notice returns the current notice.
func (s *StatusBar) Notice() string {
	return s.notice
}

// Track points the bar at a newly started run and starts the spinner when
// the run is still in flight.
func (s *StatusBar) Track(run *tasks.Run) tea.Cmd {
	s.run = run
	s.notice = ""
	if run == nil || run.IsComplete() {
		s.spinner.Stop()
		return nil
	}
	s.spinner.SetMessage(run.Policy().String())
	return s.spinner.Start()
}

// Refresh re-reads the tracked run and records the current log length.
func (s *StatusBar) Refresh(logLen int) {
	s.logLen = logLen
	if s.run != nil && s.run.IsComplete() {
		s.spinner.Stop()
	}
}

// Run returns the tracked run, or nil.
func (s *StatusBar) Run() *tasks.Run {
	return s.run
}

// Update forwards spinner ticks.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the status bar.
func (s *StatusBar) View() string {
	if s.Width < 60 {
		return s.viewNarrow()
	}
	return s.viewWide()
}

// viewNarrow renders: [policy] produced/N status
func (s *StatusBar) viewNarrow() string {
	parts := []string{}
	if s.run != nil {
		parts = append(parts,
			"["+s.run.Policy().String()+"]",
			s.renderCount(),
			s.theme.StatusStyle(s.run.Status()).Render(s.statusIcon()),
		)
	} else {
		parts = append(parts, styles.StatusIndicators.Idle, "idle")
	}

	return s.theme.StatusBar.
		Width(s.Width).
		Render(strings.Join(parts, " "))
}

// viewWide renders: policy | run id | spinner progress produced/N | status | log | notice ... shortcuts
func (s *StatusBar) viewWide() string {
	separator := lipgloss.NewStyle().Foreground(styles.Overlay).Render(" | ")

	left := []string{}
	if s.run != nil {
		left = append(left,
			s.theme.HeaderBrand.Render(s.run.Policy().String()),
			s.theme.RunID.Render(s.run.ShortID()),
		)
		if s.spinner.IsActive() {
			left = append(left, s.spinner.View()+" "+s.renderProgress()+" "+s.renderCount())
		} else {
			left = append(left, s.renderCount())
		}
		left = append(left, s.theme.StatusStyle(s.run.Status()).Render(s.statusIcon()+" "+s.run.Status().String()))
	} else {
		left = append(left, s.theme.ShortcutDesc.Render(styles.StatusIndicators.Idle+" idle"))
	}
	left = append(left, fmt.Sprintf("log %d", s.logLen))
	if s.notice != "" {
		left = append(left, s.theme.Notice.Render(s.notice))
	}

	leftSection := strings.Join(left, separator)
	rightSection := s.renderShortcuts()

	spacing := s.Width - lipgloss.Width(leftSection) - lipgloss.Width(rightSection) - 2
	if spacing < 2 {
		// Shortcuts are the first thing to go
		return s.theme.StatusBar.Width(s.Width).Render(leftSection)
	}

	return s.theme.StatusBar.
		Width(s.Width).
		Render(leftSection + strings.Repeat(" ", spacing) + rightSection)
}

// renderCount renders "produced/N (elapsed)".
func (s *StatusBar) renderCount() string {
	count := fmt.Sprintf("%d/%d", s.run.Produced(), s.run.TaskCount())
	return count + " " + s.theme.ShortcutDesc.Render(formatElapsed(s.run.Elapsed()))
}

// renderProgress renders the produced fraction as a bar.
func (s *StatusBar) renderProgress() string {
	total := s.run.TaskCount()
	if total == 0 {
		return s.progress.ViewAs(1)
	}
	return s.progress.ViewAs(float64(s.run.Produced()) / float64(total))
}

// renderShortcuts renders the short help bindings.
func (s *StatusBar) renderShortcuts() string {
	var shortcuts []string
	for _, b := range s.keys.ShortHelp() {
		h := b.Help()
		shortcuts = append(shortcuts, s.theme.ShortcutKey.Render(h.Key)+" "+s.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(shortcuts, "  ")
}

// statusIcon returns the ASCII indicator for the tracked run's status.
func (s *StatusBar) statusIcon() string {
	switch s.run.Status() {
	case tasks.RunStatusComplete:
		return styles.StatusIndicators.Fast
	case tasks.RunStatusCanceled:
		return styles.StatusIndicators.Interrupted
	default:
		return styles.StatusIndicators.Running
	}
}
