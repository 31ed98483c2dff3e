// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fanout-tui/internal/ui/styles"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// =============================================================================
// RESULT LIST COMPONENT
// =============================================================================

// ResultList renders the result log as a numbered, scrollable list. It is
// a read-only view: the owner replaces its entries after every change to
// the log.
type ResultList struct {
	viewport viewport.Model
	theme    *styles.Theme
	entries  []string
	width    int
	height   int

	// follow keeps the view pinned to the newest entry until the user
	// scrolls up.
	follow bool
}

// NewResultList creates a new result list component.
func NewResultList(theme *styles.Theme) *ResultList {
	return &ResultList{
		viewport: viewport.New(0, 0),
		theme:    theme,
		follow:   true,
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// SetSize sets the component dimensions.
func (rl *ResultList) SetSize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 1 {
		height = 1
	}
	rl.width = width
	rl.height = height
	rl.viewport.Width = width
	rl.viewport.Height = height
	rl.refresh()
}

// SetEntries replaces the displayed entries with a snapshot of the log.
func (rl *ResultList) SetEntries(entries []string) {
	rl.entries = append(rl.entries[:0], entries...)
	if len(entries) == 0 {
		rl.follow = true
	}
	rl.refresh()
}

// Len returns the number of entries on display.
func (rl *ResultList) Len() int {
	return len(rl.entries)
}

// =============================================================================
// SCROLLING
// =============================================================================

// ScrollUp scrolls up n lines.
func (rl *ResultList) ScrollUp(n int) {
	rl.viewport.LineUp(n)
	rl.follow = rl.viewport.AtBottom()
}

// ScrollDown scrolls down n lines.
func (rl *ResultList) ScrollDown(n int) {
	rl.viewport.LineDown(n)
	rl.follow = rl.viewport.AtBottom()
}

// PageUp scrolls up one page.
func (rl *ResultList) PageUp() {
	rl.viewport.ViewUp()
	rl.follow = rl.viewport.AtBottom()
}

// PageDown scrolls down one page.
func (rl *ResultList) PageDown() {
	rl.viewport.ViewDown()
	rl.follow = rl.viewport.AtBottom()
}

// GotoTop jumps to the first entry.
func (rl *ResultList) GotoTop() {
	rl.viewport.GotoTop()
	rl.follow = rl.viewport.AtBottom()
}

// GotoBottom jumps to the newest entry and follows new ones again.
func (rl *ResultList) GotoBottom() {
	rl.viewport.GotoBottom()
	rl.follow = true
}

// Following reports whether new entries scroll into view.
func (rl *ResultList) Following() bool {
	return rl.follow
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Update forwards mouse wheel and other viewport messages.
func (rl *ResultList) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	rl.viewport, cmd = rl.viewport.Update(msg)
	rl.follow = rl.viewport.AtBottom()
	return cmd
}

// View renders the result list.
func (rl *ResultList) View() string {
	if len(rl.entries) == 0 {
		return rl.renderEmpty()
	}
	return rl.viewport.View()
}

// =============================================================================
// RENDERING
// =============================================================================

// refresh rebuilds the viewport content from the entries.
func (rl *ResultList) refresh() {
	rl.viewport.SetContent(rl.renderRows())
	if rl.follow {
		rl.viewport.GotoBottom()
	}
}

// renderRows renders one line per entry: index, marker and display string.
func (rl *ResultList) renderRows() string {
	var b strings.Builder

	// Index column plus marker column plus two spaces
	textWidth := rl.width - 4 - 5 - 2
	if textWidth < 1 {
		textWidth = 1
	}

	for i, entry := range rl.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rl.renderRow(i, entry, textWidth))
	}
	return b.String()
}

// renderRow renders a single entry.
func (rl *ResultList) renderRow(i int, entry string, textWidth int) string {
	index := rl.theme.EntryIndex.Render(strconv.Itoa(i + 1))
	style := rl.theme.EntryStyle(entry)
	marker := style.Render(util.PadRight(entryIndicator(entry), 5))
	text := style.Render(util.TruncateWidth(entry, textWidth))
	return index + " " + marker + " " + text
}

// renderEmpty renders the empty state.
func (rl *ResultList) renderEmpty() string {
	return rl.theme.EmptyList.
		Padding(1, 2).
		Width(rl.width).
		Height(rl.height).
		Align(lipgloss.Center).
		Render("No results. Press b, n or r to start a run.")
}

// entryIndicator picks the ASCII status shape for an entry.
func entryIndicator(entry string) string {
	switch {
	case isSentinelEntry(entry):
		return styles.StatusIndicators.Interrupted
	case isSlowEntry(entry):
		return styles.StatusIndicators.Slow
	default:
		return styles.StatusIndicators.Fast
	}
}
