// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/fanout-tui/internal/tasks"
)

// Theme modes accepted by NewTheme.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	Mode         string
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	App         lipgloss.Style
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderHint  lipgloss.Style
	PolicyBadge lipgloss.Style
	RunID       lipgloss.Style

	// ==========================================================================
	// RESULT LIST STYLES
	// ==========================================================================

	EntryIndex    lipgloss.Style
	EntryFast     lipgloss.Style
	EntrySlow     lipgloss.Style
	EntrySentinel lipgloss.Style
	EmptyList     lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar      lipgloss.Style
	StatusRunning  lipgloss.Style
	StatusComplete lipgloss.Style
	StatusCanceled lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	Spinner        lipgloss.Style

	// ==========================================================================
	// OVERLAY STYLES
	// ==========================================================================

	HelpBox lipgloss.Style
	Notice  lipgloss.Style
	Error   lipgloss.Style
}

// NewTheme creates a theme. mode is "auto" (detect the background), "dark"
// or "light"; anything else is treated as auto.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch strings.ToLower(mode) {
	case ThemeDark:
		mode, isDark = ThemeDark, true
		lipgloss.SetHasDarkBackground(true)
	case ThemeLight:
		mode, isDark = ThemeLight, false
		lipgloss.SetHasDarkBackground(false)
	default:
		mode, isDark = ThemeAuto, termenv.HasDarkBackground()
	}

	t := &Theme{
		Mode:         mode,
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextPrimary).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.HeaderHint = lipgloss.NewStyle().Foreground(TextMuted)
	t.PolicyBadge = lipgloss.NewStyle().
		Foreground(Purple).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.RunID = lipgloss.NewStyle().Foreground(Cyan)

	// Result list
	t.EntryIndex = lipgloss.NewStyle().Foreground(TextMuted).Width(4).Align(lipgloss.Right)
	t.EntryFast = lipgloss.NewStyle().Foreground(TextPrimary)
	t.EntrySlow = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.EntrySentinel = lipgloss.NewStyle().Foreground(Rose)
	t.EmptyList = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusRunning = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.StatusComplete = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusCanceled = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)

	// Overlays
	t.HelpBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.Notice = lipgloss.NewStyle().Foreground(InfoHighContrast)
	t.Error = lipgloss.NewStyle().Foreground(ErrorHighContrast).Bold(true)
}

// EntryStyle picks the list style for one display string: interrupted,
// slow, or plain.
func (t *Theme) EntryStyle(entry string) lipgloss.Style {
	switch {
	case entry == tasks.SentinelName:
		return t.EntrySentinel
	case strings.HasSuffix(entry, tasks.SlowMarker):
		return t.EntrySlow
	default:
		return t.EntryFast
	}
}

// StatusStyle picks the status bar style for a run state.
func (t *Theme) StatusStyle(status tasks.RunStatus) lipgloss.Style {
	switch status {
	case tasks.RunStatusComplete:
		return t.StatusComplete
	case tasks.RunStatusCanceled:
		return t.StatusCanceled
	default:
		return t.StatusRunning
	}
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)
