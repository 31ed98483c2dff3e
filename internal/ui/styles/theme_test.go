// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/jeranaias/fanout-tui/internal/tasks"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewThemeModes(t *testing.T) {
	tests := []struct {
		in       string
		wantMode string
	}{
		{"dark", ThemeDark},
		{"LIGHT", ThemeLight},
		{"auto", ThemeAuto},
		{"", ThemeAuto},
		{"neon", ThemeAuto},
	}

	for _, tc := range tests {
		theme := NewTheme(tc.in)
		if theme == nil {
			t.Fatalf("NewTheme(%q) returned nil", tc.in)
		}
		if theme.Mode != tc.wantMode {
			t.Errorf("NewTheme(%q).Mode = %q, want %q", tc.in, theme.Mode, tc.wantMode)
		}
	}

	if !NewTheme("dark").IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme("light").IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme("dark")

	for name, rendered := range map[string]string{
		"Header":        theme.Header.Render("fanout"),
		"PolicyBadge":   theme.PolicyBadge.Render("reactive"),
		"EntrySlow":     theme.EntrySlow.Render("Task3 (slow)"),
		"EntrySentinel": theme.EntrySentinel.Render("-"),
		"StatusBar":     theme.StatusBar.Render("Running"),
		"HelpBox":       theme.HelpBox.Render("help"),
	} {
		if rendered == "" {
			t.Errorf("%s style rendered nothing", name)
		}
	}

	if !strings.Contains(theme.EntryIndex.Render("7"), "7") {
		t.Error("EntryIndex should keep its content")
	}
}

// =============================================================================
// CLASSIFICATION STYLE TESTS
// =============================================================================

func TestEntryStyle(t *testing.T) {
	theme := NewTheme("dark")

	if got := theme.EntryStyle("-").Render("x"); got != theme.EntrySentinel.Render("x") {
		t.Error("sentinel entry should use EntrySentinel")
	}
	if got := theme.EntryStyle("Task4 (slow)").Render("x"); got != theme.EntrySlow.Render("x") {
		t.Error("slow entry should use EntrySlow")
	}
	if got := theme.EntryStyle("Task4").Render("x"); got != theme.EntryFast.Render("x") {
		t.Error("plain entry should use EntryFast")
	}
	// The slow marker only counts as a suffix
	if got := theme.EntryStyle("(slow) Task4").Render("x"); got != theme.EntryFast.Render("x") {
		t.Error("marker prefix should not make an entry slow")
	}
}

func TestStatusStyle(t *testing.T) {
	theme := NewTheme("dark")

	if theme.StatusStyle(tasks.RunStatusComplete).Render("x") != theme.StatusComplete.Render("x") {
		t.Error("complete runs should use StatusComplete")
	}
	if theme.StatusStyle(tasks.RunStatusCanceled).Render("x") != theme.StatusCanceled.Render("x") {
		t.Error("canceled runs should use StatusCanceled")
	}
	if theme.StatusStyle(tasks.RunStatusRunning).Render("x") != theme.StatusRunning.Render("x") {
		t.Error("running runs should use StatusRunning")
	}
}

// =============================================================================
// THEME SIZE TESTS
// =============================================================================

func TestThemeGetLayoutMode(t *testing.T) {
	theme := NewTheme("auto")

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	for _, tc := range tests {
		theme.SetSize(tc.width, 24)
		if theme.Height != 24 {
			t.Errorf("SetSize height = %d, want 24", theme.Height)
		}
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode() with width %d = %v, want %v", tc.width, got, tc.want)
		}
	}
}
