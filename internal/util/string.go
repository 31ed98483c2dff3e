// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UNICODE: Width-aware helpers for terminal columns. Double-width runes
// (CJK, fullwidth forms) count as two columns.

// TruncateWidth truncates s to at most maxWidth display columns, ending with
// "..." when something was cut and there is room for it.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces to exactly width display columns, truncating
// first if it is wider.
func PadRight(s string, width int) string {
	return runewidth.FillRight(TruncateWidth(s, width), width)
}

// StringWidth returns the display width of a string.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// =============================================================================
// NUMBER FORMATTING
// =============================================================================

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators ("12,345").
func FormatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatMillis renders a millisecond count with separators and a unit.
func FormatMillis(ms int64) string {
	return printer.Sprintf("%d ms", ms)
}
