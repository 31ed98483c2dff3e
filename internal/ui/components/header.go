// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/fanout-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand plus the settings the next run will use.
type Header struct {
	Title     string
	TaskCount int
	Threshold int64
	PoolSize  int
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "fanout",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetSettings updates the run settings shown on the right.
func (h *Header) SetSettings(taskCount int, threshold int64, poolSize int) {
	h.TaskCount = taskCount
	h.Threshold = threshold
	h.PoolSize = poolSize
}

// View renders the header.
func (h *Header) View() string {
	brand := h.theme.HeaderBrand.Render(h.Title)
	settings := h.theme.HeaderHint.Render(
		fmt.Sprintf("%d tasks  slow > %dms  pool %d", h.TaskCount, h.Threshold, h.PoolSize))

	if h.Width < 60 {
		return h.theme.Header.Width(h.Width).Render(brand)
	}

	spacing := h.Width - lipgloss.Width(brand) - lipgloss.Width(settings) - 2
	if spacing < 1 {
		spacing = 1
	}
	return h.theme.Header.
		Width(h.Width).
		Render(brand + strings.Repeat(" ", spacing) + settings)
}
