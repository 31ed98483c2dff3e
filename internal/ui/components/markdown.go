// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/fanout-tui/internal/tasks"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// RenderMarkdown renders markdown for the terminal at the given wrap width.
// style is a glamour standard style name ("dark", "light", "notty") or ""
// for auto detection. The input is returned unchanged if rendering fails.
func RenderMarkdown(content string, width int, style string) string {
	if width <= 0 {
		width = 80
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// PolicyGuide is the markdown explanation of the three run policies.
func PolicyGuide() string {
	var b strings.Builder
	b.WriteString("# Run policies\n\n")
	b.WriteString("Every run clears the log, then produces one entry per task. ")
	b.WriteString("A task sleeps for a random time and reports how long it took. ")
	fmt.Fprintf(&b, "Entries slower than the threshold end in `%s`; interrupted tasks show `%s`.\n\n",
		strings.TrimSpace(tasks.SlowMarker), tasks.SentinelName)

	for _, p := range tasks.Policies() {
		fmt.Fprintf(&b, "- **%s**: %s\n", p, p.Description())
	}
	b.WriteString("\n")

	b.WriteString("## Clearing during a run\n\n")
	b.WriteString("Clearing empties the log but does not stop runs in flight. ")
	b.WriteString("Results still on their way are appended after the clear, ")
	b.WriteString("and starting a new run while another is delivering interleaves both in one log.\n")
	return b.String()
}

// HelpMarkdown renders the key map as a markdown table followed by the
// policy guide.
func HelpMarkdown(keys KeyMap) string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	b.WriteString("| Key | Action |\n")
	b.WriteString("|-----|--------|\n")
	for _, group := range keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	b.WriteString("\n")
	b.WriteString(PolicyGuide())
	return b.String()
}
