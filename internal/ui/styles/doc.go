// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the fanout TUI.

All colors use Lip Gloss AdaptiveColor so the palette follows the terminal's
light or dark background. A Theme can also be forced to one side through the
ui.theme config key.

# Color System (colors.go)

  - Purple - Header brand and policy badges
  - Cyan - Run IDs, key hints, informational text
  - Emerald - Completed runs and fast results
  - Amber - Slow results and in-flight runs
  - Rose - Interrupted tasks and errors

StatusIndicators give each state an ASCII shape as well as a color.

# Theme (theme.go)

	theme := styles.NewTheme("auto")
	theme.SetSize(width, height)
	row := theme.EntryStyle(entry).Render(entry)
*/
package styles
