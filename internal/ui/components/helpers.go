// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/fanout-tui/internal/tasks"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// isSentinelEntry reports whether a display string is the interrupted marker.
func isSentinelEntry(entry string) bool {
	return entry == tasks.SentinelName
}

// isSlowEntry reports whether a display string carries the slow marker.
func isSlowEntry(entry string) bool {
	return strings.HasSuffix(entry, tasks.SlowMarker)
}

// formatElapsed formats a run duration for the status bar.
func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return "0.0s"
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
