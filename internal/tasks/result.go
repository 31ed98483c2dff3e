// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"strings"
)

// =============================================================================
// RESULT
// =============================================================================

const (
	// SlowMarker is appended to the name of a result above the threshold.
	SlowMarker = " (slow)"

	// SentinelName is the name carried by the result of an interrupted task.
	SentinelName = "-"

	// DefaultThresholdMillis is the latency above which a result is slow.
	DefaultThresholdMillis int64 = 500
)

// Result is the outcome of one task. It is a value type; classification
// returns a new Result rather than modifying the receiver.
type Result struct {
	Name          string `json:"name"`
	ElapsedMillis int64  `json:"elapsed_ms"`
}

// Sentinel returns the result substituted for an interrupted task.
func Sentinel() Result {
	return Result{Name: SentinelName, ElapsedMillis: 0}
}

// IsSentinel reports whether r is the interruption sentinel.
func (r Result) IsSentinel() bool {
	return r == Sentinel()
}

// IsSlow reports whether r has been marked slow by Classify.
func (r Result) IsSlow() bool {
	return strings.HasSuffix(r.Name, SlowMarker)
}

// Display returns the text shown in the result log.
func (r Result) Display() string {
	return r.Name
}

// String returns a debugging representation of the result.
func (r Result) String() string {
	return fmt.Sprintf("%s (%d ms)", r.Name, r.ElapsedMillis)
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify marks r slow when its elapsed time is strictly greater than
// thresholdMillis. A result exactly at the threshold is left unmarked.
func Classify(r Result, thresholdMillis int64) Result {
	if r.ElapsedMillis > thresholdMillis {
		return Result{Name: r.Name + SlowMarker, ElapsedMillis: r.ElapsedMillis}
	}
	return r
}
