// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"time"

	"github.com/jeranaias/fanout-tui/internal/history"
	"github.com/jeranaias/fanout-tui/internal/tasks"
)

// =============================================================================
// REPORT
// =============================================================================

// Report is the exportable view of one run: its metadata, the log entries in
// the order the owner appended them, and the results in production order.
type Report struct {
	RunID         string         `json:"run_id"`
	Policy        string         `json:"policy"`
	Status        string         `json:"status"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at,omitempty"`
	TaskCount     int            `json:"task_count"`
	ThresholdMs   int64          `json:"threshold_ms"`
	SlowCount     int            `json:"slow_count"`
	SentinelCount int            `json:"sentinel_count"`
	Entries       []string       `json:"entries"`
	Results       []tasks.Result `json:"results,omitempty"`
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// NewReport builds a report from a run and a snapshot of the log taken on the
// owner goroutine.
func NewReport(run *tasks.Run, entries []string) *Report {
	if run == nil {
		return &Report{Entries: append([]string{}, entries...)}
	}
	return &Report{
		RunID:         run.ID(),
		Policy:        run.Policy().String(),
		Status:        run.Status().String(),
		StartedAt:     run.StartedAt(),
		FinishedAt:    run.FinishedAt(),
		TaskCount:     run.TaskCount(),
		ThresholdMs:   run.Threshold(),
		SlowCount:     run.SlowCount(),
		SentinelCount: run.SentinelCount(),
		Entries:       append([]string{}, entries...),
		Results:       run.Results(),
	}
}

// FromRecord builds a report from a journal record.
func FromRecord(rec history.Record) *Report {
	return &Report{
		RunID:         rec.ID,
		Policy:        rec.Policy,
		Status:        rec.Status,
		StartedAt:     rec.StartedAt,
		FinishedAt:    rec.FinishedAt,
		TaskCount:     rec.TaskCount,
		ThresholdMs:   rec.ThresholdMs,
		SlowCount:     rec.SlowCount,
		SentinelCount: rec.SentinelCount,
		Entries:       append([]string{}, rec.Entries...),
	}
}
