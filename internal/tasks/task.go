// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"errors"
	"strconv"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownPolicy is returned when a run is started with an invalid policy.
	ErrUnknownPolicy = errors.New("unknown execution policy")

	// ErrTaskPanic wraps a panic recovered from inside a task.
	ErrTaskPanic = errors.New("task panicked")
)

// =============================================================================
// TASK IDENTITY
// =============================================================================

// TaskName returns the name of task i.
func TaskName(i int) string {
	return "Task" + strconv.Itoa(i)
}

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome is what a single task attempt produced: either Completed or
// Interrupted.
type Outcome interface {
	outcome()
}

// Completed carries the result of a task that slept to the end.
type Completed struct {
	Result Result
}

// Interrupted records a task whose sleep was cut short or that panicked.
type Interrupted struct {
	Name  string
	Cause error
}

func (Completed) outcome()   {}
func (Interrupted) outcome() {}

// Error implements error so an Interrupted can be logged or wrapped directly.
func (i Interrupted) Error() string {
	if i.Cause == nil {
		return i.Name + " interrupted"
	}
	return i.Name + " interrupted: " + i.Cause.Error()
}

// Unwrap returns the interruption cause.
func (i Interrupted) Unwrap() error {
	return i.Cause
}

// Collapse turns an Outcome into the Result delivered downstream.
// Interruption never propagates: it becomes the sentinel.
func Collapse(o Outcome) Result {
	switch v := o.(type) {
	case Completed:
		return v.Result
	default:
		return Sentinel()
	}
}
