// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"strings"
)

// =============================================================================
// EXECUTION POLICY
// =============================================================================

// Policy selects where tasks run and how their results reach the log owner.
type Policy int

const (
	// Blocking runs every task on the owner itself, in submission order.
	// The owner is unresponsive until the whole batch has finished.
	Blocking Policy = iota

	// ThreadOffload runs every task sequentially on one background goroutine
	// and posts each result to the owner as it is produced.
	ThreadOffload

	// ReactiveFanOut runs tasks concurrently on a bounded pool. A single
	// delivery stage posts results to the owner in completion order.
	ReactiveFanOut
)

// Policies returns every policy in declaration order.
func Policies() []Policy {
	return []Policy{Blocking, ThreadOffload, ReactiveFanOut}
}

// String returns the canonical policy name.
func (p Policy) String() string {
	switch p {
	case Blocking:
		return "blocking"
	case ThreadOffload:
		return "offload"
	case ReactiveFanOut:
		return "reactive"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Valid reports whether p is one of the declared policies.
func (p Policy) Valid() bool {
	return p >= Blocking && p <= ReactiveFanOut
}

// Description is a one-line explanation shown in help output.
func (p Policy) Description() string {
	switch p {
	case Blocking:
		return "run tasks one after another on the UI loop (freezes it)"
	case ThreadOffload:
		return "run tasks one after another on a background goroutine"
	case ReactiveFanOut:
		return "run tasks concurrently on a worker pool, completion order"
	default:
		return "unknown policy"
	}
}

// ParsePolicy accepts the canonical names and their common aliases.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocking", "block", "b":
		return Blocking, nil
	case "offload", "nonblocking", "non-blocking", "thread", "n":
		return ThreadOffload, nil
	case "reactive", "fanout", "fan-out", "rx", "r":
		return ReactiveFanOut, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}
