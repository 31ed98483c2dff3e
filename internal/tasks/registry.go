// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// =============================================================================
// RUN REGISTRY
// =============================================================================

// Registry keeps track of started runs so front ends can see overlapping runs
// and be told when one finishes.
type Registry struct {
	// runs is the list of all tracked runs, oldest first
	runs []*Run

	// maxHistory is the maximum number of finished runs to keep (0 = unlimited)
	maxHistory int

	mu sync.RWMutex

	// notifyChan sends notifications when runs finish (nil = disabled)
	notifyChan chan RunNotification

	logger *log.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithoutNotifications disables the notification channel, for front ends
// that never read it.
func WithoutNotifications() RegistryOption {
	return func(g *Registry) {
		g.notifyChan = nil
	}
}

// WithRegistryLogger sets where dropped notifications are reported.
func WithRegistryLogger(l *log.Logger) RegistryOption {
	return func(g *Registry) {
		if l != nil {
			g.logger = l
		}
	}
}

// RunNotification reports that a run has finished delivering.
type RunNotification struct {
	RunID    string
	Policy   Policy
	Status   RunStatus
	Produced int
	Duration time.Duration
}

// NewRegistry creates a registry that keeps at most maxHistory finished runs.
func NewRegistry(maxHistory int, opts ...RegistryOption) *Registry {
	g := &Registry{
		runs:       make([]*Run, 0),
		maxHistory: maxHistory,
		notifyChan: make(chan RunNotification, 100),
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// add starts tracking a run.
func (g *Registry) add(run *Run) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runs = append(g.runs, run)
}

// complete marks a tracked run finished and publishes a notification.
func (g *Registry) complete(run *Run, status RunStatus) {
	run.finish(status)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.notify(RunNotification{
		RunID:    run.ID(),
		Policy:   run.Policy(),
		Status:   status,
		Produced: run.Produced(),
		Duration: run.Elapsed(),
	})
	g.cleanupLocked()
}

// =============================================================================
// QUERIES
// =============================================================================

// Get returns the tracked run with the given ID, or nil.
func (g *Registry) Get(id string) *Run {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, run := range g.runs {
		if run.ID() == id {
			return run
		}
	}
	return nil
}

// All returns every tracked run, oldest first.
func (g *Registry) All() []*Run {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Run(nil), g.runs...)
}

// Active returns the runs that are still delivering results.
func (g *Registry) Active() []*Run {
	g.mu.RLock()
	defer g.mu.RUnlock()
	result := make([]*Run, 0)
	for _, run := range g.runs {
		if !run.IsComplete() {
			result = append(result, run)
		}
	}
	return result
}

// ActiveCount returns the number of runs still delivering results.
func (g *Registry) ActiveCount() int {
	return len(g.Active())
}

// =============================================================================
// NOTIFICATIONS
// =============================================================================

// Notifications returns the channel on which finished runs are announced.
// It is nil, and so never ready, when notifications are disabled.
func (g *Registry) Notifications() <-chan RunNotification {
	return g.notifyChan
}

// notify sends a notification (must be called with lock held).
func (g *Registry) notify(n RunNotification) {
	if g.notifyChan == nil {
		return
	}
	select {
	case g.notifyChan <- n:
	default:
		g.logger.Printf("WARNING: Notification channel full, dropped notification for run %s (status: %s)",
			n.RunID, n.Status)
	}
}

// =============================================================================
// CLEANUP
// =============================================================================

// cleanupLocked drops the oldest finished runs beyond maxHistory.
// Must be called with lock held.
func (g *Registry) cleanupLocked() {
	if g.maxHistory <= 0 {
		return
	}

	finished := 0
	for _, run := range g.runs {
		if run.IsComplete() {
			finished++
		}
	}
	if finished <= g.maxHistory {
		return
	}

	toRemove := finished - g.maxHistory
	kept := make([]*Run, 0, len(g.runs)-toRemove)
	for _, run := range g.runs {
		if run.IsComplete() && toRemove > 0 {
			toRemove--
			continue
		}
		kept = append(kept, run)
	}
	g.runs = kept
}

// =============================================================================
// FORMATTING
// =============================================================================

// Summary returns a formatted summary of tracked runs.
func (g *Registry) Summary() string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	running, complete, canceled := 0, 0, 0
	for _, run := range g.runs {
		switch run.Status() {
		case RunStatusRunning:
			running++
		case RunStatusComplete:
			complete++
		case RunStatusCanceled:
			canceled++
		}
	}

	return fmt.Sprintf("Running: %d | Complete: %d | Canceled: %d", running, complete, canceled)
}
