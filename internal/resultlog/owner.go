// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resultlog

import (
	"errors"
	"log"
	"sync"
)

// DefaultQueueSize is the owner queue capacity used when none is given.
const DefaultQueueSize = 64

var (
	// ErrOwnerClosed is returned when work is posted after Close.
	ErrOwnerClosed = errors.New("owner is closed")

	// ErrQueueFull is returned when an owner that has not been started has
	// no room left for more work.
	ErrQueueFull = errors.New("owner queue is full")
)

// =============================================================================
// OWNER
// =============================================================================

// Owner is a dedicated goroutine that runs posted functions one at a time,
// in the order they were posted. Whatever it runs may touch a Log.
type Owner struct {
	queue  chan func()
	done   chan struct{}
	logger *log.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewOwner creates an owner whose queue holds queueSize pending functions.
// Posting to a full queue blocks until the owner catches up.
func NewOwner(queueSize int) *Owner {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Owner{
		queue:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		logger: log.Default(),
	}
}

// SetLogger changes where recovered panics are reported.
func (o *Owner) SetLogger(l *log.Logger) {
	if l != nil {
		o.logger = l
	}
}

// Start launches the owner goroutine. Calling it twice has no effect.
func (o *Owner) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true
	go o.loop()
}

// loop drains the queue until Close.
func (o *Owner) loop() {
	defer close(o.done)
	for fn := range o.queue {
		o.run(fn)
	}
}

// run executes fn, containing any panic so the owner keeps serving.
func (o *Owner) run(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.Printf("WARNING: owner recovered from panic: %v", p)
		}
	}()
	fn()
}

// =============================================================================
// POSTING
// =============================================================================

// Post enqueues fn without waiting for it to run. Work posted after Close is
// dropped.
func (o *Owner) Post(fn func()) {
	if err := o.TryPost(fn); err != nil {
		o.logger.Printf("WARNING: dropped posted work: %v", err)
	}
}

// TryPost enqueues fn or reports ErrOwnerClosed. Once the owner is started a
// full queue blocks until it catches up; before Start nothing drains the
// queue, so a full queue reports ErrQueueFull instead.
func (o *Owner) TryPost(fn func()) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrOwnerClosed
	}
	if o.started {
		o.queue <- fn
		return nil
	}
	select {
	case o.queue <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do runs fn on the owner and waits for it to return. The owner must have
// been started, and Do must not be called from the owner goroutine itself.
func (o *Owner) Do(fn func()) error {
	finished := make(chan struct{})
	if err := o.TryPost(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	<-finished
	return nil
}

// Close stops accepting work, runs everything already queued, and waits for
// the owner goroutine to exit.
func (o *Owner) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		<-o.done
		return
	}
	o.closed = true
	started := o.started
	close(o.queue)
	o.mu.Unlock()

	if !started {
		for fn := range o.queue {
			o.run(fn)
		}
		close(o.done)
		return
	}
	<-o.done
}
