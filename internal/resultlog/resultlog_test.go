// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resultlog

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestLogAppendClear(t *testing.T) {
	l := New()
	if l.Len() != 0 {
		t.Fatalf("New log should be empty, got %d", l.Len())
	}

	l.Clear()
	if l.Version() != 0 {
		t.Error("Clearing an empty log should not change its version")
	}

	l.Append("Task1")
	l.Append("Task2 (slow)")
	if l.Len() != 2 || l.At(1) != "Task2 (slow)" {
		t.Errorf("Unexpected entries: %v", l.Entries())
	}
	if l.String() != "Task1\nTask2 (slow)" {
		t.Errorf("Unexpected String(): %q", l.String())
	}

	snapshot := l.Entries()
	snapshot[0] = "mutated"
	if l.At(0) != "Task1" {
		t.Error("Entries should return a copy")
	}

	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Clear should empty the log, got %d", l.Len())
	}
	l.Clear()
	if l.Len() != 0 {
		t.Error("Second clear should be a no-op")
	}

	var nilLog *Log
	nilLog.Clear()
	if nilLog.Len() != 0 {
		t.Error("Nil log should report zero length")
	}
}

func TestOwnerRunsInPostOrder(t *testing.T) {
	o := NewOwner(4)
	o.Start()
	defer o.Close()

	l := New()
	for _, name := range []string{"Task1", "Task2", "Task3", "Task4", "Task5", "Task6"} {
		entry := name
		o.Post(func() { l.Append(entry) })
	}

	var got []string
	if err := o.Do(func() { got = l.Entries() }); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	want := "Task1,Task2,Task3,Task4,Task5,Task6"
	if strings.Join(got, ",") != want {
		t.Errorf("Expected %s, got %v", want, got)
	}
}

func TestOwnerPostDoesNotWait(t *testing.T) {
	o := NewOwner(2)
	o.Start()
	defer o.Close()

	release := make(chan struct{})
	o.Post(func() { <-release })

	// The owner is busy; Post must still return.
	ran := make(chan struct{})
	o.Post(func() { close(ran) })

	select {
	case <-ran:
		t.Fatal("Second function ran before the first finished")
	default:
	}
	close(release)
	<-ran
}

func TestOwnerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	o := NewOwner(1)
	o.SetLogger(log.New(&buf, "", 0))
	o.Start()
	defer o.Close()

	if err := o.Do(func() { panic("bad append") }); err != nil {
		t.Fatalf("Do returned %v", err)
	}
	if !strings.Contains(buf.String(), "bad append") {
		t.Errorf("Panic should be logged, got %q", buf.String())
	}

	ok := false
	if err := o.Do(func() { ok = true }); err != nil || !ok {
		t.Error("Owner should keep running after a panic")
	}
}

func TestOwnerClose(t *testing.T) {
	o := NewOwner(8)
	o.Start()

	l := New()
	for i := 0; i < 5; i++ {
		o.Post(func() { l.Append("x") })
	}
	o.Close()
	o.Close()

	if l.Len() != 5 {
		t.Errorf("Close should drain queued work, got %d entries", l.Len())
	}
	if err := o.TryPost(func() {}); err != ErrOwnerClosed {
		t.Errorf("Expected ErrOwnerClosed, got %v", err)
	}
	if err := o.Do(func() {}); err != ErrOwnerClosed {
		t.Errorf("Expected ErrOwnerClosed from Do, got %v", err)
	}
}

func TestOwnerCloseWithoutStart(t *testing.T) {
	o := NewOwner(4)
	ran := false
	o.Post(func() { ran = true })
	o.Close()
	if !ran {
		t.Error("Close should run queued work even if the owner never started")
	}
}

func TestOwnerFullQueueBeforeStart(t *testing.T) {
	o := NewOwner(1)
	l := New()
	if err := o.TryPost(func() { l.Append("first") }); err != nil {
		t.Fatalf("First post should fit, got %v", err)
	}
	if err := o.TryPost(func() { l.Append("second") }); err != ErrQueueFull {
		t.Errorf("Expected ErrQueueFull, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		o.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close should not deadlock after a rejected post")
	}
	if l.String() != "first" {
		t.Errorf("Expected only the queued entry, got %q", l.String())
	}
}
