// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resultlog

import "strings"

// Log is an ordered sequence of display strings. It has no lock; only the
// owner goroutine may call its methods.
type Log struct {
	entries []string
	version uint64
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Append adds entry to the end of the log.
func (l *Log) Append(entry string) {
	l.entries = append(l.entries, entry)
	l.version++
}

// Clear removes every entry. Clearing an empty or nil log does nothing.
func (l *Log) Clear() {
	if l == nil || len(l.entries) == 0 {
		return
	}
	l.entries = nil
	l.version++
}

// Len returns the number of entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// At returns entry i.
func (l *Log) At(i int) string {
	return l.entries[i]
}

// Entries returns a copy of the entries, safe to hand to other goroutines.
func (l *Log) Entries() []string {
	if l == nil {
		return nil
	}
	return append([]string(nil), l.entries...)
}

// Version increases on every change, letting views skip redundant redraws.
func (l *Log) Version() uint64 {
	if l == nil {
		return 0
	}
	return l.version
}

// String joins the entries with newlines.
func (l *Log) String() string {
	return strings.Join(l.Entries(), "\n")
}
