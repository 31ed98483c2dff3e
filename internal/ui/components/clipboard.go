// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrNothingToCopy is returned when the log is empty.
var ErrNothingToCopy = errors.New("log is empty")

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// CopyEntries copies the log to the system clipboard, one entry per line.
func CopyEntries(entries []string) error {
	if len(entries) == 0 {
		return ErrNothingToCopy
	}
	return writeClipboard(strings.Join(entries, "\n") + "\n")
}

// ClipboardAvailable reports whether a clipboard backend exists.
func ClipboardAvailable() bool {
	return !clipboard.Unsupported
}
