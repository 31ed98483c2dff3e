// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package resultlog holds the ordered list of result strings and the owner
// goroutine that is allowed to change it.
//
// Log is deliberately unsynchronized. Every mutation must happen on the
// owner: the bubbletea Update loop in the TUI, or an Owner goroutine in
// headless and line-mode front ends. Other goroutines hand work to the
// owner with Post and never touch the Log directly.
//
// # Key Types
//
//   - Log: Append-only list of display strings with Clear
//   - Owner: Dedicated goroutine that runs posted functions in FIFO order
package resultlog
