// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the fanout packages.
//
// # Key Functions
//
// Display:
//   - TruncateWidth, PadRight, StringWidth: Column-aware string layout
//   - FormatCount, FormatMillis: Numbers with thousands separators
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	row := util.PadRight(entry, 40)
//	err := util.AtomicWriteFile(path, data, 0644)
package util
