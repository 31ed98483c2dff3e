// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes run reports to files.
//
// # Key Types
//
//   - Report: A run's metadata plus the log entries and production-order results
//   - Exporter: Main export interface
//   - Options: Export configuration options
//
// # Supported Formats
//
//   - JSON: Machine-readable, every field
//   - Markdown: Human-readable summary, numbered log and result table
//
// # Usage
//
//	report := export.NewReport(run, entries)
//	path, err := export.ExportToFile(report, export.NewMarkdownExporter(nil), nil)
package export
