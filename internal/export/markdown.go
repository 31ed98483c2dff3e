// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports reports to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a report to Markdown.
func (e *MarkdownExporter) Export(report *Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("run: %s\n", escapeYAML(report.RunID)))
		sb.WriteString(fmt.Sprintf("policy: %s\n", escapeYAML(report.Policy)))
		sb.WriteString(fmt.Sprintf("status: %s\n", escapeYAML(report.Status)))
		if !report.StartedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("started: %s\n", report.StartedAt.Format(time.RFC3339)))
		}
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: fanout\n")
		sb.WriteString("---\n\n")
	}

	title := "Run"
	if report.Policy != "" {
		title = fmt.Sprintf("Run %s (%s)", shortID(report.RunID), report.Policy)
	}
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(title)))

	if e.options.IncludeMetadata {
		sb.WriteString("## Summary\n\n")
		sb.WriteString(fmt.Sprintf("- **Tasks**: %d\n", report.TaskCount))
		sb.WriteString(fmt.Sprintf("- **Slow threshold**: %dms\n", report.ThresholdMs))
		sb.WriteString(fmt.Sprintf("- **Slow**: %d\n", report.SlowCount))
		sb.WriteString(fmt.Sprintf("- **Interrupted**: %d\n", report.SentinelCount))
		sb.WriteString(fmt.Sprintf("- **Started**: %s\n", formatTimestamp(report.StartedAt)))
		if d := report.Duration(); d > 0 {
			sb.WriteString(fmt.Sprintf("- **Duration**: %s\n", formatDuration(d)))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Log\n\n")
	if len(report.Entries) == 0 {
		sb.WriteString("*The log was empty.*\n\n")
	}
	for i, entry := range report.Entries {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, escapeMarkdown(entry)))
	}
	if len(report.Entries) > 0 {
		sb.WriteString("\n")
	}

	if e.options.IncludeResults && len(report.Results) > 0 {
		sb.WriteString("## Results in production order\n\n")
		sb.WriteString("| # | Task | Elapsed |\n")
		sb.WriteString("|---|------|---------|\n")
		for i, res := range report.Results {
			sb.WriteString(fmt.Sprintf("| %d | %s | %dms |\n", i+1, escapeTableCell(res.Name), res.ElapsedMillis))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from fanout on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	if s == "-" {
		return "\\-"
	}
	return s
}

// escapeTableCell keeps pipes from splitting a table cell.
func escapeTableCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
