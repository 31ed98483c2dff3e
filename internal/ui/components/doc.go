// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the UI components for the fanout TUI.

Components are plain structs with View methods, built on Bubble Tea, Bubbles
and Lip Gloss. None of them touch the result log directly: the model that
owns the log hands them snapshots.

# Display Components

Header (header.go) - Brand and the settings for the next run.
ResultList (result_list.go) - Numbered, scrollable view of the log.
StatusBar (statusbar.go) - Run policy, ID, progress, status and shortcuts.
Spinner (spinner.go) - In-flight indicator.

# Support

KeyMap (keys.go) - Key bindings with help text.
RenderMarkdown, HelpMarkdown, PolicyGuide (markdown.go) - Glamour rendering.
Highlight, HighlightTOML (highlight.go) - Chroma syntax highlighting.
CopyEntries (clipboard.go) - Copy the log to the system clipboard.
*/
package components
