// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/fanout-tui/internal/ui/components"
)

// HandleExplain prints the policy guide, rendered with glamour when stdout
// is a terminal and as plain markdown otherwise.
func HandleExplain(args Args) error {
	guide := components.PolicyGuide()
	if args.JSON {
		return NewJSONResponse("explain", map[string]string{"markdown": guide}).Write(args.Out())
	}
	if args.Stdout == nil && IsStdoutTTY() {
		style := ""
		if !ColorsEnabled() {
			style = "notty"
		}
		fmt.Fprint(args.Out(), components.RenderMarkdown(guide, GetTerminalWidth()-4, style))
		return nil
	}
	fmt.Fprint(args.Out(), guide)
	return nil
}
