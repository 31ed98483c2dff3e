// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the headless commands of
// fanout.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed arguments with global flags and a per-command ArgParser
//   - Session: A result log, its owner goroutine and a runner wired from config
//
// # Usage
//
//	cmd, args := cli.Parse(os.Args[1:])
//	if cmd == cli.CmdTUI {
//	    return runTUI()
//	}
//	return cli.Dispatch(cmd, args)
//
// # Commands Overview
//
//   - run: One headless batch, entries printed as the owner appends them
//   - shell: Line-mode REPL over a single log
//   - config: show, path, init, get, validate
//   - history: list, show, export, clear over the SQLite journal
//   - explain: The policy guide as rendered markdown
//
// Commands that print data accept --json.
package cli
