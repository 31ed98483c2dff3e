// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for fanout.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation, and reloading on change.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - RunConfig: Task count, slow threshold, sleep bound, pool and rate limit
//   - HistoryConfig: Optional SQLite run journal
//   - Watcher: Reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (FANOUT_*)
//   - ~/.fanout/config.toml
//   - ~/.fanout/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Printf("Warning: %v", err)
//	}
//
// Access settings:
//
//	n := cfg.Run.TaskCount
//	threshold := cfg.Run.SlowThresholdMs
package config
