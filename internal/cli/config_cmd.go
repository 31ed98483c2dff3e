// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - `fanout config` subcommands.

package cli

import (
	"fmt"
	"os"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/ui/components"
)

// HandleConfig handles `fanout config [show|path|init|get|validate]`.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)
	case "path":
		return handleConfigPath(args)
	case "init":
		return handleConfigInit(args)
	case "get":
		return handleConfigGet(args)
	case "validate", "check":
		return handleConfigValidate(args)
	case "keys":
		for _, key := range config.GetAllKeys() {
			fmt.Fprintln(args.Out(), key)
		}
		return nil
	default:
		return NewUsageError(fmt.Sprintf("unknown config subcommand %q (show, path, init, get, validate, keys)", args.Subcommand))
	}
}

// handleConfigShow prints the effective configuration, highlighted on a TTY.
func handleConfigShow(args Args) error {
	cfg, err := args.LoadConfig()
	if err != nil {
		return NewCommandError("config", "show", "invalid configuration", err)
	}
	if args.JSON {
		return NewJSONResponse("config show", cfg).Write(args.Out())
	}

	text, err := cfg.TOML()
	if err != nil {
		return NewCommandError("config", "show", "cannot encode configuration", err)
	}
	if args.Stdout == nil && ColorsEnabled() {
		text = components.HighlightTOML(text)
	}
	fmt.Fprint(args.Out(), text)
	return nil
}

// handleConfigPath prints where the config file lives.
func handleConfigPath(args Args) error {
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", "path", "cannot resolve config directory", err)
	}
	jsonPath, err := config.ConfigPathJSON()
	if err != nil {
		return NewCommandError("config", "path", "cannot resolve config directory", err)
	}
	_, statErr := os.Stat(tomlPath)
	exists := statErr == nil

	if args.JSON {
		return NewJSONResponse("config path", ConfigPathData{
			TOML:   tomlPath,
			JSON:   jsonPath,
			Exists: exists,
		}).Write(args.Out())
	}
	fmt.Fprintln(args.Out(), tomlPath)
	return nil
}

// handleConfigInit writes the default configuration. An existing file is
// only replaced with --force.
func handleConfigInit(args Args) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return NewCommandError("config", "init", "cannot resolve config directory", err)
	}
	if _, err := os.Stat(path); err == nil && !args.Parser.BoolFlag("force") {
		return NewCommandError("config", "init", "config file already exists (use --force to overwrite)", nil)
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", "cannot write config file", err)
	}
	fmt.Fprintf(args.Out(), "Wrote %s\n", path)
	return nil
}

// handleConfigGet prints one value by dot-notation key.
func handleConfigGet(args Args) error {
	key := args.Parser.Positional(1)
	if key == "" {
		return ErrMissingArgument("KEY", "fanout config get run.task_count")
	}
	cfg, err := args.LoadConfig()
	if err != nil {
		return NewCommandError("config", "get", "invalid configuration", err)
	}
	value, err := cfg.Get(key)
	if err != nil {
		return NewUsageError(err.Error())
	}
	if args.JSON {
		return NewJSONResponse("config get", map[string]interface{}{key: value}).Write(args.Out())
	}
	fmt.Fprintln(args.Out(), value)
	return nil
}

// handleConfigValidate loads the config file with full validation.
func handleConfigValidate(args Args) error {
	path := args.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return NewCommandError("config", "validate", "cannot resolve config directory", err)
		}
		if _, err := os.Stat(path); err != nil {
			if jsonPath, jerr := config.ConfigPathJSON(); jerr == nil {
				if _, err := os.Stat(jsonPath); err == nil {
					path = jsonPath
				}
			}
		}
	}

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(args.Out(), "No config file at %s; defaults are in effect.\n", path)
		return nil
	}
	if _, err := config.LoadFromPath(path); err != nil {
		return NewCommandError("config", "validate", path, err)
	}
	fmt.Fprintf(args.Out(), "%s is valid.\n", path)
	return nil
}
