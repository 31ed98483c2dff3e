// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for fanout.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.fanout/config.toml
//   - ~/.fanout/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/fanout-tui/internal/tasks"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete fanout configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Run holds the batch parameters
	Run RunConfig `toml:"run" json:"run"`

	// Owner configures the headless owner goroutine
	Owner OwnerConfig `toml:"owner" json:"owner"`

	// Diagnostics configures the per-task diagnostic log
	Diagnostics DiagnosticsConfig `toml:"diagnostics" json:"diagnostics"`

	// History configures the optional run journal
	History HistoryConfig `toml:"history" json:"history"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// RunConfig contains the parameters of a batch.
type RunConfig struct {
	// TaskCount is the number of tasks per run (N)
	TaskCount int `toml:"task_count" json:"task_count"`
	// SlowThresholdMs marks results whose elapsed time is strictly greater
	SlowThresholdMs int64 `toml:"slow_threshold_ms" json:"slow_threshold_ms"`
	// MaxSleepMs is the exclusive upper bound of each task's random sleep
	MaxSleepMs int64 `toml:"max_sleep_ms" json:"max_sleep_ms"`
	// DefaultPolicy is used by `fanout run` when --policy is omitted
	DefaultPolicy string `toml:"default_policy" json:"default_policy"`
	// PoolSize bounds fan-out concurrency (0 = number of CPUs)
	PoolSize int `toml:"pool_size" json:"pool_size"`
	// RateLimit throttles fan-out dispatch in tasks per second (0 = unlimited)
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
	// RateBurst is the limiter burst size
	RateBurst int `toml:"rate_burst" json:"rate_burst"`
}

// OwnerConfig contains owner queue settings.
type OwnerConfig struct {
	// QueueSize is how many posted appends may wait before Post blocks
	QueueSize int `toml:"queue_size" json:"queue_size"`
}

// DiagnosticsConfig controls the "<name> took <n> ms" lines.
type DiagnosticsConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// LogFile receives diagnostics while the TUI owns the terminal
	// (empty = ~/.fanout/fanout.log)
	LogFile string `toml:"log_file" json:"log_file"`
}

// HistoryConfig controls the SQLite run journal.
type HistoryConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path of the database (empty = ~/.fanout/history.db)
	Path string `toml:"path" json:"path"`
	// MaxRecords prunes older runs beyond this count (0 = keep all)
	MaxRecords int `toml:"max_records" json:"max_records"`
}

// UIConfig contains TUI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
	// WatchConfig reloads the config file when it changes
	WatchConfig bool `toml:"watch_config" json:"watch_config"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Run: RunConfig{
			TaskCount:       tasks.DefaultTaskCount,
			SlowThresholdMs: tasks.DefaultThresholdMillis,
			MaxSleepMs:      tasks.DefaultMaxSleep.Milliseconds(),
			DefaultPolicy:   tasks.ReactiveFanOut.String(),
			PoolSize:        0,
			RateLimit:       0,
			RateBurst:       1,
		},
		Owner: OwnerConfig{
			QueueSize: 64,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: true,
		},
		History: HistoryConfig{
			Enabled:    false,
			MaxRecords: 200,
		},
		UI: UIConfig{
			Theme:       "auto",
			WatchConfig: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the fanout configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("FANOUT_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fanout"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// LogFilePath returns the diagnostics log path, resolving the default.
func (c *Config) LogFilePath() (string, error) {
	if c.Diagnostics.LogFile != "" {
		return c.Diagnostics.LogFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "fanout.log"), nil
}

// HistoryPath returns the history database path, resolving the default.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			cfg, err := LoadFromPath(tomlPath)
			if err == nil {
				return cfg, nil
			}
			loadErr = fmt.Errorf("failed to load TOML config: %w", err)
		}
	}

	if loadErr == nil {
		if jsonPath, err := ConfigPathJSON(); err == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				cfg, err := LoadFromPath(jsonPath)
				if err == nil {
					return cfg, nil
				}
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			}
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid environment overrides: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
// Numeric fields where zero is meaningful (threshold, pool size, rate limit)
// are left alone.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.Run.TaskCount == 0 {
		cfg.Run.TaskCount = defaults.Run.TaskCount
	}
	if cfg.Run.MaxSleepMs == 0 {
		cfg.Run.MaxSleepMs = defaults.Run.MaxSleepMs
	}
	if cfg.Run.DefaultPolicy == "" {
		cfg.Run.DefaultPolicy = defaults.Run.DefaultPolicy
	}
	if cfg.Run.RateBurst == 0 {
		cfg.Run.RateBurst = defaults.Run.RateBurst
	}

	if cfg.Owner.QueueSize == 0 {
		cfg.Owner.QueueSize = defaults.Owner.QueueSize
	}

	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# fanout configuration file\n")
	b.WriteString("# Generated by fanout - edit with care\n")
	b.WriteString("\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// TOML returns the configuration encoded as TOML.
func (c *Config) TOML() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return b.String(), nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Run.TaskCount < 1 {
		errs = append(errs, ValidationError{
			Field:   "run.task_count",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Run.TaskCount),
		})
	}
	if c.Run.SlowThresholdMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "run.slow_threshold_ms",
			Message: fmt.Sprintf("must not be negative, got %d", c.Run.SlowThresholdMs),
		})
	}
	if c.Run.MaxSleepMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "run.max_sleep_ms",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Run.MaxSleepMs),
		})
	}
	if _, err := tasks.ParsePolicy(c.Run.DefaultPolicy); err != nil {
		errs = append(errs, ValidationError{
			Field:   "run.default_policy",
			Message: fmt.Sprintf("must be blocking, offload or reactive, got %q", c.Run.DefaultPolicy),
		})
	}
	if c.Run.PoolSize < 0 {
		errs = append(errs, ValidationError{
			Field:   "run.pool_size",
			Message: fmt.Sprintf("must not be negative, got %d", c.Run.PoolSize),
		})
	}
	if c.Run.RateLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "run.rate_limit",
			Message: fmt.Sprintf("must not be negative, got %g", c.Run.RateLimit),
		})
	}
	if c.Run.RateBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "run.rate_burst",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Run.RateBurst),
		})
	}

	if c.Owner.QueueSize < 1 {
		errs = append(errs, ValidationError{
			Field:   "owner.queue_size",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Owner.QueueSize),
		})
	}

	if c.History.MaxRecords < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.max_records",
			Message: fmt.Sprintf("must not be negative, got %d", c.History.MaxRecords),
		})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("must be auto, dark or light, got %q", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Policy returns the parsed default policy.
func (c *Config) Policy() tasks.Policy {
	p, err := tasks.ParsePolicy(c.Run.DefaultPolicy)
	if err != nil {
		return tasks.ReactiveFanOut
	}
	return p
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies FANOUT_* environment variables. Unparseable
// numbers are ignored so a typo never hides the file's setting.
func (c *Config) ApplyEnvOverrides() {
	if n, ok := envInt("FANOUT_TASKS"); ok {
		c.Run.TaskCount = n
	}
	if n, ok := envInt("FANOUT_THRESHOLD_MS"); ok {
		c.Run.SlowThresholdMs = int64(n)
	}
	if n, ok := envInt("FANOUT_MAX_SLEEP_MS"); ok {
		c.Run.MaxSleepMs = int64(n)
	}
	if policy := os.Getenv("FANOUT_POLICY"); policy != "" {
		c.Run.DefaultPolicy = policy
	}
	if n, ok := envInt("FANOUT_POOL_SIZE"); ok {
		c.Run.PoolSize = n
	}
	if history := os.Getenv("FANOUT_HISTORY"); history != "" {
		c.History.Enabled = history == "1" || strings.ToLower(history) == "true"
	}
	if logFile := os.Getenv("FANOUT_LOG_FILE"); logFile != "" {
		c.Diagnostics.LogFile = logFile
	}
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

// =============================================================================
// KEY ACCESS
// =============================================================================

// Get returns the value at a dot-notation key such as "run.task_count".
func (c *Config) Get(key string) (interface{}, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName turns "slow_threshold_ms" into "SlowThresholdMs".
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// GetAllKeys lists every key accepted by Get.
func GetAllKeys() []string {
	return []string{
		"version",
		"run.task_count",
		"run.slow_threshold_ms",
		"run.max_sleep_ms",
		"run.default_policy",
		"run.pool_size",
		"run.rate_limit",
		"run.rate_burst",
		"owner.queue_size",
		"diagnostics.enabled",
		"diagnostics.log_file",
		"history.enabled",
		"history.path",
		"history.max_records",
		"ui.theme",
		"ui.watch_config",
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the process-wide configuration, loading it on first use.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal replaces the global configuration.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting clears the global configuration so the next Global
// call loads it again.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
