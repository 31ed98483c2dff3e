// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir for the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FANOUT_HOME", dir)
	return dir
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and Load()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()

		go func() {
			defer wg.Done()
			if cfg, err := Load(); err == nil {
				SetGlobal(cfg)
			}
		}()
	}
	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly initializes
// the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}
	if cfg.Run.TaskCount != 10 {
		t.Errorf("Expected default task count 10, got %d", cfg.Run.TaskCount)
	}

	custom := Default()
	custom.Version = "custom-version"
	SetGlobal(custom)
	if Global().Version != "custom-version" {
		t.Errorf("Expected version 'custom-version', got '%s'", Global().Version)
	}
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()

	require.Equal(t, 10, cfg.Run.TaskCount)
	require.Equal(t, int64(500), cfg.Run.SlowThresholdMs)
	require.Equal(t, int64(1000), cfg.Run.MaxSleepMs)
	require.Equal(t, "reactive", cfg.Run.DefaultPolicy)
	require.Equal(t, 64, cfg.Owner.QueueSize)
	require.True(t, cfg.Diagnostics.Enabled)
	require.False(t, cfg.History.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"negative tasks", func(c *Config) { c.Run.TaskCount = -1 }, "run.task_count"},
		{"negative threshold", func(c *Config) { c.Run.SlowThresholdMs = -5 }, "run.slow_threshold_ms"},
		{"zero max sleep", func(c *Config) { c.Run.MaxSleepMs = 0 }, "run.max_sleep_ms"},
		{"bad policy", func(c *Config) { c.Run.DefaultPolicy = "sideways" }, "run.default_policy"},
		{"negative pool", func(c *Config) { c.Run.PoolSize = -2 }, "run.pool_size"},
		{"negative rate", func(c *Config) { c.Run.RateLimit = -1 }, "run.rate_limit"},
		{"zero burst", func(c *Config) { c.Run.RateBurst = 0 }, "run.rate_burst"},
		{"zero queue", func(c *Config) { c.Owner.QueueSize = 0 }, "owner.queue_size"},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs), "expected ValidateErrors, got %v", err)
			require.Len(t, verrs, 1)
			require.Equal(t, tt.field, verrs[0].Field)
		})
	}

	cfg := Default()
	cfg.Run.SlowThresholdMs = 0
	require.NoError(t, cfg.Validate(), "a zero threshold marks everything above 0 ms slow")
}

func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("FANOUT_TASKS", "25")
	t.Setenv("FANOUT_THRESHOLD_MS", "250")
	t.Setenv("FANOUT_POLICY", "offload")
	t.Setenv("FANOUT_POOL_SIZE", "not-a-number")
	t.Setenv("FANOUT_HISTORY", "true")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, 25, cfg.Run.TaskCount)
	require.Equal(t, int64(250), cfg.Run.SlowThresholdMs)
	require.Equal(t, "offload", cfg.Run.DefaultPolicy)
	require.Equal(t, 0, cfg.Run.PoolSize, "unparseable override should be ignored")
	require.True(t, cfg.History.Enabled)
}

func TestConfig_LoadTOMLKeepsUnsetDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	data := "[run]\ntask_count = 4\nslow_threshold_ms = 0\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Run.TaskCount)
	require.Equal(t, int64(0), cfg.Run.SlowThresholdMs)
	require.Equal(t, int64(1000), cfg.Run.MaxSleepMs)
	require.Equal(t, "reactive", cfg.Run.DefaultPolicy)
	require.True(t, cfg.Diagnostics.Enabled)
}

func TestConfig_LoadInvalidFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[run]\ndefault_policy = \"sideways\"\n"), 0644))

	cfg, err := Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	require.Equal(t, "reactive", cfg.Run.DefaultPolicy)
}

func TestConfig_SaveAndLoad(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.Run.TaskCount = 12
	cfg.History.Enabled = true
	require.NoError(t, Save(cfg))

	data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	require.Contains(t, string(data), "# fanout configuration file")

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, 12, loaded.Run.TaskCount)
	require.True(t, loaded.History.Enabled)

	jsonPath := filepath.Join(dir, "alt.json")
	require.NoError(t, SaveJSON(cfg, jsonPath))
	fromJSON, err := LoadFromPath(jsonPath)
	require.NoError(t, err)
	require.Equal(t, 12, fromJSON.Run.TaskCount)
}

func TestConfig_Get(t *testing.T) {
	cfg := Default()

	v, err := cfg.Get("run.slow_threshold_ms")
	require.NoError(t, err)
	require.Equal(t, int64(500), v)

	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		require.NoError(t, err, key)
	}

	_, err = cfg.Get("run.nope")
	require.Error(t, err)
	_, err = cfg.Get("version.deeper")
	require.Error(t, err)
	_, err = cfg.Get("")
	require.Error(t, err)
}

func TestConfig_Paths(t *testing.T) {
	dir := isolate(t)
	cfg := Default()

	logPath, err := cfg.LogFilePath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "fanout.log"), logPath)

	cfg.History.Path = "/tmp/elsewhere.db"
	histPath, err := cfg.HistoryPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/elsewhere.db", histPath)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[run]\ntask_count = 3\n"), 0644))

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(c *Config) { changes <- c })
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)
	require.NoError(t, w.Watch())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("[run]\ntask_count = 7\n"), 0644))

	select {
	case cfg := <-changes:
		require.Equal(t, 7, cfg.Run.TaskCount)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}
