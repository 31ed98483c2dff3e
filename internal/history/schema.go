// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

// Schema creates the journal tables.
const Schema = `
-- One row per finished run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    policy TEXT NOT NULL,
    started_at INTEGER NOT NULL,   -- Unix milliseconds
    finished_at INTEGER NOT NULL,  -- Unix milliseconds
    status TEXT NOT NULL,
    task_count INTEGER NOT NULL,
    threshold_ms INTEGER NOT NULL,
    slow_count INTEGER NOT NULL,
    sentinel_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);

-- Log entries as the owner held them when the run finished
CREATE TABLE IF NOT EXISTS run_entries (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    entry TEXT NOT NULL,
    PRIMARY KEY (run_id, position),
    FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
) WITHOUT ROWID;
`
