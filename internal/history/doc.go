// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history is an opt-in SQLite journal of finished runs.
//
// It records what the result log looked like when each run finished. The
// journal is write-only from the runner's point of view and never feeds a
// later run.
//
// # Usage
//
//	store, err := history.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := history.FromRun(run, entries)
//	err = store.Record(ctx, rec)
package history
