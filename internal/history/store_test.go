// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"bytes"
	"context"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/fanout-tui/internal/tasks"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id string, started time.Time, entries ...string) Record {
	return Record{
		ID:          id,
		Policy:      "reactive",
		StartedAt:   started,
		FinishedAt:  started.Add(900 * time.Millisecond),
		Status:      "Complete",
		TaskCount:   len(entries),
		ThresholdMs: 500,
		Entries:     entries,
	}
}

func TestStoreRecordAndGet(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	start := time.UnixMilli(1_700_000_000_000)

	rec := record("aaaa1111-run", start, "Task3", "Task1 (slow)", "-")
	rec.SlowCount = 1
	rec.SentinelCount = 1
	require.NoError(t, store.Record(ctx, rec))

	got, err := store.Get(ctx, "aaaa1111-run")
	require.NoError(t, err)
	require.Equal(t, []string{"Task3", "Task1 (slow)", "-"}, got.Entries)
	require.Equal(t, start, got.StartedAt)
	require.Equal(t, 900*time.Millisecond, got.Duration())
	require.Equal(t, 1, got.SlowCount)

	byPrefix, err := store.Get(ctx, "aaaa")
	require.NoError(t, err)
	require.Equal(t, rec.ID, byPrefix.ID)

	_, err = store.Get(ctx, "zzzz")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStoreRecordReplacesEntries(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, record("r1", time.Now(), "Task1", "Task2")))
	require.NoError(t, store.Record(ctx, record("r1", time.Now(), "Task9")))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, []string{"Task9"}, got.Entries)
}

func TestStoreListPruneClear(t *testing.T) {
	store := openTemp(t)
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Record(ctx, record(id, base.Add(time.Duration(i)*time.Minute), "Task1")))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "new", all[0].ID)
	require.Empty(t, all[0].Entries, "List does not load entries")

	two, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, two, 2)

	removed, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
	_, err = store.Get(ctx, "old")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Clear(ctx))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestFromRun(t *testing.T) {
	worker := tasks.NewWorker(
		tasks.WithDurations(func(i int) time.Duration { return time.Duration(i) * 300 * time.Millisecond }),
		tasks.WithSleeper(func(ctx context.Context, d time.Duration) error { return nil }),
		tasks.WithWorkerLogger(log.New(&bytes.Buffer{}, "", 0)),
	)
	entries := &sliceLog{}
	runner := tasks.NewRunner(entries, tasks.PostFunc(func(fn func()) { fn() }),
		tasks.WithWorker(worker), tasks.WithTaskCount(3))

	run, err := runner.Start(context.Background(), tasks.Blocking)
	require.NoError(t, err)

	rec := FromRun(run, entries.entries)
	require.Equal(t, run.ID(), rec.ID)
	require.Equal(t, "blocking", rec.Policy)
	require.Equal(t, "Complete", rec.Status)
	require.Equal(t, 3, rec.TaskCount)
	require.Equal(t, 2, rec.SlowCount)
	require.Equal(t, []string{"Task1", "Task2 (slow)", "Task3 (slow)"}, rec.Entries)
}

type sliceLog struct{ entries []string }

func (l *sliceLog) Append(entry string) { l.entries = append(l.entries, entry) }
func (l *sliceLog) Clear()              { l.entries = nil }
func (l *sliceLog) Len() int            { return len(l.entries) }
