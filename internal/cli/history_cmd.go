// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - `fanout history` subcommands over the run journal.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"

	"github.com/jeranaias/fanout-tui/internal/config"
	"github.com/jeranaias/fanout-tui/internal/export"
	"github.com/jeranaias/fanout-tui/internal/history"
	"github.com/jeranaias/fanout-tui/internal/util"
)

// defaultHistoryLimit is how many runs `history list` shows without --limit.
const defaultHistoryLimit = 20

// HandleHistory handles `fanout history [list|show|export|clear]`.
func HandleHistory(args Args) error {
	cfg, err := args.LoadConfig()
	if err != nil {
		return NewCommandError("history", "load config", "invalid configuration", err)
	}

	store, err := openHistory(cfg)
	if err != nil {
		return NewCommandError("history", "open", "journal unavailable", err)
	}
	defer store.Close()

	ctx := context.Background()
	switch args.Subcommand {
	case "", "list", "ls":
		return handleHistoryList(ctx, args, store)
	case "show":
		return handleHistoryShow(ctx, args, store)
	case "export":
		return handleHistoryExport(ctx, args, store)
	case "clear":
		return handleHistoryClear(ctx, args, store)
	default:
		return NewUsageError(fmt.Sprintf("unknown history subcommand %q (list, show, export, clear)", args.Subcommand))
	}
}

// openHistory opens the journal. A disabled journal that was never written
// reports history.ErrDisabled; one that exists can still be read.
func openHistory(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		if _, err := os.Stat(path); err != nil {
			return nil, history.ErrDisabled
		}
	}
	return history.Open(path)
}

// handleHistoryList prints the newest runs as a table.
func handleHistoryList(ctx context.Context, args Args, store *history.Store) error {
	limit := defaultHistoryLimit
	if n, ok, err := args.Parser.FlagInt("limit", "l"); err != nil {
		return NewUsageError(err.Error())
	} else if ok {
		limit = n
	}

	records, err := store.List(ctx, limit)
	if err != nil {
		return NewCommandError("history", "list", "query failed", err)
	}
	total, err := store.Count(ctx)
	if err != nil {
		return NewCommandError("history", "list", "query failed", err)
	}

	if args.JSON {
		if records == nil {
			records = []history.Record{}
		}
		return NewJSONResponse("history list", HistoryListData{Total: total, Records: records}).Write(args.Out())
	}

	if len(records) == 0 {
		fmt.Fprintln(args.Out(), "No recorded runs.")
		return nil
	}

	table := tablewriter.NewWriter(args.Out())
	table.Header("ID", "Policy", "Started", "Status", "Tasks", "Slow", "Interrupted", "Duration")
	for _, rec := range records {
		_ = table.Append(
			shortRunID(rec.ID),
			rec.Policy,
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			ColorStatus(rec.Status),
			util.FormatCount(int64(rec.TaskCount)),
			util.FormatCount(int64(rec.SlowCount)),
			util.FormatCount(int64(rec.SentinelCount)),
			util.FormatMillis(rec.Duration().Milliseconds()),
		)
	}
	_ = table.Render()

	if total > len(records) {
		fmt.Fprintln(args.Out(), DimStyle.Render(fmt.Sprintf("%d of %d runs shown (--limit N)", len(records), total)))
	}
	return nil
}

// handleHistoryShow prints one run and its entries.
func handleHistoryShow(ctx context.Context, args Args, store *history.Store) error {
	id := args.Parser.Positional(1)
	if id == "" {
		return ErrMissingArgument("ID", "fanout history show ID")
	}
	rec, err := getRecord(ctx, store, id)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("history show", rec).Write(args.Out())
	}
	printRecord(args.Out(), rec)
	return nil
}

// handleHistoryExport writes one run as a JSON or Markdown report.
func handleHistoryExport(ctx context.Context, args Args, store *history.Store) error {
	id := args.Parser.Positional(1)
	path := args.Parser.Positional(2)
	if id == "" || path == "" {
		return ErrMissingArgument("ID FILE", "fanout history export ID run.md")
	}
	rec, err := getRecord(ctx, store, id)
	if err != nil {
		return err
	}
	if err := export.WriteFile(export.FromRecord(rec), export.ExporterFor(path, nil), path); err != nil {
		return NewCommandError("history", "export", "cannot write report", err)
	}
	fmt.Fprintf(args.Out(), "Exported %s to %s\n", shortRunID(rec.ID), path)
	return nil
}

// handleHistoryClear deletes every record; --confirm is required.
func handleHistoryClear(ctx context.Context, args Args, store *history.Store) error {
	if !args.Parser.BoolFlag("confirm") {
		return NewUsageError("history clear deletes every recorded run; pass --confirm")
	}
	if err := store.Clear(ctx); err != nil {
		return NewCommandError("history", "clear", "delete failed", err)
	}
	fmt.Fprintln(args.Out(), "History cleared.")
	return nil
}

// getRecord looks up a run by ID or ID prefix.
func getRecord(ctx context.Context, store *history.Store, id string) (history.Record, error) {
	rec, err := store.Get(ctx, id)
	if errors.Is(err, history.ErrNotFound) {
		return history.Record{}, NewNotFoundError("run", id)
	}
	if err != nil {
		return history.Record{}, NewCommandError("history", "show", "query failed", err)
	}
	return rec, nil
}

// printRecord prints a record's metadata followed by its entries.
func printRecord(w io.Writer, rec history.Record) {
	fmt.Fprintln(w, TitleStyle.Render("Run "+rec.ID))
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", LabelStyle.Render(label), value)
	}
	row("Policy", rec.Policy)
	row("Status", ColorStatus(rec.Status))
	row("Started", rec.StartedAt.Local().Format("2006-01-02 15:04:05"))
	row("Duration", util.FormatMillis(rec.Duration().Milliseconds()))
	row("Threshold", util.FormatMillis(rec.ThresholdMs))
	row("Results", fmt.Sprintf("%d tasks, %d slow, %d interrupted", rec.TaskCount, rec.SlowCount, rec.SentinelCount))

	fmt.Fprintln(w, RenderSeparator(40))
	if len(rec.Entries) == 0 {
		fmt.Fprintln(w, DimStyle.Render("(no entries)"))
		return
	}
	for i, entry := range rec.Entries {
		fmt.Fprintf(w, "%3d  %s\n", i+1, ColorEntry(entry))
	}
}

// shortRunID returns the first 8 characters of a run ID.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
