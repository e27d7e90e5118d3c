package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MimeLyc/yle-transcripts/internal/persistence"
	"github.com/MimeLyc/yle-transcripts/pkg/file"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var errHistoryDisabled = errors.New("run history is disabled (HISTORY_DB=off)")

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded batch runs, or show one run in detail",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return a.history(cmd.Context(), runID, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to list")
	return cmd
}

func (a *app) history(ctx context.Context, runID string, limit int) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if !cfg.HistoryEnabled() {
		return errHistoryDisabled
	}
	if !file.Exists(cfg.Paths.HistoryDB) {
		fmt.Fprintf(a.out, "No runs recorded in %s\n", cfg.Paths.HistoryDB)
		return nil
	}

	store, err := persistence.NewSQLiteStore(cfg.Paths.HistoryDB)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	if runID == "" {
		return a.listRuns(ctx, store, limit)
	}
	return a.showRun(ctx, store, runID)
}

func (a *app) listRuns(ctx context.Context, store *persistence.SQLiteStore, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.out, "No runs recorded")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			humanize.Time(run.StartedAt),
			run.Argument,
			strconv.Itoa(run.URLCount),
			strconv.Itoa(run.Done),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Failed),
		})
	}
	fmt.Fprintln(a.out, renderTable("",
		[]string{"Run", "Started", "Argument", "URLs", "Done", "Skipped", "Failed"},
		rows, 4, 5, 6, 7))
	return nil
}

func (a *app) showRun(ctx context.Context, store *persistence.SQLiteStore, runID string) error {
	run, ok, err := store.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	if !ok {
		return fmt.Errorf("run %s not found", runID)
	}
	fetches, err := store.ListFetches(ctx, runID)
	if err != nil {
		return fmt.Errorf("list fetches: %w", err)
	}
	assets, err := store.ListAssets(ctx, runID)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}

	status := "in progress"
	if !run.FinishedAt.IsZero() {
		status = fmt.Sprintf("finished after %s", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(a.out, "Run %s: %s into %s, started %s, %s\n",
		run.ID, run.Argument, run.DestDir, run.StartedAt.Local().Format(time.DateTime), status)

	fetchRows := make([][]string, 0, len(fetches))
	for _, f := range fetches {
		result := "fetched"
		if !f.OK {
			result = "fetch failed"
		}
		fetchRows = append(fetchRows, []string{f.URL, result, f.Duration.Round(time.Second).String(), f.Error})
	}
	fmt.Fprintln(a.out, renderTable("Fetches",
		[]string{"URL", "Result", "Duration", "Error"}, fetchRows, 3))

	assetRows := make([][]string, 0, len(assets))
	for _, as := range assets {
		assetRows = append(assetRows, []string{
			filepath.Base(as.MediaPath),
			as.State,
			strconv.Itoa(as.SourceLines),
			strconv.Itoa(as.TargetLines),
			as.DetectedLanguage,
			as.Error,
		})
	}
	fmt.Fprintln(a.out, renderTable("Assets",
		[]string{"Media", "State", "Source", "Target", "Language", "Error"}, assetRows, 3, 4))
	return nil
}
