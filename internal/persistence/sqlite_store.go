package persistence

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteStore records batch history. It is write-mostly: nothing in the
// pipeline reads it back to decide what to process.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) init(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (s *SQLiteStore) StartRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, argument, dest_dir, url_count, started_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.ID,
		run.Argument,
		run.DestDir,
		run.URLCount,
		run.StartedAt.UTC(),
	)
	return err
}

// FinishRun stores the per-state counts of a run and marks it finished.
func (s *SQLiteStore) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET
			done_count = ?,
			skipped_count = ?,
			failed_count = ?,
			finished_at = ?
		 WHERE id = ?`,
		run.Done,
		run.Skipped,
		run.Failed,
		run.FinishedAt.UTC(),
		run.ID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

func (s *SQLiteStore) RecordFetch(ctx context.Context, rec FetchRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO fetches (run_id, url, ok, error, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.URL,
		rec.OK,
		rec.Error,
		rec.Duration.Milliseconds(),
		rec.CreatedAt.UTC(),
	)
	return err
}

func (s *SQLiteStore) RecordAsset(ctx context.Context, rec AssetRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO assets (
			run_id, media_path, state, error,
			source_subtitle, source_transcript, target_subtitle, target_transcript,
			source_lines, target_lines, detected_language, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.MediaPath,
		rec.State,
		rec.Error,
		rec.SourceSubtitle,
		rec.SourceTranscript,
		rec.TargetSubtitle,
		rec.TargetTranscript,
		rec.SourceLines,
		rec.TargetLines,
		rec.DetectedLanguage,
		rec.Duration.Milliseconds(),
		rec.CreatedAt.UTC(),
	)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, argument, dest_dir, url_count, done_count, skipped_count, failed_count, started_at, finished_at
		 FROM runs WHERE id = ?`,
		id,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// ListRuns returns the most recent runs first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, argument, dest_dir, url_count, done_count, skipped_count, failed_count, started_at, finished_at
		 FROM runs
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) ListFetches(ctx context.Context, runID string) ([]FetchRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, url, ok, error, duration_ms, created_at
		 FROM fetches
		 WHERE run_id = ?
		 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]FetchRecord, 0)
	for rows.Next() {
		var item FetchRecord
		var durationMS int64
		if err := rows.Scan(&item.RunID, &item.URL, &item.OK, &item.Error, &durationMS, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Duration = time.Duration(durationMS) * time.Millisecond
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *SQLiteStore) ListAssets(ctx context.Context, runID string) ([]AssetRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, media_path, state, error,
			source_subtitle, source_transcript, target_subtitle, target_transcript,
			source_lines, target_lines, detected_language, duration_ms, created_at
		 FROM assets
		 WHERE run_id = ?
		 ORDER BY id ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]AssetRecord, 0)
	for rows.Next() {
		var item AssetRecord
		var durationMS int64
		if err := rows.Scan(
			&item.RunID,
			&item.MediaPath,
			&item.State,
			&item.Error,
			&item.SourceSubtitle,
			&item.SourceTranscript,
			&item.TargetSubtitle,
			&item.TargetTranscript,
			&item.SourceLines,
			&item.TargetLines,
			&item.DetectedLanguage,
			&durationMS,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		item.Duration = time.Duration(durationMS) * time.Millisecond
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var finished sql.NullTime
	if err := row.Scan(
		&run.ID,
		&run.Argument,
		&run.DestDir,
		&run.URLCount,
		&run.Done,
		&run.Skipped,
		&run.Failed,
		&run.StartedAt,
		&finished,
	); err != nil {
		return Run{}, err
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return run, nil
}
