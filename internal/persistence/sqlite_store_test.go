package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	started := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.StartRun(ctx, Run{
		ID:        "run-1",
		Argument:  "/home/u/urls.txt",
		DestDir:   "/home/u/Downloads/Yle",
		URLCount:  3,
		StartedAt: started,
	}))

	run, ok, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, run.URLCount)
	assert.True(t, run.FinishedAt.IsZero())
	assert.True(t, started.Equal(run.StartedAt))

	require.NoError(t, store.FinishRun(ctx, Run{ID: "run-1", Done: 2, Skipped: 1}))
	run, ok, err = store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, run.Done)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, 0, run.Failed)
	assert.False(t, run.FinishedAt.IsZero())

	_, ok, err = store.GetRun(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, store.FinishRun(ctx, Run{ID: "missing"}))
	assert.Error(t, store.StartRun(ctx, Run{}))
}

func TestSQLiteStore_FetchesAndAssets(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.StartRun(ctx, Run{ID: "run-1", Argument: "u", DestDir: "/d"}))

	require.NoError(t, store.RecordFetch(ctx, FetchRecord{RunID: "run-1", URL: "https://a", OK: true, Duration: 1500 * time.Millisecond}))
	require.NoError(t, store.RecordFetch(ctx, FetchRecord{RunID: "run-1", URL: "https://b", Error: "yle-dl exited with status 1"}))

	fetches, err := store.ListFetches(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, fetches, 2)
	assert.Equal(t, "https://a", fetches[0].URL)
	assert.True(t, fetches[0].OK)
	assert.Equal(t, 1500*time.Millisecond, fetches[0].Duration)
	assert.False(t, fetches[1].OK)
	assert.Equal(t, "yle-dl exited with status 1", fetches[1].Error)

	require.NoError(t, store.RecordAsset(ctx, AssetRecord{
		RunID:            "run-1",
		MediaPath:        "/d/x.mkv",
		State:            "done",
		SourceSubtitle:   "/d/x.fi.srt",
		SourceTranscript: "/d/x.fi.txt",
		TargetSubtitle:   "/d/x.en.srt",
		TargetTranscript: "/d/x.en.txt",
		SourceLines:      2,
		TargetLines:      2,
		DetectedLanguage: "fi",
	}))
	require.NoError(t, store.RecordAsset(ctx, AssetRecord{RunID: "run-1", MediaPath: "/d/y.mkv", State: "skipped"}))

	assets, err := store.ListAssets(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "done", assets[0].State)
	assert.Equal(t, "/d/x.en.txt", assets[0].TargetTranscript)
	assert.Equal(t, "fi", assets[0].DetectedLanguage)
	assert.Equal(t, "skipped", assets[1].State)

	none, err := store.ListAssets(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteStore_RecordRequiresRun(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	err := store.RecordAsset(context.Background(), AssetRecord{RunID: "nope", MediaPath: "/d/x.mkv", State: "done"})
	assert.Error(t, err)
}

func TestSQLiteStore_ListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.StartRun(ctx, Run{ID: id, Argument: id, DestDir: "/d", StartedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	runs, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
}

func TestSQLiteStore_ReopenKeepsHistory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.StartRun(context.Background(), Run{ID: "run-1", Argument: "u", DestDir: "/d"}))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, ok, err := store.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, 1, migrationVersion("001_init.sql"))
	assert.Equal(t, 12, migrationVersion("12"))
	assert.Equal(t, 0, migrationVersion("init.sql"))
}

func TestNewSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("  ")
	assert.Error(t, err)
}
