package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want string
	}{
		{path: "/media/show.mkv", ext: ".srt", want: "/media/show.srt"},
		{path: "/media/show.mkv", ext: "srt", want: "/media/show.srt"},
		{path: "/media/show.fi.srt", ext: ".txt", want: "/media/show.fi.txt"},
		{path: "/media/noext", ext: ".srt", want: "/media/noext.srt"},
		{path: "/media/.hidden", ext: ".srt", want: "/media/.hidden.srt"},
		{path: "", ext: ".srt", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.path+tt.ext, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), ReplaceExt(filepath.FromSlash(tt.path), tt.ext))
		})
	}
}

func TestSiblingAndStem(t *testing.T) {
	media := filepath.Join("dest", "Uutiset 12.3.mkv")

	assert.Equal(t, "Uutiset 12.3", Stem(media))
	assert.Equal(t, filepath.Join("dest", "Uutiset 12.3.fi.srt"), Sibling(media, "fi", ".srt"))
	assert.Equal(t, filepath.Join("dest", "Uutiset 12.3.en.txt"), Sibling(media, "en", "txt"))
	assert.Equal(t, filepath.Join("dest", "Uutiset 12.3.srt"), Sibling(media, "", ".srt"))
}

func TestFindByExt(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mkv", "a.MKV", "c.mp4", "a.fi.srt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.mkv"), 0o755))

	got, err := FindByExt(dir, "mkv")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.MKV"), filepath.Join(dir, "b.mkv")}, got)

	_, err = FindByExt(filepath.Join(dir, "missing"), ".mkv")
	assert.True(t, IsNotExist(err))
}

func TestFindRecentAfter(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.mkv")
	fresh := filepath.Join(dir, "fresh.mkv")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	got, err := FindRecentAfter(dir, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, got)
	assert.True(t, Exists(fresh))
	assert.False(t, Exists(dir))
}
