package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/MimeLyc/yle-transcripts/pkg/file"
)

// MediaAsset is a downloaded video container on disk.
type MediaAsset struct {
	Path string
}

func NewMediaAsset(path string) MediaAsset {
	return MediaAsset{Path: filepath.Clean(path)}
}

// Stem is the file name without its extension.
func (m MediaAsset) Stem() string {
	return file.Stem(m.Path)
}

func (m MediaAsset) Dir() string {
	return filepath.Dir(m.Path)
}

// Sibling names a derived artifact next to the media file, e.g.
// Sibling("fi", ".srt") for "x.mkv" is "x.fi.srt". An empty lang gives the
// unqualified name "x.srt".
func (m MediaAsset) Sibling(lang, ext string) string {
	return file.Sibling(m.Path, lang, ext)
}

// SubtitleArtifact is an SRT file derived from a MediaAsset.
type SubtitleArtifact struct {
	Path  string
	Lang  string
	Media MediaAsset
}

// TranscriptPath is where the plain-text transcript of the artifact goes.
func (a SubtitleArtifact) TranscriptPath() string {
	return file.ReplaceExt(a.Path, ".txt")
}

// RenameTo moves the artifact to path and returns the moved artifact. An
// existing file at path is replaced.
func (a SubtitleArtifact) RenameTo(path string) (SubtitleArtifact, error) {
	if a.Path == path {
		return a, nil
	}
	if err := os.Rename(a.Path, path); err != nil {
		return a, fmt.Errorf("rename %s: %w", filepath.Base(a.Path), err)
	}
	a.Path = path
	return a, nil
}
