package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/media"
	"github.com/MimeLyc/yle-transcripts/internal/testsupport"
)

var (
	finnishSRT = testsupport.SRT("Hei", "Moi")
	englishSRT = testsupport.SRT("Hi", "Hello")
)

// newTestMedia creates an empty container file named name in a temp dir.
func newTestMedia(t *testing.T, name string) MediaAsset {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	testsupport.WriteFile(t, path, "")
	return NewMediaAsset(path)
}

func newTestConfig(t *testing.T, opts ...config.Option) *config.Config {
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Media.FFprobe = "ffprobe-not-installed-in-tests"
	return cfg
}

func newTestExtractor(cfg *config.Config, fake *testsupport.FakeRunner) *Extractor {
	return NewExtractor(media.NewFFmpeg(cfg.Media, fake), cfg.Languages)
}
