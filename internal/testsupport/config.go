package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/MimeLyc/yle-transcripts/internal/config"
)

// NewConfig returns defaults with the destination directory under a temp
// dir and history recording disabled. opts are applied last.
func NewConfig(t testing.TB, opts ...config.Option) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.DestDir = filepath.Join(t.TempDir(), "dest")
	cfg.Paths.HistoryDB = "off"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}
