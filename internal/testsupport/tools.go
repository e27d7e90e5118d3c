package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Tools simulates ffmpeg, whisper and yle-dl as seen through a FakeRunner.
// Commands are matched by base name.
type Tools struct {
	// Subtitles maps an ffmpeg -map selector to the SRT it produces.
	// Selectors not present fail with exit status 1.
	Subtitles map[string]string
	// Translation is written by whisper next to its input. Empty means
	// whisper succeeds without producing anything.
	Translation string
	WhisperExit int
	// Downloads maps a URL to the file name yle-dl creates in --destdir.
	Downloads map[string]string
	// FailFetch lists URLs for which yle-dl exits with status 1.
	FailFetch map[string]bool

	mu      sync.Mutex
	fetched []string
}

// Runner returns a FakeRunner backed by t.
func (t *Tools) Runner() *FakeRunner {
	return NewFakeRunner(t.Handle)
}

func (t *Tools) Handle(c Call) int {
	switch filepath.Base(c.Name) {
	case "ffmpeg":
		content, ok := t.Subtitles[c.Value("-map")]
		if !ok {
			return 1
		}
		return write(c.LastArg(), content)

	case "whisper":
		if t.WhisperExit != 0 {
			return t.WhisperExit
		}
		if t.Translation == "" {
			return 0
		}
		return write(filepath.Join(c.Value("--output_dir"), mediaStem(c.Args[0])+".srt"), t.Translation)

	case "yle-dl":
		url := c.LastArg()
		t.mu.Lock()
		t.fetched = append(t.fetched, url)
		t.mu.Unlock()
		if t.FailFetch[url] {
			return 1
		}
		if name := t.Downloads[url]; name != "" {
			return write(filepath.Join(c.Value("--destdir"), name), "video:"+url)
		}
		return 0
	}
	return 127
}

// Fetched returns the URLs yle-dl was invoked with, in order.
func (t *Tools) Fetched() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.fetched...)
}

// mediaStem strips the extension and, for subtitle input, the language
// qualifier: "x.fi.srt" and "x.mkv" both give "x".
func mediaStem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	if ext == ".srt" {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}

func write(path, content string) int {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return 1
	}
	return 0
}
