// Package fetch downloads videos with yle-dl.
package fetch

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/runner"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
)

// Fetcher downloads the video behind a URL into its destination directory.
type Fetcher interface {
	Fetch(ctx context.Context, url string) error
}

type YleDL struct {
	command    string
	destDir    string
	resolution int
	runner     runner.Runner
}

func NewYleDL(cfg config.FetchConfig, destDir string, r runner.Runner) *YleDL {
	return &YleDL{
		command:    cfg.Command,
		destDir:    destDir,
		resolution: cfg.Resolution,
		runner:     r,
	}
}

// Fetch blocks until yle-dl exits. Partial downloads are not resumed.
func (y *YleDL) Fetch(ctx context.Context, url string) error {
	url = NormalizeURL(url)
	log.Info("Fetching %s", url)
	if _, err := y.runner.Run(ctx, y.command, y.args(url)...); err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	return nil
}

func (y *YleDL) args(url string) []string {
	return []string{
		"--destdir", y.destDir,
		"--resolution", strconv.Itoa(y.resolution),
		url,
	}
}

// NormalizeURL trims url and rewrites YouTube Shorts links to the regular
// watch form. Other URLs are returned unchanged.
func NormalizeURL(url string) string {
	url = strings.TrimSpace(url)
	if !strings.Contains(url, "youtube.com/shorts/") || strings.Contains(url, "?v=") {
		return url
	}
	_, rest, _ := strings.Cut(url, "shorts/")
	id, _, _ := strings.Cut(rest, "?")
	id, _, _ = strings.Cut(id, "/")
	if id == "" {
		return url
	}
	return "https://www.youtube.com/watch?v=" + id
}
