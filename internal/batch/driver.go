// Package batch fetches a list of videos and runs every media file found in
// the destination directory through the transcript pipeline.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/fetch"
	"github.com/MimeLyc/yle-transcripts/internal/persistence"
	"github.com/MimeLyc/yle-transcripts/internal/pipeline"
	"github.com/MimeLyc/yle-transcripts/internal/runner"
	"github.com/MimeLyc/yle-transcripts/pkg/file"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockFileName = ".yletrans.lock"

// Processor drives one media asset to a terminal state.
type Processor interface {
	Process(ctx context.Context, m pipeline.MediaAsset) pipeline.Outcome
}

// Recorder stores batch history. Recording errors never stop a batch.
type Recorder interface {
	StartRun(ctx context.Context, run persistence.Run) error
	FinishRun(ctx context.Context, run persistence.Run) error
	RecordFetch(ctx context.Context, rec persistence.FetchRecord) error
	RecordAsset(ctx context.Context, rec persistence.AssetRecord) error
}

type Driver struct {
	destDir   string
	ext       string
	fetcher   fetch.Fetcher
	processor Processor
	recorder  Recorder
	out       io.Writer
	newRunID  func() string
}

type Option func(*Driver)

// WithRecorder enables history recording.
func WithRecorder(r Recorder) Option {
	return func(d *Driver) {
		d.recorder = r
	}
}

// WithOutput sets where the summary table is printed. nil disables it.
func WithOutput(w io.Writer) Option {
	return func(d *Driver) {
		d.out = w
	}
}

func NewDriver(
	cfg *config.Config,
	fetcher fetch.Fetcher,
	processor Processor,
	opts ...Option,
) *Driver {
	d := &Driver{
		destDir:   cfg.Paths.DestDir,
		ext:       cfg.Media.Extension,
		fetcher:   fetcher,
		processor: processor,
		out:       os.Stdout,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDefaultDriver wires yle-dl and the transcript pipeline from cfg.
func NewDefaultDriver(cfg *config.Config, r runner.Runner, opts ...Option) *Driver {
	return NewDriver(
		cfg,
		fetch.NewYleDL(cfg.Fetch, cfg.Paths.DestDir, r),
		pipeline.NewDefaultOrchestrator(cfg, r),
		opts...,
	)
}

// Run fetches every URL named by arg, then processes all media files in the
// destination directory, including ones left by earlier runs. The returned
// error covers conditions that stop the batch as a whole; per-URL and
// per-asset failures are only reported.
func (d *Driver) Run(ctx context.Context, arg string) (Report, error) {
	report := Report{Argument: arg, Started: time.Now()}

	urls, err := ResolveURLs(arg)
	if err != nil {
		return report, err
	}
	if err := os.MkdirAll(d.destDir, 0o755); err != nil {
		return report, fmt.Errorf("create destination directory: %w", err)
	}

	lock := flock.New(filepath.Join(d.destDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return report, fmt.Errorf("lock %s: %w", d.destDir, err)
	}
	if !locked {
		log.Info("Another batch is using %s, waiting", d.destDir)
		if err := lock.Lock(); err != nil {
			return report, fmt.Errorf("lock %s: %w", d.destDir, err)
		}
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn("Failed to release lock: %v", err)
		}
	}()

	report.RunID = d.newRunID()
	log.Info("Run %s: %d URL(s) into %s", report.RunID, len(urls), d.destDir)
	d.record("start run", func() error {
		return d.recorder.StartRun(ctx, persistence.Run{
			ID:        report.RunID,
			Argument:  arg,
			DestDir:   d.destDir,
			URLCount:  len(urls),
			StartedAt: report.Started.UTC(),
		})
	})

	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return d.finish(ctx, report), err
		}
		report.Fetches = append(report.Fetches, d.fetch(ctx, report.RunID, url))
	}

	assets, err := ScanMedia(d.destDir, d.ext)
	if err != nil {
		return d.finish(ctx, report), err
	}
	log.Info("Found %d %s file(s) in %s, %d new", len(assets), d.ext, d.destDir, d.countNew(report.Started))

	for _, m := range assets {
		if err := ctx.Err(); err != nil {
			return d.finish(ctx, report), err
		}
		var size int64
		if info, err := os.Stat(m.Path); err == nil {
			size = info.Size()
			log.Debug("%s: %s", filepath.Base(m.Path), humanize.Bytes(uint64(size)))
		}
		outcome := d.processor.Process(ctx, m)
		outcome.MediaSize = size
		if outcome.Err != nil {
			log.Warn("%s %s: %v", filepath.Base(m.Path), outcome.State, outcome.Err)
		}
		report.Outcomes = append(report.Outcomes, outcome)
		d.recordOutcome(ctx, report.RunID, outcome)
	}

	return d.finish(ctx, report), nil
}

func (d *Driver) fetch(ctx context.Context, runID, url string) FetchResult {
	start := time.Now()
	err := d.fetcher.Fetch(ctx, url)
	result := FetchResult{URL: url, Err: err, Duration: time.Since(start)}
	if err != nil {
		log.Error("Fetch failed for %s: %v", url, err)
	}

	rec := persistence.FetchRecord{
		RunID:    runID,
		URL:      url,
		OK:       err == nil,
		Duration: result.Duration,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	d.record("record fetch", func() error {
		return d.recorder.RecordFetch(ctx, rec)
	})
	return result
}

func (d *Driver) recordOutcome(ctx context.Context, runID string, o pipeline.Outcome) {
	rec := persistence.AssetRecord{
		RunID:            runID,
		MediaPath:        o.Media.Path,
		State:            string(o.State),
		SourceSubtitle:   o.Artifacts.SourceSubtitle,
		SourceTranscript: o.Artifacts.SourceTranscript,
		TargetSubtitle:   o.Artifacts.TargetSubtitle,
		TargetTranscript: o.Artifacts.TargetTranscript,
		SourceLines:      o.SourceLines,
		TargetLines:      o.TargetLines,
		DetectedLanguage: o.DetectedLanguage.String(),
		Duration:         o.Duration,
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	d.record("record asset", func() error {
		return d.recorder.RecordAsset(ctx, rec)
	})
}

func (d *Driver) finish(ctx context.Context, report Report) Report {
	report.Duration = time.Since(report.Started)
	d.record("finish run", func() error {
		return d.recorder.FinishRun(context.WithoutCancel(ctx), persistence.Run{
			ID:      report.RunID,
			Done:    report.Count(pipeline.StateDone),
			Skipped: report.Count(pipeline.StateSkipped),
			Failed:  report.Count(pipeline.StateFailed),
		})
	})

	log.Info("Run %s finished in %s: %d done, %d skipped, %d failed, %d fetch failure(s)",
		report.RunID, report.Duration.Round(time.Second),
		report.Count(pipeline.StateDone), report.Count(pipeline.StateSkipped),
		report.Count(pipeline.StateFailed), report.FailedFetches())
	if d.out != nil {
		fmt.Fprintln(d.out, report.Render())
	}
	return report
}

// countNew counts media files written since the run started.
func (d *Driver) countNew(since time.Time) int {
	recent, err := file.FindRecentAfter(d.destDir, since)
	if err != nil {
		log.Debug("Could not list new files: %v", err)
		return 0
	}
	n := 0
	for _, p := range recent {
		if filepath.Dir(p) == d.destDir && strings.EqualFold(filepath.Ext(p), d.ext) {
			n++
		}
	}
	return n
}

func (d *Driver) record(what string, fn func() error) {
	if d.recorder == nil {
		return
	}
	if err := fn(); err != nil {
		log.Warn("History: %s: %v", what, err)
	}
}

// ScanMedia lists the files in dir with extension ext, sorted by name.
func ScanMedia(dir, ext string) ([]pipeline.MediaAsset, error) {
	paths, err := file.FindByExt(dir, ext)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	ret := make([]pipeline.MediaAsset, 0, len(paths))
	for _, p := range paths {
		ret = append(ret, pipeline.NewMediaAsset(p))
	}
	return ret, nil
}
