// Package service repeats the batch on a cron schedule.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/yle-transcripts/internal/batch"
	"github.com/MimeLyc/yle-transcripts/internal/pipeline"
	"github.com/MimeLyc/yle-transcripts/pkg/icron"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
	"github.com/robfig/cron/v3"
)

// BatchRunner runs one batch for arg.
type BatchRunner interface {
	Run(ctx context.Context, arg string) (batch.Report, error)
}

type BatchService struct {
	cronExpr string
	arg      string
	runner   BatchRunner
	cron     *cron.Cron
	group    singleflight.Group

	mu      sync.Mutex
	lastRun time.Time
}

func NewBatchService(
	cronExpr string,
	arg string,
	runner BatchRunner,
	cron *cron.Cron,
) *BatchService {
	return &BatchService{
		cronExpr: cronExpr,
		arg:      arg,
		runner:   runner,
		cron:     cron,
	}
}

// Schedule registers the batch with the cron scheduler. Triggers that fire
// while a batch is still running join it instead of starting another.
func (s *BatchService) Schedule(ctx context.Context) error {
	if _, err := icron.Parse(s.cronExpr); err != nil {
		return err
	}

	runFunc := func() {
		report, shared, err := s.RunOnce(ctx)
		if shared {
			log.Info("Batch already running, trigger merged")
		}
		if err != nil {
			log.Error("Scheduled batch failed: %v", err)
			return
		}
		log.Info("Scheduled batch %s finished: %d done, %d skipped, %d failed",
			report.RunID,
			report.Count(pipeline.StateDone), report.Count(pipeline.StateSkipped), report.Count(pipeline.StateFailed))
		s.logNext()
	}
	if _, err := s.cron.AddFunc(s.cronExpr, runFunc); err != nil {
		return fmt.Errorf("schedule %q: %w", s.cronExpr, err)
	}
	s.logNext()
	return nil
}

// RunOnce runs the batch now, or waits for the one already in progress.
// shared reports whether the result came from a concurrent call.
func (s *BatchService) RunOnce(ctx context.Context) (batch.Report, bool, error) {
	v, err, shared := s.group.Do("batch", func() (any, error) {
		s.mu.Lock()
		s.lastRun = time.Now()
		s.mu.Unlock()
		return s.runner.Run(ctx, s.arg)
	})
	report, _ := v.(batch.Report)
	return report, shared, err
}

// LastRun returns when the most recent batch started, zero if none has.
func (s *BatchService) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// Serve schedules the batch and blocks until ctx is done, then waits for a
// running batch to return.
func (s *BatchService) Serve(ctx context.Context) error {
	if err := s.Schedule(ctx); err != nil {
		return err
	}
	s.cron.Start()
	<-ctx.Done()
	log.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
	return nil
}

func (s *BatchService) logNext() {
	info, err := icron.GetTriggerInfo(s.cronExpr, time.Now())
	if err != nil {
		log.Warn("Failed to get cron schedule: %v", err)
		return
	}
	log.Info("Next batch at %s (in %s)", info.Next.Format(time.DateTime), info.TimeUntilNext.Round(time.Second))
}
