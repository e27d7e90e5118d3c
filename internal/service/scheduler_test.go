package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/yle-transcripts/internal/batch"
)

type fakeBatch struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	err     error
}

func newFakeBatch() *fakeBatch {
	return &fakeBatch{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (f *fakeBatch) Run(ctx context.Context, arg string) (batch.Report, error) {
	n := f.calls.Add(1)
	f.started <- struct{}{}
	select {
	case <-f.release:
	case <-ctx.Done():
		return batch.Report{}, ctx.Err()
	}
	return batch.Report{RunID: arg + "-" + string(rune('0'+n))}, f.err
}

func TestBatchService_RunOnceMergesConcurrentCalls(t *testing.T) {
	fb := newFakeBatch()
	s := NewBatchService("@daily", "urls.txt", fb, cron.New())

	var wg sync.WaitGroup
	results := make([]bool, 3)
	reports := make([]batch.Report, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		reports[0], results[0], _ = s.RunOnce(context.Background())
	}()
	<-fb.started

	for i := 1; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reports[i], results[i], _ = s.RunOnce(context.Background())
		}(i)
	}
	// give the followers time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(fb.release)
	wg.Wait()

	assert.Equal(t, int32(1), fb.calls.Load())
	for i := range reports {
		assert.Equal(t, "urls.txt-1", reports[i].RunID)
	}
	assert.True(t, results[1])
	assert.True(t, results[2])
	assert.False(t, s.LastRun().IsZero())
}

func TestBatchService_RunOnceSequentialCallsRunAgain(t *testing.T) {
	fb := newFakeBatch()
	close(fb.release)
	s := NewBatchService("@daily", "u", fb, cron.New())

	_, shared, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, shared)
	_, _, err = s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), fb.calls.Load())
}

func TestBatchService_RunOnceError(t *testing.T) {
	fb := newFakeBatch()
	close(fb.release)
	fb.err = errors.New("manifest unreadable")
	s := NewBatchService("@daily", "u", fb, cron.New())

	_, _, err := s.RunOnce(context.Background())
	assert.EqualError(t, err, "manifest unreadable")
}

func TestBatchService_ScheduleRegistersJob(t *testing.T) {
	fb := newFakeBatch()
	close(fb.release)
	c := cron.New()
	s := NewBatchService("0 3 * * *", "u", fb, c)

	require.NoError(t, s.Schedule(context.Background()))
	entries := c.Entries()
	require.Len(t, entries, 1)

	entries[0].Job.Run()
	assert.Equal(t, int32(1), fb.calls.Load())
}

func TestBatchService_ScheduleRejectsInvalidExpression(t *testing.T) {
	c := cron.New()
	s := NewBatchService("not a cron", "u", newFakeBatch(), c)

	assert.Error(t, s.Schedule(context.Background()))
	assert.Empty(t, c.Entries())
}

func TestBatchService_ServeStopsOnCancel(t *testing.T) {
	s := NewBatchService("@hourly", "u", newFakeBatch(), cron.New())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
