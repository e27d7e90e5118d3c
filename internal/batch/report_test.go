package batch

import (
	"errors"
	"testing"

	"github.com/MimeLyc/yle-transcripts/internal/pipeline"
	"github.com/stretchr/testify/assert"
)

func TestReport_Render(t *testing.T) {
	r := Report{
		RunID: "run-1",
		Fetches: []FetchResult{
			{URL: "https://a"},
			{URL: "https://b", Err: errors.New("yle-dl exited with status 1")},
		},
		Outcomes: []pipeline.Outcome{
			{
				Media:       pipeline.NewMediaAsset("/d/a.mkv"),
				State:       pipeline.StateDone,
				SourceLines: 12,
				MediaSize:   1_500_000,
				TargetLines: 11,
				Artifacts: pipeline.Artifacts{
					SourceTranscript: "/d/a.fi.txt",
					TargetTranscript: "/d/a.en.txt",
				},
			},
			{
				Media: pipeline.NewMediaAsset("/d/b.mkv"),
				State: pipeline.StateSkipped,
				Err:   pipeline.NewError(pipeline.ErrNotFound, pipeline.StateStart, "no subtitle stream could be extracted"),
			},
		},
	}

	out := r.Render()
	assert.Contains(t, out, "Run run-1")
	assert.Contains(t, out, "fetch failed")
	assert.Contains(t, out, "a.mkv")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "1 fetched, 1 failed")
	assert.Contains(t, out, "1 done, 1 skipped, 0 failed")
	assert.Contains(t, out, "1.5 MB")
	assert.Equal(t, int64(1_500_000), r.TotalMediaSize())

	assert.Equal(t, 1, r.Count(pipeline.StateDone))
	assert.Equal(t, 0, r.Count(pipeline.StateFailed))
}

func TestLineCount(t *testing.T) {
	assert.Equal(t, "-", lineCount(0, ""))
	assert.Equal(t, "0", lineCount(0, "/d/a.fi.txt"))
}

func TestMediaSize(t *testing.T) {
	assert.Equal(t, "-", mediaSize(0))
	assert.Equal(t, "2.0 kB", mediaSize(2000))
}
