package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	happy := []State{
		StateStart,
		StateSourceSubsExtracted,
		StateSourceTranscriptWritten,
		StateTranslationInvoked,
		StateTargetSubsRenamed,
		StateTargetTranscriptWritten,
		StateDone,
	}
	for i := 0; i+1 < len(happy); i++ {
		assert.True(t, happy[i].CanTransition(happy[i+1]), "%s -> %s", happy[i], happy[i+1])
		assert.False(t, happy[i].Terminal())
		assert.True(t, happy[i].CanTransition(StateFailed), "%s -> failed", happy[i])
	}

	assert.True(t, StateStart.CanTransition(StateSkipped))
	assert.False(t, StateSourceSubsExtracted.CanTransition(StateSkipped))
	assert.False(t, StateStart.CanTransition(StateTranslationInvoked))

	for _, s := range []State{StateDone, StateSkipped, StateFailed} {
		assert.True(t, s.Terminal())
		assert.False(t, s.CanTransition(StateFailed))
	}
}

func TestOutcomeAdvancePanicsOnIllegalTransition(t *testing.T) {
	out := newOutcome(NewMediaAsset("/d/x.mkv"))
	assert.Panics(t, func() { out.advance(StateDone) })
}

func TestOutcomeFailRecordsStage(t *testing.T) {
	out := newOutcome(NewMediaAsset("/d/x.mkv"))
	out.advance(StateSourceSubsExtracted)
	out.fail(WrapError(errors.New("disk full"), ErrFileWrite, "", "write transcript"))

	assert.Equal(t, StateFailed, out.State)
	var pErr *PipelineError
	assert.True(t, errors.As(out.Err, &pErr))
	assert.Equal(t, StateSourceSubsExtracted, pErr.Stage)
	assert.Equal(t, "[FileWrite] write transcript | after: source_subs_extracted | cause: disk full", pErr.Error())
}

func TestIsErrorType(t *testing.T) {
	err := NewError(ErrMissingOutput, StateTranslationInvoked, "missing")
	assert.True(t, IsErrorType(err, ErrMissingOutput))
	assert.False(t, IsErrorType(err, ErrNotFound))
	assert.False(t, IsErrorType(errors.New("plain"), ErrMissingOutput))
	assert.Equal(t, "Unknown", ErrorType(99).String())
}

func TestMediaAssetNaming(t *testing.T) {
	m := NewMediaAsset("/d/./Show S01E02.mkv")
	assert.Equal(t, "/d/Show S01E02.mkv", m.Path)
	assert.Equal(t, "Show S01E02", m.Stem())
	assert.Equal(t, "/d/Show S01E02.fi.srt", m.Sibling("fi", ".srt"))
	assert.Equal(t, "/d/Show S01E02.srt", m.Sibling("", ".srt"))

	a := SubtitleArtifact{Path: m.Sibling("en", ".srt")}
	assert.Equal(t, "/d/Show S01E02.en.txt", a.TranscriptPath())
}
