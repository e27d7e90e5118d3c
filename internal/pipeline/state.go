package pipeline

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// State is the progress of one MediaAsset through the pipeline.
type State string

const (
	StateStart                   State = "start"
	StateSourceSubsExtracted     State = "source_subs_extracted"
	StateSourceTranscriptWritten State = "source_transcript_written"
	StateTranslationInvoked      State = "translation_invoked"
	StateTargetSubsRenamed       State = "target_subs_renamed"
	StateTargetTranscriptWritten State = "target_transcript_written"
	StateDone                    State = "done"
	StateSkipped                 State = "skipped"
	StateFailed                  State = "failed"
)

var transitions = map[State][]State{
	StateStart:                   {StateSourceSubsExtracted, StateSkipped, StateFailed},
	StateSourceSubsExtracted:     {StateSourceTranscriptWritten, StateFailed},
	StateSourceTranscriptWritten: {StateTranslationInvoked, StateFailed},
	StateTranslationInvoked:      {StateTargetSubsRenamed, StateFailed},
	StateTargetSubsRenamed:       {StateTargetTranscriptWritten, StateFailed},
	StateTargetTranscriptWritten: {StateDone, StateFailed},
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateSkipped || s == StateFailed
}

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Artifacts lists the files produced for an asset. Empty fields were not
// produced.
type Artifacts struct {
	SourceSubtitle   string
	SourceTranscript string
	TargetSubtitle   string
	TargetTranscript string
}

// Outcome is the final record of processing one asset.
type Outcome struct {
	Media            MediaAsset
	State            State
	Err              error
	Artifacts        Artifacts
	SourceLines      int
	TargetLines      int
	DetectedLanguage language.Tag
	MediaSize        int64
	Started          time.Time
	Duration         time.Duration
}

func newOutcome(m MediaAsset) *Outcome {
	return &Outcome{
		Media:            m,
		State:            StateStart,
		DetectedLanguage: language.Und,
		Started:          time.Now(),
	}
}

func (o *Outcome) advance(to State) {
	if !o.State.CanTransition(to) {
		panic(fmt.Sprintf("pipeline: illegal transition %s -> %s", o.State, to))
	}
	o.State = to
}

func (o *Outcome) fail(err *PipelineError) {
	err.Stage = o.State
	o.Err = err
	o.advance(StateFailed)
}

func (o *Outcome) skip(err *PipelineError) {
	err.Stage = o.State
	o.Err = err
	o.advance(StateSkipped)
}

func (o *Outcome) finish() Outcome {
	o.Duration = time.Since(o.Started)
	return *o
}
