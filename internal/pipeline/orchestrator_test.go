package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/media"
	"github.com/MimeLyc/yle-transcripts/internal/testsupport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestOrchestrator_EndToEnd(t *testing.T) {
	m := newTestMedia(t, "x.mkv")
	tools := &testsupport.Tools{
		Subtitles:   map[string]string{media.LanguageSelector("fin"): finnishSRT},
		Translation: englishSRT,
	}
	fake := tools.Runner()
	cfg := newTestConfig(t)

	out := NewDefaultOrchestrator(cfg, fake).Process(context.Background(), m)
	require.NoError(t, out.Err)
	assert.Equal(t, StateDone, out.State)

	assert.Equal(t, "Hei\nMoi", testsupport.ReadFile(t, m.Sibling("fi", ".txt")))
	assert.Equal(t, "Hi\nHello", testsupport.ReadFile(t, m.Sibling("en", ".txt")))
	assert.Equal(t, englishSRT, testsupport.ReadFile(t, m.Sibling("en", ".srt")))
	assert.NoFileExists(t, m.Sibling("", ".srt"), "engine output is renamed")

	assert.Equal(t, Artifacts{
		SourceSubtitle:   m.Sibling("fi", ".srt"),
		SourceTranscript: m.Sibling("fi", ".txt"),
		TargetSubtitle:   m.Sibling("en", ".srt"),
		TargetTranscript: m.Sibling("en", ".txt"),
	}, out.Artifacts)
	assert.Equal(t, 2, out.SourceLines)
	assert.Equal(t, 2, out.TargetLines)

	whisperCalls := fake.CallsTo("whisper")
	require.Len(t, whisperCalls, 1)
	assert.Equal(t, m.Sibling("fi", ".srt"), whisperCalls[0].Args[0])
	assert.Equal(t, m.Dir(), whisperCalls[0].Value("--output_dir"))
}

func TestOrchestrator_NoSubtitleSkips(t *testing.T) {
	m := newTestMedia(t, "x.mkv")
	tools := &testsupport.Tools{Translation: englishSRT}
	fake := tools.Runner()

	out := NewDefaultOrchestrator(newTestConfig(t), fake).Process(context.Background(), m)
	assert.Equal(t, StateSkipped, out.State)
	assert.True(t, IsErrorType(out.Err, ErrNotFound))

	assert.Empty(t, fake.CallsTo("whisper"), "translation must not be attempted")
	assert.NoFileExists(t, m.Sibling("fi", ".txt"))
	assert.NoFileExists(t, m.Sibling("en", ".txt"))
	assert.Equal(t, Artifacts{}, out.Artifacts)
}

func TestOrchestrator_TranslationFailure(t *testing.T) {
	m := newTestMedia(t, "x.mkv")
	tools := &testsupport.Tools{
		Subtitles:   map[string]string{media.LanguageSelector("fin"): finnishSRT},
		WhisperExit: 1,
	}

	out := NewDefaultOrchestrator(newTestConfig(t), tools.Runner()).Process(context.Background(), m)
	assert.Equal(t, StateFailed, out.State)
	require.True(t, IsErrorType(out.Err, ErrExternalTool))

	var pErr *PipelineError
	require.True(t, errors.As(out.Err, &pErr))
	assert.Equal(t, StateTranslationInvoked, pErr.Stage)
	assert.Contains(t, pErr.Command, "--task translate")

	assert.Equal(t, "Hei\nMoi", testsupport.ReadFile(t, m.Sibling("fi", ".txt")))
	assert.NoFileExists(t, m.Sibling("en", ".srt"))
	assert.NoFileExists(t, m.Sibling("en", ".txt"))
}

func TestOrchestrator_MissingTranslationOutput(t *testing.T) {
	m := newTestMedia(t, "x.mkv")
	tools := &testsupport.Tools{
		Subtitles: map[string]string{media.LanguageSelector("fin"): finnishSRT},
	}

	out := NewDefaultOrchestrator(newTestConfig(t), tools.Runner()).Process(context.Background(), m)
	assert.Equal(t, StateFailed, out.State)
	assert.True(t, IsErrorType(out.Err, ErrMissingOutput))
	assert.Contains(t, out.Err.Error(), filepath.Join(m.Dir(), "x.srt"))

	var pErr *PipelineError
	require.True(t, errors.As(out.Err, &pErr))
	assert.Equal(t, StateTranslationInvoked, pErr.Stage)
	assert.NoFileExists(t, m.Sibling("en", ".txt"))
}

func TestOrchestrator_MediaAsTranslationInput(t *testing.T) {
	m := newTestMedia(t, "x.mkv")
	tools := &testsupport.Tools{
		Subtitles:   map[string]string{media.LanguageSelector("fin"): finnishSRT},
		Translation: englishSRT,
	}
	fake := tools.Runner()
	cfg := newTestConfig(t)
	cfg.Whisper.Input = config.TranslateInputMedia

	out := NewDefaultOrchestrator(cfg, fake).Process(context.Background(), m)
	require.Equal(t, StateDone, out.State)
	assert.Equal(t, m.Path, fake.CallsTo("whisper")[0].Args[0])
}

func TestOrchestrator_ReprocessOverwrites(t *testing.T) {
	m := newTestMedia(t, "x.mkv")
	testsupport.WriteFile(t, m.Sibling("fi", ".txt"), "stale")
	testsupport.WriteFile(t, m.Sibling("en", ".srt"), "stale")
	tools := &testsupport.Tools{
		Subtitles:   map[string]string{media.LanguageSelector("fin"): finnishSRT},
		Translation: englishSRT,
	}

	out := NewDefaultOrchestrator(newTestConfig(t), tools.Runner()).Process(context.Background(), m)
	require.Equal(t, StateDone, out.State)
	assert.Equal(t, "Hei\nMoi", testsupport.ReadFile(t, m.Sibling("fi", ".txt")))
	assert.Equal(t, "Hi\nHello", testsupport.ReadFile(t, m.Sibling("en", ".txt")))
}

func TestOrchestrator_DetectsLanguage(t *testing.T) {
	m := newTestMedia(t, "x.mkv")
	swedish := testsupport.SRT(
		"God kväll och välkommen till nyheterna.",
		"Riksdagen diskuterade i dag regeringens förslag länge.",
		"Vädret fortsätter att vara torrt i hela landet i morgon.",
	)
	tools := &testsupport.Tools{
		Subtitles:   map[string]string{media.FirstSubtitleStream: swedish},
		Translation: englishSRT,
	}

	out := NewDefaultOrchestrator(newTestConfig(t), tools.Runner()).Process(context.Background(), m)
	assert.Equal(t, StateDone, out.State, "a language mismatch only warns")
	assert.Equal(t, language.Swedish.String(), out.DetectedLanguage.String())
}
