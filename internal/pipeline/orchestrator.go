package pipeline

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/media"
	"github.com/MimeLyc/yle-transcripts/internal/runner"
	"github.com/MimeLyc/yle-transcripts/internal/subtitle"
	"github.com/MimeLyc/yle-transcripts/internal/whisper"
	"github.com/MimeLyc/yle-transcripts/pkg/file"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
)

// Orchestrator runs one media asset through extraction, normalization and
// translation.
type Orchestrator struct {
	extractor  *Extractor
	translator whisper.Translator
	reader     subtitle.Reader
	langs      config.LanguageConfig
	input      config.TranslateInput
}

func NewOrchestrator(
	cfg *config.Config,
	extractor *Extractor,
	translator whisper.Translator,
) *Orchestrator {
	return &Orchestrator{
		extractor:  extractor,
		translator: translator,
		reader:     subtitle.NewReader(),
		langs:      cfg.Languages,
		input:      cfg.Whisper.Input,
	}
}

// NewDefaultOrchestrator wires ffmpeg and whisper from cfg, running both
// through r.
func NewDefaultOrchestrator(cfg *config.Config, r runner.Runner) *Orchestrator {
	return NewOrchestrator(
		cfg,
		NewExtractor(media.NewFFmpeg(cfg.Media, r), cfg.Languages),
		whisper.NewEngine(cfg.Whisper, cfg.Languages.Source, r),
	)
}

// Process drives m to a terminal state. It never returns an error: failures
// are carried in Outcome.Err.
func (o *Orchestrator) Process(ctx context.Context, m MediaAsset) Outcome {
	out := newOutcome(m)
	log.Info("Processing %s", filepath.Base(m.Path))

	source, ok := o.extractor.Extract(ctx, m)
	if !ok {
		log.Warn("No %s subtitles in %s, skipping", o.langs.Source, filepath.Base(m.Path))
		out.skip(NewError(ErrNotFound, "", "no subtitle stream could be extracted"))
		return out.finish()
	}
	out.Artifacts.SourceSubtitle = source.Path
	out.advance(StateSourceSubsExtracted)
	o.checkLanguage(out, source)

	lines, err := subtitle.NormalizeFile(source.Path, source.TranscriptPath())
	if err != nil {
		out.fail(fileError(err, "normalize source subtitle"))
		return out.finish()
	}
	out.Artifacts.SourceTranscript = source.TranscriptPath()
	out.SourceLines = len(lines)
	out.advance(StateSourceTranscriptWritten)

	input := source.Path
	if o.input == config.TranslateInputMedia {
		input = m.Path
	}
	out.advance(StateTranslationInvoked)
	expected, err := o.translator.Translate(ctx, m.Path, input, m.Dir())
	if err != nil {
		pErr := WrapError(err, ErrExternalTool, "", "translation failed")
		var cmdErr *runner.CommandError
		if errors.As(err, &cmdErr) {
			pErr.Command = cmdErr.CommandLine()
		}
		out.fail(pErr)
		return out.finish()
	}

	if !file.Exists(expected) {
		out.fail(NewError(ErrMissingOutput, "", "translation output not found: "+expected))
		return out.finish()
	}
	produced := SubtitleArtifact{Path: expected, Lang: o.langs.Target, Media: m}
	target, err := produced.RenameTo(m.Sibling(o.langs.Target, ".srt"))
	if err != nil {
		out.fail(WrapError(err, ErrFileWrite, "", "rename translation output"))
		return out.finish()
	}
	out.Artifacts.TargetSubtitle = target.Path
	out.advance(StateTargetSubsRenamed)

	lines, err = subtitle.NormalizeFile(target.Path, target.TranscriptPath())
	if err != nil {
		out.fail(fileError(err, "normalize target subtitle"))
		return out.finish()
	}
	out.Artifacts.TargetTranscript = target.TranscriptPath()
	out.TargetLines = len(lines)
	out.advance(StateTargetTranscriptWritten)

	out.advance(StateDone)
	log.Info("Done %s: %d %s lines, %d %s lines",
		filepath.Base(m.Path), out.SourceLines, o.langs.Source, out.TargetLines, o.langs.Target)
	return out.finish()
}

// checkLanguage records the detected language of the extracted subtitle and
// warns when it is clearly not the source language, as happens when the
// first-stream fallback picks another track.
func (o *Orchestrator) checkLanguage(out *Outcome, source SubtitleArtifact) {
	sub, err := o.reader.Read(source.Path)
	if err != nil {
		log.Debug("Language check skipped for %s: %v", filepath.Base(source.Path), err)
		return
	}
	out.DetectedLanguage = sub.Language
	if sub.Language.IsRoot() {
		return
	}
	if !subtitle.SameLanguage(sub.Language, o.langs.SourceTag()) {
		log.Warn("%s looks like %s, not %s", filepath.Base(source.Path), sub.Language, o.langs.Source)
	}
}

func fileError(err error, message string) *PipelineError {
	if file.IsNotExist(err) {
		return WrapError(err, ErrFileRead, "", message)
	}
	return WrapError(err, ErrFileWrite, "", message)
}
