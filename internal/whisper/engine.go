// Package whisper drives the whisper speech recognition CLI in translate
// mode, producing an English SRT track from source-language input.
package whisper

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/runner"
	"github.com/MimeLyc/yle-transcripts/pkg/file"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
)

// Translator turns source-language input into a target-language SRT file.
type Translator interface {
	// Translate runs the engine on input and returns the path where the
	// engine writes its result for media. The path is not checked.
	Translate(ctx context.Context, media, input, dir string) (expected string, err error)
}

type Engine struct {
	command  string
	model    string
	language string
	runner   runner.Runner
}

func NewEngine(cfg config.WhisperConfig, sourceLang string, r runner.Runner) *Engine {
	return &Engine{
		command:  cfg.Command,
		model:    cfg.Model,
		language: sourceLang,
		runner:   r,
	}
}

func (e *Engine) Translate(ctx context.Context, media, input, dir string) (string, error) {
	expected := ExpectedOutput(media, dir)

	log.Info("Translating %s with whisper model %s", filepath.Base(input), e.model)
	result, err := e.runner.Run(ctx, e.command, e.args(input, dir)...)
	if err != nil {
		return expected, fmt.Errorf("whisper translate %s: %w", input, err)
	}
	log.Info("Whisper finished in %s", result.Duration.Round(time.Second))
	return expected, nil
}

func (e *Engine) args(input, dir string) []string {
	return []string{
		input,
		"--model", e.model,
		"--language", e.language,
		"--task", "translate",
		"--output_format", "srt",
		"--output_dir", dir,
	}
}

// ExpectedOutput is the file the engine is expected to leave in dir for
// media: the media stem with an .srt extension.
func ExpectedOutput(media, dir string) string {
	return filepath.Join(dir, file.Stem(media)+".srt")
}
