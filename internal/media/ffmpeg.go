package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/runner"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
	"golang.org/x/text/language"
)

// FirstSubtitleStream selects the first subtitle stream regardless of its
// language tag.
const FirstSubtitleStream = "0:s:0"

// LanguageSelector selects subtitle streams whose language metadata equals
// iso3, e.g. "fin".
func LanguageSelector(iso3 string) string {
	return "0:s:m:language:" + iso3
}

type ffmpeg struct {
	ffmpegCmd  string
	ffprobeCmd string
	runner     runner.Runner
}

// NewFFmpeg returns an Operator running ffmpeg through r. ffprobe is run
// directly because its JSON output has to be captured.
func NewFFmpeg(cfg config.MediaConfig, r runner.Runner) Operator {
	ff := &ffmpeg{
		ffmpegCmd:  cfg.FFmpeg,
		ffprobeCmd: cfg.FFprobe,
		runner:     r,
	}
	if ff.ffmpegCmd == "" {
		ff.ffmpegCmd = "ffmpeg"
	}
	if ff.ffprobeCmd == "" {
		ff.ffprobeCmd = "ffprobe"
	}
	return ff
}

func (ff *ffmpeg) ExtractSubtitle(ctx context.Context, input, selector, output string) error {
	_, err := ff.runner.Run(ctx, ff.ffmpegCmd, ff.extractSubArgs(input, selector, output)...)
	return err
}

func (ff *ffmpeg) ReadSubtitleDescription(ctx context.Context, input string) (Descriptions, error) {
	cmdPath, err := exec.LookPath(ff.ffprobeCmd)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, cmdPath, ff.readProbeArgs(input)...)

	output, runErr := cmd.Output()

	var probeResult struct {
		Streams []struct {
			Index     int    `json:"index"`
			CodecType string `json:"codec_type"`
			CodecName string `json:"codec_name"`
			Tags      struct {
				Language string `json:"language"`
				Title    string `json:"title"`
			} `json:"tags"`
			Disposition struct {
				Default int `json:"default"`
			} `json:"disposition"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(output, &probeResult); err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("ffprobe %s: %w", input, runErr)
		}
		log.Error("Failed to parse ffprobe output: %v", err)
		return nil, err
	}
	// ffprobe exits nonzero on some damaged containers while still
	// describing their streams.
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) || probeResult.Streams == nil {
			return nil, fmt.Errorf("ffprobe %s: %w", input, runErr)
		}
		log.Warn("ffprobe exited with status %d for %s, using partial output", exitErr.ExitCode(), input)
	}

	descriptions := make(Descriptions, 0)
	for _, stream := range probeResult.Streams {
		if stream.CodecType != "subtitle" {
			continue
		}
		desc := StreamDescription{
			Index:    stream.Index,
			Codec:    stream.CodecName,
			Language: strings.ToLower(stream.Tags.Language),
			Title:    stream.Tags.Title,
			LangTag:  language.Und,
			Default:  stream.Disposition.Default == 1,
		}
		if desc.Language == "" {
			desc.Language = "und" // undefined
		}
		if tag, err := language.Parse(desc.Language); err == nil {
			desc.LangTag = tag
		}
		descriptions = append(descriptions, desc)
	}

	return descriptions, nil
}

func (*ffmpeg) readProbeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams",
		"s",
		path,
	}
}

func (*ffmpeg) extractSubArgs(input, selector, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-map", selector,
		output,
	}
}
