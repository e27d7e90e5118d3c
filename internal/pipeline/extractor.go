package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/media"
	"github.com/MimeLyc/yle-transcripts/pkg/file"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
)

// Strategy tries one way of obtaining a source-language subtitle for m.
type Strategy func(ctx context.Context, m MediaAsset) (SubtitleArtifact, bool)

type namedStrategy struct {
	name string
	run  Strategy
}

// Extractor demuxes the source-language subtitle out of a media container.
// Strategies are tried in order and the first success wins.
type Extractor struct {
	ops        media.Operator
	lang       string
	iso3       string
	strategies []namedStrategy
}

func NewExtractor(ops media.Operator, langs config.LanguageConfig) *Extractor {
	e := &Extractor{
		ops:  ops,
		lang: langs.Source,
		iso3: langs.SourceISO3(),
	}
	e.strategies = []namedStrategy{
		{name: "language " + e.iso3, run: e.byLanguage},
		{name: "first stream", run: e.firstStream},
	}
	return e
}

// Extract returns the artifact <stem>.<lang>.srt. ok is false when no
// strategy found a subtitle stream, which is not an error.
func (e *Extractor) Extract(ctx context.Context, m MediaAsset) (SubtitleArtifact, bool) {
	for _, s := range e.strategies {
		artifact, ok := s.run(ctx, m)
		if ok {
			log.Info("Extracted subtitle %s (%s)", filepath.Base(artifact.Path), s.name)
			return artifact, true
		}
		log.Debug("Strategy %q found no subtitle in %s", s.name, filepath.Base(m.Path))
	}

	e.logStreams(ctx, m)
	return SubtitleArtifact{}, false
}

func (e *Extractor) byLanguage(ctx context.Context, m MediaAsset) (SubtitleArtifact, bool) {
	target := m.Sibling(e.lang, ".srt")
	if err := e.ops.ExtractSubtitle(ctx, m.Path, media.LanguageSelector(e.iso3), target); err != nil {
		return SubtitleArtifact{}, false
	}
	if !file.Exists(target) {
		return SubtitleArtifact{}, false
	}
	return SubtitleArtifact{Path: target, Lang: e.lang, Media: m}, true
}

func (e *Extractor) firstStream(ctx context.Context, m MediaAsset) (SubtitleArtifact, bool) {
	unqualified := m.Sibling("", ".srt")
	if err := e.ops.ExtractSubtitle(ctx, m.Path, media.FirstSubtitleStream, unqualified); err != nil {
		return SubtitleArtifact{}, false
	}
	if !file.Exists(unqualified) {
		return SubtitleArtifact{}, false
	}

	artifact := SubtitleArtifact{Path: unqualified, Lang: e.lang, Media: m}
	renamed, err := artifact.RenameTo(m.Sibling(e.lang, ".srt"))
	if err != nil {
		log.Error("Failed to name extracted subtitle: %v", err)
		return SubtitleArtifact{}, false
	}
	return renamed, true
}

// logStreams reports what the container holds when nothing was extracted.
// Probe failures are only logged at debug level.
func (e *Extractor) logStreams(ctx context.Context, m MediaAsset) {
	descs, err := e.ops.ReadSubtitleDescription(ctx, m.Path)
	if err != nil {
		log.Debug("Could not probe %s: %v", filepath.Base(m.Path), err)
		return
	}
	if len(descs) == 0 {
		log.Info("%s has no subtitle streams", filepath.Base(m.Path))
		return
	}
	log.Info("%s has %d subtitle streams (%s), none could be extracted",
		filepath.Base(m.Path), len(descs), strings.Join(descs.Languages(), ", "))
}
