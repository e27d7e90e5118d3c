package batch

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MimeLyc/yle-transcripts/internal/pipeline"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// FetchResult is the outcome of downloading one URL.
type FetchResult struct {
	URL      string
	Err      error
	Duration time.Duration
}

// Report summarizes one batch run.
type Report struct {
	RunID    string
	Argument string
	Fetches  []FetchResult
	Outcomes []pipeline.Outcome
	Started  time.Time
	Duration time.Duration
}

// Count returns how many assets ended in state.
func (r Report) Count(state pipeline.State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

func (r Report) FailedFetches() int {
	n := 0
	for _, f := range r.Fetches {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// TotalMediaSize sums the sizes of all processed media files.
func (r Report) TotalMediaSize() int64 {
	var n int64
	for _, o := range r.Outcomes {
		n += o.MediaSize
	}
	return n
}

// Render draws the fetch and asset tables.
func (r Report) Render() string {
	style := table.StyleRounded
	style.Format.Footer = text.FormatDefault
	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.SetTitle("Run %s", r.RunID)
	tw.AppendHeader(table.Row{"Item", "Result", "Size", "Source", "Target", "Detail"})

	for _, f := range r.Fetches {
		result, detail := "fetched", ""
		if f.Err != nil {
			result, detail = "fetch failed", f.Err.Error()
		}
		tw.AppendRow(table.Row{f.URL, result, "", "", "", detail})
	}
	if len(r.Fetches) > 0 && len(r.Outcomes) > 0 {
		tw.AppendSeparator()
	}
	for _, o := range r.Outcomes {
		detail := ""
		if o.Err != nil {
			detail = o.Err.Error()
		}
		tw.AppendRow(table.Row{
			filepath.Base(o.Media.Path),
			string(o.State),
			mediaSize(o.MediaSize),
			lineCount(o.SourceLines, o.Artifacts.SourceTranscript),
			lineCount(o.TargetLines, o.Artifacts.TargetTranscript),
			detail,
		})
	}

	tw.AppendFooter(table.Row{
		fmt.Sprintf("%d fetched, %d failed", len(r.Fetches)-r.FailedFetches(), r.FailedFetches()),
		fmt.Sprintf("%d done, %d skipped, %d failed",
			r.Count(pipeline.StateDone), r.Count(pipeline.StateSkipped), r.Count(pipeline.StateFailed)),
		mediaSize(r.TotalMediaSize()),
		"", "",
		r.Duration.Round(time.Second).String(),
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, WidthMax: 60},
	})
	return tw.Render()
}

func mediaSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// lineCount shows a count only for transcripts that were written.
func lineCount(n int, transcript string) string {
	if transcript == "" {
		return "-"
	}
	return strconv.Itoa(n)
}
