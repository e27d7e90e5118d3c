package persistence

import "time"

// Run is one batch invocation.
type Run struct {
	ID         string
	Argument   string // URL or manifest path as given
	DestDir    string
	URLCount   int
	Done       int
	Skipped    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
}

// FetchRecord is the result of downloading one URL.
type FetchRecord struct {
	RunID     string
	URL       string
	OK        bool
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// AssetRecord is the final state of one processed media file.
type AssetRecord struct {
	RunID            string
	MediaPath        string
	State            string
	Error            string
	SourceSubtitle   string
	SourceTranscript string
	TargetSubtitle   string
	TargetTranscript string
	SourceLines      int
	TargetLines      int
	DetectedLanguage string
	Duration         time.Duration
	CreatedAt        time.Time
}
