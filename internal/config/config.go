package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MimeLyc/yle-transcripts/pkg/icron"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Config holds all application configuration.
//
// Values are layered, later layers winning:
//  1. Default()
//  2. TOML file (CONFIG_FILE, default ~/.config/yletrans/config.toml)
//  3. .env in the working directory (never overrides variables already set)
//  4. Environment variables
//  5. Option funcs
//
// Environment Variables:
// Paths:
// - DEST_DIR: download and artifact directory (default: ~/Downloads/Yle)
// - HISTORY_DB: sqlite run history, "off" disables (default: <DEST_DIR>/.yletrans/history.db)
//
// Languages:
// - SOURCE_LANG: spoken/subtitle language of the content (default: fi)
// - TARGET_LANG: language produced by the translation engine (default: en)
//
// External tools:
// - FETCHER_CMD: media fetcher binary (default: yle-dl)
// - RESOLUTION: preferred fetch resolution (default: 1080)
// - FFMPEG_CMD / FFPROBE_CMD: demuxer and prober (default: ffmpeg / ffprobe)
// - MEDIA_EXT: container extension scanned in DEST_DIR (default: .mkv)
// - WHISPER_CMD: speech translation engine (default: whisper)
// - WHISPER_MODEL: engine model size (default: small)
// - TRANSLATE_INPUT: "subtitle" or "media" (default: subtitle)
//
// Runtime:
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - SCHEDULE: cron expression; empty runs the batch once (default: empty)
// - OUTPUT_ENCODING: supervisor decoding of child output, utf-8 or cp1252 (default: utf-8)
type Config struct {
	Paths      PathsConfig      `toml:"paths" json:"paths"`
	Languages  LanguageConfig   `toml:"languages" json:"languages"`
	Fetch      FetchConfig      `toml:"fetch" json:"fetch"`
	Media      MediaConfig      `toml:"media" json:"media"`
	Whisper    WhisperConfig    `toml:"whisper" json:"whisper"`
	Logging    LoggingConfig    `toml:"logging" json:"logging"`
	Schedule   ScheduleConfig   `toml:"schedule" json:"schedule"`
	Supervisor SupervisorConfig `toml:"supervisor" json:"supervisor"`
}

type PathsConfig struct {
	DestDir   string `toml:"dest_dir" json:"dest_dir"`
	HistoryDB string `toml:"history_db" json:"history_db"`
}

// LanguageConfig holds BCP 47 base codes, normalized to their two-letter
// form where one exists ("fin" -> "fi").
type LanguageConfig struct {
	Source string `toml:"source" json:"source"`
	Target string `toml:"target" json:"target"`
}

type FetchConfig struct {
	Command    string `toml:"command" json:"command"`
	Resolution int    `toml:"resolution" json:"resolution"`
}

type MediaConfig struct {
	FFmpeg    string `toml:"ffmpeg" json:"ffmpeg"`
	FFprobe   string `toml:"ffprobe" json:"ffprobe"`
	Extension string `toml:"extension" json:"extension"`
}

type TranslateInput string

const (
	TranslateInputSubtitle TranslateInput = "subtitle"
	TranslateInputMedia    TranslateInput = "media"
)

type WhisperConfig struct {
	Command string         `toml:"command" json:"command"`
	Model   string         `toml:"model" json:"model"`
	Input   TranslateInput `toml:"input" json:"input"`
}

type LoggingConfig struct {
	Level string `toml:"level" json:"level"`
}

type ScheduleConfig struct {
	Cron string `toml:"cron" json:"cron"`
}

type SupervisorConfig struct {
	Encoding string `toml:"encoding" json:"encoding"`
}

const (
	defaultDestDir    = "~/Downloads/Yle"
	defaultConfigFile = "~/.config/yletrans/config.toml"
	historyDisabled   = "off"
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Paths: PathsConfig{
			DestDir: defaultDestDir,
		},
		Languages: LanguageConfig{
			Source: "fi",
			Target: "en",
		},
		Fetch: FetchConfig{
			Command:    "yle-dl",
			Resolution: 1080,
		},
		Media: MediaConfig{
			FFmpeg:    "ffmpeg",
			FFprobe:   "ffprobe",
			Extension: ".mkv",
		},
		Whisper: WhisperConfig{
			Command: "whisper",
			Model:   "small",
			Input:   TranslateInputSubtitle,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Supervisor: SupervisorConfig{
			Encoding: "utf-8",
		},
	}
}

// Option is a function type for configuring Config
type Option func(*Config)

func WithDestDir(dir string) Option {
	return func(c *Config) {
		c.Paths.DestDir = dir
	}
}

func WithHistoryDB(path string) Option {
	return func(c *Config) {
		c.Paths.HistoryDB = path
	}
}

// NewFromEnv builds the layered configuration described on Config.
func NewFromEnv(opts ...Option) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()

	path, err := expandPath(getEnvString("CONFIG_FILE", defaultConfigFile))
	if err != nil {
		return nil, fmt.Errorf("config file path: %w", err)
	}
	if _, err := loadFile(path, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Paths.DestDir = getEnvString("DEST_DIR", c.Paths.DestDir)
	c.Paths.HistoryDB = getEnvString("HISTORY_DB", c.Paths.HistoryDB)
	c.Languages.Source = getEnvString("SOURCE_LANG", c.Languages.Source)
	c.Languages.Target = getEnvString("TARGET_LANG", c.Languages.Target)
	c.Fetch.Command = getEnvString("FETCHER_CMD", c.Fetch.Command)
	c.Fetch.Resolution = getEnvInt("RESOLUTION", c.Fetch.Resolution)
	c.Media.FFmpeg = getEnvString("FFMPEG_CMD", c.Media.FFmpeg)
	c.Media.FFprobe = getEnvString("FFPROBE_CMD", c.Media.FFprobe)
	c.Media.Extension = getEnvString("MEDIA_EXT", c.Media.Extension)
	c.Whisper.Command = getEnvString("WHISPER_CMD", c.Whisper.Command)
	c.Whisper.Model = getEnvString("WHISPER_MODEL", c.Whisper.Model)
	c.Whisper.Input = TranslateInput(getEnvString("TRANSLATE_INPUT", string(c.Whisper.Input)))
	c.Logging.Level = getEnvString("LOG_LEVEL", c.Logging.Level)
	c.Schedule.Cron = getEnvString("SCHEDULE", c.Schedule.Cron)
	c.Supervisor.Encoding = getEnvString("OUTPUT_ENCODING", c.Supervisor.Encoding)
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DestDir, err = expandPath(strings.TrimSpace(c.Paths.DestDir)); err != nil {
		return fmt.Errorf("paths.dest_dir: %w", err)
	}

	switch history := strings.TrimSpace(c.Paths.HistoryDB); {
	case strings.EqualFold(history, historyDisabled):
		c.Paths.HistoryDB = historyDisabled
	case history == "":
		c.Paths.HistoryDB = filepath.Join(c.Paths.DestDir, ".yletrans", "history.db")
	default:
		if c.Paths.HistoryDB, err = expandPath(history); err != nil {
			return fmt.Errorf("paths.history_db: %w", err)
		}
	}

	if c.Languages.Source, err = normalizeLanguage(c.Languages.Source); err != nil {
		return fmt.Errorf("languages.source: %w", err)
	}
	if c.Languages.Target, err = normalizeLanguage(c.Languages.Target); err != nil {
		return fmt.Errorf("languages.target: %w", err)
	}

	ext := strings.ToLower(strings.TrimSpace(c.Media.Extension))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Media.Extension = ext

	c.Whisper.Model = strings.TrimSpace(c.Whisper.Model)
	c.Whisper.Input = TranslateInput(strings.ToLower(strings.TrimSpace(string(c.Whisper.Input))))
	c.Schedule.Cron = strings.TrimSpace(c.Schedule.Cron)
	c.Supervisor.Encoding = strings.ToLower(strings.TrimSpace(c.Supervisor.Encoding))
	return nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Paths.DestDir == "" {
		return fmt.Errorf("DEST_DIR is required")
	}
	if c.Languages.Source == c.Languages.Target {
		return fmt.Errorf("SOURCE_LANG and TARGET_LANG must differ, both are %q", c.Languages.Source)
	}
	if c.Fetch.Resolution <= 0 {
		return fmt.Errorf("RESOLUTION must be positive, got %d", c.Fetch.Resolution)
	}
	if c.Media.Extension == "" {
		return fmt.Errorf("MEDIA_EXT is required")
	}
	for name, cmd := range map[string]string{
		"FETCHER_CMD": c.Fetch.Command,
		"FFMPEG_CMD":  c.Media.FFmpeg,
		"FFPROBE_CMD": c.Media.FFprobe,
		"WHISPER_CMD": c.Whisper.Command,
	} {
		if strings.TrimSpace(cmd) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Whisper.Model == "" {
		return fmt.Errorf("WHISPER_MODEL is required")
	}
	switch c.Whisper.Input {
	case TranslateInputSubtitle, TranslateInputMedia:
	default:
		return fmt.Errorf("TRANSLATE_INPUT must be %q or %q, got %q",
			TranslateInputSubtitle, TranslateInputMedia, c.Whisper.Input)
	}
	if c.Schedule.Cron != "" {
		if _, err := icron.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("SCHEDULE: %w", err)
		}
	}
	switch c.Supervisor.Encoding {
	case "utf-8", "utf8", "cp1252", "windows-1252":
	default:
		return fmt.Errorf("OUTPUT_ENCODING must be utf-8 or cp1252, got %q", c.Supervisor.Encoding)
	}
	return nil
}

// HistoryEnabled reports whether run history should be recorded.
func (c Config) HistoryEnabled() bool {
	return c.Paths.HistoryDB != historyDisabled
}

// SourceISO3 returns the ISO 639-2 code of the source language as used in
// container stream tags (e.g. "fin").
func (c LanguageConfig) SourceISO3() string {
	return ISO3(c.Source)
}

func (c LanguageConfig) SourceTag() language.Tag {
	return language.Make(c.Source)
}

// ISO3 returns the three-letter code for a language code, or "" when it has
// none.
func ISO3(code string) string {
	base, err := language.ParseBase(code)
	if err != nil {
		return ""
	}
	return base.ISO3()
}

func normalizeLanguage(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("language code is required")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language %q: %w", code, err)
	}
	base, conf := tag.Base()
	if conf == language.No || base.ISO3() == "" {
		return "", fmt.Errorf("invalid language %q", code)
	}
	return base.String(), nil
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
