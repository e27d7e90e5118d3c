package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MimeLyc/yle-transcripts/internal/batch"
	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/persistence"
	"github.com/MimeLyc/yle-transcripts/internal/runner"
	"github.com/MimeLyc/yle-transcripts/internal/service"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

// app carries the collaborators main wires up, replaceable in tests.
type app struct {
	loadConfig func() (*config.Config, error)
	runner     runner.Runner
	out        io.Writer
}

func defaultApp() *app {
	return &app{
		loadConfig: func() (*config.Config, error) {
			return config.NewFromEnv()
		},
		runner: runner.NewExecRunner(),
		out:    os.Stdout,
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "yletrans <url|manifest>",
		Short: "Fetch Finnish videos and write Finnish and English transcripts",
		Long: `yletrans downloads the video at <url>, or every URL listed in the
<manifest> file (one per line), into DEST_DIR. It then processes every
media file in DEST_DIR: the Finnish subtitle track is extracted, an English
track is produced with whisper, and both are written as plain-text
transcripts next to the video.

Configuration comes from ~/.config/yletrans/config.toml (or CONFIG_FILE),
a .env file and environment variables. With SCHEDULE set the batch repeats
on that cron schedule until interrupted. "yletrans history" shows the
recorded runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return fmt.Errorf("%w\nUsage: %s", err, cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.run(ctx, args[0])
		},
	}
	root.AddCommand(newHistoryCommand(a))
	return root
}

func (a *app) run(ctx context.Context, arg string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log.GetLogger().SetLevel(log.ParseLevel(cfg.Logging.Level))
	if sample, err := config.Sample(*cfg); err == nil {
		log.Debug("Effective configuration:\n%s", sample)
	}

	opts := []batch.Option{batch.WithOutput(a.out)}
	if cfg.HistoryEnabled() {
		store, err := persistence.NewSQLiteStore(cfg.Paths.HistoryDB)
		if err != nil {
			log.Warn("Run history disabled: %v", err)
		} else {
			defer store.Close()
			opts = append(opts, batch.WithRecorder(store))
		}
	}
	driver := batch.NewDefaultDriver(cfg, a.runner, opts...)

	if cfg.Schedule.Cron == "" {
		// Only usage and configuration errors change the exit status.
		if _, err := driver.Run(ctx, arg); err != nil {
			log.Error("Batch stopped: %v", err)
		}
		return nil
	}

	log.Info("Scheduling batch for %s with %q", arg, cfg.Schedule.Cron)
	return service.NewBatchService(cfg.Schedule.Cron, arg, driver, cron.New()).Serve(ctx)
}
