// Command supervise runs yletrans as a child process, streams its output and
// exits with the child's exit status.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/MimeLyc/yle-transcripts/internal/config"
	"github.com/MimeLyc/yle-transcripts/internal/supervisor"
	"github.com/MimeLyc/yle-transcripts/pkg/file"
	"github.com/spf13/cobra"
)

const childName = "yletrans"

func main() {
	code := 0
	cmd := newRootCommand(os.Stdout, &code)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
	os.Exit(code)
}

func newRootCommand(out io.Writer, exitCode *int) *cobra.Command {
	return &cobra.Command{
		Use:           "supervise <url|manifest>",
		Short:         "Run yletrans and stream its output",
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

			cfg, err := config.NewFromEnv()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			bin, err := childBinary()
			if err != nil {
				return err
			}
			*exitCode, err = supervise(ctx, out, cfg.Supervisor.Encoding, bin, args[0])
			return err
		},
	}
}

// supervise streams the child's output to out and returns its exit code.
func supervise(ctx context.Context, out io.Writer, encoding, bin, arg string) (int, error) {
	p, err := supervisor.Start(ctx, encoding, bin, arg)
	if err != nil {
		return 0, err
	}
	for line := range p.Lines() {
		fmt.Fprintln(out, line)
	}
	c := <-p.Done()
	fmt.Fprintf(out, "[%s finished with exit code %d]\n", filepath.Base(bin), c.ExitCode)
	if c.ExitCode < 0 {
		return 1, nil
	}
	return c.ExitCode, nil
}

// childBinary locates yletrans: YLETRANS_BIN, then the directory of this
// executable, then PATH.
func childBinary() (string, error) {
	if bin := os.Getenv("YLETRANS_BIN"); bin != "" {
		return bin, nil
	}
	if exe, err := os.Executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(exe), childName)
		if file.Exists(sibling) {
			return sibling, nil
		}
	}
	bin, err := exec.LookPath(childName)
	if err != nil {
		return "", fmt.Errorf("%s not found next to supervise or on PATH; set YLETRANS_BIN: %w", childName, err)
	}
	return bin, nil
}
