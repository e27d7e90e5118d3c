package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/MimeLyc/yle-transcripts/pkg/log"
)

// Result describes one finished external command.
type Result struct {
	ExitCode int
	Duration time.Duration
}

// Runner executes external commands and blocks until they exit.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// CommandError is returned when a command cannot be started or exits with a
// nonzero status.
type CommandError struct {
	Command  string
	Args     []string
	ExitCode int
	Cause    error
}

func (e *CommandError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %v", e.Command, e.Cause)
	}
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// CommandLine renders the command the way it was invoked.
func (e *CommandError) CommandLine() string {
	return FormatCommand(e.Command, e.Args)
}

// FormatCommand joins a command and its arguments with spaces.
func FormatCommand(name string, args []string) string {
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}

// ExecRunner runs commands with os/exec. Child stdout and stderr are passed
// through unbuffered so progress output reaches whoever is watching ours.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner returns a runner wired to the process's stdout and stderr.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	fmt.Fprintf(r.stdout(), "RUN: %s\n", FormatCommand(name, args))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()

	start := time.Now()
	err := cmd.Run()
	result := Result{Duration: time.Since(start)}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		log.Debug("%s failed after %s: %v", name, result.Duration.Round(time.Millisecond), err)
		return result, &CommandError{
			Command:  name,
			Args:     append([]string(nil), args...),
			ExitCode: result.ExitCode,
			Cause:    err,
		}
	}
	return result, nil
}

func (r *ExecRunner) stdout() io.Writer {
	if r.Stdout == nil {
		return io.Discard
	}
	return r.Stdout
}

func (r *ExecRunner) stderr() io.Writer {
	if r.Stderr == nil {
		return io.Discard
	}
	return r.Stderr
}
