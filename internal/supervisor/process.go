// Package supervisor runs the pipeline as a child process and streams its
// combined output line by line.
package supervisor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/MimeLyc/yle-transcripts/internal/runner"
	"github.com/MimeLyc/yle-transcripts/pkg/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const maxLineSize = 1024 * 1024

// Completion is delivered once the child has exited.
type Completion struct {
	ExitCode int   // -1 when the child could not be waited for or was killed
	Err      error // nil for a zero exit status
}

type Process struct {
	cmd     *exec.Cmd
	out     *os.File
	decoder *encoding.Decoder

	claimed    sync.Once
	exited     chan struct{}
	completion Completion
}

// Decoder returns the decoder for a configured output encoding. Undecodable
// bytes become U+FFFD.
func Decoder(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8.NewDecoder(), nil
	case "cp1252", "windows-1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported output encoding %q", name)
	}
}

// Start spawns name with args. stdout and stderr share one pipe so lines
// arrive in the order the child wrote them.
func Start(ctx context.Context, encodingName, name string, args ...string) (*Process, error) {
	decoder, err := Decoder(encodingName)
	if err != nil {
		return nil, err
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create output pipe: %w", err)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = nil
	cmd.Stdout = w
	cmd.Stderr = w

	log.Debug("Starting %s", runner.FormatCommand(name, args))
	if err := cmd.Start(); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, &runner.CommandError{Command: name, Args: args, ExitCode: -1, Cause: err}
	}
	// the child holds its own copy of the write end
	_ = w.Close()

	p := &Process{
		cmd:     cmd,
		out:     r,
		decoder: decoder,
		exited:  make(chan struct{}),
	}
	go p.wait(name, args)
	return p, nil
}

func (p *Process) wait(name string, args []string) {
	err := p.cmd.Wait()
	c := Completion{}
	if err != nil {
		c.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			c.ExitCode = exitErr.ExitCode()
		}
		c.Err = &runner.CommandError{Command: name, Args: args, ExitCode: c.ExitCode, Cause: err}
	}
	p.completion = c
	close(p.exited)
}

// Lines yields the child's output one line at a time, decoded and without
// line terminators. A carriage return also ends a line so progress updates
// arrive as they are drawn. The sequence can be ranged over once; later
// calls yield nothing. Stopping early keeps draining the pipe in the
// background so the child never blocks on a full pipe.
func (p *Process) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		first := false
		p.claimed.Do(func() { first = true })
		if !first {
			return
		}

		scanner := bufio.NewScanner(transform.NewReader(p.out, p.decoder))
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		scanner.Split(scanLines)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				go p.drain()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			log.Debug("Output stream ended: %v", err)
			go p.drain()
			return
		}
		_ = p.out.Close()
	}
}

// Done delivers the Completion once the child has exited, then is closed.
// Every call returns its own channel.
func (p *Process) Done() <-chan Completion {
	ch := make(chan Completion, 1)
	go func() {
		<-p.exited
		ch <- p.completion
		close(ch)
	}()
	return ch
}

// Wait discards any unread output and returns the completion.
func (p *Process) Wait() Completion {
	for range p.Lines() {
	}
	<-p.exited
	return p.completion
}

func (p *Process) drain() {
	_, _ = io.Copy(io.Discard, p.out)
	_ = p.out.Close()
}

// scanLines is bufio.ScanLines that also splits on a lone '\r'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// '\r': swallow a following '\n', but wait for more data when the
		// '\r' is the last byte seen
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
