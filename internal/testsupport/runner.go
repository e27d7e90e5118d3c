package testsupport

import (
	"context"
	"strings"
	"sync"

	"github.com/MimeLyc/yle-transcripts/internal/runner"
)

// Call is one recorded command invocation.
type Call struct {
	Name string
	Args []string
}

// Line renders the call as a single command line.
func (c Call) Line() string {
	return runner.FormatCommand(c.Name, c.Args)
}

// Has reports whether args contains the flag immediately followed by value.
func (c Call) Has(flag, value string) bool {
	for i := 0; i+1 < len(c.Args); i++ {
		if c.Args[i] == flag && c.Args[i+1] == value {
			return true
		}
	}
	return false
}

// Value returns the argument following flag, or "".
func (c Call) Value(flag string) string {
	for i := 0; i+1 < len(c.Args); i++ {
		if c.Args[i] == flag {
			return c.Args[i+1]
		}
	}
	return ""
}

// LastArg returns the final argument, or "".
func (c Call) LastArg() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// Handler simulates one command. Returning a nonzero exit code makes the
// fake runner report a *runner.CommandError.
type Handler func(call Call) (exitCode int)

// FakeRunner records calls and dispatches them to Handler.
type FakeRunner struct {
	Handler Handler

	mu    sync.Mutex
	calls []Call
}

func NewFakeRunner(h Handler) *FakeRunner {
	return &FakeRunner{Handler: h}
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) (runner.Result, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	code := 0
	if f.Handler != nil {
		code = f.Handler(call)
	}
	if code != 0 {
		return runner.Result{ExitCode: code}, &runner.CommandError{
			Command:  name,
			Args:     call.Args,
			ExitCode: code,
		}
	}
	return runner.Result{}, nil
}

// Calls returns a copy of every recorded call.
func (f *FakeRunner) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls whose command name is name.
func (f *FakeRunner) CallsTo(name string) []Call {
	ret := make([]Call, 0)
	for _, c := range f.Calls() {
		if c.Name == name {
			ret = append(ret, c)
		}
	}
	return ret
}

// Lines renders all recorded calls, one per entry.
func (f *FakeRunner) Lines() []string {
	calls := f.Calls()
	ret := make([]string, len(calls))
	for i, c := range calls {
		ret[i] = c.Line()
	}
	return ret
}

// Joined is Lines joined by newlines, convenient for Contains assertions.
func (f *FakeRunner) Joined() string {
	return strings.Join(f.Lines(), "\n")
}
