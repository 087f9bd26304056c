// SPDX-License-Identifier: MPL-2.0

package run

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// Fake is a Runner for tests. It records every invocation and dispatches to
// per-tool handlers keyed by the executable's base name. Tools without a
// handler succeed with empty output.
type Fake struct {
	mu sync.Mutex
	// Calls records every command in invocation order.
	Calls []Cmd
	// Handlers maps an executable base name (e.g. "xcodebuild") to a
	// scripted response.
	Handlers map[string]func(Cmd) (Output, error)
	// Err, when set, fails every invocation with this error.
	Err error
}

// Run implements Runner.
func (f *Fake) Run(_ context.Context, cmd Cmd) (Output, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	f.mu.Unlock()

	if f.Err != nil {
		return Output{}, f.Err
	}
	if h, ok := f.Handlers[filepath.Base(cmd.Path)]; ok {
		return h(cmd)
	}
	return Output{}, nil
}

// CallsTo returns the recorded invocations of the given executable base name.
func (f *Fake) CallsTo(tool string) []Cmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Cmd
	for _, c := range f.Calls {
		if filepath.Base(c.Path) == tool {
			out = append(out, c)
		}
	}
	return out
}

// Handle registers a handler for the given executable base name.
func (f *Fake) Handle(tool string, h func(Cmd) (Output, error)) {
	if f.Handlers == nil {
		f.Handlers = make(map[string]func(Cmd) (Output, error))
	}
	f.Handlers[tool] = h
}

// FailWith registers a handler that fails the given tool with a ProcessError
// carrying the provided streams.
func (f *Fake) FailWith(tool string, exitCode int, stdout, stderr string) {
	f.Handle(tool, func(cmd Cmd) (Output, error) {
		return Output{}, &ProcessError{
			Argv:     append([]string{cmd.Path}, cmd.Args...),
			ExitCode: exitCode,
			Stdout:   stdout,
			Stderr:   stderr,
		}
	})
}

// String renders a command the way it would appear on a shell prompt.
// Helpful in test failure messages.
func (c Cmd) String() string {
	return fmt.Sprintf("%s %v", c.Path, c.Args)
}
