// SPDX-License-Identifier: MPL-2.0

// Package run models external tool invocations as synchronous calls with
// captured output. Every toolchain interaction in the packaging pipeline
// (cargo, rustc, xcrun, xcodebuild, swift) goes through a Runner so tests can
// substitute a fake and assert on the exact invocations.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

type (
	// Cmd describes one external tool invocation.
	Cmd struct {
		// Path is the executable to run (looked up on PATH if relative).
		Path string
		// Args are the arguments, not including the executable name.
		Args []string
		// Env holds extra environment entries in KEY=VALUE form, appended
		// to the parent process environment.
		Env []string
		// Dir is the working directory ("" means inherit).
		Dir string
		// Stream wires the child's stdout/stderr to the parent console
		// instead of capturing them. Used for long-running builds whose
		// output the user wants to watch live.
		Stream bool
	}

	// Output holds the captured streams of a successful invocation.
	// Both slices are empty for streamed commands.
	Output struct {
		Stdout []byte
		Stderr []byte
	}

	// Runner executes external commands. The production implementation is
	// ExecRunner; tests use Fake.
	Runner interface {
		Run(ctx context.Context, cmd Cmd) (Output, error)
	}

	// ProcessError reports a command that started but exited non-zero.
	// Captured output is attached so the failure is diagnosable without
	// re-running the tool.
	ProcessError struct {
		Argv     []string
		ExitCode int
		Stdout   string
		Stderr   string
	}

	// TimeoutError reports a command that did not finish within the
	// configured bound.
	TimeoutError struct {
		Argv    []string
		Timeout time.Duration
	}
)

func (e *ProcessError) Error() string {
	return fmt.Sprintf("command failed with exit code %d\nstdout: %q\nstderr: %q\n$ %s",
		e.ExitCode, e.Stdout, e.Stderr, strings.Join(e.Argv, " "))
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command did not finish within %s: $ %s", e.Timeout, strings.Join(e.Argv, " "))
}

// ExecRunner runs commands via os/exec with a blocking wait.
type ExecRunner struct {
	// Timeout bounds each invocation; zero means wait forever.
	Timeout time.Duration
}

// Run executes cmd and returns its captured output. A non-zero exit is
// returned as *ProcessError; exceeding the timeout as *TimeoutError.
// There are no retries: a failed tool invocation aborts the caller's run.
func (r *ExecRunner) Run(ctx context.Context, cmd Cmd) (Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	if cmd.Stream {
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	err := c.Run()
	if err == nil {
		return Output{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, nil
	}

	argv := append([]string{cmd.Path}, cmd.Args...)
	if r.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Output{}, &TimeoutError{Argv: argv, Timeout: r.Timeout}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Output{}, &ProcessError{
			Argv:     argv,
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}
	}
	return Output{}, fmt.Errorf("failed to start command %s: %w", cmd.Path, err)
}
