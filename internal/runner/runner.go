// Package runner launches toolchain subprocesses bound to a cancellation
// context.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Result holds the outcome of one subprocess.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Launcher starts a program and waits for it to exit.
//
// A non-nil Result with a non-nil error means the program ran and exited
// unsuccessfully (or was terminated); a nil Result means it never started.
type Launcher interface {
	Launch(ctx context.Context, program string, args []string) (*Result, error)
}

// LaunchFunc adapts a function to the Launcher interface.
type LaunchFunc func(ctx context.Context, program string, args []string) (*Result, error)

// Launch implements Launcher.
func (f LaunchFunc) Launch(ctx context.Context, program string, args []string) (*Result, error) {
	return f(ctx, program, args)
}

// DefaultWaitDelay is how long a cancelled subprocess gets to exit after the
// interrupt before it is killed.
const DefaultWaitDelay = 10 * time.Second

// Options configures an ExecLauncher.
type Options struct {
	// WorkingDir is the directory the program runs in; empty means the
	// current directory.
	WorkingDir string

	// Env is appended to the current environment.
	Env map[string]string

	// Stdout and Stderr receive the program's output as it is produced, in
	// addition to the captured copy in Result.
	Stdout io.Writer
	Stderr io.Writer

	// WaitDelay bounds the time between the interrupt and a forced kill.
	WaitDelay time.Duration
}

// Option modifies Options.
type Option func(*Options)

// WithWorkingDir sets the working directory.
func WithWorkingDir(dir string) Option {
	return func(o *Options) {
		o.WorkingDir = dir
	}
}

// WithEnvVar adds a single environment variable.
func WithEnvVar(key, value string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string)
		}
		o.Env[key] = value
	}
}

// WithOutput streams stdout and stderr to the given writers.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *Options) {
		o.Stdout = stdout
		o.Stderr = stderr
	}
}

// WithWaitDelay overrides DefaultWaitDelay.
func WithWaitDelay(d time.Duration) Option {
	return func(o *Options) {
		o.WaitDelay = d
	}
}

// ExecLauncher runs programs with os/exec.
type ExecLauncher struct {
	options Options
}

// NewExecLauncher creates an ExecLauncher.
func NewExecLauncher(opts ...Option) *ExecLauncher {
	o := Options{WaitDelay: DefaultWaitDelay}
	for _, opt := range opts {
		opt(&o)
	}
	return &ExecLauncher{options: o}
}

// Launch implements Launcher. When ctx is cancelled the program receives an
// interrupt (a kill on platforms without one) and is killed outright if it
// has not exited after WaitDelay.
func (l *ExecLauncher) Launch(ctx context.Context, program string, args []string) (*Result, error) {
	// #nosec G204 - running the configured toolchain is the purpose of this package
	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Cancel = func() error {
		return interrupt(cmd.Process)
	}
	cmd.WaitDelay = l.options.WaitDelay

	if l.options.WorkingDir != "" {
		cmd.Dir = l.options.WorkingDir
	}
	if len(l.options.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range l.options.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = teeWriter(&stdoutBuf, l.options.Stdout)
	cmd.Stderr = teeWriter(&stderrBuf, l.options.Stderr)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", program, err)
	}
	err := cmd.Wait()

	result := &Result{
		Stdout: stdoutBuf.String(),
		Stderr: stderrBuf.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, fmt.Errorf("%s aborted: %w", program, ctxErr)
		}
		return result, fmt.Errorf("%s failed: %w", program, err)
	}
	return result, nil
}

func teeWriter(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
