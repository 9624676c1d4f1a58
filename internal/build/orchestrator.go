package build

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/xbuild/internal/cancel"
	"github.com/roach88/xbuild/internal/runner"
	"github.com/roach88/xbuild/internal/target"
)

// ErrAborted is recorded on outcomes whose build was cancelled.
var ErrAborted = errors.New("build aborted")

// Toolchain is the external compiler invocation. Args come before the
// per-target arguments.
type Toolchain struct {
	Program string
	Args    []string
}

// Options configures an Orchestrator.
type Options struct {
	Layout    Layout
	Toolchain Toolchain

	// Jobs limits concurrently running toolchains; 0 means one per target.
	Jobs int

	// FS is the output filesystem rooted at Layout.Root. Defaults to osfs.
	FS billy.Filesystem

	// Launcher starts toolchain subprocesses. Defaults to runner.ExecLauncher.
	Launcher runner.Launcher

	// Logger receives progress messages. Defaults to discarding them.
	Logger *slog.Logger
}

// Orchestrator runs builds for a set of targets.
type Orchestrator struct {
	layout    Layout
	toolchain Toolchain
	jobs      int
	fs        billy.Filesystem
	launcher  runner.Launcher
	logger    *slog.Logger
}

// New creates an Orchestrator, filling in defaults for unset options.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		layout:    opts.Layout,
		toolchain: opts.Toolchain,
		jobs:      opts.Jobs,
		fs:        opts.FS,
		launcher:  opts.Launcher,
		logger:    opts.Logger,
	}
	if o.fs == nil {
		o.fs = osfs.New(opts.Layout.Root)
	}
	if o.launcher == nil {
		o.launcher = runner.NewExecLauncher()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Command returns the program and arguments used to build t.
func (o *Orchestrator) Command(t target.Target, triple target.Triple) (string, []string) {
	args := make([]string, 0, len(o.toolchain.Args)+5)
	args = append(args, o.toolchain.Args...)
	args = append(args,
		"--output", o.layout.OutputPath(t),
		"--target", triple.String(),
		o.layout.EntryModule(t.BuildType),
	)
	return o.toolchain.Program, args
}

// Run builds every target concurrently and returns one Outcome per target,
// in the order of targets. It returns only after every task has finished.
func (o *Orchestrator) Run(abort *cancel.Controller, targets target.Set) []Outcome {
	outcomes := make([]Outcome, len(targets))

	var g errgroup.Group
	if o.jobs > 0 {
		g.SetLimit(o.jobs)
	}
	for i, t := range targets {
		g.Go(func() error {
			outcomes[i] = o.buildOne(abort, t)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (o *Orchestrator) buildOne(abort *cancel.Controller, t target.Target) Outcome {
	start := time.Now()
	out := Outcome{Target: t, ExitCode: -1}
	finish := func(status Status, err error) Outcome {
		out.Status = status
		out.Err = err
		out.Duration = time.Since(start)
		switch status {
		case StatusSucceeded:
			o.logger.Info("built target", "target", t.String(), "duration", out.Duration.Round(time.Millisecond))
		case StatusCancelled:
			o.logger.Warn("build cancelled", "target", t.String())
		default:
			o.logger.Error("build failed", "target", t.String(), "error", err)
		}
		return out
	}

	if abort.Triggered() {
		return finish(StatusCancelled, ErrAborted)
	}

	triple, err := target.MapToTriple(t)
	if err != nil {
		return finish(StatusFailed, err)
	}
	out.Triple = triple
	o.logger.Debug("using toolchain target", "target", t.String(), "triple", triple.String())

	dir := o.layout.Dir(t)
	if err := o.fs.MkdirAll(dir, 0o755); err != nil {
		return finish(StatusFailed, fmt.Errorf("create output directory %s: %w", o.layout.HostDir(t), err))
	}

	if abort.Triggered() {
		return finish(StatusCancelled, ErrAborted)
	}

	program, args := o.Command(t, triple)
	o.logger.Info("starting build", "target", t.String())
	o.logger.Debug("spawning toolchain", "program", program, "args", args)

	result, err := o.launcher.Launch(abort.Context(), program, args)
	switch {
	case result != nil:
		out.ExitCode = result.ExitCode
		out.Stderr = result.Stderr
	case err == nil:
		out.ExitCode = 0
	}

	switch {
	case err == nil && out.ExitCode == 0:
		return finish(StatusSucceeded, nil)
	case abort.Triggered():
		if err == nil {
			return finish(StatusCancelled, ErrAborted)
		}
		return finish(StatusCancelled, fmt.Errorf("%w: %v", ErrAborted, err))
	case result == nil:
		return finish(StatusFailed, fmt.Errorf("launch toolchain for %s: %w", t, err))
	default:
		return finish(StatusFailed, target.NewToolchainFailureError(t, out.ExitCode, err))
	}
}
