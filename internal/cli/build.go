package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/xbuild/internal/build"
	"github.com/roach88/xbuild/internal/cancel"
	"github.com/roach88/xbuild/internal/history"
	"github.com/roach88/xbuild/internal/runner"
	"github.com/roach88/xbuild/internal/target"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	targetFlags
	Jobs     int
	Database string
}

// TargetReport is one target's line in a build report.
type TargetReport struct {
	Target   string  `json:"target" yaml:"target"`
	Triple   string  `json:"triple,omitempty" yaml:"triple,omitempty"`
	Status   string  `json:"status" yaml:"status"`
	ExitCode int     `json:"exit_code" yaml:"exit_code"`
	Seconds  float64 `json:"seconds" yaml:"seconds"`
	Output   string  `json:"output,omitempty" yaml:"output,omitempty"`
	Error    string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// BuildReport is the structured result of a build.
type BuildReport struct {
	RunID      string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	OutputRoot string         `json:"output_root" yaml:"output_root"`
	Targets    []TargetReport `json:"targets" yaml:"targets"`
	Total      int            `json:"total" yaml:"total"`
	Succeeded  int            `json:"succeeded" yaml:"succeeded"`
	Failed     int            `json:"failed" yaml:"failed"`
	Cancelled  int            `json:"cancelled" yaml:"cancelled"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Compile the project for one or more targets",
		Long: `Compile the project for the requested targets in parallel.

Targets are catalog names (<buildtype>-<os>-<cpu>), short forms (<os>-<cpu>,
using the default build type) or aliases:
  current      the host platform (default)
  dev          development build for the host
  release      release build for the host
  all          every supported target

Example:
  xbuild build
  xbuild build -t release-linux-x64 -t dev-macos-aarch64
  xbuild build --all --jobs 4
  xbuild build --dev --os win --cpu x64`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}

	opts.targetFlags.register(cmd)
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "maximum concurrent toolchain processes (0 = one per target)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (empty disables; default from config)")

	return cmd
}

func runBuild(opts *BuildOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd)

	proj, err := loadProject(opts.RootOptions, opts.Output)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}

	targets, err := opts.resolve(opts.RootOptions)
	if err != nil {
		return outputTargetError(formatter, err)
	}

	jobs := proj.Config.Jobs
	if cmd.Flags().Changed("jobs") {
		if opts.Jobs < 0 {
			_ = formatter.Error(ErrCodeUsage, fmt.Sprintf("invalid --jobs %d: must be 0 or more", opts.Jobs), nil)
			return NewExitError(ExitCommandError, "invalid --jobs")
		}
		jobs = opts.Jobs
	}

	abort := cancel.New(cmd.Context())
	stop := abort.NotifyOnSignals(func(sig os.Signal) {
		logger.Warn("received signal, cancelling builds", "signal", sig.String())
	})
	defer stop()

	launcher := opts.Launcher
	if launcher == nil {
		launcher = newExecLauncher(opts.RootOptions, proj, cmd)
	}

	orch := build.New(build.Options{
		Layout: proj.Layout,
		Toolchain: build.Toolchain{
			Program: proj.Config.Toolchain.Program,
			Args:    proj.Config.Toolchain.Args,
		},
		Jobs:     jobs,
		Launcher: launcher,
		Logger:   logger,
	})

	logger.Debug("resolved targets", "targets", strings.Join(targets.Strings(), ","), "output", proj.Layout.Root)

	started := opts.now()
	outcomes := orch.Run(abort, targets)
	elapsed := opts.now().Sub(started)
	summary := build.Summarize(outcomes)

	report := newBuildReport(proj.Layout, outcomes, summary)

	dbPath, err := proj.historyPath(cmd, opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid history path", err)
	}
	if dbPath != "" {
		run := history.Run{
			ID:         opts.idGenerator().Generate(),
			Command:    "build",
			StartedAt:  started,
			Duration:   elapsed,
			Requested:  requestedTokens(opts.tokens()),
			OutputRoot: proj.Layout.Root,
			Outcomes:   historyOutcomes(outcomes),
		}
		// History is best effort; a failure to record never fails the build.
		if err := recordRun(context.WithoutCancel(abort.Context()), dbPath, run); err != nil {
			logger.Warn("could not record run history", "db", dbPath, "error", err)
		} else {
			report.RunID = run.ID
		}
	}

	if !summary.OK() {
		code, message := ErrCodeBuild, fmt.Sprintf("%d of %d target(s) failed", summary.Total-summary.Succeeded, summary.Total)
		if abort.Triggered() {
			code, message = ErrCodeCancelled, "build cancelled"
		}
		if formatter.Structured() {
			_ = formatter.Failure(code, message, report)
		} else {
			writeBuildText(formatter, report, summary)
		}
		return NewExitError(ExitFailure, message)
	}

	if formatter.Structured() {
		return formatter.Success(report)
	}
	writeBuildText(formatter, report, summary)
	return nil
}

// newExecLauncher runs the toolchain from the project directory. With
// --verbose its output is streamed to stderr as it is produced.
func newExecLauncher(opts *RootOptions, proj *project, cmd *cobra.Command) *runner.ExecLauncher {
	launchOpts := []runner.Option{runner.WithWorkingDir(proj.Dir)}
	if opts.Verbose {
		launchOpts = append(launchOpts, runner.WithOutput(cmd.ErrOrStderr(), cmd.ErrOrStderr()))
	}
	if opts.NoColor {
		launchOpts = append(launchOpts, runner.WithEnvVar("NO_COLOR", "1"))
	}
	return runner.NewExecLauncher(launchOpts...)
}

// outputTargetError reports a resolution failure. Nothing has been spawned.
func outputTargetError(formatter *OutputFormatter, err error) error {
	code := string(target.CodeOf(err))
	if code == "" {
		code = ErrCodeUsage
	}
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(ExitFailure, "target resolution failed", err)
}

func newBuildReport(layout build.Layout, outcomes []build.Outcome, summary build.Summary) *BuildReport {
	report := &BuildReport{
		OutputRoot: layout.Root,
		Targets:    make([]TargetReport, 0, len(outcomes)),
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Cancelled:  summary.Cancelled,
	}
	for _, o := range outcomes {
		tr := TargetReport{
			Target:   o.Target.String(),
			Triple:   o.Triple.String(),
			Status:   string(o.Status),
			ExitCode: o.ExitCode,
			Seconds:  o.Duration.Round(time.Millisecond).Seconds(),
		}
		if o.Succeeded() {
			tr.Output = layout.OutputPath(o.Target)
		}
		if o.Err != nil {
			tr.Error = o.Err.Error()
		}
		report.Targets = append(report.Targets, tr)
	}
	return report
}

var statusMarks = map[string]string{
	string(build.StatusSucceeded): "✓",
	string(build.StatusFailed):    "✗",
	string(build.StatusCancelled): "-",
}

func writeBuildText(formatter *OutputFormatter, report *BuildReport, summary build.Summary) {
	w := formatter.Writer
	for _, tr := range report.Targets {
		detail := fmt.Sprintf("%.1fs", tr.Seconds)
		switch tr.Status {
		case string(build.StatusFailed):
			detail = fmt.Sprintf("exit %d", tr.ExitCode)
		case string(build.StatusCancelled):
			detail = "cancelled"
		}
		fmt.Fprintf(w, "%s %-21s  %-26s  %s\n", statusMarks[tr.Status], tr.Target, tr.Triple, detail)
	}

	if len(summary.Failures) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failures:")
		for _, f := range summary.Failures {
			fmt.Fprintf(w, "  %s: %v\n", f.Target, f.Err)
			if stderr := strings.TrimSpace(f.Stderr); stderr != "" && formatter.Verbose {
				for _, line := range strings.Split(stderr, "\n") {
					fmt.Fprintf(w, "    %s\n", line)
				}
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d target(s): %d succeeded, %d failed, %d cancelled\n",
		summary.Total, summary.Succeeded, summary.Failed, summary.Cancelled)
	if report.RunID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", report.RunID)
	}
}

func requestedTokens(tokens []string) []string {
	if len(tokens) == 0 {
		return append([]string(nil), target.DefaultTokens...)
	}
	return tokens
}

func historyOutcomes(outcomes []build.Outcome) []history.Outcome {
	out := make([]history.Outcome, 0, len(outcomes))
	for _, o := range outcomes {
		ho := history.Outcome{
			Target:   o.Target.String(),
			Triple:   o.Triple.String(),
			Status:   string(o.Status),
			ExitCode: o.ExitCode,
			Duration: o.Duration,
		}
		if o.Err != nil {
			ho.Error = o.Err.Error()
		}
		out = append(out, ho)
	}
	return out
}

func recordRun(ctx context.Context, dbPath string, run history.Run) error {
	st, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	return errors.Join(st.WriteRun(ctx, run), st.Close())
}
