package cli

import (
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/roach88/xbuild/internal/build"
)

// CleanOptions holds flags for the clean command.
type CleanOptions struct {
	*RootOptions
	targetFlags
}

// CleanReport is the structured result of a clean.
type CleanReport struct {
	OutputRoot string   `json:"output_root" yaml:"output_root"`
	Removed    []string `json:"removed" yaml:"removed"`
	Missing    []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build outputs",
		Long: `Remove the output directories of the requested targets.

Targets are selected exactly as for "xbuild build". With --all the whole
output root is emptied. Directories that do not exist are reported as
warnings and do not fail the command.

Example:
  xbuild clean
  xbuild clean -t release-win-x64
  xbuild clean --all`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(opts, cmd)
		},
	}

	opts.targetFlags.register(cmd)

	return cmd
}

func runClean(opts *CleanOptions, cmd *cobra.Command) error {
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

	result, err := build.Clean(osfs.New(proj.Layout.Root), proj.Layout, targets, opts.All, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeClean, err.Error(), nil)
		return WrapExitError(ExitFailure, "clean failed", err)
	}

	report := CleanReport{
		OutputRoot: proj.Layout.Root,
		Removed:    result.Removed,
	}
	if report.Removed == nil {
		report.Removed = []string{}
	}
	for _, m := range result.Missing {
		report.Missing = append(report.Missing, m.Path)
	}

	if formatter.Structured() {
		return formatter.Success(report)
	}

	for _, p := range report.Removed {
		fmt.Fprintf(formatter.Writer, "removed %s\n", p)
	}
	fmt.Fprintf(formatter.Writer, "Cleaned %d director%s (%d not found)\n",
		len(report.Removed), plural(len(report.Removed), "y", "ies"), len(report.Missing))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
