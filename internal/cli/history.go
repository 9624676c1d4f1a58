package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/xbuild/internal/history"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded build runs",
		Long: `List recent build runs, newest first, or show the per-target outcomes
of a single run when its id is given.

Example:
  xbuild history
  xbuild history --limit 5 --format json
  xbuild history 01927f0e-5a3c-7b1d-9c4e-2f6a8b0d1e3f`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database (default from config)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 = all)")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	proj, err := loadProject(opts.RootOptions, "")
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}

	dbPath, err := proj.historyPath(cmd, opts.Database)
	if err != nil || dbPath == "" {
		_ = formatter.Error(ErrCodeHistory, "run history is disabled", nil)
		return WrapExitError(ExitCommandError, "run history is disabled", err)
	}

	st, err := history.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeHistory, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open history database", err)
	}
	defer st.Close()

	ctx := cmd.Context()

	if len(args) == 1 {
		run, err := st.ReadRun(ctx, args[0])
		if err != nil {
			_ = formatter.Error(ErrCodeHistory, err.Error(), nil)
			if errors.Is(err, history.ErrRunNotFound) {
				return WrapExitError(ExitFailure, "run not found", err)
			}
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		if formatter.Structured() {
			return formatter.Success(run)
		}
		writeRunText(formatter, run)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeHistory, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	if formatter.Structured() {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(formatter.Writer, "%s  %s  %-6s %2d ok %2d failed %2d cancelled  %s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Command,
			r.Succeeded, r.Failed, r.Cancelled,
			strings.Join(r.Requested, ","))
	}
	return nil
}

func writeRunText(formatter *OutputFormatter, run *history.Run) {
	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Command)
	fmt.Fprintf(w, "  started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "  duration:  %s\n", run.Duration)
	fmt.Fprintf(w, "  requested: %s\n", strings.Join(run.Requested, ", "))
	fmt.Fprintf(w, "  output:    %s\n", run.OutputRoot)
	fmt.Fprintln(w)
	for _, o := range run.Outcomes {
		fmt.Fprintf(w, "%s %-21s  %-26s  %s\n", statusMarks[o.Status], o.Target, o.Triple, o.Duration)
		if o.Error != "" {
			fmt.Fprintf(w, "    %s\n", o.Error)
		}
	}
}
