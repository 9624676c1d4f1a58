package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/xbuild/internal/history"
	"github.com/roach88/xbuild/internal/logging"
	"github.com/roach88/xbuild/internal/runner"
	"github.com/roach88/xbuild/internal/target"
)

// EnvPrefix prefixes environment variables that supply flag values.
const EnvPrefix = "XBUILD_"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json" | "yaml"
	Config  string
	NoColor bool

	// Overrides for tests. Nil fields use the real implementations.
	Launcher runner.Launcher
	IDs      history.IDGenerator
	Host     target.Host
	Now      func() time.Time
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the xbuild CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xbuild",
		Short: "Cross-compile a project for every supported platform",
		Long: `xbuild resolves target names such as "release-linux-x64", "dev" or "all"
into concrete build targets and runs one toolchain process per target in
parallel, writing each executable to <dist>/<os>/<cpu>/<buildtype>/.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd.Flags()); err != nil {
				return WrapExitError(ExitCommandError, "invalid environment override", err)
			}
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "project file (default ./xbuild.yaml when present)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable coloured log output")

	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewCleanCommand(opts))
	cmd.AddCommand(NewTargetsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// applyEnv fills every flag not given on the command line from
// XBUILD_<FLAG>, with dashes mapped to underscores.
func applyEnv(flags *pflag.FlagSet) error {
	var firstErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "help" || firstErr != nil {
			return
		}
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		v, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if err := flags.Set(f.Name, v); err != nil {
			firstErr = fmt.Errorf("%s: %w", name, err)
		}
	})
	return firstErr
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func newLogger(opts *RootOptions, cmd *cobra.Command) *slog.Logger {
	return logging.New(cmd.ErrOrStderr(), opts.Verbose, opts.NoColor)
}

func (o *RootOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *RootOptions) idGenerator() history.IDGenerator {
	if o.IDs != nil {
		return o.IDs
	}
	return history.UUIDv7Generator{}
}
