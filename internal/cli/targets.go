package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/xbuild/internal/target"
)

// TargetsOptions holds flags for the targets command.
type TargetsOptions struct {
	*RootOptions
}

// CatalogEntry describes one supported target.
type CatalogEntry struct {
	Target        string `json:"target" yaml:"target"`
	BuildType     string `json:"build_type" yaml:"build_type"`
	OS            string `json:"os" yaml:"os"`
	CPU           string `json:"cpu" yaml:"cpu"`
	Triple        string `json:"triple" yaml:"triple"`
	LibraryPrefix string `json:"library_prefix" yaml:"library_prefix"`
}

// CatalogListing is the structured output of the targets command.
type CatalogListing struct {
	Targets []CatalogEntry `json:"targets" yaml:"targets"`
	Aliases []string       `json:"aliases" yaml:"aliases"`
}

// NewTargetsCommand creates the targets command.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TargetsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List supported targets and aliases",
		Long: `List every supported build target in canonical order with its
toolchain triple and native library prefix, followed by the accepted aliases.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(opts, cmd)
		},
	}

	return cmd
}

func runTargets(opts *TargetsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	listing, err := catalogListing()
	if err != nil {
		return WrapExitError(ExitFailure, "invalid catalog", err)
	}

	if formatter.Structured() {
		return formatter.Success(listing)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "Targets:")
	for _, e := range listing.Targets {
		prefix := e.LibraryPrefix
		if prefix == "" {
			prefix = "(none)"
		}
		fmt.Fprintf(w, "  %-21s  %-26s  %s\n", e.Target, e.Triple, prefix)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Aliases:")
	for _, a := range listing.Aliases {
		fmt.Fprintf(w, "  %s\n", a)
	}
	return nil
}

func catalogListing() (*CatalogListing, error) {
	all := target.All()
	listing := &CatalogListing{
		Targets: make([]CatalogEntry, 0, len(all)),
		Aliases: append([]string(nil), target.Aliases...),
	}
	for _, t := range all {
		triple, err := target.MapToTriple(t)
		if err != nil {
			return nil, err
		}
		listing.Targets = append(listing.Targets, CatalogEntry{
			Target:        t.String(),
			BuildType:     t.BuildType.String(),
			OS:            t.OS.String(),
			CPU:           t.CPU.String(),
			Triple:        triple.String(),
			LibraryPrefix: t.OS.NativeLibraryPrefix(),
		})
	}
	return listing, nil
}
