package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is the xbuild release. Overridden at link time with
// -ldflags "-X github.com/roach88/xbuild/internal/cli.Version=...".
var Version = "0.1.0"

// VersionInfo is the structured output of the version command.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
	Revision  string `json:"revision,omitempty" yaml:"revision,omitempty"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the xbuild version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			info := versionInfo()
			if formatter.Structured() {
				return formatter.Success(info)
			}
			fmt.Fprintf(formatter.Writer, "xbuild %s (%s, %s)\n", info.Version, info.GoVersion, info.Platform)
			return nil
		},
	}
}

func versionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Revision = s.Value
			}
		}
	}
	return info
}
