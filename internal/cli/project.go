package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/xbuild/internal/build"
	"github.com/roach88/xbuild/internal/config"
	"github.com/roach88/xbuild/internal/target"
)

// targetFlags are the targeting flags shared by build and clean.
type targetFlags struct {
	Targets []string
	OS      string
	CPU     string
	Dev     bool
	All     bool
	Output  string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.Targets, "target", "t", nil, "target or alias to build (repeatable; default \"current\")")
	cmd.Flags().StringVar(&f.OS, "os", "", "operating system of the default target (linux|win|macos; ignored with --target)")
	cmd.Flags().StringVar(&f.CPU, "cpu", "", "CPU architecture of the default target (x64|aarch64; ignored with --target)")
	cmd.Flags().BoolVar(&f.Dev, "dev", false, "default to development builds")
	cmd.Flags().BoolVar(&f.All, "all", false, "select every supported target")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "output root (default <project>/dist)")
}

func (f *targetFlags) tokens() []string {
	if f.All {
		return []string{target.AliasAll}
	}
	return f.Targets
}

func (f *targetFlags) buildType() target.BuildType {
	if f.Dev {
		return target.Development
	}
	return target.Release
}

// host returns the platform of the default target. --os and --cpu replace
// the corresponding half of base.
func (f *targetFlags) host(base target.Host) (target.Host, error) {
	if f.OS == "" && f.CPU == "" {
		return base, nil
	}

	var h target.StaticHost
	if f.OS != "" {
		o, ok := target.ParseOperatingSystem(f.OS)
		if !ok {
			return nil, target.NewUnknownTargetError(f.OS, target.SegmentOS, f.OS)
		}
		h.OS = o
	}
	if f.CPU != "" {
		c, ok := target.ParseCPUArchitecture(f.CPU)
		if !ok {
			return nil, target.NewUnknownTargetError(f.CPU, target.SegmentCPU, f.CPU)
		}
		h.CPU = c
	}
	if f.OS == "" || f.CPU == "" {
		hostOS, hostCPU, err := base.Platform()
		if err != nil {
			return nil, err
		}
		if f.OS == "" {
			h.OS = hostOS
		}
		if f.CPU == "" {
			h.CPU = hostCPU
		}
	}
	return h, nil
}

// resolve expands the requested tokens into targets. --os and --cpu only
// apply when no target is given; otherwise they are ignored unparsed.
func (f *targetFlags) resolve(opts *RootOptions) (target.Set, error) {
	host := opts.Host
	if host == nil {
		host = target.RuntimeHost{}
	}
	if len(f.Targets) == 0 && !f.All {
		h, err := f.host(host)
		if err != nil {
			return nil, err
		}
		host = h
	}
	return target.NewResolver(host).Resolve(f.tokens(), f.buildType())
}

// project is the configuration and output layout a command works with.
type project struct {
	Config *config.Config
	Layout build.Layout
	Dir    string
}

// loadProject reads the project file and computes the layout. The project
// directory is the config file's directory, or the working directory when
// no file is used. output overrides the configured dist directory.
func loadProject(opts *RootOptions, output string) (*project, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	path, required := opts.Config, true
	if path == "" {
		path, required = filepath.Join(wd, config.DefaultFile), false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return nil, err
	}

	dir := wd
	if cfg.Source != "" {
		abs, err := filepath.Abs(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
		dir = filepath.Dir(abs)
	}

	root := anchor(dir, cfg.Dist)
	if output != "" {
		if root, err = filepath.Abs(output); err != nil {
			return nil, fmt.Errorf("output path: %w", err)
		}
	}

	return &project{
		Config: cfg,
		Dir:    dir,
		Layout: build.Layout{
			Root:       root,
			ProjectDir: dir,
			Binary:     cfg.Binary,
			Entry:      build.Entry{Dev: cfg.Entry.Dev, Release: cfg.Entry.Release},
		},
	}, nil
}

// historyPath returns the history database path: the flag value when set,
// otherwise the configured path relative to the project. Empty disables
// recording.
func (p *project) historyPath(cmd *cobra.Command, flagValue string) (string, error) {
	if cmd.Flags().Changed("db") {
		if flagValue == "" {
			return "", nil
		}
		return filepath.Abs(flagValue)
	}
	if p.Config.History == "" {
		return "", nil
	}
	return anchor(p.Dir, p.Config.History), nil
}

func anchor(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
