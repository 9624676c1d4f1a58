package build

import (
	"path/filepath"

	"github.com/roach88/xbuild/internal/target"
)

// Entry names the entry module of each build type, relative to the project
// directory unless absolute.
type Entry struct {
	Dev     string
	Release string
}

// Layout computes entry modules and output locations.
type Layout struct {
	// Root is the absolute output root on the host filesystem, e.g. <project>/dist.
	Root string

	// ProjectDir anchors relative entry paths.
	ProjectDir string

	// Binary is the base name of the produced executable.
	Binary string

	Entry Entry
}

// Dir returns the target's output directory relative to Root, in the
// rooted form used on the build filesystem: /<os>/<cpu>/<buildtype>.
func (l Layout) Dir(t target.Target) string {
	return filepath.Join(string(filepath.Separator), t.OS.String(), t.CPU.String(), t.BuildType.String())
}

// HostDir returns the target's output directory on the host filesystem.
func (l Layout) HostDir(t target.Target) string {
	return filepath.Join(l.Root, t.OS.String(), t.CPU.String(), t.BuildType.String())
}

// BinaryName returns the executable name; development builds get a -dev
// suffix.
func (l Layout) BinaryName(t target.Target) string {
	if t.BuildType == target.Development {
		return l.Binary + "-dev"
	}
	return l.Binary
}

// OutputPath returns the host path handed to the toolchain as its output.
func (l Layout) OutputPath(t target.Target) string {
	return filepath.Join(l.HostDir(t), l.BinaryName(t))
}

// EntryModule returns the entry module path for a build type.
func (l Layout) EntryModule(bt target.BuildType) string {
	entry := l.Entry.Release
	if bt == target.Development {
		entry = l.Entry.Dev
	}
	if filepath.IsAbs(entry) {
		return entry
	}
	return filepath.Join(l.ProjectDir, entry)
}
