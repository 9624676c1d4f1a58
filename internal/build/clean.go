package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/roach88/xbuild/internal/target"
)

// CleanResult lists what a clean removed and which targets had nothing to
// remove.
type CleanResult struct {
	Removed []string
	Missing []*target.Error
}

// Clean removes build outputs from bfs, which must be rooted at
// layout.Root. With all set, everything under the root is removed and
// targets is ignored. Otherwise each target's <os>/<cpu>/<buildtype>
// directory is removed and parents left empty are pruned. Missing
// directories are logged as warnings and reported in Missing, not as errors.
func Clean(bfs billy.Filesystem, layout Layout, targets target.Set, all bool, logger *slog.Logger) (*CleanResult, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	result := &CleanResult{}
	root := string(filepath.Separator)

	if all {
		entries, err := bfs.ReadDir(root)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("nothing to clean", "path", layout.Root)
			return result, nil
		}
		if err != nil {
			return result, fmt.Errorf("read %s: %w", layout.Root, err)
		}
		for _, e := range entries {
			p := bfs.Join(root, e.Name())
			logger.Debug("removing", "path", filepath.Join(layout.Root, e.Name()))
			if err := util.RemoveAll(bfs, p); err != nil {
				return result, fmt.Errorf("remove %s: %w", filepath.Join(layout.Root, e.Name()), err)
			}
			result.Removed = append(result.Removed, filepath.Join(layout.Root, e.Name()))
		}
		return result, nil
	}

	for _, t := range targets {
		dir := layout.Dir(t)
		hostDir := layout.HostDir(t)

		if _, err := bfs.Stat(dir); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing := target.NewDirectoryNotFoundError(t, hostDir)
				logger.Warn("could not clean target", "target", t.String(), "reason", missing.Message)
				result.Missing = append(result.Missing, missing)
				continue
			}
			return result, fmt.Errorf("stat %s: %w", hostDir, err)
		}

		logger.Debug("removing", "path", hostDir)
		if err := util.RemoveAll(bfs, dir); err != nil {
			return result, fmt.Errorf("remove %s: %w", hostDir, err)
		}
		result.Removed = append(result.Removed, hostDir)

		if err := pruneEmptyParents(bfs, dir); err != nil {
			return result, err
		}
	}

	return result, nil
}

// pruneEmptyParents removes the now-empty <os>/<cpu> and <os> directories
// above a removed target directory.
func pruneEmptyParents(bfs billy.Filesystem, dir string) error {
	root := string(filepath.Separator)
	for p := filepath.Dir(dir); p != root && p != "."; p = filepath.Dir(p) {
		entries, err := bfs.ReadDir(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		if len(entries) > 0 {
			return nil
		}
		if err := bfs.Remove(p); err != nil {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
