package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbuild/internal/runner"
	"github.com/roach88/xbuild/internal/target"
)

// fakeToolchain records launches and fails the triples listed in fail.
type fakeToolchain struct {
	mu    sync.Mutex
	calls [][]string
	fail  map[string]int
}

func (f *fakeToolchain) Launch(_ context.Context, program string, args []string) (*runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{program}, args...))
	f.mu.Unlock()

	if code := f.fail[argValue(args, "--target")]; code != 0 {
		return &runner.Result{ExitCode: code, Stderr: "error: linker failed"}, fmt.Errorf("exit status %d", code)
	}
	return &runner.Result{ExitCode: 0}, nil
}

func (f *fakeToolchain) launches() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// testProject writes an xbuild.yaml into a temp directory and returns the
// directory and file path.
func testProject(t *testing.T, content string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "xbuild.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir, path
}

func testOptions(launcher runner.Launcher) *RootOptions {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &RootOptions{
		Launcher: launcher,
		Host:     target.StaticHost{OS: target.Linux, CPU: target.X64},
		Now:      func() time.Time { return fixed },
	}
}

func execute(t *testing.T, opts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "xbuild", cmd.Use)
	assert.Contains(t, cmd.Long, "<os>/<cpu>/<buildtype>")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"build", "clean", "targets", "history", "version"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
}

func TestTargetingFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"build", "clean"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)

		tgt := sub.Flags().Lookup("target")
		require.NotNil(t, tgt, name)
		assert.Equal(t, "t", tgt.Shorthand)
		assert.Equal(t, "o", sub.Flags().Lookup("output").Shorthand)
		for _, flag := range []string{"os", "cpu", "dev", "all"} {
			assert.NotNil(t, sub.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}

	build, _, err := cmd.Find([]string{"build"})
	require.NoError(t, err)
	assert.Equal(t, "j", build.Flags().Lookup("jobs").Shorthand)
	assert.NotNil(t, build.Flags().Lookup("db"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, testOptions(&fakeToolchain{}), "targets", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestUnknownFlagIsCommandError(t *testing.T) {
	_, _, err := execute(t, testOptions(&fakeToolchain{}), "build", "--frobnicate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEnvironmentOverrides(t *testing.T) {
	dir, cfg := testProject(t, "")
	launcher := &fakeToolchain{}

	t.Setenv("XBUILD_TARGET", "dev-win-x64")
	t.Setenv("XBUILD_FORMAT", "json")
	t.Setenv("XBUILD_DB", "")

	out, _, err := execute(t, testOptions(launcher), "build", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "ok"`)

	calls := launcher.launches()
	require.Len(t, calls, 1)
	assert.Equal(t, "x86_64-pc-windows-msvc", argValue(calls[0], "--target"))
	_, err = os.Stat(filepath.Join(dir, ".xbuild"))
	assert.True(t, os.IsNotExist(err), "empty XBUILD_DB disables history")
}

func TestCommandLineBeatsEnvironment(t *testing.T) {
	_, cfg := testProject(t, "")
	launcher := &fakeToolchain{}
	t.Setenv("XBUILD_TARGET", "dev-win-x64")

	_, _, err := execute(t, testOptions(launcher), "build", "--config", cfg, "--db", "", "-t", "release-macos-x64")
	require.NoError(t, err)

	calls := launcher.launches()
	require.Len(t, calls, 1)
	assert.Equal(t, "x86_64-apple-darwin", argValue(calls[0], "--target"))
}

func TestInvalidEnvironmentValue(t *testing.T) {
	t.Setenv("XBUILD_VERBOSE", "loud")
	_, _, err := execute(t, testOptions(&fakeToolchain{}), "targets")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "XBUILD_VERBOSE")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, testOptions(nil), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "xbuild "+Version)
}
