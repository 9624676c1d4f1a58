//go:build !windows

package runner

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecLauncher_Success(t *testing.T) {
	l := NewExecLauncher()

	result, err := l.Launch(context.Background(), "sh", []string{"-c", "echo hello; echo oops >&2"})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "oops\n", result.Stderr)
}

func TestExecLauncher_NonZeroExit(t *testing.T) {
	l := NewExecLauncher()

	result, err := l.Launch(context.Background(), "sh", []string{"-c", "exit 3"})
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, result.ExitCode)
}

func TestExecLauncher_MissingProgram(t *testing.T) {
	l := NewExecLauncher()

	result, err := l.Launch(context.Background(), "definitely-not-a-real-program-12345", nil)
	require.Error(t, err)
	assert.Nil(t, result)
}

func TestExecLauncher_StreamsOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	l := NewExecLauncher(WithOutput(&stdout, &stderr))

	_, err := l.Launch(context.Background(), "sh", []string{"-c", "echo out; echo err >&2"})
	require.NoError(t, err)
	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestExecLauncher_WorkingDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	l := NewExecLauncher(WithWorkingDir(dir), WithEnvVar("XBUILD_TEST_VALUE", "42"))

	result, err := l.Launch(context.Background(), "sh", []string{"-c", "pwd; echo $XBUILD_TEST_VALUE"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	require.Len(t, lines, 2)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(lines[0])
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "42", lines[1])
}

func TestExecLauncher_Cancellation(t *testing.T) {
	l := NewExecLauncher(WithWaitDelay(time.Second))
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result, err := l.Launch(ctx, "sleep", []string{"30"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, result)
	assert.NotEqual(t, 0, result.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestLaunchFunc(t *testing.T) {
	var gotProgram string
	var gotArgs []string
	l := LaunchFunc(func(_ context.Context, program string, args []string) (*Result, error) {
		gotProgram, gotArgs = program, args
		return &Result{ExitCode: 0}, nil
	})

	result, err := l.Launch(context.Background(), "deno", []string{"compile"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "deno", gotProgram)
	assert.Equal(t, []string{"compile"}, gotArgs)
}
