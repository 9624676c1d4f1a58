package build

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/xbuild/internal/cancel"
	"github.com/roach88/xbuild/internal/runner"
	"github.com/roach88/xbuild/internal/target"
)

var (
	releaseLinuxX64   = target.Target{BuildType: target.Release, OS: target.Linux, CPU: target.X64}
	devMacOSAArch64   = target.Target{BuildType: target.Development, OS: target.MacOS, CPU: target.AArch64}
	releaseWinAArch64 = target.Target{BuildType: target.Release, OS: target.Windows, CPU: target.AArch64}
)

func testLayout() Layout {
	return Layout{
		Root:       filepath.Join(string(filepath.Separator), "proj", "dist"),
		ProjectDir: filepath.Join(string(filepath.Separator), "proj"),
		Binary:     "denocraft",
		Entry:      Entry{Dev: "src/dev.ts", Release: "src/main.ts"},
	}
}

// launchCall records one toolchain invocation.
type launchCall struct {
	program string
	args    []string
}

// recordingLauncher answers every launch with exit code 0 unless exitCodes
// names the --target triple.
type recordingLauncher struct {
	mu        sync.Mutex
	calls     []launchCall
	exitCodes map[string]int
}

func (r *recordingLauncher) Launch(_ context.Context, program string, args []string) (*runner.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, launchCall{program: program, args: args})
	r.mu.Unlock()

	code := r.exitCodes[argAfter(args, "--target")]
	if code != 0 {
		return &runner.Result{ExitCode: code, Stderr: "error: boom"}, errors.New("exit status")
	}
	return &runner.Result{ExitCode: 0}, nil
}

func (r *recordingLauncher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestCommand(t *testing.T) {
	o := New(Options{
		Layout:    testLayout(),
		Toolchain: Toolchain{Program: "deno", Args: []string{"compile", "-A"}},
		FS:        memfs.New(),
	})

	program, args := o.Command(releaseLinuxX64, "x86_64-unknown-linux-gnu")
	assert.Equal(t, "deno", program)
	assert.Equal(t, []string{
		"compile", "-A",
		"--output", filepath.Join("/proj/dist", "linux", "x64", "release", "denocraft"),
		"--target", "x86_64-unknown-linux-gnu",
		filepath.Join("/proj", "src", "main.ts"),
	}, args)

	_, args = o.Command(devMacOSAArch64, "aarch64-apple-darwin")
	assert.Equal(t, filepath.Join("/proj/dist", "macos", "aarch64", "dev", "denocraft-dev"), argAfter(args, "--output"))
	assert.Equal(t, filepath.Join("/proj", "src", "dev.ts"), args[len(args)-1])
}

func TestRun_AllSucceed(t *testing.T) {
	fs := memfs.New()
	launcher := &recordingLauncher{}
	o := New(Options{
		Layout:    testLayout(),
		Toolchain: Toolchain{Program: "deno", Args: []string{"compile"}},
		FS:        fs,
		Launcher:  launcher,
	})

	targets := target.Set{releaseLinuxX64, devMacOSAArch64}
	outcomes := o.Run(cancel.New(context.Background()), targets)

	require.Len(t, outcomes, 2)
	assert.Equal(t, releaseLinuxX64, outcomes[0].Target)
	assert.Equal(t, devMacOSAArch64, outcomes[1].Target)
	for _, out := range outcomes {
		assert.Equal(t, StatusSucceeded, out.Status)
		assert.NoError(t, out.Err)
		assert.Equal(t, 0, out.ExitCode)
	}
	assert.Equal(t, target.Triple("x86_64-unknown-linux-gnu"), outcomes[0].Triple)
	assert.Equal(t, target.Triple("aarch64-apple-darwin"), outcomes[1].Triple)

	// disjoint output directories created before spawning
	for _, dir := range []string{"/linux/x64/release", "/macos/aarch64/dev"} {
		fi, err := fs.Stat(filepath.FromSlash(dir))
		require.NoError(t, err, dir)
		assert.True(t, fi.IsDir())
	}
	assert.Equal(t, 2, launcher.count())
	assert.True(t, Summarize(outcomes).OK())
}

func TestRun_DirectoryAlreadyExists(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, fs.MkdirAll(filepath.FromSlash("/linux/x64/release"), 0o755))

	o := New(Options{Layout: testLayout(), FS: fs, Launcher: &recordingLauncher{}})
	outcomes := o.Run(cancel.New(context.Background()), target.Set{releaseLinuxX64})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSucceeded, outcomes[0].Status)
}

func TestRun_FailureDoesNotStopSiblings(t *testing.T) {
	launcher := &recordingLauncher{exitCodes: map[string]int{"x86_64-unknown-linux-gnu": 2}}
	o := New(Options{Layout: testLayout(), FS: memfs.New(), Launcher: launcher})

	outcomes := o.Run(cancel.New(context.Background()), target.Set{releaseLinuxX64, devMacOSAArch64})

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, 2, outcomes[0].ExitCode)
	assert.Equal(t, "error: boom", outcomes[0].Stderr)
	var te *target.Error
	require.ErrorAs(t, outcomes[0].Err, &te)
	assert.Equal(t, target.ErrCodeToolchainFailure, te.Code)
	assert.Equal(t, releaseLinuxX64, te.Target)
	assert.Equal(t, 2, te.ExitCode)

	assert.Equal(t, StatusSucceeded, outcomes[1].Status)

	summary := Summarize(outcomes)
	assert.False(t, summary.OK())
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, releaseLinuxX64, summary.Failures[0].Target)
}

func TestRun_UnsupportedCombinationNotSpawned(t *testing.T) {
	launcher := &recordingLauncher{}
	fs := memfs.New()
	o := New(Options{Layout: testLayout(), FS: fs, Launcher: launcher})

	outcomes := o.Run(cancel.New(context.Background()), target.Set{releaseWinAArch64, releaseLinuxX64})

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.True(t, target.IsCode(outcomes[0].Err, target.ErrCodeUnsupportedCombination))
	assert.Equal(t, -1, outcomes[0].ExitCode)
	assert.Equal(t, StatusSucceeded, outcomes[1].Status)
	assert.Equal(t, 1, launcher.count())

	_, err := fs.Stat(filepath.FromSlash("/win/aarch64/release"))
	assert.Error(t, err)
}

func TestRun_RunsConcurrently(t *testing.T) {
	const n = 3
	var started sync.WaitGroup
	started.Add(n)
	release := make(chan struct{})

	launcher := runner.LaunchFunc(func(ctx context.Context, _ string, _ []string) (*runner.Result, error) {
		started.Done()
		select {
		case <-release:
			return &runner.Result{ExitCode: 0}, nil
		case <-ctx.Done():
			return &runner.Result{ExitCode: -1}, ctx.Err()
		}
	})
	o := New(Options{Layout: testLayout(), FS: memfs.New(), Launcher: launcher})

	go func() {
		// every task must be in flight at once before any may finish
		started.Wait()
		close(release)
	}()

	done := make(chan []Outcome, 1)
	go func() {
		done <- o.Run(cancel.New(context.Background()), target.All()[:n])
	}()

	select {
	case outcomes := <-done:
		assert.True(t, Summarize(outcomes).OK())
	case <-time.After(5 * time.Second):
		t.Fatal("targets were not built concurrently")
	}
}

func TestRun_JobsLimit(t *testing.T) {
	var running, peak atomic.Int32
	launcher := runner.LaunchFunc(func(_ context.Context, _ string, _ []string) (*runner.Result, error) {
		cur := running.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		running.Add(-1)
		return &runner.Result{ExitCode: 0}, nil
	})
	o := New(Options{Layout: testLayout(), FS: memfs.New(), Launcher: launcher, Jobs: 2})

	outcomes := o.Run(cancel.New(context.Background()), target.All())

	assert.Len(t, outcomes, 10)
	assert.True(t, Summarize(outcomes).OK())
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRun_CancelledBeforeSpawn(t *testing.T) {
	launcher := &recordingLauncher{}
	fs := memfs.New()
	o := New(Options{Layout: testLayout(), FS: fs, Launcher: launcher})

	abort := cancel.New(context.Background())
	abort.Signal()
	outcomes := o.Run(abort, target.Set{releaseLinuxX64, devMacOSAArch64})

	assert.Equal(t, 0, launcher.count())
	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		assert.Equal(t, StatusCancelled, out.Status)
		assert.ErrorIs(t, out.Err, ErrAborted)
	}
	summary := Summarize(outcomes)
	assert.False(t, summary.OK())
	assert.Equal(t, 2, summary.Cancelled)

	_, err := fs.Stat(filepath.FromSlash("/linux"))
	assert.Error(t, err, "no directories are created after cancellation")
}

func TestRun_CancelledMidRun(t *testing.T) {
	abort := cancel.New(context.Background())
	firstDone := make(chan struct{})

	launcher := runner.LaunchFunc(func(ctx context.Context, _ string, args []string) (*runner.Result, error) {
		if argAfter(args, "--target") == "x86_64-unknown-linux-gnu" {
			defer close(firstDone)
			return &runner.Result{ExitCode: 0}, nil
		}
		<-ctx.Done()
		return &runner.Result{ExitCode: -1}, ctx.Err()
	})
	o := New(Options{Layout: testLayout(), FS: memfs.New(), Launcher: launcher})

	go func() {
		<-firstDone
		abort.Signal()
	}()

	outcomes := o.Run(abort, target.Set{releaseLinuxX64, devMacOSAArch64})

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusSucceeded, outcomes[0].Status, "completed outcome stays intact")
	assert.Equal(t, StatusCancelled, outcomes[1].Status)
	assert.ErrorIs(t, outcomes[1].Err, ErrAborted)
	assert.False(t, Summarize(outcomes).OK())
}

func TestRun_LaunchError(t *testing.T) {
	launcher := runner.LaunchFunc(func(context.Context, string, []string) (*runner.Result, error) {
		return nil, errors.New("executable file not found")
	})
	o := New(Options{Layout: testLayout(), FS: memfs.New(), Launcher: launcher})

	outcomes := o.Run(cancel.New(context.Background()), target.Set{releaseLinuxX64})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, -1, outcomes[0].ExitCode)
	assert.Contains(t, outcomes[0].Err.Error(), "executable file not found")
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s.OK())
	assert.Equal(t, 0, s.Total)
}
