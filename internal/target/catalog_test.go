package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_CanonicalOrder(t *testing.T) {
	want := []string{
		"dev-linux-x64",
		"dev-linux-aarch64",
		"dev-win-x64",
		"dev-macos-x64",
		"dev-macos-aarch64",
		"release-linux-x64",
		"release-linux-aarch64",
		"release-win-x64",
		"release-macos-x64",
		"release-macos-aarch64",
	}
	assert.Equal(t, want, All().Strings())
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	a[0] = Target{BuildType: Release, OS: MacOS, CPU: AArch64}

	assert.Equal(t, "dev-linux-x64", All()[0].String())
}

func TestIsValid(t *testing.T) {
	for _, bt := range []BuildType{Development, Release} {
		for _, os := range []OperatingSystem{Linux, Windows, MacOS} {
			for _, cpu := range []CPUArchitecture{X64, AArch64} {
				tgt := Target{BuildType: bt, OS: os, CPU: cpu}
				want := !(os == Windows && cpu == AArch64)
				assert.Equal(t, want, IsValid(tgt), tgt.String())
			}
		}
	}

	assert.False(t, IsValid(Target{BuildType: BuildType(7), OS: Linux, CPU: X64}))
	assert.False(t, IsValid(Target{BuildType: Release, OS: OperatingSystem(9), CPU: X64}))
	assert.False(t, IsValid(Target{BuildType: Release, OS: Linux, CPU: CPUArchitecture(-1)}))
}

func TestIsKnownToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"dev-linux-x64", true},
		{"release-macos-aarch64", true},
		{"current", true},
		{"dev", true},
		{"development", true},
		{"release", true},
		{"all", true},
		{"dev-win-aarch64", false},
		{"release-win-aarch64", false},
		{"bogus", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, IsKnownToken(tt.token))
		})
	}
}

func TestLookup(t *testing.T) {
	tgt, ok := Lookup("release-win-x64")
	require.True(t, ok)
	assert.Equal(t, Target{BuildType: Release, OS: Windows, CPU: X64}, tgt)

	_, ok = Lookup("release-win-aarch64")
	assert.False(t, ok)
}

func TestNativeLibraryPrefix(t *testing.T) {
	assert.Equal(t, "lib", Linux.NativeLibraryPrefix())
	assert.Equal(t, "lib", MacOS.NativeLibraryPrefix())
	assert.Equal(t, "", Windows.NativeLibraryPrefix())
}

func TestEnumStrings_OutOfRange(t *testing.T) {
	assert.Equal(t, "BuildType(5)", BuildType(5).String())
	assert.Equal(t, "OperatingSystem(5)", OperatingSystem(5).String())
	assert.Equal(t, "CPUArchitecture(5)", CPUArchitecture(5).String())
}
