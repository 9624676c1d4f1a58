package target

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeToken trims, NFC-normalizes and case-folds a raw token so that
// "Release-Linux-X64" and "release-linux-x64" resolve identically.
func NormalizeToken(s string) string {
	s = strings.TrimSpace(norm.NFC.String(s))
	return cases.Fold().String(s)
}

// ParseBuildType parses a build type name.
func ParseBuildType(s string) (BuildType, bool) {
	switch NormalizeToken(s) {
	case "dev", "development":
		return Development, true
	case "release":
		return Release, true
	default:
		return 0, false
	}
}

// ParseOperatingSystem parses an operating system name or one of its aliases.
func ParseOperatingSystem(s string) (OperatingSystem, bool) {
	switch NormalizeToken(s) {
	case "linux":
		return Linux, true
	case "win", "windows", "win32", "microsoft":
		return Windows, true
	case "macos", "mac", "darwin", "apple":
		return MacOS, true
	default:
		return 0, false
	}
}

// ParseCPUArchitecture parses a CPU architecture name or one of its aliases.
func ParseCPUArchitecture(s string) (CPUArchitecture, bool) {
	switch NormalizeToken(s) {
	case "x64", "x86_64", "amd64":
		return X64, true
	case "aarch64", "arm64":
		return AArch64, true
	default:
		return 0, false
	}
}

// Segment names used in validation errors.
const (
	SegmentOS  = "operating system"
	SegmentCPU = "CPU architecture"
)

// parseLiteral parses a dash-separated target literal. Accepted shapes are
//
//	<buildtype>-<os>-<cpu>
//	<os>-<cpu>-<buildtype>
//	<os>-<cpu>              (build type taken from def)
//
// ok is false when token has no dash and is not an OS name, i.e. it cannot be
// a literal at all and the caller should try aliases.
func parseLiteral(token string, def BuildType) (t Target, ok bool, err error) {
	if !strings.Contains(token, "-") {
		if _, isOS := ParseOperatingSystem(token); isOS {
			return Target{}, true, NewMalformedTargetError(token, SegmentCPU)
		}
		return Target{}, false, nil
	}

	parts := strings.Split(token, "-")
	bt := def
	switch {
	case isBuildType(parts[0]):
		bt, _ = ParseBuildType(parts[0])
		parts = parts[1:]
	case len(parts) == 3 && isBuildType(parts[2]):
		bt, _ = ParseBuildType(parts[2])
		parts = parts[:2]
	}

	if len(parts) == 0 || parts[0] == "" {
		return Target{}, true, NewMalformedTargetError(token, SegmentOS)
	}
	if len(parts) < 2 || parts[1] == "" {
		return Target{}, true, NewMalformedTargetError(token, SegmentCPU)
	}
	if len(parts) > 2 {
		return Target{}, true, NewUnknownTargetError(token, "", "")
	}

	os, found := ParseOperatingSystem(parts[0])
	if !found {
		return Target{}, true, NewUnknownTargetError(token, SegmentOS, parts[0])
	}
	cpu, found := ParseCPUArchitecture(parts[1])
	if !found {
		return Target{}, true, NewUnknownTargetError(token, SegmentCPU, parts[1])
	}

	return Target{BuildType: bt, OS: os, CPU: cpu}, true, nil
}

func isBuildType(s string) bool {
	_, ok := ParseBuildType(s)
	return ok
}
