package target

import "fmt"

// BuildType selects the entry module and output subdirectory of a target.
type BuildType int

const (
	Development BuildType = iota
	Release
)

// String returns the token form used in target strings and output paths.
func (b BuildType) String() string {
	switch b {
	case Development:
		return "dev"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("BuildType(%d)", int(b))
	}
}

// OperatingSystem is an operating system that can be targeted.
type OperatingSystem int

const (
	Linux OperatingSystem = iota
	Windows
	MacOS
)

func (o OperatingSystem) String() string {
	switch o {
	case Linux:
		return "linux"
	case Windows:
		return "win"
	case MacOS:
		return "macos"
	default:
		return fmt.Sprintf("OperatingSystem(%d)", int(o))
	}
}

// NativeLibraryPrefix returns the file name prefix of native shared
// libraries on the operating system.
func (o OperatingSystem) NativeLibraryPrefix() string {
	if o == Windows {
		return ""
	}
	return "lib"
}

// CPUArchitecture is a CPU architecture that can be targeted.
type CPUArchitecture int

const (
	X64 CPUArchitecture = iota
	AArch64
)

func (c CPUArchitecture) String() string {
	switch c {
	case X64:
		return "x64"
	case AArch64:
		return "aarch64"
	default:
		return fmt.Sprintf("CPUArchitecture(%d)", int(c))
	}
}

// Target is a concrete build target.
type Target struct {
	BuildType BuildType
	OS        OperatingSystem
	CPU       CPUArchitecture
}

// String returns "<buildtype>-<os>-<cpu>", e.g. "release-linux-x64".
func (t Target) String() string {
	return t.BuildType.String() + "-" + t.OS.String() + "-" + t.CPU.String()
}

// Set is an ordered, duplicate-free list of concrete targets.
type Set []Target

// Strings returns the string form of every target in order.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.String()
	}
	return out
}

// Alias tokens accepted in place of concrete targets.
const (
	AliasCurrent     = "current"
	AliasDev         = "dev"
	AliasDevelopment = "development"
	AliasRelease     = "release"
	AliasAll         = "all"
)

// Aliases lists the alias tokens in documentation order.
var Aliases = []string{AliasCurrent, AliasDev, AliasDevelopment, AliasRelease, AliasAll}

// DefaultTokens is used when no target is requested.
var DefaultTokens = []string{AliasCurrent}

var (
	buildTypes = []BuildType{Development, Release}
	systems    = []OperatingSystem{Linux, Windows, MacOS}
	cpus       = []CPUArchitecture{X64, AArch64}
)

// catalog is computed once; callers get copies from All.
var catalog = func() Set {
	var s Set
	for _, b := range buildTypes {
		for _, o := range systems {
			for _, c := range cpus {
				t := Target{BuildType: b, OS: o, CPU: c}
				if IsValid(t) {
					s = append(s, t)
				}
			}
		}
	}
	return s
}()

var catalogIndex = func() map[string]Target {
	m := make(map[string]Target, len(catalog))
	for _, t := range catalog {
		m[t.String()] = t
	}
	return m
}()

// supportedPair reports whether the OS/CPU pair has a toolchain.
func supportedPair(o OperatingSystem, c CPUArchitecture) bool {
	return !(o == Windows && c == AArch64)
}

// IsValid reports whether t is a member of the catalog.
func IsValid(t Target) bool {
	if t.BuildType < Development || t.BuildType > Release {
		return false
	}
	if t.OS < Linux || t.OS > MacOS {
		return false
	}
	if t.CPU < X64 || t.CPU > AArch64 {
		return false
	}
	return supportedPair(t.OS, t.CPU)
}

// IsKnownToken reports whether s is a catalog target string or an alias.
// Matching is exact; use the Resolver for lenient parsing.
func IsKnownToken(s string) bool {
	if _, ok := catalogIndex[s]; ok {
		return true
	}
	for _, a := range Aliases {
		if a == s {
			return true
		}
	}
	return false
}

// Lookup returns the catalog target whose string form is s.
func Lookup(s string) (Target, bool) {
	t, ok := catalogIndex[s]
	return t, ok
}

// All returns the ten catalog targets in canonical order.
func All() Set {
	out := make(Set, len(catalog))
	copy(out, catalog)
	return out
}
