package target

// Triple is a compiler-facing platform identifier such as
// "x86_64-unknown-linux-gnu".
type Triple string

func (t Triple) String() string {
	return string(t)
}

var cpuSegments = map[CPUArchitecture]string{
	X64:     "x86_64",
	AArch64: "aarch64",
}

var osSuffixes = map[OperatingSystem]string{
	Linux:   "-unknown-linux-gnu",
	Windows: "-pc-windows-msvc",
	MacOS:   "-apple-darwin",
}

// MapToTriple returns the toolchain triple for t. The build type does not
// take part in the mapping. (Windows, AArch64) fails with an
// UnsupportedCombination error, as does any value outside the enums.
func MapToTriple(t Target) (Triple, error) {
	cpu, okCPU := cpuSegments[t.CPU]
	os, okOS := osSuffixes[t.OS]
	if !okCPU || !okOS || !supportedPair(t.OS, t.CPU) {
		return "", NewUnsupportedCombinationError("", t)
	}
	return Triple(cpu + os), nil
}
