package target

import "runtime"

// Host reports the platform the tool is running on.
type Host interface {
	Platform() (OperatingSystem, CPUArchitecture, error)
}

// RuntimeHost classifies runtime.GOOS and runtime.GOARCH.
type RuntimeHost struct{}

// Platform implements Host.
func (RuntimeHost) Platform() (OperatingSystem, CPUArchitecture, error) {
	return classifyHost(runtime.GOOS, runtime.GOARCH)
}

// StaticHost always reports a fixed platform. It backs the --os and --cpu
// overrides and is used by tests.
type StaticHost struct {
	OS  OperatingSystem
	CPU CPUArchitecture
}

// Platform implements Host.
func (h StaticHost) Platform() (OperatingSystem, CPUArchitecture, error) {
	return h.OS, h.CPU, nil
}

// GOHost classifies arbitrary GOOS/GOARCH values; used to exercise
// unsupported hosts.
type GOHost struct {
	GOOS   string
	GOARCH string
}

// Platform implements Host.
func (h GOHost) Platform() (OperatingSystem, CPUArchitecture, error) {
	return classifyHost(h.GOOS, h.GOARCH)
}

func classifyHost(goos, goarch string) (OperatingSystem, CPUArchitecture, error) {
	var os OperatingSystem
	switch goos {
	case "linux":
		os = Linux
	case "windows":
		os = Windows
	case "darwin":
		os = MacOS
	default:
		return 0, 0, NewUnsupportedHostError(SegmentOS, goos)
	}

	var cpu CPUArchitecture
	switch goarch {
	case "amd64":
		cpu = X64
	case "arm64":
		cpu = AArch64
	default:
		return 0, 0, NewUnsupportedHostError(SegmentCPU, goarch)
	}

	return os, cpu, nil
}
