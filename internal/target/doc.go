// Package target defines the closed catalog of build targets and the rules
// for turning user-supplied tokens into concrete targets.
//
// A concrete target is a (BuildType, OperatingSystem, CPUArchitecture)
// triple. Two build types, three operating systems and two CPU architectures
// give twelve combinations; (Windows, AArch64) is excluded for both build
// types, leaving the ten targets returned by All.
//
// Canonical order:
//
//	dev-linux-x64, dev-linux-aarch64, dev-win-x64, dev-macos-x64,
//	dev-macos-aarch64, release-linux-x64, release-linux-aarch64,
//	release-win-x64, release-macos-x64, release-macos-aarch64
//
// Tokens are either concrete target strings or one of the aliases current,
// dev, development, release and all. The Resolver expands aliases using a
// Host, validates literals segment by segment and deduplicates the result
// while preserving first-occurrence order.
//
// The package is pure: no I/O, no global mutable state. Host introspection is
// injected through the Host interface.
package target
