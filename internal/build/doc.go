// Package build drives one toolchain subprocess per resolved target.
//
// The Orchestrator fans out a task per target, joins on all of them and
// returns one Outcome per target in input order. Targets never affect each
// other: a failing toolchain does not cancel its siblings, and output
// directories are disjoint (<root>/<os>/<cpu>/<buildtype>) so no locking is
// needed between tasks.
//
// Cancellation goes through a shared cancel.Controller. Tasks check it before
// creating directories and again immediately before spawning; running
// toolchains observe it through the context handed to the Launcher.
//
// Filesystem access goes through a billy.Filesystem rooted at the output
// root, so tests can use an in-memory filesystem.
package build
