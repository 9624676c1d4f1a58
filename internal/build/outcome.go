package build

import (
	"time"

	"github.com/roach88/xbuild/internal/target"
)

// Status is the final state of one target's build.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Outcome records how one target's build ended. Outcomes are created once
// when the task finishes and never modified.
type Outcome struct {
	Target target.Target
	Triple target.Triple

	Status Status

	// ExitCode is the toolchain's exit status; -1 when it never ran or was
	// terminated by a signal.
	ExitCode int

	Duration time.Duration

	// Stderr is the toolchain's captured error output, if any.
	Stderr string

	// Err is nil exactly when Status is StatusSucceeded.
	Err error
}

// Succeeded reports whether the target built successfully.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSucceeded
}

// Summary aggregates a run's outcomes.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Cancelled int

	// Failures holds every outcome that did not succeed, in input order.
	Failures []Outcome
}

// OK reports whether every target succeeded.
func (s Summary) OK() bool {
	return s.Succeeded == s.Total
}

// Summarize aggregates outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Status {
		case StatusSucceeded:
			s.Succeeded++
			continue
		case StatusCancelled:
			s.Cancelled++
		default:
			s.Failed++
		}
		s.Failures = append(s.Failures, o)
	}
	return s
}
