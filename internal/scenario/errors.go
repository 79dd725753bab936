package scenario

import (
	"errors"
	"fmt"
)

// Errors returned while loading or preparing a scenario.
var (
	ErrInvalidScenario = errors.New("invalid scenario")
	ErrInvalidRef      = errors.New("invalid position reference")
	ErrUnknownRange    = errors.New("unknown range")
)

// ExpectationError describes one unmet expectation.
type ExpectationError struct {
	// Step is the 1-based step index, or 0 for the final expectations.
	Step int

	// Subject names what was checked, such as "range sel".
	Subject string

	Want string
	Got  string
}

func (e *ExpectationError) Error() string {
	where := "final"
	if e.Step > 0 {
		where = fmt.Sprintf("step %d", e.Step)
	}
	return fmt.Sprintf("%s: %s: want %s, got %s", where, e.Subject, e.Want, e.Got)
}

// StepError reports a step whose operation failed unexpectedly, or did
// not fail as expected.
type StepError struct {
	Step int
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
