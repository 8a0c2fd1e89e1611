package acquisition

import (
	"fmt"
	"time"
)

// OutcomeKind is the terminal state of one strategy attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Attempt records one strategy invocation. Path is set only on success and
// Reason only on failure or timeout.
type Attempt struct {
	Strategy string
	Deadline time.Duration
	Outcome  OutcomeKind
	Path     string
	Reason   error
	Elapsed  time.Duration
}

func (a Attempt) Succeeded() bool {
	return a.Outcome == OutcomeSuccess
}

func (a Attempt) String() string {
	if a.Reason != nil {
		return fmt.Sprintf("%s: %s after %s: %v", a.Strategy, a.Outcome, a.Elapsed.Round(time.Millisecond), a.Reason)
	}
	return fmt.Sprintf("%s: %s after %s", a.Strategy, a.Outcome, a.Elapsed.Round(time.Millisecond))
}
