package domain

import "time"

// Status is the terminal outcome of an execution.
type Status string

const (
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
	StatusTimedOut  Status = "TimedOut"
	StatusErrored   Status = "Errored"
)

// ExecutionResult is the value returned by every run. Failures inside the
// engine are reported here, never as a separate error.
type ExecutionResult struct {
	ID       string  `json:"id"`
	Workflow string  `json:"workflow"`
	Status   Status  `json:"status"`
	Context  Context `json:"context"`

	// Terminal is the ID of the terminal state reached, if any.
	Terminal string `json:"terminal,omitempty"`
	// Error is set when Status is Errored or TimedOut.
	Error *StepError `json:"error,omitempty"`
	// Failure carries the error and cause declared by a failed terminal state.
	Failure *Failure `json:"failure,omitempty"`
	// Visited lists the states entered, in order.
	Visited []string `json:"visited"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failure is the error name and cause declared by a failed terminal state.
type Failure struct {
	Error string `json:"error,omitempty"`
	Cause string `json:"cause,omitempty"`
}

// Duration returns the wall-clock time the run took.
func (r ExecutionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// OK reports whether the run ended in a succeeded terminal state.
func (r ExecutionResult) OK() bool {
	return r.Status == StatusSucceeded
}
