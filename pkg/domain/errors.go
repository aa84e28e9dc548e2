package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a failure inside a run.
type ErrorKind string

const (
	KindMissingField       ErrorKind = "MissingField"
	KindTypeMismatch       ErrorKind = "TypeMismatch"
	KindServiceUnavailable ErrorKind = "ServiceUnavailable"
	KindInvalidInput       ErrorKind = "InvalidInput"
	KindTimedOut           ErrorKind = "TimedOut"
	KindCanceled           ErrorKind = "Canceled"
	KindInvalidDefinition  ErrorKind = "InvalidDefinition"
)

var (
	ErrMissingField       = errors.New("missing field")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTimedOut           = errors.New("timed out")
	ErrCanceled           = errors.New("canceled")
	ErrInvalidDefinition  = errors.New("invalid definition")
)

// ErrResultNotFound is returned when an execution ID cannot be found in the store.
var ErrResultNotFound = errors.New("execution result not found")

// ErrObjectNotFound is returned when an object key does not exist in storage.
var ErrObjectNotFound = errors.New("object not found")

var kindSentinels = map[ErrorKind]error{
	KindMissingField:       ErrMissingField,
	KindTypeMismatch:       ErrTypeMismatch,
	KindServiceUnavailable: ErrServiceUnavailable,
	KindInvalidInput:       ErrInvalidInput,
	KindTimedOut:           ErrTimedOut,
	KindCanceled:           ErrCanceled,
	KindInvalidDefinition:  ErrInvalidDefinition,
}

// Sentinel returns the sentinel error for the kind.
func (k ErrorKind) Sentinel() error {
	return kindSentinels[k]
}

// StepError describes a failure that terminated a run.
type StepError struct {
	Kind    ErrorKind `json:"kind"`
	StateID string    `json:"state_id,omitempty"`
	Detail  string    `json:"detail"`
	Err     error     `json:"-"`
}

func (e *StepError) Error() string {
	if e.StateID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("state '%s': %s: %s", e.StateID, e.Kind, e.Detail)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *StepError) Is(target error) bool {
	return target == e.Kind.Sentinel()
}

// NewStepError creates a StepError of the given kind.
func NewStepError(kind ErrorKind, stateID, detail string) *StepError {
	return &StepError{Kind: kind, StateID: stateID, Detail: detail}
}

// KindOf classifies err by the sentinel it wraps.
// Errors that wrap no known sentinel are reported as fallback.
func KindOf(err error, fallback ErrorKind) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return fallback
}

// DefinitionError aggregates the structural problems found in a Definition.
type DefinitionError struct {
	Workflow string
	Problems []string
}

func (e *DefinitionError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("workflow '%s' is invalid: %s", e.Workflow, e.Problems[0])
	}
	return fmt.Sprintf("workflow '%s' has %d problems:\n- %s", e.Workflow, len(e.Problems), strings.Join(e.Problems, "\n- "))
}

func (e *DefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}
