package analyzer

import (
	"errors"
	"fmt"
)

// ErrorKind identifies where in the pipeline an error originated so the
// presentation layer can map it to distinct exit or status codes.
type ErrorKind string

const (
	// KindValidation marks malformed input rejected before any I/O.
	KindValidation ErrorKind = "validation"
	// KindDependencyUnavailable marks a failed collaborator health gate.
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
	// KindRetrieval marks a log store failure after the retry budget.
	KindRetrieval ErrorKind = "retrieval"
	// KindClassification marks a single-cluster classification fault.
	// Always contained, never surfaced from Run.
	KindClassification ErrorKind = "classification"
	// KindReporting marks a report/persistence failure. Logged and
	// swallowed, never surfaced from Run.
	KindReporting ErrorKind = "reporting"
)

// PipelineError wraps an underlying error with its taxonomy kind.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError creates a PipelineError with a formatted message.
func NewError(kind ErrorKind, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// WrapError attaches a taxonomy kind to an existing error, preserving the
// chain for errors.Is/As.
func WrapError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Err: err}
}

// KindOf extracts the taxonomy kind from an error chain. Errors produced
// outside the pipeline report an empty kind.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
