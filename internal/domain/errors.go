package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures so callers and metrics can
// tell local input problems apart from wallet, chain, and timing ones.
type ErrorKind int

const (
	// KindValidation: bad input, detected locally before any network call.
	KindValidation ErrorKind = iota
	// KindProtocol: the wallet or node answered with a malformed shape.
	KindProtocol
	// KindRejection: the user declined signing.
	KindRejection
	// KindExecution: the transaction was accepted but halted with a fault.
	KindExecution
	// KindTimeout: the outcome stayed unknown within the attempt budget.
	KindTimeout
)

// PipelineError tags an underlying error with its taxonomy kind.
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string { return e.Err.Error() }
func (e *PipelineError) Unwrap() error { return e.Err }

// Validationf wraps a formatted message as a validation error.
func Validationf(format string, args ...any) error {
	return &PipelineError{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// WrapValidation tags an existing error as a validation failure.
func WrapValidation(err error) error {
	return &PipelineError{Kind: KindValidation, Err: err}
}

// KindOf reports the taxonomy kind of err, defaulting to KindProtocol
// for untagged errors surfacing from collaborators.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindProtocol
}
