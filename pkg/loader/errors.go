// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"errors"
	"fmt"
)

// Phase identifies the step of a module's life in which evaluation failed.
type Phase string

const (
	// PhaseEvaluate is the conversion of source text into a Registration.
	PhaseEvaluate Phase = "evaluate"
	// PhaseDeclare is the call to a Registration's DeclareFunc.
	PhaseDeclare Phase = "declare"
	// PhaseExecute is the call to a Declaration's ExecuteFunc.
	PhaseExecute Phase = "execute"
)

var (
	// ErrResolution is returned when a specifier cannot be mapped to a location.
	ErrResolution = errors.New("module resolution failed")

	// ErrRetrieval is returned when a module's source cannot be fetched.
	ErrRetrieval = errors.New("module retrieval failed")

	// ErrEvaluation is returned when a module cannot be evaluated, declared or executed.
	ErrEvaluation = errors.New("module evaluation failed")

	// ErrUnsupportedExport is returned by ExportArgs for an argument arrangement
	// that is neither a bulk nor a single export.
	ErrUnsupportedExport = fmt.Errorf("%w: unsupported export arguments", ErrEvaluation)
)

type (
	// ResolutionError reports a specifier that neither the import map nor URL
	// parsing could turn into a location.
	ResolutionError struct {
		Specifier string
		Parent    string
	}

	// RetrievalError reports a failure of the SourceProvider.
	RetrievalError struct {
		URL   string
		Cause error
	}

	// EvaluationError reports a failure while evaluating, declaring or
	// executing a module.
	EvaluationError struct {
		URL   string
		Phase Phase
		Cause error
	}
)

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %q from %s", e.Specifier, e.Parent)
}

// Unwrap returns ErrResolution.
func (e *ResolutionError) Unwrap() error {
	return ErrResolution
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

// Unwrap returns ErrRetrieval and the underlying cause.
func (e *RetrievalError) Unwrap() []error {
	return unwrapPair(ErrRetrieval, e.Cause)
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Phase, e.URL, e.Cause)
}

// Unwrap returns ErrEvaluation and the underlying cause.
func (e *EvaluationError) Unwrap() []error {
	return unwrapPair(ErrEvaluation, e.Cause)
}

func unwrapPair(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}
