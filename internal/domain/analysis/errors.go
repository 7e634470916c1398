package analysis

import (
	"errors"
	"fmt"
)

// Kind tags a pipeline failure.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindInvocation    Kind = "invocation_error"
	KindInvalidOutput Kind = "invalid_output"
)

// PipelineError is the single failure value returned by the pipeline.
type PipelineError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error { return e.Err }

// Is matches any *PipelineError of the same kind, so the Err* sentinels work with errors.Is.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

var (
	ErrInvalidInput  = &PipelineError{Kind: KindInvalidInput}
	ErrInvocation    = &PipelineError{Kind: KindInvocation}
	ErrInvalidOutput = &PipelineError{Kind: KindInvalidOutput}
)

func InvalidInput(msg string, err error) *PipelineError {
	return &PipelineError{Kind: KindInvalidInput, Message: msg, Err: err}
}

func Invocation(msg string, err error) *PipelineError {
	return &PipelineError{Kind: KindInvocation, Message: msg, Err: err}
}

func InvalidOutput(msg string, err error) *PipelineError {
	return &PipelineError{Kind: KindInvalidOutput, Message: msg, Err: err}
}

// KindOf returns the pipeline kind of err, or "" when err is not a pipeline failure.
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
