package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorType int

const (
	// ErrNotFound marks expected absence: the media has no usable subtitle
	// stream.
	ErrNotFound ErrorType = iota
	ErrExternalTool
	ErrMissingOutput
	ErrFileRead
	ErrFileWrite
)

func (t ErrorType) String() string {
	switch t {
	case ErrNotFound:
		return "NotFound"
	case ErrExternalTool:
		return "ExternalTool"
	case ErrMissingOutput:
		return "MissingOutput"
	case ErrFileRead:
		return "FileRead"
	case ErrFileWrite:
		return "FileWrite"
	default:
		return "Unknown"
	}
}

// PipelineError describes why an asset ended in Skipped or Failed.
type PipelineError struct {
	Type    ErrorType
	Stage   State // last state reached before the error
	Message string
	Command string // command line, for ErrExternalTool
	Cause   error
}

func NewError(errorType ErrorType, stage State, message string) *PipelineError {
	return &PipelineError{
		Type:    errorType,
		Stage:   stage,
		Message: message,
	}
}

func WrapError(err error, errorType ErrorType, stage State, message string) *PipelineError {
	return &PipelineError{
		Type:    errorType,
		Stage:   stage,
		Message: message,
		Cause:   err,
	}
}

func (e *PipelineError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type, e.Message))

	if e.Stage != "" {
		parts = append(parts, fmt.Sprintf("after: %s", e.Stage))
	}
	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command: %s", e.Command))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func IsErrorType(err error, errorType ErrorType) bool {
	var pErr *PipelineError
	if errors.As(err, &pErr) {
		return pErr.Type == errorType
	}
	return false
}
