// Package exception provides the error types shared by every stage of the spectra pipeline.
// Each failure is classified by a Kind so that callers can react to the category of a
// failure (configuration, I/O, parsing, validation, compilation, generation) without
// matching on message text.
package exception

import (
	"errors"
	"fmt"
	"runtime"
)

// Kind classifies a PipelineError.
type Kind string

const (
	// KindConfiguration marks a configuration source that is missing, unreadable, malformed or invalid.
	KindConfiguration Kind = "ConfigurationError"
	// KindIO marks a filesystem failure.
	KindIO Kind = "IOError"
	// KindParse marks input data that could not be interpreted.
	KindParse Kind = "ParseError"
	// KindValidation marks input data that was readable but violates a constraint.
	KindValidation Kind = "ValidationError"
	// KindCompilation marks a failed external build.
	KindCompilation Kind = "CompilationError"
	// KindGeneration marks a failure while producing spectra.
	KindGeneration Kind = "GenerationError"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// PipelineError is the error type returned by pipeline collaborators.
type PipelineError struct {
	// Kind is the failure category.
	Kind Kind
	// Module indicates the component where the error occurred (e.g., "config", "atmosphere", "compilation").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// ExitCode is the exit status of a failed external process, or 0.
	ExitCode int
	// Stderr holds the captured standard error of a failed external process.
	Stderr string
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// New creates a PipelineError.
func New(kind Kind, module, message string, originalErr error) *PipelineError {
	return &PipelineError{
		Kind:        kind,
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

// Newf creates a PipelineError using a format string.
// When the last argument is an error it is taken as the wrapped error instead of
// being passed to fmt.Sprintf.
//
//	Newf(KindIO, "output", "cannot create %s", dir, err)
func Newf(kind Kind, module, format string, a ...interface{}) *PipelineError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return &PipelineError{
		Kind:        kind,
		Module:      module,
		Message:     fmt.Sprintf(format, args...),
		OriginalErr: originalErr,
		StackTrace:  captureStack(),
	}
}

// NewCompilationError creates a CompilationError carrying the exit status and captured stderr of the build.
func NewCompilationError(module, message string, exitCode int, stderr string, originalErr error) *PipelineError {
	e := New(KindCompilation, module, message, originalErr)
	e.ExitCode = exitCode
	e.Stderr = stderr
	return e
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s [%s] %s", e.Kind, e.Module, e.Message)
	if e.Kind == KindCompilation && e.ExitCode != 0 {
		msg = fmt.Sprintf("%s (exit code %d)", msg, e.ExitCode)
	}
	if e.OriginalErr != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.OriginalErr)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s\n%s", msg, e.Stderr)
	}
	return msg
}

// Unwrap returns the original error for errors.Unwrap.
func (e *PipelineError) Unwrap() error {
	return e.OriginalErr
}

// As returns the first PipelineError in err's chain.
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// KindOf returns the Kind of the first PipelineError in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	if pe, ok := As(err); ok {
		return pe.Kind
	}
	return ""
}

// IsKind reports whether err's chain contains a PipelineError of the given kind.
func IsKind(err error, kind Kind) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if pe, ok := e.(*PipelineError); ok && pe.Kind == kind {
			return true
		}
	}
	return false
}

// Wrap returns err unchanged when it already carries a PipelineError, and wraps it
// with the given kind otherwise. A nil err yields nil.
func Wrap(err error, kind Kind, module, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return New(kind, module, message, err)
}

// ExtractErrorMessage returns the Message of a PipelineError, or err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if pe, ok := err.(*PipelineError); ok {
		return pe.Message
	}
	return err.Error()
}
