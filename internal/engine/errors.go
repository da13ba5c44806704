package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMissingVariable indicates a statement read an unbound variable.
	ErrCodeMissingVariable RuntimeErrorCode = "MISSING_VARIABLE"

	// ErrCodeVariableOverride indicates a result would rebind a live variable.
	ErrCodeVariableOverride RuntimeErrorCode = "VARIABLE_OVERRIDE"

	// ErrCodeQuotaExceeded indicates the run exceeded max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeSimulationFailed indicates a libfunc rejected its inputs.
	ErrCodeSimulationFailed RuntimeErrorCode = "SIMULATION_FAILED"

	// ErrCodeInvalidBranch indicates control reached a branch or statement
	// that does not exist.
	ErrCodeInvalidBranch RuntimeErrorCode = "INVALID_BRANCH"

	// ErrCodeMissingFunction indicates the requested function is not declared.
	ErrCodeMissingFunction RuntimeErrorCode = "MISSING_FUNCTION"

	// ErrCodeMissingLibFunc indicates a statement invokes an undeclared libfunc.
	ErrCodeMissingLibFunc RuntimeErrorCode = "MISSING_LIBFUNC"

	// ErrCodeArgumentMismatch indicates a value has the wrong number of
	// variables or cells for its declared types.
	ErrCodeArgumentMismatch RuntimeErrorCode = "ARGUMENT_MISMATCH"
)

// RuntimeError represents an error detected while interpreting a run.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunToken identifies the affected run.
	RunToken string

	// Statement is the index of the failing statement, or -1 if the run
	// failed before the first statement.
	Statement ir.StatementIdx

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Statement >= 0 {
		msg = fmt.Sprintf("%s (statement=%d)", msg, e.Statement)
	}
	if e.RunToken != "" {
		msg = fmt.Sprintf("%s (run=%s)", msg, e.RunToken)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// CodeOf returns the runtime error code of err, or "" if err is not a
// RuntimeError.
func CodeOf(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsRuntimeError returns true if err is or wraps a RuntimeError with code.
func IsRuntimeError(err error, code RuntimeErrorCode) bool {
	return CodeOf(err) == code
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	if IsRuntimeError(err, ErrCodeQuotaExceeded) {
		return true
	}
	return IsStepsExceededError(err)
}

func newRuntimeError(code RuntimeErrorCode, stmt ir.StatementIdx, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:      code,
		Message:   fmt.Sprintf(format, args...),
		Statement: stmt,
	}
}
