package extensions

import (
	"errors"
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// SpecializationErrorCode categorizes specialization failures.
type SpecializationErrorCode string

const (
	// ErrCodeUnsupportedID indicates no family owns the requested id.
	ErrCodeUnsupportedID SpecializationErrorCode = "UNSUPPORTED_ID"

	// ErrCodeUnsupportedGenericArg indicates the argument kind or shape was rejected.
	ErrCodeUnsupportedGenericArg SpecializationErrorCode = "UNSUPPORTED_GENERIC_ARG"

	// ErrCodeWrongNumberOfGenericArgs indicates an arity mismatch.
	ErrCodeWrongNumberOfGenericArgs SpecializationErrorCode = "WRONG_NUMBER_OF_GENERIC_ARGS"

	// ErrCodeTypeWasNotDeclared indicates a referenced type was never registered.
	ErrCodeTypeWasNotDeclared SpecializationErrorCode = "TYPE_WAS_NOT_DECLARED"

	// ErrCodeMissingFunction indicates a referenced user function does not exist.
	ErrCodeMissingFunction SpecializationErrorCode = "MISSING_FUNCTION"

	// ErrCodeUndeclaredTypeArg indicates a type argument names a concrete type
	// that is not declared before its use.
	ErrCodeUndeclaredTypeArg SpecializationErrorCode = "UNDECLARED_TYPE_ARG"
)

// SpecializationError reports why a generic id and argument list could not
// be resolved into a concrete libfunc or type.
//
// Every specialization error is a deterministic function of its inputs;
// retrying never helps.
type SpecializationError struct {
	Code SpecializationErrorCode

	// TypeID and Args identify the missing type (ErrCodeTypeWasNotDeclared).
	TypeID ir.GenericTypeID
	Args   []ir.GenericArg

	// FunctionID identifies the missing function (ErrCodeMissingFunction).
	FunctionID ir.FunctionID

	// ConcreteTypeID identifies the undeclared type argument (ErrCodeUndeclaredTypeArg).
	ConcreteTypeID ir.ConcreteTypeID
}

// Sentinel errors for errors.Is matching. Is compares codes only, so a
// TypeWasNotDeclared error carrying data still matches ErrTypeWasNotDeclared.
var (
	ErrUnsupportedID            = &SpecializationError{Code: ErrCodeUnsupportedID}
	ErrUnsupportedGenericArg    = &SpecializationError{Code: ErrCodeUnsupportedGenericArg}
	ErrWrongNumberOfGenericArgs = &SpecializationError{Code: ErrCodeWrongNumberOfGenericArgs}
	ErrTypeWasNotDeclared       = &SpecializationError{Code: ErrCodeTypeWasNotDeclared}
	ErrMissingFunction          = &SpecializationError{Code: ErrCodeMissingFunction}
	ErrUndeclaredTypeArg        = &SpecializationError{Code: ErrCodeUndeclaredTypeArg}
)

// Error implements the error interface.
func (e *SpecializationError) Error() string {
	switch e.Code {
	case ErrCodeTypeWasNotDeclared:
		return fmt.Sprintf("%s: type %s%s was not declared", e.Code, e.TypeID, ir.FormatArgs(e.Args))
	case ErrCodeMissingFunction:
		return fmt.Sprintf("%s: function %s", e.Code, e.FunctionID)
	case ErrCodeUndeclaredTypeArg:
		return fmt.Sprintf("%s: concrete type %s", e.Code, e.ConcreteTypeID)
	default:
		return string(e.Code)
	}
}

// Is matches any *SpecializationError with the same code.
func (e *SpecializationError) Is(target error) bool {
	t, ok := target.(*SpecializationError)
	return ok && t.Code == e.Code
}

// NewTypeWasNotDeclaredError creates the error for a missing (id, args) type.
// The argument list is copied.
func NewTypeWasNotDeclaredError(id ir.GenericTypeID, args []ir.GenericArg) *SpecializationError {
	return &SpecializationError{
		Code:   ErrCodeTypeWasNotDeclared,
		TypeID: id,
		Args:   append([]ir.GenericArg(nil), args...),
	}
}

// IsSpecializationError returns true if err is or wraps a
// *SpecializationError with the given code.
func IsSpecializationError(err error, code SpecializationErrorCode) bool {
	var se *SpecializationError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// ExtensionError attributes a SpecializationError to the libfunc or type
// declaration that caused it. Exactly one of LibFuncID and TypeID is set.
type ExtensionError struct {
	LibFuncID ir.GenericLibFuncID
	TypeID    ir.GenericTypeID
	Err       error
}

// Error implements the error interface.
func (e *ExtensionError) Error() string {
	if e.TypeID != "" {
		return fmt.Sprintf("type %s specialization failed: %v", e.TypeID, e.Err)
	}
	return fmt.Sprintf("libfunc %s specialization failed: %v", e.LibFuncID, e.Err)
}

// Unwrap returns the underlying error, normally a *SpecializationError.
func (e *ExtensionError) Unwrap() error {
	return e.Err
}
