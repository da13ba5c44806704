package simulation

import (
	"errors"
	"fmt"
)

// InputError reports that simulated inputs do not have the shape a concrete
// libfunc's signature demands.
type InputError struct {
	// What names the mismatched dimension, e.g. "variables" or "cells of input 1".
	What string

	// Expected is the count the signature requires.
	Expected int

	// Got is the count that was supplied.
	Got int
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("input error: expected %d %s, got %d", e.Expected, e.What, e.Got)
}

// IsInputError returns true if err is or wraps an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

func wrongVarCount(expected, got int) *InputError {
	return &InputError{What: "variables", Expected: expected, Got: got}
}
