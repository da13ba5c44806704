package registry

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is reported when two declarations of the same kind share an id.
var ErrDuplicateID = errors.New("duplicate id")

// DeclarationError attributes a registration failure to one declaration.
type DeclarationError struct {
	Kind string // "type", "function" or "libfunc"
	ID   string
	Err  error
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// IsDeclarationError returns true if err is or wraps a *DeclarationError.
func IsDeclarationError(err error) bool {
	var de *DeclarationError
	return errors.As(err, &de)
}
