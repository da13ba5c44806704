package extensions

import (
	"errors"

	"github.com/roach88/sierra/internal/ir"
)

// GenericLibFunc is a stateless family member that produces concrete
// libfuncs from generic arguments.
type GenericLibFunc interface {
	Specialize(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error)
}

// Family is a set of generic libfuncs addressed by id.
type Family interface {
	// IDs returns every id the family owns, in declaration order.
	IDs() []ir.GenericLibFuncID

	// ByID returns the member for id, or false if the family does not own it.
	ByID(id ir.GenericLibFuncID) (GenericLibFunc, bool)
}

// NamedLibFunc is a generic libfunc with exactly one fixed id.
type NamedLibFunc interface {
	GenericLibFunc
	ID() ir.GenericLibFuncID
}

// Named exposes a single NamedLibFunc as a Family.
func Named(lf NamedLibFunc) Family {
	return namedFamily{lf: lf}
}

type namedFamily struct {
	lf NamedLibFunc
}

func (f namedFamily) IDs() []ir.GenericLibFuncID {
	return []ir.GenericLibFuncID{f.lf.ID()}
}

func (f namedFamily) ByID(id ir.GenericLibFuncID) (GenericLibFunc, bool) {
	if id != f.lf.ID() {
		return nil, false
	}
	return f.lf, true
}

// NoGenericArgsLibFunc is a named libfunc that takes no generic arguments.
type NoGenericArgsLibFunc interface {
	ID() ir.GenericLibFuncID
	SpecializeNoArgs(ctx SpecializationContext) (ConcreteLibFunc, error)
}

// NoGenericArgs adapts lf into a NamedLibFunc whose Specialize rejects any
// argument with ErrWrongNumberOfGenericArgs.
func NoGenericArgs(lf NoGenericArgsLibFunc) NamedLibFunc {
	return noArgs{lf: lf}
}

type noArgs struct {
	lf NoGenericArgsLibFunc
}

func (n noArgs) ID() ir.GenericLibFuncID { return n.lf.ID() }

func (n noArgs) Specialize(ctx SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	if len(args) != 0 {
		return nil, ErrWrongNumberOfGenericArgs
	}
	return n.lf.SpecializeNoArgs(ctx)
}

// SpecializeByID looks id up in family and specializes it. Both an unknown id
// and a failed specialization are reported as an *ExtensionError naming id.
func SpecializeByID(family Family, ctx SpecializationContext, id ir.GenericLibFuncID, args []ir.GenericArg) (ConcreteLibFunc, error) {
	lf, ok := family.ByID(id)
	if !ok {
		return nil, &ExtensionError{LibFuncID: id, Err: ErrUnsupportedID}
	}
	concrete, err := lf.Specialize(ctx, args)
	if err != nil {
		var ext *ExtensionError
		if errors.As(err, &ext) {
			return nil, err
		}
		return nil, &ExtensionError{LibFuncID: id, Err: err}
	}
	return concrete, nil
}

// IsExtensionError reports whether err is or wraps an *ExtensionError.
func IsExtensionError(err error) bool {
	var ext *ExtensionError
	return errors.As(err, &ext)
}
