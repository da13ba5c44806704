package extensions

import "github.com/roach88/sierra/internal/ir"

// AsSingleType extracts the type of a [Type T] argument list.
func AsSingleType(args []ir.GenericArg) (ir.ConcreteTypeID, error) {
	if len(args) != 1 {
		return "", ErrUnsupportedGenericArg
	}
	ta, ok := args[0].(ir.TypeArg)
	if !ok {
		return "", ErrUnsupportedGenericArg
	}
	return ta.ID, nil
}

// AsSingleValue extracts the literal of a [Value v] argument list.
func AsSingleValue(args []ir.GenericArg) (int64, error) {
	if len(args) != 1 {
		return 0, ErrUnsupportedGenericArg
	}
	va, ok := args[0].(ir.ValueArg)
	if !ok {
		return 0, ErrUnsupportedGenericArg
	}
	return va.Value, nil
}
