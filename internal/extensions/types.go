package extensions

import (
	"errors"
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// ConcreteTypeInfo describes a specialized type.
type ConcreteTypeInfo struct {
	// Size is the number of memory cells a value occupies.
	Size int `json:"size"`
}

// TypeInfoLookup returns the info of an already declared concrete type.
type TypeInfoLookup func(id ir.ConcreteTypeID) (ConcreteTypeInfo, bool)

// GenericType produces concrete type info from generic arguments.
type GenericType interface {
	Specialize(lookup TypeInfoLookup, args []ir.GenericArg) (ConcreteTypeInfo, error)
}

// NoArgsType is a generic type that takes no arguments and has a fixed size.
type NoArgsType struct {
	Size int
}

// Specialize implements GenericType.
func (t NoArgsType) Specialize(_ TypeInfoLookup, args []ir.GenericArg) (ConcreteTypeInfo, error) {
	if len(args) != 0 {
		return ConcreteTypeInfo{}, ErrWrongNumberOfGenericArgs
	}
	return ConcreteTypeInfo{Size: t.Size}, nil
}

// WrapperType is a generic type over a single type argument that shares the
// wrapped type's layout, such as NonZero<T>.
type WrapperType struct{}

// Specialize implements GenericType.
func (WrapperType) Specialize(lookup TypeInfoLookup, args []ir.GenericArg) (ConcreteTypeInfo, error) {
	wrapped, err := AsSingleType(args)
	if err != nil {
		return ConcreteTypeInfo{}, err
	}
	info, ok := lookup(wrapped)
	if !ok {
		return ConcreteTypeInfo{}, &SpecializationError{Code: ErrCodeUndeclaredTypeArg, ConcreteTypeID: wrapped}
	}
	return info, nil
}

// TypeCatalog maps generic type ids to their implementations.
type TypeCatalog map[ir.GenericTypeID]GenericType

// SpecializeType looks id up and specializes it, reporting failures as an
// *ExtensionError naming the type.
func (c TypeCatalog) SpecializeType(lookup TypeInfoLookup, id ir.GenericTypeID, args []ir.GenericArg) (ConcreteTypeInfo, error) {
	t, ok := c[id]
	if !ok {
		return ConcreteTypeInfo{}, &ExtensionError{TypeID: id, Err: ErrUnsupportedID}
	}
	info, err := t.Specialize(lookup, args)
	if err != nil {
		return ConcreteTypeInfo{}, &ExtensionError{TypeID: id, Err: err}
	}
	if info.Size < 0 {
		return ConcreteTypeInfo{}, &ExtensionError{TypeID: id, Err: fmt.Errorf("negative size %d", info.Size)}
	}
	return info, nil
}

// IsUnsupportedID reports whether err is an unknown-id failure.
func IsUnsupportedID(err error) bool {
	return errors.Is(err, ErrUnsupportedID)
}
