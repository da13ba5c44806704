package extensions

import (
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// FunctionMap indexes the program's user functions by id.
type FunctionMap map[ir.FunctionID]ir.Function

// typeKey keys a concrete type by its generic id and encoded argument list.
// Slices cannot key a Go map, so the arguments go through ir.ArgsKey.
type typeKey struct {
	generic ir.GenericTypeID
	args    string
}

// ConcreteTypeIDMap maps (generic type id, argument list) to the concrete
// type id the program declared for it.
//
// The map is filled once, during the type phase, and read afterwards.
// Declare never changes an existing mapping.
type ConcreteTypeIDMap struct {
	ids map[typeKey]ir.ConcreteTypeID
}

// NewConcreteTypeIDMap creates an empty map.
func NewConcreteTypeIDMap() *ConcreteTypeIDMap {
	return &ConcreteTypeIDMap{ids: make(map[typeKey]ir.ConcreteTypeID)}
}

// TypeRedeclaredError is returned when a (generic id, args) key is declared twice.
type TypeRedeclaredError struct {
	GenericID ir.GenericTypeID
	Args      []ir.GenericArg
	Existing  ir.ConcreteTypeID
	Attempted ir.ConcreteTypeID
}

func (e *TypeRedeclaredError) Error() string {
	return fmt.Sprintf("type %s%s already declared as %s, cannot redeclare as %s",
		e.GenericID, ir.FormatArgs(e.Args), e.Existing, e.Attempted)
}

// Declare records that (id, args) is the concrete type concrete.
func (m *ConcreteTypeIDMap) Declare(id ir.GenericTypeID, args []ir.GenericArg, concrete ir.ConcreteTypeID) error {
	key := typeKey{generic: id, args: ir.ArgsKey(args)}
	if existing, ok := m.ids[key]; ok {
		return &TypeRedeclaredError{
			GenericID: id,
			Args:      append([]ir.GenericArg(nil), args...),
			Existing:  existing,
			Attempted: concrete,
		}
	}
	m.ids[key] = concrete
	return nil
}

// Lookup returns the concrete id declared for (id, args). A nil map holds
// nothing.
func (m *ConcreteTypeIDMap) Lookup(id ir.GenericTypeID, args []ir.GenericArg) (ir.ConcreteTypeID, bool) {
	if m == nil {
		return "", false
	}
	concrete, ok := m.ids[typeKey{generic: id, args: ir.ArgsKey(args)}]
	return concrete, ok
}

// Len returns the number of declared types.
func (m *ConcreteTypeIDMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// SpecializationContext is the read-only view of the program given to every
// specialize call. It is a pair of references and is passed by value; nothing
// is cached or mutated through it.
type SpecializationContext struct {
	Functions       FunctionMap
	ConcreteTypeIDs *ConcreteTypeIDMap
}

// NewSpecializationContext bundles the program maps into a context.
func NewSpecializationContext(functions FunctionMap, types *ConcreteTypeIDMap) SpecializationContext {
	return SpecializationContext{Functions: functions, ConcreteTypeIDs: types}
}

// GetConcreteType resolves (id, args) to the declared concrete type.
func (c SpecializationContext) GetConcreteType(id ir.GenericTypeID, args []ir.GenericArg) (ir.ConcreteTypeID, error) {
	concrete, ok := c.ConcreteTypeIDs.Lookup(id, args)
	if !ok {
		return "", NewTypeWasNotDeclaredError(id, args)
	}
	return concrete, nil
}

// GetWrappedConcreteType resolves a single-type wrapper such as NonZero<T>.
func (c SpecializationContext) GetWrappedConcreteType(id ir.GenericTypeID, wrapped ir.ConcreteTypeID) (ir.ConcreteTypeID, error) {
	return c.GetConcreteType(id, []ir.GenericArg{ir.TypeArg{ID: wrapped}})
}

// GetFunction returns the user function with the given id.
func (c SpecializationContext) GetFunction(id ir.FunctionID) (ir.Function, error) {
	fn, ok := c.Functions[id]
	if !ok {
		return ir.Function{}, &SpecializationError{Code: ErrCodeMissingFunction, FunctionID: id}
	}
	return fn, nil
}
