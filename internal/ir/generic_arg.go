package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// GenericArg is a sealed interface for the arguments of a generic type or
// libfunc. Only TypeArg and ValueArg implement it.
//
// Both variants are comparable structs, so two GenericArg values are equal
// under == exactly when they have the same variant and payload.
type GenericArg interface {
	genericArg() // Sealed
	String() string
}

// TypeArg references a concrete type declared by the program.
type TypeArg struct {
	ID ConcreteTypeID
}

func (TypeArg) genericArg() {}

func (a TypeArg) String() string { return string(a.ID) }

// ValueArg is a literal value argument.
type ValueArg struct {
	Value int64
}

func (ValueArg) genericArg() {}

func (a ValueArg) String() string { return strconv.FormatInt(a.Value, 10) }

// T is shorthand for TypeArg{ID: id}.
func T(id ConcreteTypeID) GenericArg { return TypeArg{ID: id} }

// V is shorthand for ValueArg{Value: v}.
func V(v int64) GenericArg { return ValueArg{Value: v} }

// FormatArgs renders an argument list as "<a, b>", or "" when empty.
// A nil element renders as "<nil>".
func FormatArgs(args []GenericArg) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = a.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// ArgsKey returns a stable string encoding of an argument list.
// Go maps cannot key on slices, so every (id, args) map keys on this instead.
// Equal argument lists always produce equal keys and vice versa.
//
// Type ids are written length-prefixed with their bytes untouched: ids that
// differ only in Unicode normalization, or in invalid UTF-8 bytes, stay
// distinct. Canonical JSON is not used here because it normalizes strings.
func ArgsKey(args []GenericArg) string {
	var b strings.Builder
	for _, a := range args {
		switch arg := a.(type) {
		case TypeArg:
			fmt.Fprintf(&b, "t%d:%s", len(arg.ID), arg.ID)
		case ValueArg:
			fmt.Fprintf(&b, "v%d;", arg.Value)
		default:
			b.WriteString("n;")
		}
	}
	return b.String()
}

// argToCanonical maps an argument to its canonical JSON object form:
// {"type":"<id>"} or {"value":<n>}.
func argToCanonical(a GenericArg) map[string]any {
	switch arg := a.(type) {
	case TypeArg:
		return map[string]any{"type": string(arg.ID)}
	case ValueArg:
		return map[string]any{"value": arg.Value}
	default:
		return map[string]any{"unknown": fmt.Sprintf("%T", a)}
	}
}
