package ir

import "strconv"

// GenericTypeID names a generic type family, e.g. "felt" or "NonZero".
type GenericTypeID string

// ConcreteTypeID names a fully specialized type declared by the program.
type ConcreteTypeID string

// GenericLibFuncID names a generic libfunc, e.g. "store_temp".
type GenericLibFuncID string

// ConcreteLibFuncID names a libfunc declaration of the program.
type ConcreteLibFuncID string

// FunctionID names a user function of the program.
type FunctionID string

// VarID names a variable within a function body.
type VarID string

// StatementIdx is the position of a statement in Program.Statements.
type StatementIdx int

func (id GenericTypeID) String() string     { return string(id) }
func (id ConcreteTypeID) String() string    { return string(id) }
func (id GenericLibFuncID) String() string  { return string(id) }
func (id ConcreteLibFuncID) String() string { return string(id) }
func (id FunctionID) String() string        { return string(id) }
func (id VarID) String() string             { return string(id) }

// numericID renders an anonymous numeric id as "[n]".
func numericID(n uint64) string {
	return "[" + strconv.FormatUint(n, 10) + "]"
}

// ConcreteTypeIDFromUint64 returns the anonymous concrete type id "[n]".
func ConcreteTypeIDFromUint64(n uint64) ConcreteTypeID {
	return ConcreteTypeID(numericID(n))
}

// ConcreteLibFuncIDFromUint64 returns the anonymous libfunc id "[n]".
func ConcreteLibFuncIDFromUint64(n uint64) ConcreteLibFuncID {
	return ConcreteLibFuncID(numericID(n))
}

// VarIDFromUint64 returns the anonymous variable id "[n]".
func VarIDFromUint64(n uint64) VarID {
	return VarID(numericID(n))
}
