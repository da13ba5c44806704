package ir

// TypeDeclaration declares a concrete type as a specialization of a generic type.
type TypeDeclaration struct {
	ID        ConcreteTypeID `json:"id"`
	GenericID GenericTypeID  `json:"generic_id"`
	Args      []GenericArg   `json:"-"`
}

// LibFuncDeclaration declares a concrete libfunc as a specialization of a
// generic libfunc.
type LibFuncDeclaration struct {
	ID        ConcreteLibFuncID `json:"id"`
	GenericID GenericLibFuncID  `json:"generic_id"`
	Args      []GenericArg      `json:"-"`
}

// Param is a typed function parameter.
type Param struct {
	ID VarID          `json:"id"`
	Ty ConcreteTypeID `json:"ty"`
}

// Function is a user function: its signature and entry statement.
type Function struct {
	ID       FunctionID       `json:"id"`
	Params   []Param          `json:"params"`
	RetTypes []ConcreteTypeID `json:"ret_types"`
	Entry    StatementIdx     `json:"entry"`
}

// BranchTarget is where control continues after a libfunc branch is taken.
// The zero value is fallthrough (the next statement).
type BranchTarget struct {
	Fallthrough bool         `json:"fallthrough"`
	Statement   StatementIdx `json:"statement"`
}

// Fallthrough returns the fallthrough branch target.
func Fallthrough() BranchTarget { return BranchTarget{Fallthrough: true} }

// JumpTo returns a branch target naming an explicit statement.
func JumpTo(idx StatementIdx) BranchTarget { return BranchTarget{Statement: idx} }

// BranchInfo is one possible outcome of an invocation.
type BranchInfo struct {
	Target  BranchTarget `json:"target"`
	Results []VarID      `json:"results"`
}

// Invocation calls a declared libfunc with argument variables.
type Invocation struct {
	LibFunc  ConcreteLibFuncID `json:"libfunc"`
	Args     []VarID           `json:"args"`
	Branches []BranchInfo      `json:"branches"`
}

// Statement is either an invocation or a return. Exactly one field is set.
type Statement struct {
	Invocation *Invocation `json:"invocation,omitempty"`
	Return     []VarID     `json:"return,omitempty"`
}

// IsReturn reports whether the statement returns from the current function.
func (s Statement) IsReturn() bool { return s.Invocation == nil }

// Program is a complete declared program as produced by the front end.
type Program struct {
	Types      []TypeDeclaration    `json:"types"`
	LibFuncs   []LibFuncDeclaration `json:"libfuncs"`
	Statements []Statement          `json:"statements"`
	Funcs      []Function           `json:"funcs"`
}
