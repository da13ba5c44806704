package testutil

import "github.com/roach88/sierra/internal/ir"

// Program builds small programs statement by statement.
//
//	p := testutil.NewProgram().
//		Type("felt", "felt").
//		LibFunc("st", "store_temp", ir.T("felt")).
//		Invoke("st", []ir.VarID{"x"}, ir.BranchInfo{Target: ir.Fallthrough(), Results: []ir.VarID{"y"}}).
//		Return("y").
//		Build()
type Program struct {
	p ir.Program
}

// NewProgram starts an empty program.
func NewProgram() *Program {
	return &Program{}
}

// Type declares a concrete type.
func (b *Program) Type(id ir.ConcreteTypeID, generic ir.GenericTypeID, args ...ir.GenericArg) *Program {
	b.p.Types = append(b.p.Types, ir.TypeDeclaration{ID: id, GenericID: generic, Args: args})
	return b
}

// LibFunc declares a concrete libfunc.
func (b *Program) LibFunc(id ir.ConcreteLibFuncID, generic ir.GenericLibFuncID, args ...ir.GenericArg) *Program {
	b.p.LibFuncs = append(b.p.LibFuncs, ir.LibFuncDeclaration{ID: id, GenericID: generic, Args: args})
	return b
}

// Invoke appends an invocation statement.
func (b *Program) Invoke(libfunc ir.ConcreteLibFuncID, args []ir.VarID, branches ...ir.BranchInfo) *Program {
	b.p.Statements = append(b.p.Statements, ir.Statement{Invocation: &ir.Invocation{
		LibFunc:  libfunc,
		Args:     args,
		Branches: branches,
	}})
	return b
}

// Return appends a return statement.
func (b *Program) Return(vars ...ir.VarID) *Program {
	if vars == nil {
		vars = []ir.VarID{}
	}
	b.p.Statements = append(b.p.Statements, ir.Statement{Return: vars})
	return b
}

// Func declares a function entered at entry.
func (b *Program) Func(id ir.FunctionID, entry ir.StatementIdx, params []ir.Param, ret ...ir.ConcreteTypeID) *Program {
	b.p.Funcs = append(b.p.Funcs, ir.Function{ID: id, Params: params, RetTypes: ret, Entry: entry})
	return b
}

// Next returns the index the next statement will get.
func (b *Program) Next() ir.StatementIdx {
	return ir.StatementIdx(len(b.p.Statements))
}

// Build returns the program.
func (b *Program) Build() *ir.Program {
	p := b.p
	return &p
}

// Then binds results and falls through.
func Then(results ...ir.VarID) ir.BranchInfo {
	return ir.BranchInfo{Target: ir.Fallthrough(), Results: results}
}

// Goto binds results and jumps to idx.
func Goto(idx ir.StatementIdx, results ...ir.VarID) ir.BranchInfo {
	return ir.BranchInfo{Target: ir.JumpTo(idx), Results: results}
}

// Vars is shorthand for a variable list.
func Vars(ids ...ir.VarID) []ir.VarID {
	if ids == nil {
		return []ir.VarID{}
	}
	return ids
}

// FeltParam is a parameter of type felt.
func FeltParam(id ir.VarID) ir.Param {
	return ir.Param{ID: id, Ty: "felt"}
}

// CoreProgram returns a program over the core families with three
// functions:
//
//	echo(x: felt) -> felt              store_temp then return
//	add(a: felt, b: felt) -> felt      felt_add
//	countdown(n: felt) -> felt         loops n times through felt_jump_nz, returns 0
//
// countdown(n) executes 3n+2 invocations.
func CoreProgram() *ir.Program {
	b := NewProgram().
		Type("felt", "felt").
		Type("nz_felt", "NonZero", ir.T("felt")).
		LibFunc("store_temp_felt", "store_temp", ir.T("felt")).
		LibFunc("felt_add", "felt_add").
		LibFunc("felt_jump_nz", "felt_jump_nz").
		LibFunc("felt_const_0", "felt_const", ir.V(0)).
		LibFunc("felt_const_m1", "felt_const", ir.V(-1))

	echo := b.Next()
	b.Invoke("store_temp_felt", Vars("x"), Then("y")).
		Return("y")

	add := b.Next()
	b.Invoke("felt_add", Vars("a", "b"), Then("c")).
		Return("c")

	loop := b.Next()
	b.Invoke("felt_jump_nz", Vars("n"), Then(), Goto(loop+3, "nz")).
		Invoke("felt_const_0", Vars(), Then("r")).
		Return("r").
		Invoke("felt_const_m1", Vars(), Then("m")).
		Invoke("felt_add", Vars("nz", "m"), Goto(loop, "n"))

	b.Func("echo", echo, []ir.Param{FeltParam("x")}, "felt").
		Func("add", add, []ir.Param{FeltParam("a"), FeltParam("b")}, "felt").
		Func("countdown", loop, []ir.Param{FeltParam("n")}, "felt")

	return b.Build()
}
