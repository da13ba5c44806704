// Package felt implements a small family of field-element libfuncs: literal
// constants, addition and a zero test that branches.
package felt

import (
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// Generic type ids the family resolves through the specialization context.
const (
	TypeID        ir.GenericTypeID = "felt"
	NonZeroTypeID ir.GenericTypeID = "NonZero"
)

// Generic libfunc ids.
const (
	ConstID  ir.GenericLibFuncID = "felt_const"
	AddID    ir.GenericLibFuncID = "felt_add"
	JumpNzID ir.GenericLibFuncID = "felt_jump_nz"
)

// Member tags.
const (
	TagConst  extensions.Tag = "Const"
	TagAdd    extensions.Tag = "Add"
	TagJumpNz extensions.Tag = "JumpNz"
)

var (
	// Const produces a literal: felt_const<c>.
	Const extensions.NamedLibFunc = constLibFunc{}

	// Add sums two field elements.
	Add = extensions.NoGenericArgs(addLibFunc{})

	// JumpNz branches on whether a field element is zero.
	JumpNz = extensions.NoGenericArgs(jumpNzLibFunc{})
)

// Family is the felt hierarchy.
var Family = extensions.MustHierarchy("felt",
	extensions.Member{Tag: TagConst, Family: extensions.Named(Const)},
	extensions.Member{Tag: TagAdd, Family: extensions.Named(Add)},
	extensions.Member{Tag: TagJumpNz, Family: extensions.Named(JumpNz)},
)

func feltType(ctx extensions.SpecializationContext) (ir.ConcreteTypeID, error) {
	return ctx.GetConcreteType(TypeID, nil)
}

type constLibFunc struct{}

func (constLibFunc) ID() ir.GenericLibFuncID { return ConstID }

func (constLibFunc) Specialize(ctx extensions.SpecializationContext, args []ir.GenericArg) (extensions.ConcreteLibFunc, error) {
	v, err := extensions.AsSingleValue(args)
	if err != nil {
		return nil, err
	}
	felt, err := feltType(ctx)
	if err != nil {
		return nil, err
	}
	return extensions.NonBranch(ConstConcrete{Felt: felt, Value: simulation.CellFromInt64(v)}), nil
}

// ConstConcrete is a specialized felt_const. Value is already reduced.
type ConstConcrete struct {
	Felt  ir.ConcreteTypeID
	Value simulation.MemCell
}

func (ConstConcrete) InputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{} }

func (c ConstConcrete) OutputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{c.Felt} }

func (c ConstConcrete) SimulateNonBranch(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error) {
	if _, err := simulation.UnpackInputs(0, inputs); err != nil {
		return nil, err
	}
	return [][]simulation.MemCell{{c.Value}}, nil
}

type addLibFunc struct{}

func (addLibFunc) ID() ir.GenericLibFuncID { return AddID }

func (addLibFunc) SpecializeNoArgs(ctx extensions.SpecializationContext) (extensions.ConcreteLibFunc, error) {
	felt, err := feltType(ctx)
	if err != nil {
		return nil, err
	}
	return extensions.NonBranch(AddConcrete{Felt: felt}), nil
}

// AddConcrete is the specialization of felt_add.
type AddConcrete struct {
	Felt ir.ConcreteTypeID
}

func (c AddConcrete) InputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{c.Felt, c.Felt} }

func (c AddConcrete) OutputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{c.Felt} }

func (AddConcrete) SimulateNonBranch(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error) {
	cells, err := simulation.UnpackSingleCells(2, inputs)
	if err != nil {
		return nil, err
	}
	return [][]simulation.MemCell{{cells[0].Add(cells[1])}}, nil
}

type jumpNzLibFunc struct{}

func (jumpNzLibFunc) ID() ir.GenericLibFuncID { return JumpNzID }

func (jumpNzLibFunc) SpecializeNoArgs(ctx extensions.SpecializationContext) (extensions.ConcreteLibFunc, error) {
	felt, err := feltType(ctx)
	if err != nil {
		return nil, err
	}
	nonZero, err := ctx.GetWrappedConcreteType(NonZeroTypeID, felt)
	if err != nil {
		return nil, err
	}
	return JumpNzConcrete{Felt: felt, NonZero: nonZero}, nil
}

// Branches of felt_jump_nz.
const (
	BranchZero    = 0
	BranchNonZero = 1
)

// JumpNzConcrete is the specialization of felt_jump_nz. The zero branch
// falls through and binds nothing; the non-zero branch rebinds the value as
// NonZero<felt>.
type JumpNzConcrete struct {
	Felt    ir.ConcreteTypeID
	NonZero ir.ConcreteTypeID
}

func (c JumpNzConcrete) InputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{c.Felt} }

func (c JumpNzConcrete) OutputTypes() [][]ir.ConcreteTypeID {
	return [][]ir.ConcreteTypeID{{}, {c.NonZero}}
}

func (JumpNzConcrete) Fallthrough() (int, bool) { return BranchZero, true }

func (JumpNzConcrete) Simulate(inputs [][]simulation.MemCell) ([][]simulation.MemCell, int, error) {
	cells, err := simulation.UnpackSingleCells(1, inputs)
	if err != nil {
		return nil, 0, err
	}
	if cells[0].IsZero() {
		return [][]simulation.MemCell{}, BranchZero, nil
	}
	return [][]simulation.MemCell{{cells[0]}}, BranchNonZero, nil
}
