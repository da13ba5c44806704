package extensions

import (
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// passThrough is a single-type libfunc used to exercise the adapters.
type passThrough struct {
	id ir.GenericLibFuncID
}

func (p passThrough) ID() ir.GenericLibFuncID { return p.id }

func (p passThrough) Specialize(_ SpecializationContext, args []ir.GenericArg) (ConcreteLibFunc, error) {
	ty, err := AsSingleType(args)
	if err != nil {
		return nil, err
	}
	return NonBranch(passThroughConcrete{ty: ty}), nil
}

type passThroughConcrete struct {
	ty ir.ConcreteTypeID
}

func (c passThroughConcrete) InputTypes() []ir.ConcreteTypeID  { return []ir.ConcreteTypeID{c.ty} }
func (c passThroughConcrete) OutputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{c.ty} }

func (passThroughConcrete) SimulateNonBranch(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error) {
	return simulation.Identity(1, inputs)
}

// feltLookup resolves the felt type through the context.
type feltLookup struct{}

func (feltLookup) ID() ir.GenericLibFuncID { return "felt_nop" }

func (feltLookup) SpecializeNoArgs(ctx SpecializationContext) (ConcreteLibFunc, error) {
	felt, err := ctx.GetConcreteType("felt", nil)
	if err != nil {
		return nil, err
	}
	return NonBranch(passThroughConcrete{ty: felt}), nil
}

// branching is a two-way concrete libfunc with no fallthrough.
type branching struct{}

func (branching) InputTypes() []ir.ConcreteTypeID { return nil }

func (branching) OutputTypes() [][]ir.ConcreteTypeID { return [][]ir.ConcreteTypeID{{}, {}} }

func (branching) Fallthrough() (int, bool) { return 0, false }

func (branching) Simulate(inputs [][]simulation.MemCell) ([][]simulation.MemCell, int, error) {
	if _, err := simulation.UnpackInputs(0, inputs); err != nil {
		return nil, 0, err
	}
	return [][]simulation.MemCell{}, 1, nil
}

type branchingLibFunc struct{}

func (branchingLibFunc) ID() ir.GenericLibFuncID { return "branch" }

func (branchingLibFunc) SpecializeNoArgs(SpecializationContext) (ConcreteLibFunc, error) {
	return branching{}, nil
}
