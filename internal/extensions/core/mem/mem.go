// Package mem implements the memory-management libfuncs. They move values
// between the temporary and local regions of the calling convention and,
// from the point of view of simulation, never change a value.
package mem

import (
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// Generic ids of the family.
const (
	StoreTempID   ir.GenericLibFuncID = "store_temp"
	AlignTempsID  ir.GenericLibFuncID = "align_temps"
	StoreLocalID  ir.GenericLibFuncID = "store_local"
	AllocLocalsID ir.GenericLibFuncID = "alloc_locals"
	RenameID      ir.GenericLibFuncID = "rename"
	MoveID        ir.GenericLibFuncID = "move"
)

// Member tags within the family hierarchy.
const (
	TagStoreTemp   extensions.Tag = "StoreTemp"
	TagAlignTemps  extensions.Tag = "AlignTemps"
	TagStoreLocal  extensions.Tag = "StoreLocal"
	TagAllocLocals extensions.Tag = "AllocLocals"
	TagRename      extensions.Tag = "Rename"
	TagMove        extensions.Tag = "Move"
)

// Generic libfuncs of the family.
var (
	// StoreTemp stores a value of type T in temporary memory.
	StoreTemp extensions.NamedLibFunc = typedIdentity{id: StoreTempID}

	// AlignTemps pads temporary memory to the size of T.
	AlignTemps extensions.NamedLibFunc = alignTemps{}

	// StoreLocal stores a value of type T in a local slot.
	StoreLocal extensions.NamedLibFunc = typedIdentity{id: StoreLocalID}

	// AllocLocals reserves the frame's local slots.
	AllocLocals = extensions.NoGenericArgs(allocLocals{})

	// Rename gives a value of type T a new variable id.
	Rename extensions.NamedLibFunc = typedIdentity{id: RenameID}

	// Move transfers a value of type T to a new variable id.
	Move extensions.NamedLibFunc = typedIdentity{id: MoveID}
)

// Family is the memory-management hierarchy.
var Family = extensions.MustHierarchy("mem",
	extensions.Member{Tag: TagStoreTemp, Family: extensions.Named(StoreTemp)},
	extensions.Member{Tag: TagAlignTemps, Family: extensions.Named(AlignTemps)},
	extensions.Member{Tag: TagStoreLocal, Family: extensions.Named(StoreLocal)},
	extensions.Member{Tag: TagAllocLocals, Family: extensions.Named(AllocLocals)},
	extensions.Member{Tag: TagRename, Family: extensions.Named(Rename)},
	extensions.Member{Tag: TagMove, Family: extensions.Named(Move)},
)

// typedIdentity is a libfunc over a single type argument that passes its one
// input through unchanged.
type typedIdentity struct {
	id ir.GenericLibFuncID
}

func (l typedIdentity) ID() ir.GenericLibFuncID { return l.id }

func (l typedIdentity) Specialize(_ extensions.SpecializationContext, args []ir.GenericArg) (extensions.ConcreteLibFunc, error) {
	ty, err := extensions.AsSingleType(args)
	if err != nil {
		return nil, err
	}
	return extensions.NonBranch(IdentityConcrete{LibFunc: l.id, Ty: ty}), nil
}

// IdentityConcrete is a specialized store_temp, store_local, rename or move.
type IdentityConcrete struct {
	LibFunc ir.GenericLibFuncID
	Ty      ir.ConcreteTypeID
}

func (c IdentityConcrete) InputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{c.Ty} }

func (c IdentityConcrete) OutputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{c.Ty} }

// SimulateNonBranch returns its single input unchanged.
func (IdentityConcrete) SimulateNonBranch(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error) {
	return simulation.Identity(1, inputs)
}

type alignTemps struct{}

func (alignTemps) ID() ir.GenericLibFuncID { return AlignTempsID }

func (alignTemps) Specialize(_ extensions.SpecializationContext, args []ir.GenericArg) (extensions.ConcreteLibFunc, error) {
	ty, err := extensions.AsSingleType(args)
	if err != nil {
		return nil, err
	}
	return extensions.NonBranch(AlignTempsConcrete{Ty: ty}), nil
}

// AlignTempsConcrete is a specialized align_temps. Ty only sizes the padding;
// no value flows through it.
type AlignTempsConcrete struct {
	Ty ir.ConcreteTypeID
}

func (AlignTempsConcrete) InputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{} }

func (AlignTempsConcrete) OutputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{} }

func (AlignTempsConcrete) SimulateNonBranch(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error) {
	return noop(inputs)
}

type allocLocals struct{}

func (allocLocals) ID() ir.GenericLibFuncID { return AllocLocalsID }

func (allocLocals) SpecializeNoArgs(extensions.SpecializationContext) (extensions.ConcreteLibFunc, error) {
	return extensions.NonBranch(AllocLocalsConcrete{}), nil
}

// AllocLocalsConcrete is the single specialization of alloc_locals.
type AllocLocalsConcrete struct{}

func (AllocLocalsConcrete) InputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{} }

func (AllocLocalsConcrete) OutputTypes() []ir.ConcreteTypeID { return []ir.ConcreteTypeID{} }

func (AllocLocalsConcrete) SimulateNonBranch(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error) {
	return noop(inputs)
}

func noop(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error) {
	if _, err := simulation.UnpackInputs(0, inputs); err != nil {
		return nil, err
	}
	return [][]simulation.MemCell{}, nil
}
