package extensions

import (
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// ConcreteLibFunc is a fully specialized libfunc.
type ConcreteLibFunc interface {
	// InputTypes lists the parameter types in order.
	InputTypes() []ir.ConcreteTypeID

	// OutputTypes lists the result types of every branch.
	OutputTypes() [][]ir.ConcreteTypeID

	// Fallthrough returns the branch that continues to the next statement,
	// if any.
	Fallthrough() (int, bool)

	// Simulate computes the outputs of the taken branch and its index.
	// inputs holds one cell list per parameter.
	Simulate(inputs [][]simulation.MemCell) ([][]simulation.MemCell, int, error)
}

// NonBranchConcreteLibFunc is a concrete libfunc with a single branch.
type NonBranchConcreteLibFunc interface {
	InputTypes() []ir.ConcreteTypeID
	OutputTypes() []ir.ConcreteTypeID
	SimulateNonBranch(inputs [][]simulation.MemCell) ([][]simulation.MemCell, error)
}

// NonBranch lifts c into a ConcreteLibFunc with one output group whose
// fallthrough is branch 0.
func NonBranch(c NonBranchConcreteLibFunc) ConcreteLibFunc {
	return nonBranch{inner: c}
}

// UnwrapNonBranch returns the NonBranchConcreteLibFunc behind c, looking
// through hierarchy tags.
func UnwrapNonBranch(c ConcreteLibFunc) (NonBranchConcreteLibFunc, bool) {
	for {
		switch v := c.(type) {
		case nonBranch:
			return v.inner, true
		case *TaggedConcrete:
			c = v.Inner()
		default:
			return nil, false
		}
	}
}

type nonBranch struct {
	inner NonBranchConcreteLibFunc
}

func (n nonBranch) InputTypes() []ir.ConcreteTypeID { return n.inner.InputTypes() }

func (n nonBranch) OutputTypes() [][]ir.ConcreteTypeID {
	return [][]ir.ConcreteTypeID{n.inner.OutputTypes()}
}

func (nonBranch) Fallthrough() (int, bool) { return 0, true }

func (n nonBranch) Simulate(inputs [][]simulation.MemCell) ([][]simulation.MemCell, int, error) {
	outputs, err := n.inner.SimulateNonBranch(inputs)
	if err != nil {
		return nil, 0, err
	}
	return outputs, 0, nil
}

// Signature is the serializable shape of a concrete libfunc.
type Signature struct {
	InputTypes  []ir.ConcreteTypeID   `json:"input_types"`
	OutputTypes [][]ir.ConcreteTypeID `json:"output_types"`
	Fallthrough *int                  `json:"fallthrough,omitempty"`
}

// SignatureOf captures the signature of c.
func SignatureOf(c ConcreteLibFunc) Signature {
	sig := Signature{InputTypes: c.InputTypes(), OutputTypes: c.OutputTypes()}
	if ft, ok := c.Fallthrough(); ok {
		sig.Fallthrough = &ft
	}
	return sig
}

// Canonical converts the signature to the value form accepted by
// ir.MarshalCanonical.
func (s Signature) Canonical() map[string]any {
	outputs := make([]any, len(s.OutputTypes))
	for i, branch := range s.OutputTypes {
		outputs[i] = typeIDsToCanonical(branch)
	}
	m := map[string]any{
		"input_types":  typeIDsToCanonical(s.InputTypes),
		"output_types": outputs,
	}
	if s.Fallthrough != nil {
		m["fallthrough"] = int64(*s.Fallthrough)
	}
	return m
}

func typeIDsToCanonical(ids []ir.ConcreteTypeID) []any {
	arr := make([]any, len(ids))
	for i, id := range ids {
		arr[i] = string(id)
	}
	return arr
}
