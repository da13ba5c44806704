package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/ir"
)

func TestCoreProgram_Shape(t *testing.T) {
	p := CoreProgram()

	assert.Len(t, p.Types, 2)
	assert.Len(t, p.LibFuncs, 5)
	require.Len(t, p.Funcs, 3)
	assert.Len(t, p.Statements, 9)

	entries := map[ir.FunctionID]ir.StatementIdx{}
	for _, fn := range p.Funcs {
		entries[fn.ID] = fn.Entry
	}
	assert.Equal(t, map[ir.FunctionID]ir.StatementIdx{"echo": 0, "add": 2, "countdown": 4}, entries)

	loopBack := p.Statements[8].Invocation
	require.NotNil(t, loopBack)
	assert.Equal(t, ir.JumpTo(4), loopBack.Branches[0].Target)

	jnz := p.Statements[4].Invocation
	require.NotNil(t, jnz)
	assert.Equal(t, ir.JumpTo(7), jnz.Branches[1].Target)
	assert.True(t, p.Statements[6].IsReturn())
}

func TestProgramBuilder_BuildCopies(t *testing.T) {
	b := NewProgram().Type("felt", "felt").Return()
	p1 := b.Build()
	b.Type("nz", "NonZero", ir.T("felt"))
	p2 := b.Build()

	assert.Len(t, p1.Types, 1)
	assert.Len(t, p2.Types, 2)
	assert.Equal(t, []ir.VarID{}, p1.Statements[0].Return)
}

func TestSingleCells(t *testing.T) {
	vars := SingleCells(1, -1)
	require.Len(t, vars, 2)
	assert.Len(t, vars[0], 1)
	assert.Equal(t, "1", vars[0][0].String())
	assert.True(t, vars[1][0].Add(vars[0][0]).IsZero())
	assert.Empty(t, SingleCells())
}
