package felt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

func declaredContext(t *testing.T, withNonZero bool) extensions.SpecializationContext {
	t.Helper()
	types := extensions.NewConcreteTypeIDMap()
	require.NoError(t, types.Declare(TypeID, nil, "F"))
	if withNonZero {
		require.NoError(t, types.Declare(NonZeroTypeID, []ir.GenericArg{ir.T("F")}, "NZF"))
	}
	return extensions.NewSpecializationContext(nil, types)
}

func TestConst(t *testing.T) {
	ctx := declaredContext(t, false)

	tests := []struct {
		name  string
		value int64
		want  string
	}{
		{"small", 5, "5"},
		{"zero", 0, "0"},
		{"negative wraps", -1, "3618502788666131213697322783095070105623107215331596699973092056135872020480"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := extensions.SpecializeByID(Family, ctx, ConstID, []ir.GenericArg{ir.V(tt.value)})
			require.NoError(t, err)
			assert.Empty(t, c.InputTypes())
			assert.Equal(t, [][]ir.ConcreteTypeID{{"F"}}, c.OutputTypes())

			out, branch, err := c.Simulate(nil)
			require.NoError(t, err)
			assert.Equal(t, 0, branch)
			require.Len(t, out, 1)
			require.Len(t, out[0], 1)
			assert.Equal(t, tt.want, out[0][0].String())
		})
	}

	_, err := extensions.SpecializeByID(Family, ctx, ConstID, []ir.GenericArg{ir.T("F")})
	assert.ErrorIs(t, err, extensions.ErrUnsupportedGenericArg)

	_, err = extensions.SpecializeByID(Family, ctx, ConstID, nil)
	assert.ErrorIs(t, err, extensions.ErrUnsupportedGenericArg)
}

func TestAdd(t *testing.T) {
	c, err := extensions.SpecializeByID(Family, declaredContext(t, false), AddID, nil)
	require.NoError(t, err)
	assert.Equal(t, []ir.ConcreteTypeID{"F", "F"}, c.InputTypes())

	out, _, err := c.Simulate([][]simulation.MemCell{simulation.Cells(2), simulation.Cells(40)})
	require.NoError(t, err)
	assert.Equal(t, "[[42]]", simulation.FormatVars(out))

	out, _, err = c.Simulate([][]simulation.MemCell{simulation.Cells(-3), simulation.Cells(3)})
	require.NoError(t, err)
	assert.True(t, out[0][0].IsZero())

	_, _, err = c.Simulate([][]simulation.MemCell{simulation.Cells(1, 2), simulation.Cells(3)})
	assert.True(t, simulation.IsInputError(err))

	_, _, err = c.Simulate([][]simulation.MemCell{simulation.Cells(1)})
	assert.True(t, simulation.IsInputError(err))

	_, err = extensions.SpecializeByID(Family, declaredContext(t, false), AddID, []ir.GenericArg{ir.T("F")})
	assert.ErrorIs(t, err, extensions.ErrWrongNumberOfGenericArgs)
}

func TestJumpNz(t *testing.T) {
	c, err := extensions.SpecializeByID(Family, declaredContext(t, true), JumpNzID, nil)
	require.NoError(t, err)

	assert.Equal(t, []ir.ConcreteTypeID{"F"}, c.InputTypes())
	assert.Equal(t, [][]ir.ConcreteTypeID{{}, {"NZF"}}, c.OutputTypes())
	ft, ok := c.Fallthrough()
	require.True(t, ok)
	assert.Equal(t, BranchZero, ft)

	out, branch, err := c.Simulate([][]simulation.MemCell{simulation.Cells(0)})
	require.NoError(t, err)
	assert.Equal(t, BranchZero, branch)
	assert.Empty(t, out)

	out, branch, err = c.Simulate([][]simulation.MemCell{simulation.Cells(7)})
	require.NoError(t, err)
	assert.Equal(t, BranchNonZero, branch)
	assert.Equal(t, "[[7]]", simulation.FormatVars(out))

	_, _, err = c.Simulate(nil)
	assert.True(t, simulation.IsInputError(err))

	_, ok = extensions.UnwrapNonBranch(c)
	assert.False(t, ok)

	_, err = extensions.SpecializeByID(Family, declaredContext(t, true), JumpNzID, []ir.GenericArg{ir.T("F")})
	assert.ErrorIs(t, err, extensions.ErrWrongNumberOfGenericArgs)
	_, err = extensions.SpecializeByID(Family, declaredContext(t, true), JumpNzID, []ir.GenericArg{ir.V(0)})
	assert.ErrorIs(t, err, extensions.ErrWrongNumberOfGenericArgs)
}

func TestTypesMustBeDeclared(t *testing.T) {
	empty := extensions.NewSpecializationContext(nil, extensions.NewConcreteTypeIDMap())

	for _, id := range []ir.GenericLibFuncID{AddID, JumpNzID} {
		_, err := extensions.SpecializeByID(Family, empty, id, nil)
		assert.ErrorIs(t, err, extensions.ErrTypeWasNotDeclared, string(id))
	}

	_, err := extensions.SpecializeByID(Family, declaredContext(t, false), JumpNzID, nil)
	var se *extensions.SpecializationError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, NonZeroTypeID, se.TypeID)
	assert.Equal(t, []ir.GenericArg{ir.T("F")}, se.Args)
}
