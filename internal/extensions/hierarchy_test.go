package extensions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

const (
	tagMem    Tag = "Mem"
	tagFelt   Tag = "Felt"
	tagBranch Tag = "Branch"
)

func memFamily(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := NewHierarchy("mem",
		Member{Tag: "StoreTemp", Family: Named(passThrough{id: "store_temp"})},
		Member{Tag: "Rename", Family: Named(passThrough{id: "rename"})},
	)
	require.NoError(t, err)
	return h
}

func TestHierarchy_Dispatch(t *testing.T) {
	ctx := newTestContext(t)
	core, err := NewHierarchy("core",
		Member{Tag: tagMem, Family: memFamily(t)},
		Member{Tag: tagFelt, Family: Named(NoGenericArgs(feltLookup{}))},
	)
	require.NoError(t, err)

	assert.Equal(t, "core", core.Name())
	assert.Equal(t, []Tag{tagMem, tagFelt}, core.Tags())
	assert.Equal(t, []ir.GenericLibFuncID{"store_temp", "rename", "felt_nop"}, core.IDs())

	c, err := SpecializeByID(core, ctx, "rename", []ir.GenericArg{ir.T("felt")})
	require.NoError(t, err)

	tagged, ok := c.(*TaggedConcrete)
	require.True(t, ok)
	assert.Equal(t, tagMem, tagged.Tag())
	assert.Equal(t, []Tag{tagMem, "Rename"}, tagged.Path())

	inner, ok := UnwrapNonBranch(c)
	require.True(t, ok)
	assert.Equal(t, passThroughConcrete{ty: "felt"}, inner)

	c, err = SpecializeByID(core, ctx, "felt_nop", nil)
	require.NoError(t, err)
	assert.Equal(t, []Tag{tagFelt}, c.(*TaggedConcrete).Path())
}

func TestHierarchy_Forwarding(t *testing.T) {
	h, err := NewHierarchy("branches", Member{Tag: tagBranch, Family: Named(NoGenericArgs(branchingLibFunc{}))})
	require.NoError(t, err)

	c, err := SpecializeByID(h, SpecializationContext{}, "branch", nil)
	require.NoError(t, err)

	assert.Empty(t, c.InputTypes())
	assert.Equal(t, [][]ir.ConcreteTypeID{{}, {}}, c.OutputTypes())
	_, ok := c.Fallthrough()
	assert.False(t, ok)

	_, branch, err := c.Simulate(nil)
	require.NoError(t, err)
	assert.Equal(t, 1, branch)

	_, _, err = c.Simulate([][]simulation.MemCell{simulation.Cells(1)})
	assert.True(t, simulation.IsInputError(err))
}

func TestHierarchy_UnknownID(t *testing.T) {
	h := memFamily(t)
	_, ok := h.ByID("felt_add")
	assert.False(t, ok)

	_, err := SpecializeByID(h, SpecializationContext{}, "felt_add", nil)
	assert.ErrorIs(t, err, ErrUnsupportedID)
}

func TestHierarchy_SpecializationErrorNotTagged(t *testing.T) {
	_, err := SpecializeByID(memFamily(t), newTestContext(t), "store_temp", []ir.GenericArg{ir.V(1)})
	require.Error(t, err)
	assert.True(t, IsSpecializationError(err, ErrCodeUnsupportedGenericArg))
}

func TestNewHierarchy_Rejects(t *testing.T) {
	t.Run("duplicate id across members", func(t *testing.T) {
		_, err := NewHierarchy("dup",
			Member{Tag: "A", Family: Named(passThrough{id: "move"})},
			Member{Tag: "B", Family: Named(passThrough{id: "move"})},
		)
		var dup *DuplicateLibFuncIDError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, ir.GenericLibFuncID("move"), dup.ID)
		assert.Equal(t, Tag("A"), dup.First)
		assert.Equal(t, Tag("B"), dup.Second)
	})

	t.Run("duplicate id through nesting", func(t *testing.T) {
		_, err := NewHierarchy("nested",
			Member{Tag: tagMem, Family: memFamily(t)},
			Member{Tag: "Extra", Family: Named(passThrough{id: "rename"})},
		)
		var dup *DuplicateLibFuncIDError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, ir.GenericLibFuncID("rename"), dup.ID)
	})

	t.Run("duplicate tag", func(t *testing.T) {
		_, err := NewHierarchy("tags",
			Member{Tag: "A", Family: Named(passThrough{id: "x"})},
			Member{Tag: "A", Family: Named(passThrough{id: "y"})},
		)
		var dup *DuplicateTagError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, Tag("A"), dup.Tag)
	})

	t.Run("empty tag", func(t *testing.T) {
		_, err := NewHierarchy("empty", Member{Family: Named(passThrough{id: "x"})})
		assert.Error(t, err)
	})

	t.Run("nil family", func(t *testing.T) {
		_, err := NewHierarchy("nil", Member{Tag: "A"})
		assert.Error(t, err)
	})
}

func TestMustHierarchy_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustHierarchy("dup",
			Member{Tag: "A", Family: Named(passThrough{id: "move"})},
			Member{Tag: "B", Family: Named(passThrough{id: "move"})},
		)
	})
	assert.NotPanics(t, func() {
		MustHierarchy("ok", Member{Tag: "A", Family: Named(passThrough{id: "move"})})
	})
}
