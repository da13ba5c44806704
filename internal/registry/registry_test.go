package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/extensions/core/mem"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/testutil"
)

func TestNew_CoreProgram(t *testing.T) {
	p := testutil.CoreProgram()
	reg, err := New(p)
	require.NoError(t, err)

	assert.Same(t, p, reg.Program())
	assert.Equal(t, ir.MustProgramHash(p), reg.Hash())

	info, ok := reg.TypeInfo("felt")
	require.True(t, ok)
	assert.Equal(t, 1, info.Size)
	info, ok = reg.TypeInfo("nz_felt")
	require.True(t, ok)
	assert.Equal(t, 1, info.Size)
	_, ok = reg.TypeInfo("u128")
	assert.False(t, ok)

	c, ok := reg.ConcreteLibFunc("felt_jump_nz")
	require.True(t, ok)
	assert.Equal(t, [][]ir.ConcreteTypeID{{}, {"nz_felt"}}, c.OutputTypes())

	decl, ok := reg.LibFuncDeclaration("felt_const_m1")
	require.True(t, ok)
	assert.Equal(t, ir.GenericLibFuncID("felt_const"), decl.GenericID)

	fn, ok := reg.Function("countdown")
	require.True(t, ok)
	assert.Equal(t, ir.StatementIdx(4), fn.Entry)
	_, ok = reg.Function("main")
	assert.False(t, ok)

	concrete, err := reg.SpecializationContext().GetConcreteType("NonZero", []ir.GenericArg{ir.T("felt")})
	require.NoError(t, err)
	assert.Equal(t, ir.ConcreteTypeID("nz_felt"), concrete)

	sigs := reg.Signatures()
	require.Len(t, sigs, len(p.LibFuncs))
	assert.Equal(t, ir.ConcreteLibFuncID("store_temp_felt"), sigs[0].Declaration.ID)
	assert.Equal(t, []ir.ConcreteTypeID{"felt"}, sigs[0].Signature.InputTypes)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		program *ir.Program
		kind    string
		id      string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "duplicate concrete type id",
			program: testutil.NewProgram().Type("felt", "felt").Type("felt", "felt").Build(),
			kind:    "type",
			id:      "felt",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDuplicateID)
			},
		},
		{
			name:    "same generic key twice",
			program: testutil.NewProgram().Type("felt", "felt").Type("felt2", "felt").Build(),
			kind:    "type",
			id:      "felt2",
			check: func(t *testing.T, err error) {
				var re *extensions.TypeRedeclaredError
				require.ErrorAs(t, err, &re)
				assert.Equal(t, ir.ConcreteTypeID("felt"), re.Existing)
			},
		},
		{
			name:    "unknown generic type",
			program: testutil.NewProgram().Type("u", "u128").Build(),
			kind:    "type",
			id:      "u",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, extensions.ErrUnsupportedID)
			},
		},
		{
			name:    "wrapper before wrapped",
			program: testutil.NewProgram().Type("nz", "NonZero", ir.T("felt")).Type("felt", "felt").Build(),
			kind:    "type",
			id:      "nz",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, extensions.ErrUndeclaredTypeArg)
			},
		},
		{
			name:    "libfunc needs undeclared type",
			program: testutil.NewProgram().LibFunc("add", "felt_add").Build(),
			kind:    "libfunc",
			id:      "add",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, extensions.ErrTypeWasNotDeclared)
				var ext *extensions.ExtensionError
				require.ErrorAs(t, err, &ext)
				assert.Equal(t, ir.GenericLibFuncID("felt_add"), ext.LibFuncID)
			},
		},
		{
			name:    "unknown generic libfunc",
			program: testutil.NewProgram().LibFunc("x", "u128_add").Build(),
			kind:    "libfunc",
			id:      "x",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, extensions.ErrUnsupportedID)
			},
		},
		{
			name: "alloc_locals with args",
			program: testutil.NewProgram().Type("felt", "felt").
				LibFunc("al", mem.AllocLocalsID, ir.T("felt")).Build(),
			kind: "libfunc",
			id:   "al",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, extensions.ErrWrongNumberOfGenericArgs)
			},
		},
		{
			name: "store_temp of undeclared type",
			program: testutil.NewProgram().Type("felt", "felt").
				LibFunc("st", "store_temp", ir.T("ghost")).Build(),
			kind: "libfunc",
			id:   "st",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, extensions.ErrUndeclaredTypeArg)
				var se *extensions.SpecializationError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, ir.ConcreteTypeID("ghost"), se.ConcreteTypeID)
			},
		},
		{
			name: "duplicate libfunc id",
			program: testutil.NewProgram().Type("felt", "felt").
				LibFunc("st", "store_temp", ir.T("felt")).
				LibFunc("st", "rename", ir.T("felt")).Build(),
			kind: "libfunc",
			id:   "st",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDuplicateID)
			},
		},
		{
			name: "duplicate function id",
			program: testutil.NewProgram().Return().
				Func("main", 0, nil).Func("main", 0, nil).Build(),
			kind: "function",
			id:   "main",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrDuplicateID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.program)
			require.Error(t, err)
			assert.True(t, IsDeclarationError(err))

			var de *DeclarationError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.id, de.ID)
			tt.check(t, err)
		})
	}
}

func TestNew_NilProgram(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func manyConstants(n int) *testutil.Program {
	b := testutil.NewProgram().Type("felt", "felt")
	for i := range n {
		b.LibFunc(ir.ConcreteLibFuncID(fmt.Sprintf("c%03d", i)), "felt_const", ir.V(int64(i-n/2)))
	}
	return b
}

func TestNew_ParallelismIsDeterministic(t *testing.T) {
	p := manyConstants(64).Build()

	sequential, err := New(p)
	require.NoError(t, err)

	for _, n := range []int{0, 2, 8, 64} {
		t.Run(fmt.Sprintf("parallelism=%d", n), func(t *testing.T) {
			parallel, err := New(p, WithParallelism(n))
			require.NoError(t, err)
			assert.Equal(t, sequential.Signatures(), parallel.Signatures())

			for _, decl := range p.LibFuncs {
				a, _ := sequential.ConcreteLibFunc(decl.ID)
				b, _ := parallel.ConcreteLibFunc(decl.ID)
				outA, _, err := a.Simulate(nil)
				require.NoError(t, err)
				outB, _, err := b.Simulate(nil)
				require.NoError(t, err)
				assert.Equal(t, outA, outB)
			}
		})
	}
}

func TestNew_ParallelReportsFirstFailure(t *testing.T) {
	p := manyConstants(32).
		LibFunc("bad_a", "felt_const", ir.T("felt")).
		LibFunc("bad_b", "nope").
		Build()

	for _, n := range []int{1, 4, 16} {
		_, err := New(p, WithParallelism(n))
		var de *DeclarationError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "bad_a", de.ID, "parallelism=%d", n)
	}
}

func TestWithLibFuncsAndTypes(t *testing.T) {
	onlyMem := extensions.MustHierarchy("only-mem", extensions.Member{Tag: "Mem", Family: mem.Family})
	types := extensions.TypeCatalog{"felt": extensions.NoArgsType{Size: 2}}

	p := testutil.NewProgram().Type("felt", "felt").
		LibFunc("st", "store_temp", ir.T("felt")).Build()
	reg, err := New(p, WithLibFuncs(onlyMem), WithTypes(types))
	require.NoError(t, err)
	info, _ := reg.TypeInfo("felt")
	assert.Equal(t, 2, info.Size)

	p = testutil.NewProgram().Type("felt", "felt").LibFunc("add", "felt_add").Build()
	_, err = New(p, WithLibFuncs(onlyMem), WithTypes(types))
	assert.ErrorIs(t, err, extensions.ErrUnsupportedID)
}
