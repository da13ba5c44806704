package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

func intPtr(n int) *int { return &n }

// countdownTrace is the trace of countdown(1) over the core program.
func countdownTrace() []engine.Step {
	step := func(seq int64, stmt ir.StatementIdx, lf ir.ConcreteLibFuncID, branch int) engine.Step {
		return engine.Step{
			Seq:       seq,
			Statement: stmt,
			LibFunc:   lf,
			Inputs:    [][]simulation.MemCell{},
			Outputs:   [][]simulation.MemCell{},
			Branch:    branch,
		}
	}
	return []engine.Step{
		step(1, 4, "felt_jump_nz", 1),
		step(2, 7, "felt_const_m1", 0),
		step(3, 8, "felt_add", 0),
		step(4, 4, "felt_jump_nz", 0),
		step(5, 5, "felt_const_0", 0),
	}
}

func TestAssertStepCount(t *testing.T) {
	trace := countdownTrace()

	assert.NoError(t, assertStepCount(trace, Assertion{Type: AssertStepCount, Count: 5}))

	err := assertStepCount(trace, Assertion{Type: AssertStepCount, Count: 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 4 steps")
	assert.Contains(t, err.Error(), "Actual: 5 steps")
}

func TestAssertTraceContains(t *testing.T) {
	trace := countdownTrace()

	tests := []struct {
		name      string
		assertion Assertion
		ok        bool
	}{
		{"libfunc only", Assertion{LibFunc: "felt_add"}, true},
		{"branch taken", Assertion{LibFunc: "felt_jump_nz", Branch: intPtr(1)}, true},
		{"other branch taken", Assertion{LibFunc: "felt_jump_nz", Branch: intPtr(0)}, true},
		{"branch never taken", Assertion{LibFunc: "felt_add", Branch: intPtr(1)}, false},
		{"at statement", Assertion{LibFunc: "felt_const_0", Statement: intPtr(5)}, true},
		{"wrong statement", Assertion{LibFunc: "felt_const_0", Statement: intPtr(6)}, false},
		{"statement and branch", Assertion{LibFunc: "felt_jump_nz", Statement: intPtr(4), Branch: intPtr(1)}, true},
		{"absent libfunc", Assertion{LibFunc: "store_temp_felt"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.assertion.Type = AssertTraceContains
			err := assertTraceContains(trace, tt.assertion)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertTraceContains_ErrorDescribesFilter(t *testing.T) {
	err := assertTraceContains(countdownTrace(), Assertion{
		Type:      AssertTraceContains,
		LibFunc:   "felt_add",
		Statement: intPtr(2),
		Branch:    intPtr(0),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "felt_add at statement 2 taking branch 0")
	assert.Contains(t, err.Error(), "not found in trace")
	assert.Contains(t, err.Error(), "[3] #8 felt_add [] -> [] (branch 0)")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := countdownTrace()

	tests := []struct {
		name     string
		libfuncs []string
		ok       bool
	}{
		{"full order", []string{"felt_jump_nz", "felt_const_m1", "felt_add", "felt_jump_nz", "felt_const_0"}, true},
		{"gaps allowed", []string{"felt_jump_nz", "felt_const_0"}, true},
		{"repeated libfunc", []string{"felt_jump_nz", "felt_jump_nz"}, true},
		{"too many repeats", []string{"felt_jump_nz", "felt_jump_nz", "felt_jump_nz"}, false},
		{"reversed", []string{"felt_const_0", "felt_const_m1"}, false},
		{"missing", []string{"felt_jump_nz", "store_temp_felt"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Type: AssertTraceOrder, LibFuncs: tt.libfuncs})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	trace := countdownTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, LibFunc: "felt_jump_nz", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Type: AssertTraceCount, LibFunc: "store_temp_felt", Count: 0}))

	err := assertTraceCount(trace, Assertion{Type: AssertTraceCount, LibFunc: "felt_add", Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 occurrences of felt_add")
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func TestEvaluateAssertions(t *testing.T) {
	trace := countdownTrace()

	errs := EvaluateAssertions(trace, []Assertion{
		{Type: AssertStepCount, Count: 5},
		{Type: AssertTraceCount, LibFunc: "felt_add", Count: 2},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_count")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)

	assert.Empty(t, EvaluateAssertions(trace, nil))
}
