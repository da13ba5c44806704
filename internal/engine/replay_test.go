package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/simulation"
	"github.com/roach88/sierra/internal/testutil"
)

func TestReplay_Identical(t *testing.T) {
	e := newEngine(t, testutil.CoreProgram())
	recorded, err := e.Run(context.Background(), "countdown", cells(2))
	require.NoError(t, err)

	rr, err := e.Replay(context.Background(), recorded)
	require.NoError(t, err)
	assert.True(t, rr.Identical(), rr.Divergence)
	assert.Equal(t, recorded.Token, rr.Replayed.Token)
	assert.Len(t, rr.Replayed.Steps, len(recorded.Steps))
}

func TestReplay_FailedRunIsReproduced(t *testing.T) {
	e := newEngine(t, testutil.CoreProgram(), WithMaxSteps(4))
	recorded, err := e.Run(context.Background(), "countdown", cells(5))
	require.Error(t, err)

	rr, err := e.Replay(context.Background(), recorded)
	require.NoError(t, err)
	assert.True(t, rr.Identical(), rr.Divergence)
}

func TestReplay_DetectsDivergence(t *testing.T) {
	e := newEngine(t, testutil.CoreProgram())

	tests := []struct {
		name   string
		tamper func(r *RunResult)
		want   string
	}{
		{"branch", func(r *RunResult) { r.Steps[0].Branch = 0 }, "step 0: branch 1, recorded 0"},
		{"outputs", func(r *RunResult) { r.Steps[1].Outputs = cells(9) }, "step 1: outputs"},
		{"extra step", func(r *RunResult) { r.Steps = append(r.Steps, r.Steps[0]) }, "steps, recorded"},
		{"final outputs", func(r *RunResult) { r.Outputs = cells(1) }, "outputs [[0]], recorded [[1]]"},
		{"error code", func(r *RunResult) { r.ErrorCode = ErrCodeQuotaExceeded }, "error code"},
		{"program hash", func(r *RunResult) { r.ProgramHash = "other" }, "program hash"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorded, err := e.Run(context.Background(), "countdown", cells(1))
			require.NoError(t, err)
			tt.tamper(recorded)

			rr, err := e.Replay(context.Background(), recorded)
			require.NoError(t, err)
			assert.False(t, rr.Identical())
			assert.Contains(t, rr.Divergence, tt.want)
		})
	}
}

func TestReplay_InputsAreReused(t *testing.T) {
	e := newEngine(t, testutil.CoreProgram())
	recorded := &RunResult{
		Token:    "manual",
		Function: "add",
		Inputs:   [][]simulation.MemCell{simulation.Cells(1), simulation.Cells(2)},
		Outputs:  cells(3),
		Steps: []Step{{
			Statement: 2,
			LibFunc:   "felt_add",
			Inputs:    cells(1, 2),
			Outputs:   cells(3),
		}},
	}
	rr, err := e.Replay(context.Background(), recorded)
	require.NoError(t, err)
	assert.True(t, rr.Identical(), rr.Divergence)
	assert.Equal(t, "manual", rr.Replayed.Token)
}
