package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/engine"
)

const echoOnlyProgram = `
types: [{id: "felt", generic: "felt"}]
libfuncs: [{id: "store_temp_felt", generic: "store_temp", args: [{type: "felt"}]}]
statements: [
	{invoke: "store_temp_felt", args: ["x"], branches: [{results: ["y"]}]},
	{return: ["y"]},
]
functions: [{id: "echo", params: [{id: "x", type: "felt"}], ret: ["felt"], entry: 0}]
`

func TestReplayAllRunsDeterministic(t *testing.T) {
	dbPath := recordRuns(t)

	out, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), coreProgram, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 run(s)")
	assert.Contains(t, out, "✓ Run: run-echo")
	assert.Contains(t, out, "  echo: 1 step(s), returned")
	assert.Contains(t, out, "  countdown: 8 step(s), returned")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplaySingleRunJSON(t *testing.T) {
	dbPath := recordRuns(t)

	out, err := execute(NewReplayCommand(&RootOptions{Format: "json"}),
		coreProgram, "--db", dbPath, "--run", "run-countdown")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.AllDeterministic)
	require.Len(t, resp.Data.Runs, 1)
	assert.Equal(t, "run-countdown", resp.Data.Runs[0].RunToken)
	assert.Equal(t, 8, resp.Data.Runs[0].Steps)
	assert.Len(t, resp.Data.ProgramHash, 64)
}

func TestReplayQuotaRunNeedsSameMaxSteps(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sierra.db")
	_, err := runWith(t, &RunOptions{
		RootOptions:    &RootOptions{Format: "text"},
		Function:       "countdown",
		Inputs:         "[[9]]",
		Database:       dbPath,
		MaxSteps:       3,
		TokenGenerator: engine.NewFixedGenerator("quota-run"),
	}, coreProgram)
	require.Error(t, err)

	out, err := execute(NewReplayCommand(&RootOptions{Format: "text"}),
		coreProgram, "--db", dbPath, "--max-steps", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "  countdown: 3 step(s), QUOTA_EXCEEDED")

	out, err = execute(NewReplayCommand(&RootOptions{Format: "text"}), coreProgram, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Run: quota-run")
	assert.Contains(t, out, `Divergence: error code "", recorded "QUOTA_EXCEEDED"`)
	assert.Contains(t, out, "✗ Determinism verification failed")
}

func TestReplayDifferentProgramDiverges(t *testing.T) {
	dbPath := recordRuns(t)
	other := writeProgram(t, echoOnlyProgram)

	// Runs are listed per program hash, so only --run reaches them.
	out, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), other, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded for this program.")

	out, err = execute(NewReplayCommand(&RootOptions{Format: "json"}), other, "--db", dbPath, "--run", "run-echo")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	assert.Contains(t, out, "differs from recorded")
}

func TestReplayErrors(t *testing.T) {
	dbPath := recordRuns(t)

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{
			name:    "missing db flag",
			args:    []string{coreProgram},
			wantMsg: "required flag",
		},
		{
			name:    "missing args",
			args:    []string{"--db", dbPath},
			wantMsg: "accepts 1 arg",
		},
		{
			name:    "database not found",
			args:    []string{coreProgram, "--db", filepath.Join(t.TempDir(), "missing.db")},
			wantMsg: "database not found",
		},
		{
			name:    "unknown run",
			args:    []string{coreProgram, "--db", dbPath, "--run", "nope"},
			wantMsg: "no run recorded with token nope",
		},
		{
			name:    "program not found",
			args:    []string{filepath.Join(t.TempDir(), "nope.cue"), "--db", dbPath},
			wantMsg: ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(NewReplayCommand(&RootOptions{Format: "text"}), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
