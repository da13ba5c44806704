package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidProgram(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), coreProgram)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Program valid: 9 statement(s), 3 function(s)")
	assert.Contains(t, out, "warning: loop detected: 4 → 7 → 8 → 4")
	assert.NotContains(t, out, "unreachable")
}

func TestValidateValidProgramJSON(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), coreProgram)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Functions)
	require.Len(t, resp.Data.Warnings, 1)
	assert.Equal(t, "warning", resp.Data.Warnings[0].Level)
}

func TestValidateNonExistentProgram(t *testing.T) {
	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/program.cue")
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "program not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestValidateCUESyntaxError(t *testing.T) {
	path := writeProgram(t, "types: [\n")

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeBuildFailed)
	assert.Contains(t, out, "program.cue:")
}

func TestValidateManifestError(t *testing.T) {
	path := writeProgram(t, `statements: [{invoke: "x", return: []}]`)

	_, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidManifest)
	assert.Contains(t, err.Error(), "exactly one of invoke or return")
}

func TestValidateStructuralErrors(t *testing.T) {
	path := writeProgram(t, `
statements: [
	{invoke: "missing", branches: [{target: 9}]},
	{return: []},
]
functions: [{id: "main", entry: 0}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "[E103]")
	assert.Contains(t, out, "[E105]")
}

func TestValidateSpecializationError(t *testing.T) {
	path := writeProgram(t, `
types: [{id: "felt", generic: "felt"}]
libfuncs: [{id: "jnz", generic: "felt_jump_nz"}]
statements: [{return: []}]
functions: [{id: "main", entry: 0}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, ErrCodeSpecialization, resp.Error.Code)
	require.Len(t, resp.Data.Errors, 1)
	assert.Equal(t, "libfunc jnz", resp.Data.Errors[0].Field)
	assert.Contains(t, resp.Data.Errors[0].Message, "TYPE_WAS_NOT_DECLARED")
}

func TestValidateUnreachableWarning(t *testing.T) {
	path := writeProgram(t, `
statements: [{return: []}, {return: []}]
functions: [{id: "main", entry: 0}]
`)

	out, err := execute(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: unreachable statement(s) [1]")
}
