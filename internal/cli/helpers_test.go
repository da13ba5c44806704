package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sierra/internal/engine"
)

// writeProgram writes a CUE manifest into a temp dir and returns its path.
func writeProgram(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "program.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// execute runs a standalone command and returns its stdout and error.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// recordRuns runs echo(5) as "run-echo" and countdown(2) as "run-countdown"
// into a fresh database and returns its path.
func recordRuns(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sierra.db")
	opts := &RunOptions{
		RootOptions:    &RootOptions{Format: "text"},
		Database:       dbPath,
		MaxSteps:       engine.DefaultMaxSteps,
		TokenGenerator: engine.NewFixedGenerator("run-echo", "run-countdown"),
	}

	opts.Function, opts.Inputs = "echo", "[[5]]"
	_, err := runWith(t, opts, coreProgram)
	require.NoError(t, err)

	opts.Function, opts.Inputs = "countdown", "[[2]]"
	_, err = runWith(t, opts, coreProgram)
	require.NoError(t, err)

	return dbPath
}
