package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - specific run only
	MaxSteps int
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunToken      string        `json:"run_token"`
	Function      ir.FunctionID `json:"function"`
	Steps         int           `json:"steps"`
	ErrorCode     string        `json:"error_code,omitempty"`
	Deterministic bool          `json:"deterministic"`
	Divergence    string        `json:"divergence,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	ProgramHash      string            `json:"program_hash"`
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <program>",
		Short: "Replay recorded runs and verify determinism",
		Long: `Re-simulate recorded runs of a program and compare each fresh trace with
the recorded one.

Simulation is deterministic, so every run of an unchanged program must
replay identically. A run recorded for a different program hash is
reported as divergent. Pass the same --max-steps the runs were recorded
with.

Exit codes:
  0 - All runs replayed identically
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, program invalid, etc.)

Examples:
  sierra replay ./program.cue --db ./sierra.db
  sierra replay ./program.cue --db ./sierra.db --run 0192...
  sierra replay ./program.cue --db ./sierra.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "replay a specific run only")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum invocations per replayed run")

	return cmd
}

func runReplay(opts *ReplayOptions, path string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	reg, err := LoadRegistry(path)
	if err != nil {
		return failLoad(formatter, err)
	}

	st, err := openExistingStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var tokens []string
	if opts.RunToken != "" {
		tokens = []string{opts.RunToken}
	} else {
		runs, err := st.ListRuns(ctx, reg.Hash())
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to list runs: %v", err))
		}
		for _, r := range runs {
			tokens = append(tokens, r.Token)
		}
	}

	result := ReplayResult{
		ProgramHash:      reg.Hash(),
		Runs:             make([]ReplayRunResult, 0, len(tokens)),
		TotalRuns:        len(tokens),
		AllDeterministic: true,
	}

	eng := engine.New(reg, engine.WithMaxSteps(opts.MaxSteps))
	for _, token := range tokens {
		runResult, err := replayRun(ctx, st, eng, token)
		if errors.Is(err, store.ErrRunNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no run recorded with token %s", token))
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to replay run %s: %v", token, err))
		}
		formatter.VerboseLog("Replayed %s: deterministic=%v", token, runResult.Deterministic)

		result.Runs = append(result.Runs, runResult)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(formatter, result)
}

// replayRun reads one recorded run and replays it.
func replayRun(ctx context.Context, st *store.Store, eng *engine.Engine, token string) (ReplayRunResult, error) {
	recorded, err := st.ReadRun(ctx, token)
	if err != nil {
		return ReplayRunResult{}, err
	}

	replay, err := eng.Replay(ctx, recorded)
	if err != nil {
		return ReplayRunResult{}, err
	}

	return ReplayRunResult{
		RunToken:      token,
		Function:      recorded.Function,
		Steps:         len(recorded.Steps),
		ErrorCode:     string(recorded.ErrorCode),
		Deterministic: replay.Identical(),
		Divergence:    replay.Divergence,
	}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_DETERMINISM",
			Message: "determinism verification failed",
		}
	}

	if err := formatter.Respond(response); err != nil {
		return err
	}
	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(formatter *OutputFormatter, result ReplayResult) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs recorded for this program.")
		return nil
	}

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s\n", status, run.RunToken)
		outcome := "returned"
		if run.ErrorCode != "" {
			outcome = run.ErrorCode
		}
		fmt.Fprintf(w, "  %s: %d step(s), %s\n", run.Function, run.Steps, outcome)
		if !run.Deterministic {
			fmt.Fprintf(w, "  Divergence: %s\n", run.Divergence)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
