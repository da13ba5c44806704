package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
	"github.com/roach88/sierra/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	RunToken string // optional - without it, recorded runs are listed
	LibFunc  string // optional - filter to specific libfunc
}

// TraceStep represents a single step in the trace timeline.
type TraceStep struct {
	Seq       int64                  `json:"seq"`
	Statement ir.StatementIdx        `json:"statement"`
	LibFunc   ir.ConcreteLibFuncID   `json:"libfunc"`
	Inputs    [][]simulation.MemCell `json:"inputs"`
	Outputs   [][]simulation.MemCell `json:"outputs"`
	Branch    int                    `json:"branch"`
}

// UsedLibFunc links the libfuncs of a trace to their recorded specialization.
type UsedLibFunc struct {
	ID        ir.ConcreteLibFuncID  `json:"id"`
	GenericID ir.GenericLibFuncID   `json:"generic_id,omitempty"`
	Args      string                `json:"args,omitempty"`
	Signature *extensions.Signature `json:"signature,omitempty"`
	Count     int                   `json:"count"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	RunToken    string                 `json:"run_token"`
	ProgramHash string                 `json:"program_hash"`
	Function    ir.FunctionID          `json:"function"`
	Inputs      [][]simulation.MemCell `json:"inputs"`
	Outputs     [][]simulation.MemCell `json:"outputs,omitempty"`
	ErrorCode   string                 `json:"error_code,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Timeline    []TraceStep            `json:"timeline"`
	LibFuncs    []UsedLibFunc          `json:"libfuncs"`
	Stats       TraceStats             `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalSteps int  `json:"total_steps"`
	Shown      int  `json:"shown"`
	Branches   int  `json:"branches"` // steps that took a non-zero branch
	Returned   bool `json:"returned"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show a recorded run",
		Long: `Show the recorded trace of a run.

The output includes:
- Timeline: every executed invocation with its inputs, outputs and branch
- LibFuncs: the specialization of each libfunc used, with its step count
- Stats: summary statistics for the run

Without --run, the recorded runs are listed instead.

Examples:
  sierra trace --db ./sierra.db
  sierra trace --db ./sierra.db --run 0192...
  sierra trace --db ./sierra.db --run 0192... --libfunc felt_add
  sierra trace --db ./sierra.db --run 0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunToken, "run", "", "run token to trace")
	cmd.Flags().StringVar(&opts.LibFunc, "libfunc", "", "filter to a specific concrete libfunc")

	return cmd
}

// openExistingStore opens a store that must already exist; store.Open
// would silently create an empty one.
func openExistingStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err))
	}
	return st, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.RunToken == "" {
		return listRuns(ctx, formatter, st)
	}

	run, err := st.ReadRun(ctx, opts.RunToken)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no run recorded with token %s", opts.RunToken))
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
	}

	specs, err := st.ReadSpecializations(ctx, run.ProgramHash)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
	}

	result := buildTraceResult(run, specs, ir.ConcreteLibFuncID(opts.LibFunc))
	if formatter.JSON() {
		return formatter.Respond(CLIResponse{Status: "ok", Data: result, RunID: run.Token})
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

// buildTraceResult assembles the timeline, keeping only steps of filter
// when it is set.
func buildTraceResult(run *engine.RunResult, specs []store.SpecializationRecord, filter ir.ConcreteLibFuncID) TraceResult {
	result := TraceResult{
		RunToken:    run.Token,
		ProgramHash: run.ProgramHash,
		Function:    run.Function,
		Inputs:      run.Inputs,
		ErrorCode:   string(run.ErrorCode),
		Error:       run.Error,
		Timeline:    []TraceStep{},
		Stats: TraceStats{
			TotalSteps: len(run.Steps),
			Returned:   !run.Failed(),
		},
	}
	if !run.Failed() {
		result.Outputs = run.Outputs
	}

	counts := make(map[ir.ConcreteLibFuncID]int)
	for _, step := range run.Steps {
		counts[step.LibFunc]++
		if step.Branch != 0 {
			result.Stats.Branches++
		}
		if filter != "" && step.LibFunc != filter {
			continue
		}
		result.Timeline = append(result.Timeline, TraceStep(step))
	}
	result.Stats.Shown = len(result.Timeline)

	bySpec := make(map[ir.ConcreteLibFuncID]store.SpecializationRecord, len(specs))
	for _, rec := range specs {
		bySpec[rec.LibFuncID] = rec
	}
	ids := make([]ir.ConcreteLibFuncID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result.LibFuncs = make([]UsedLibFunc, 0, len(ids))
	for _, id := range ids {
		used := UsedLibFunc{ID: id, Count: counts[id]}
		if rec, ok := bySpec[id]; ok {
			sig := rec.Signature
			used.GenericID = rec.GenericID
			used.Args = ir.FormatArgs(rec.Args)
			used.Signature = &sig
		}
		result.LibFuncs = append(result.LibFuncs, used)
	}
	return result
}

// listRuns prints the recorded runs.
func listRuns(ctx context.Context, formatter *OutputFormatter, st *store.Store) error {
	runs, err := st.ListRuns(ctx, "")
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
	}
	if formatter.JSON() {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		status := "ok"
		if r.ErrorCode != "" {
			status = string(r.ErrorCode)
		}
		fmt.Fprintf(w, "%s  %-16s %4d step(s)  %s\n", r.Token, r.Function, r.Steps, status)
	}
	return nil
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	fmt.Fprintf(w, "Trace for Run: %s\n", result.RunToken)
	fmt.Fprintf(w, "Function: %s %s\n", result.Function, simulation.FormatVars(result.Inputs))
	if result.Stats.Returned {
		fmt.Fprintf(w, "Status: returned %s\n", simulation.FormatVars(result.Outputs))
	} else {
		fmt.Fprintf(w, "Status: failed [%s] %s\n", result.ErrorCode, result.Error)
	}
	if verbose {
		fmt.Fprintf(w, "Program: %s\n", result.ProgramHash)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no steps)")
	}
	for _, step := range result.Timeline {
		fmt.Fprintf(w, "  [%d] #%d %s %s -> %s", step.Seq, step.Statement, step.LibFunc,
			simulation.FormatVars(step.Inputs), simulation.FormatVars(step.Outputs))
		if step.Branch != 0 {
			fmt.Fprintf(w, " (branch %d)", step.Branch)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== LibFuncs ===")
	if len(result.LibFuncs) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, lf := range result.LibFuncs {
		if lf.Signature != nil {
			fmt.Fprintf(w, "  %s = %s%s  %s  x%d\n", lf.ID, lf.GenericID, lf.Args, FormatSignature(*lf.Signature), lf.Count)
		} else {
			fmt.Fprintf(w, "  %s  x%d\n", lf.ID, lf.Count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Steps: %d\n", result.Stats.TotalSteps)
	fmt.Fprintf(w, "  Shown:       %d\n", result.Stats.Shown)
	fmt.Fprintf(w, "  Branches:    %d\n", result.Stats.Branches)

	return nil
}
