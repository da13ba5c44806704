package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
	"github.com/roach88/sierra/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Function string
	Inputs   string // JSON list of lists of cells
	Database string // optional
	MaxSteps int

	// TokenGenerator allows overriding the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.RunTokenGenerator
}

// RunOutput is the JSON payload of a run.
type RunOutput struct {
	RunToken  string                 `json:"run_token"`
	Function  ir.FunctionID          `json:"function"`
	Outputs   [][]simulation.MemCell `json:"outputs,omitempty"`
	Steps     int                    `json:"steps"`
	ErrorCode string                 `json:"error_code,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <program>",
		Short: "Simulate a function of a program",
		Long: `Specialize a CUE program manifest and simulate one of its functions.

Inputs are a JSON list with one entry per parameter, each a list of cells.
Cells are integers or decimal strings and are reduced modulo the field prime,
so -1 and "-1" both denote P-1.

With --db, the specializations and the run with its full trace are recorded
in the SQLite store, and step numbers continue from the ones already there.

Exit codes:
  0 - The function returned
  1 - The run failed (quota exceeded, simulation error, ...)
  2 - Command error (program invalid, bad inputs, database error)

Examples:
  sierra run ./program.cue --function main
  sierra run ./program.cue --function countdown --inputs '[[3]]' --db ./sierra.db
  sierra run ./program.cue --function add --inputs '[["-1"], [2]]' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFunction(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Function, "function", "", "function to run (required)")
	_ = cmd.MarkFlagRequired("function")
	cmd.Flags().StringVar(&opts.Inputs, "inputs", "[]", "function arguments as JSON, e.g. '[[5]]'")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to record the run")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "maximum invocations before the run fails")

	return cmd
}

// ParseInputs decodes the --inputs flag.
func ParseInputs(data string) ([][]simulation.MemCell, error) {
	var inputs [][]simulation.MemCell
	if err := json.Unmarshal([]byte(data), &inputs); err != nil {
		return nil, err
	}
	if inputs == nil {
		inputs = [][]simulation.MemCell{}
	}
	return inputs, nil
}

func runFunction(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	inputs, err := ParseInputs(opts.Inputs)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInputs, fmt.Sprintf("invalid --inputs: %v", err))
	}
	if opts.MaxSteps < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--max-steps must be non-negative")
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		return failLoad(formatter, err)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	engineOpts := []engine.EngineOption{engine.WithMaxSteps(opts.MaxSteps)}
	if opts.TokenGenerator != nil {
		engineOpts = append(engineOpts, engine.WithRunTokenGenerator(opts.TokenGenerator))
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		if _, err := st.WriteSpecializations(ctx, reg); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to record specializations: %v", err))
		}
		last, err := st.LastStepSeq(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error())
		}
		engineOpts = append(engineOpts, engine.WithTraceSink(st), engine.WithClock(engine.NewClockAt(last)))
	}

	eng := engine.New(reg, engineOpts...)
	run, runErr := eng.Run(ctx, ir.FunctionID(opts.Function), inputs)
	if runErr != nil && engine.CodeOf(runErr) == "" && !run.Failed() {
		// The run succeeded but could not be recorded.
		return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, runErr.Error())
	}

	for _, step := range run.Steps {
		formatter.VerboseLog("[%d] #%d %s %s -> %s (branch %d)", step.Seq, step.Statement, step.LibFunc,
			simulation.FormatVars(step.Inputs), simulation.FormatVars(step.Outputs), step.Branch)
	}

	return outputRun(formatter, run)
}

// signalContext returns a context cancelled by SIGINT/SIGTERM, so an
// interrupted run is still recorded as failed.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// outputRun prints the result of a run.
func outputRun(formatter *OutputFormatter, run *engine.RunResult) error {
	out := RunOutput{
		RunToken:  run.Token,
		Function:  run.Function,
		Steps:     len(run.Steps),
		ErrorCode: string(run.ErrorCode),
		Error:     run.Error,
	}
	if !run.Failed() {
		out.Outputs = run.Outputs
	}

	if run.Failed() {
		code := out.ErrorCode
		if code == "" {
			code = ErrCodeGeneric
		}
		exitErr := NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, run.Error))
		if formatter.JSON() {
			if err := formatter.Respond(CLIResponse{
				Status: "error",
				Data:   out,
				Error:  &CLIError{Code: code, Message: run.Error},
				RunID:  run.Token,
			}); err != nil {
				return err
			}
			return exitErr
		}
		w := formatter.Writer
		fmt.Fprintf(w, "✗ %s failed after %d step(s)\n", run.Function, len(run.Steps))
		fmt.Fprintf(w, "  %s: %s\n", code, run.Error)
		fmt.Fprintf(w, "Run: %s\n", run.Token)
		return exitErr
	}

	if formatter.JSON() {
		return formatter.Respond(CLIResponse{Status: "ok", Data: out, RunID: run.Token})
	}
	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s returned %s in %d step(s)\n", run.Function, simulation.FormatVars(run.Outputs), len(run.Steps))
	fmt.Fprintf(w, "Run: %s\n", run.Token)
	return nil
}
