package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/sierra/internal/compiler"
	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/registry"
	"github.com/roach88/sierra/internal/simulation"
	"github.com/roach88/sierra/internal/store"
	"github.com/roach88/sierra/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store with a deterministic
// clock and a fixed run token. The trace in the result is the one read back
// from the store, so a passing scenario also shows the run survived
// recording.
//
// Execution flow:
//  1. Compile and validate the program manifest
//  2. Register the program (a specialization failure is an outcome, not an error)
//  3. Run the function, recording into the store
//  4. Read the run back and check expect and assertions
//
// Returns an error only when the scenario could not be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	program, err := compiler.LoadProgram(scenario.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}
	if verrs := compiler.Validate(program); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, fmt.Errorf("invalid program: %w", errors.Join(errs...))
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	result := NewResult()

	reg, err := registry.New(program)
	if err != nil {
		code := specializationCode(err)
		if code == "" {
			return nil, fmt.Errorf("failed to register program: %w", err)
		}
		result.ErrorCode = code
		checkExpect(scenario, result, err.Error())
		slog.Info("scenario finished",
			"scenario", scenario.Name,
			"pass", result.Pass,
			"error_code", code,
		)
		return result, nil
	}
	if _, err := st.WriteSpecializations(ctx, reg); err != nil {
		return nil, fmt.Errorf("failed to record specializations: %w", err)
	}

	opts := []engine.EngineOption{
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithRunTokenGenerator(testutil.NewFixedRunToken(scenario.RunToken)),
		engine.WithTraceSink(st),
	}
	if scenario.MaxSteps > 0 {
		opts = append(opts, engine.WithMaxSteps(scenario.MaxSteps))
	}
	eng := engine.New(reg, opts...)

	run, runErr := eng.Run(ctx, ir.FunctionID(scenario.Function), cellsToVars(scenario.Inputs))
	if runErr != nil && engine.CodeOf(runErr) == "" {
		return nil, fmt.Errorf("failed to run %s: %w", scenario.Function, runErr)
	}

	recorded, err := st.ReadRun(ctx, run.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to read recorded run: %w", err)
	}

	result.RunToken = recorded.Token
	result.Run = recorded
	result.Trace = recorded.Steps
	result.ErrorCode = string(recorded.ErrorCode)
	if !recorded.Failed() {
		result.Outputs = recorded.Outputs
	}

	checkExpect(scenario, result, recorded.Error)
	for _, msg := range EvaluateAssertions(result.Trace, scenario.Assertions) {
		result.AddError(msg)
	}

	slog.Info("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"run_token", result.RunToken,
		"steps", len(result.Trace),
	)
	return result, nil
}

// checkExpect compares the outcome with the scenario's expect clause.
func checkExpect(scenario *Scenario, result *Result, errMsg string) {
	if want := scenario.Expect.Error; want != "" {
		if result.ErrorCode != want {
			got := result.ErrorCode
			if got == "" {
				got = "success"
			}
			result.AddError(fmt.Sprintf("expected error %s, got %s", want, got))
		}
		return
	}

	if result.ErrorCode != "" {
		result.AddError(fmt.Sprintf("expected outputs, got error: %s", errMsg))
		return
	}
	want := cellsToVars(scenario.Expect.Outputs)
	if !simulation.EqualVars(want, result.Outputs) {
		result.AddError(fmt.Sprintf("expected outputs %s, got %s",
			simulation.FormatVars(want), simulation.FormatVars(result.Outputs)))
	}
}

// specializationCode returns the code of a specialization failure, or ""
// if err is some other registration error.
func specializationCode(err error) string {
	var se *extensions.SpecializationError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	if errors.Is(err, registry.ErrDuplicateID) {
		return "DUPLICATE_ID"
	}
	return ""
}
