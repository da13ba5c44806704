package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/registry"
	"github.com/roach88/sierra/internal/simulation"
)

// Engine runs functions of a registered program.
//
// An Engine holds no per-run state besides its clock, so sequential runs
// share one increasing sequence of step numbers. Runs must not overlap when
// a deterministic trace is required.
type Engine struct {
	reg      *registry.Registry
	clock    StepClock
	tokens   RunTokenGenerator
	sink     TraceSink
	maxSteps int
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithMaxSteps sets the maximum number of invocations per run.
//
// Default: 10000 steps (DefaultMaxSteps)
func WithMaxSteps(maxSteps int) EngineOption {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithClock replaces the logical clock, e.g. to resume numbering after the
// steps already in a store.
func WithClock(clock StepClock) EngineOption {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithRunTokenGenerator replaces the UUIDv7 run token generator.
func WithRunTokenGenerator(gen RunTokenGenerator) EngineOption {
	return func(e *Engine) {
		e.tokens = gen
	}
}

// WithTraceSink records every finished run.
func WithTraceSink(sink TraceSink) EngineOption {
	return func(e *Engine) {
		e.sink = sink
	}
}

// New creates an Engine over a registered program.
func New(reg *registry.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		reg:      reg,
		clock:    NewClock(),
		tokens:   UUIDv7Generator{},
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the program the engine runs.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// Run executes the function with the given inputs, one cell list per
// parameter.
//
// On failure the returned RunResult is still non-nil and holds the steps
// completed before the error, so callers can inspect the partial trace.
// The trace sink, if any, receives the run in both cases; a sink failure is
// returned only when the run itself succeeded.
func (e *Engine) Run(ctx context.Context, functionID ir.FunctionID, inputs [][]simulation.MemCell) (*RunResult, error) {
	result := &RunResult{
		Token:       e.tokens.Generate(),
		ProgramHash: e.reg.Hash(),
		Function:    functionID,
		Inputs:      inputs,
		Steps:       []Step{},
	}

	slog.Info("run started",
		"run_token", result.Token,
		"function", functionID,
		"inputs", simulation.FormatVars(inputs),
	)

	runErr := e.execute(ctx, result)
	if runErr != nil {
		var re *RuntimeError
		if errors.As(runErr, &re) {
			re.RunToken = result.Token
			result.ErrorCode = re.Code
		}
		result.Error = runErr.Error()
		slog.Error("run failed",
			"run_token", result.Token,
			"function", functionID,
			"steps", len(result.Steps),
			"error", runErr,
		)
	} else {
		slog.Info("run finished",
			"run_token", result.Token,
			"function", functionID,
			"steps", len(result.Steps),
			"outputs", simulation.FormatVars(result.Outputs),
		)
	}

	if e.sink != nil {
		if err := e.sink.RecordRun(ctx, result); err != nil && runErr == nil {
			return result, fmt.Errorf("record run %s: %w", result.Token, err)
		}
	}
	return result, runErr
}

// execute interprets the function body, appending steps to result.
func (e *Engine) execute(ctx context.Context, result *RunResult) error {
	fn, ok := e.reg.Function(result.Function)
	if !ok {
		return newRuntimeError(ErrCodeMissingFunction, -1, "function %q is not declared", result.Function)
	}

	paramTypes := make([]ir.ConcreteTypeID, len(fn.Params))
	for i, p := range fn.Params {
		paramTypes[i] = p.Ty
	}
	if err := e.checkShape(-1, "parameter", paramTypes, result.Inputs); err != nil {
		return err
	}

	vars := make(map[ir.VarID][]simulation.MemCell, len(fn.Params))
	for i, p := range fn.Params {
		if _, exists := vars[p.ID]; exists {
			return newRuntimeError(ErrCodeVariableOverride, -1, "parameter %s declared twice", p.ID)
		}
		vars[p.ID] = result.Inputs[i]
	}

	statements := e.reg.Program().Statements
	quota := NewQuotaEnforcer(e.maxSteps)
	pc := fn.Entry

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run cancelled at statement %d: %w", pc, err)
		}
		if int(pc) < 0 || int(pc) >= len(statements) {
			return newRuntimeError(ErrCodeInvalidBranch, pc, "statement index out of range [0, %d)", len(statements))
		}
		stmt := statements[pc]

		if stmt.IsReturn() {
			outputs, err := takeVars(vars, stmt.Return, pc)
			if err != nil {
				return err
			}
			if err := e.checkShape(pc, "return value", fn.RetTypes, outputs); err != nil {
				return err
			}
			result.Outputs = outputs
			return nil
		}

		if err := quota.Check(result.Token); err != nil {
			return &RuntimeError{
				Code:      ErrCodeQuotaExceeded,
				Message:   fmt.Sprintf("run exceeded max steps (%d)", quota.MaxSteps()),
				Statement: pc,
				Err:       err,
			}
		}

		next, err := e.step(stmt.Invocation, pc, vars, result)
		if err != nil {
			return err
		}
		pc = next
	}
}

// step executes one invocation and returns the next statement index.
func (e *Engine) step(inv *ir.Invocation, pc ir.StatementIdx, vars map[ir.VarID][]simulation.MemCell, result *RunResult) (ir.StatementIdx, error) {
	concrete, ok := e.reg.ConcreteLibFunc(inv.LibFunc)
	if !ok {
		return 0, newRuntimeError(ErrCodeMissingLibFunc, pc, "libfunc %q is not declared", inv.LibFunc)
	}

	inputs, err := takeVars(vars, inv.Args, pc)
	if err != nil {
		return 0, err
	}
	if err := e.checkShape(pc, "argument", concrete.InputTypes(), inputs); err != nil {
		return 0, err
	}

	outputs, branch, err := concrete.Simulate(inputs)
	if err != nil {
		return 0, &RuntimeError{
			Code:      ErrCodeSimulationFailed,
			Message:   fmt.Sprintf("libfunc %s rejected its inputs", inv.LibFunc),
			Statement: pc,
			Err:       err,
		}
	}
	if branch < 0 || branch >= len(inv.Branches) {
		return 0, newRuntimeError(ErrCodeInvalidBranch, pc, "libfunc %s took branch %d of %d", inv.LibFunc, branch, len(inv.Branches))
	}
	info := inv.Branches[branch]
	if len(outputs) != len(info.Results) {
		return 0, newRuntimeError(ErrCodeInvalidBranch, pc, "branch %d binds %d results, libfunc produced %d", branch, len(info.Results), len(outputs))
	}
	if err := e.checkBranchOutputs(pc, concrete, branch, outputs); err != nil {
		return 0, err
	}

	for i, id := range info.Results {
		if _, exists := vars[id]; exists {
			return 0, newRuntimeError(ErrCodeVariableOverride, pc, "variable %s is still bound", id)
		}
		vars[id] = outputs[i]
	}

	s := Step{
		Seq:       e.clock.Next(),
		Statement: pc,
		LibFunc:   inv.LibFunc,
		Inputs:    inputs,
		Outputs:   outputs,
		Branch:    branch,
	}
	result.Steps = append(result.Steps, s)

	slog.Debug("step executed",
		"run_token", result.Token,
		"seq", s.Seq,
		"statement", pc,
		"libfunc", inv.LibFunc,
		"branch", branch,
	)

	if info.Target.Fallthrough {
		return pc + 1, nil
	}
	return info.Target.Statement, nil
}

// checkShape verifies one value per type, each of the declared size. Types
// the program never declared have no known size and are not size-checked.
func (e *Engine) checkShape(pc ir.StatementIdx, what string, types []ir.ConcreteTypeID, values [][]simulation.MemCell) error {
	if len(types) != len(values) {
		return newRuntimeError(ErrCodeArgumentMismatch, pc, "expected %d %s values, got %d", len(types), what, len(values))
	}
	for i, ty := range types {
		info, ok := e.reg.TypeInfo(ty)
		if !ok {
			continue
		}
		if len(values[i]) != info.Size {
			return newRuntimeError(ErrCodeArgumentMismatch, pc, "%s %d of type %s has %d cells, expected %d",
				what, i, ty, len(values[i]), info.Size)
		}
	}
	return nil
}

func (e *Engine) checkBranchOutputs(pc ir.StatementIdx, c extensions.ConcreteLibFunc, branch int, outputs [][]simulation.MemCell) error {
	branches := c.OutputTypes()
	if branch >= len(branches) {
		return newRuntimeError(ErrCodeInvalidBranch, pc, "libfunc reported branch %d but declares %d", branch, len(branches))
	}
	return e.checkShape(pc, "result", branches[branch], outputs)
}

// takeVars removes and returns the values of ids. A variable is consumed by
// the statement that reads it.
func takeVars(vars map[ir.VarID][]simulation.MemCell, ids []ir.VarID, pc ir.StatementIdx) ([][]simulation.MemCell, error) {
	values := make([][]simulation.MemCell, len(ids))
	for i, id := range ids {
		v, ok := vars[id]
		if !ok {
			return nil, newRuntimeError(ErrCodeMissingVariable, pc, "variable %s is not bound", id)
		}
		values[i] = v
		delete(vars, id)
	}
	return values, nil
}
