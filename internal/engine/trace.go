package engine

import (
	"context"

	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// Step records one executed invocation.
type Step struct {
	Seq       int64                  `json:"seq"`
	Statement ir.StatementIdx        `json:"statement"`
	LibFunc   ir.ConcreteLibFuncID   `json:"libfunc"`
	Inputs    [][]simulation.MemCell `json:"inputs"`
	Outputs   [][]simulation.MemCell `json:"outputs"`
	Branch    int                    `json:"branch"`
}

// RunResult is the outcome of one run.
type RunResult struct {
	Token       string                 `json:"run_token"`
	ProgramHash string                 `json:"program_hash"`
	Function    ir.FunctionID          `json:"function"`
	Inputs      [][]simulation.MemCell `json:"inputs"`
	Outputs     [][]simulation.MemCell `json:"outputs"`
	Steps       []Step                 `json:"steps"`

	// ErrorCode and Error are set when the run failed. Steps then holds the
	// invocations that completed before the failure.
	ErrorCode RuntimeErrorCode `json:"error_code,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Failed reports whether the run ended with an error.
func (r *RunResult) Failed() bool {
	return r.Error != ""
}

// TraceSink receives every finished run, successful or not.
// The store implements it.
type TraceSink interface {
	RecordRun(ctx context.Context, run *RunResult) error
}

// Canonical converts the run to the value form accepted by
// ir.MarshalCanonical. The program hash is left out so golden traces do not
// change when unrelated declarations are added.
func (r *RunResult) Canonical() map[string]any {
	steps := make([]any, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = s.Canonical()
	}
	m := map[string]any{
		"run_token": r.Token,
		"function":  string(r.Function),
		"inputs":    VarsToCanonical(r.Inputs),
		"outputs":   VarsToCanonical(r.Outputs),
		"steps":     steps,
	}
	if r.Failed() {
		m["error_code"] = string(r.ErrorCode)
	}
	return m
}

// Canonical converts the step to the value form accepted by
// ir.MarshalCanonical.
func (s Step) Canonical() map[string]any {
	return map[string]any{
		"seq":       s.Seq,
		"statement": int64(s.Statement),
		"libfunc":   string(s.LibFunc),
		"inputs":    VarsToCanonical(s.Inputs),
		"outputs":   VarsToCanonical(s.Outputs),
		"branch":    int64(s.Branch),
	}
}

// VarsToCanonical renders cells as decimal strings; canonical JSON has no
// integers wider than int64.
func VarsToCanonical(vars [][]simulation.MemCell) []any {
	arr := make([]any, len(vars))
	for i, v := range vars {
		cells := make([]any, len(v))
		for j, c := range v {
			cells[j] = c.String()
		}
		arr[i] = cells
	}
	return arr
}
