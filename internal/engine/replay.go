package engine

import (
	"context"
	"fmt"

	"github.com/roach88/sierra/internal/simulation"
)

// Replay re-executes a recorded run and compares the fresh trace with the
// recorded one.
//
// Simulation is a pure function of the program and the inputs, so a replay
// of an unmodified program must reproduce every step. Sequence numbers are
// not compared: they depend on what else the recording engine ran.
//
// The replay runs on a private engine with the recorded run token and no
// trace sink, so it never writes to the store.
func (e *Engine) Replay(ctx context.Context, recorded *RunResult) (*ReplayResult, error) {
	if recorded.ProgramHash != "" && recorded.ProgramHash != e.reg.Hash() {
		return &ReplayResult{
			Divergence: fmt.Sprintf("program hash %s differs from recorded %s", e.reg.Hash(), recorded.ProgramHash),
		}, nil
	}

	fresh := New(e.reg,
		WithMaxSteps(e.maxSteps),
		WithRunTokenGenerator(NewFixedGenerator(recorded.Token)),
	)
	replayed, err := fresh.Run(ctx, recorded.Function, recorded.Inputs)
	if err != nil && replayed == nil {
		return nil, err
	}

	return &ReplayResult{
		Replayed:   replayed,
		Divergence: diverge(recorded, replayed),
	}, nil
}

// ReplayResult is the outcome of Replay.
type ReplayResult struct {
	Replayed *RunResult

	// Divergence describes the first difference, or is empty when the
	// replay reproduced the recording.
	Divergence string
}

// Identical reports whether the replay reproduced the recording.
func (r *ReplayResult) Identical() bool {
	return r.Divergence == ""
}

func diverge(recorded, replayed *RunResult) string {
	if recorded.ErrorCode != replayed.ErrorCode {
		return fmt.Sprintf("error code %q, recorded %q", replayed.ErrorCode, recorded.ErrorCode)
	}
	n := min(len(recorded.Steps), len(replayed.Steps))
	for i := range n {
		a, b := recorded.Steps[i], replayed.Steps[i]
		switch {
		case a.Statement != b.Statement:
			return fmt.Sprintf("step %d: statement %d, recorded %d", i, b.Statement, a.Statement)
		case a.LibFunc != b.LibFunc:
			return fmt.Sprintf("step %d: libfunc %s, recorded %s", i, b.LibFunc, a.LibFunc)
		case a.Branch != b.Branch:
			return fmt.Sprintf("step %d: branch %d, recorded %d", i, b.Branch, a.Branch)
		case !simulation.EqualVars(a.Inputs, b.Inputs):
			return fmt.Sprintf("step %d: inputs %s, recorded %s", i,
				simulation.FormatVars(b.Inputs), simulation.FormatVars(a.Inputs))
		case !simulation.EqualVars(a.Outputs, b.Outputs):
			return fmt.Sprintf("step %d: outputs %s, recorded %s", i,
				simulation.FormatVars(b.Outputs), simulation.FormatVars(a.Outputs))
		}
	}
	if len(recorded.Steps) != len(replayed.Steps) {
		return fmt.Sprintf("%d steps, recorded %d", len(replayed.Steps), len(recorded.Steps))
	}
	if !simulation.EqualVars(recorded.Outputs, replayed.Outputs) {
		return fmt.Sprintf("outputs %s, recorded %s",
			simulation.FormatVars(replayed.Outputs), simulation.FormatVars(recorded.Outputs))
	}
	return ""
}
