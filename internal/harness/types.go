package harness

import (
	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/simulation"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if the expect clause and every assertion held.
	Pass bool `json:"pass"`

	// RunToken identifies the recorded run. Empty if the program failed to
	// specialize and never ran.
	RunToken string `json:"run_token,omitempty"`

	// Outputs are the returned values of a successful run.
	Outputs [][]simulation.MemCell `json:"outputs,omitempty"`

	// ErrorCode is the runtime or specialization error code, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Trace holds the recorded steps in seq order.
	Trace []engine.Step `json:"trace"`

	// Run is the run as read back from the store.
	Run *engine.RunResult `json:"-"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []engine.Step{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
