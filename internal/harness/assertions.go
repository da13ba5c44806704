package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/simulation"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []engine.Step // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, step := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] #%d %s %s -> %s (branch %d)\n",
			step.Seq, step.Statement, step.LibFunc,
			simulation.FormatVars(step.Inputs), simulation.FormatVars(step.Outputs), step.Branch)
	}

	return buf.String()
}

// assertStepCount checks the number of executed invocations.
func assertStepCount(trace []engine.Step, assertion Assertion) error {
	if len(trace) != assertion.Count {
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%d steps", assertion.Count),
			Actual:   fmt.Sprintf("%d steps", len(trace)),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceContains checks if some step invoked the libfunc, at the given
// statement and taking the given branch when those are set.
func assertTraceContains(trace []engine.Step, assertion Assertion) error {
	for _, step := range trace {
		if matchStep(step, assertion) {
			return nil
		}
	}

	want := assertion.LibFunc
	if assertion.Statement != nil {
		want += fmt.Sprintf(" at statement %d", *assertion.Statement)
	}
	if assertion.Branch != nil {
		want += fmt.Sprintf(" taking branch %d", *assertion.Branch)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func matchStep(step engine.Step, assertion Assertion) bool {
	if step.LibFunc != ir.ConcreteLibFuncID(assertion.LibFunc) {
		return false
	}
	if assertion.Statement != nil && int(step.Statement) != *assertion.Statement {
		return false
	}
	if assertion.Branch != nil && step.Branch != *assertion.Branch {
		return false
	}
	return true
}

// assertTraceOrder checks if the libfuncs appear in the specified order.
// Steps don't need to be consecutive (intervening steps are allowed), and
// each libfunc is matched at its first occurrence after the previous match.
func assertTraceOrder(trace []engine.Step, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.LibFuncs {
		found := false
		for pos < len(trace) {
			step := trace[pos]
			pos++
			if step.LibFunc == ir.ConcreteLibFuncID(want) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("libfuncs in order: %v", assertion.LibFuncs),
				Actual:   fmt.Sprintf("%s not found after step %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the libfunc was invoked exactly the specified
// number of times.
func assertTraceCount(trace []engine.Step, assertion Assertion) error {
	count := 0
	for _, step := range trace {
		if step.LibFunc == ir.ConcreteLibFuncID(assertion.LibFunc) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.LibFunc),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the trace.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(trace []engine.Step, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStepCount:
			err = assertStepCount(trace, assertion)
		case AssertTraceContains:
			err = assertTraceContains(trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
