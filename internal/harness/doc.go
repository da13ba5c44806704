// Package harness runs simulation scenarios against compiled programs.
//
// A scenario names a program manifest, a function, its inputs, and the
// expected outcome. The harness compiles and registers the program, runs the
// function on a fresh engine, records the run in an in-memory store, and
// checks the trace read back from the store.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: countdown_three
//	description: "countdown loops through felt_jump_nz until zero"
//	program: ../programs/core.cue
//	function: countdown
//	inputs: [[3]]
//	expect:
//	  outputs: [[0]]
//	assertions:
//	  - type: step_count
//	    count: 11
//	  - type: trace_contains
//	    libfunc: felt_jump_nz
//	    branch: 1
//	  - type: trace_order
//	    libfuncs: [felt_jump_nz, felt_const_m1, felt_add]
//
// The program path is relative to the scenario file. Cells are YAML
// integers or decimal strings; values beyond int64 must be strings.
// expect holds either outputs or an error code, which may be a runtime code
// (QUOTA_EXCEEDED) or a specialization code (TYPE_WAS_NOT_DECLARED).
//
// # Assertion Types
//
//   - step_count: the run executed exactly count invocations
//   - trace_contains: a step invoked libfunc, optionally at statement or
//     taking branch
//   - trace_order: the libfuncs appear in the trace in this order
//   - trace_count: libfunc was invoked exactly count times
//
// # Deterministic Testing
//
// Every scenario runs with a fresh testutil.DeterministicClock and a fixed
// run token (the scenario's run_token, or testutil.DefaultRunToken), so
// traces are byte-identical across runs and can be compared against golden
// files with RunWithGolden.
package harness
