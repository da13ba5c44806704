// Package engine interprets programs by driving the simulation of their
// concrete libfuncs statement by statement.
//
// The engine owns the variable environment. For each invocation it takes
// the argument variables out of the environment, checks their cell counts
// against the declared type sizes, calls Simulate on the concrete libfunc,
// binds the outputs of the reported branch to that branch's result
// variables, and continues at the branch target. A return statement ends
// the run with the values of its variables.
//
// Determinism:
//
// Every step is stamped from a logical clock, never wall time. Given the
// same program, inputs and run token generator, a run produces the same
// trace byte for byte, which is what Replay and the golden traces in the
// harness rely on.
//
// Termination:
//
// Programs may loop through explicit branch targets. A QuotaEnforcer bounds
// the number of invocations per run, and the context is checked between
// steps.
package engine
