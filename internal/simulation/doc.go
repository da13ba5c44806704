// Package simulation defines the abstract memory model that concrete libfuncs
// simulate over.
//
// A libfunc's inputs and outputs are ordered lists of variables, each variable
// an ordered list of MemCell. Simulation is a pure function of its inputs:
// no shared state, no blocking, safe to run in parallel across statements.
// Shape mismatches are reported as *InputError, never padded, truncated, or
// turned into a panic.
package simulation
