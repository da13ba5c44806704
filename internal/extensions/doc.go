// Package extensions implements generic-to-concrete specialization of
// libfuncs and types.
//
// A generic libfunc is a stateless family member identified by a
// GenericLibFuncID. Given a SpecializationContext and an argument list it
// yields a ConcreteLibFunc: a fully typed operation with input types, output
// types per branch, a fallthrough branch, and a simulation of its effect on
// memory cells.
//
// Capability layers narrow the base interface with thin adapters:
//
//	GenericLibFunc        Specialize(ctx, args)
//	NamedLibFunc          + ID(); Named(lf) derives the Family (id matching)
//	NoGenericArgsLibFunc  ID() + SpecializeNoArgs(ctx); NoGenericArgs(lf) rejects args
//
//	ConcreteLibFunc           InputTypes, OutputTypes per branch, Fallthrough, Simulate
//	NonBranchConcreteLibFunc  flat OutputTypes; NonBranch(c) fixes one branch, fallthrough 0
//
// Families are composed into closed hierarchies (NewHierarchy) that dispatch
// by id and tag each concrete result with the member it came from.
//
// Specialization is synchronous and side-effect free. The context is a
// read-only view built once per program, so independent specializations may
// run concurrently.
package extensions
