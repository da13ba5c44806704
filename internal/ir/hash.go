package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainProgram is the domain prefix for program identity.
// The version suffix leaves room for migrating the encoding.
const DomainProgram = "sierra/program/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content-addressed identity of a program.
// Two programs with identical declarations and statements hash equally
// regardless of how they were produced.
func ProgramHash(p *Program) (string, error) {
	canonical, err := MarshalCanonical(ProgramToCanonical(p))
	if err != nil {
		return "", fmt.Errorf("ProgramHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProgram, canonical), nil
}

// MustProgramHash is like ProgramHash but panics on error.
// Use only in tests or when the program is known to be well formed.
func MustProgramHash(p *Program) string {
	h, err := ProgramHash(p)
	if err != nil {
		panic(err)
	}
	return h
}

// ArgsToCanonical converts an argument list to its canonical JSON form.
func ArgsToCanonical(args []GenericArg) []any {
	arr := make([]any, len(args))
	for i, a := range args {
		arr[i] = argToCanonical(a)
	}
	return arr
}

// ProgramToCanonical converts a program to the value form accepted by
// MarshalCanonical.
func ProgramToCanonical(p *Program) map[string]any {
	types := make([]any, len(p.Types))
	for i, t := range p.Types {
		types[i] = map[string]any{
			"id":      string(t.ID),
			"generic": string(t.GenericID),
			"args":    ArgsToCanonical(t.Args),
		}
	}

	libfuncs := make([]any, len(p.LibFuncs))
	for i, l := range p.LibFuncs {
		libfuncs[i] = map[string]any{
			"id":      string(l.ID),
			"generic": string(l.GenericID),
			"args":    ArgsToCanonical(l.Args),
		}
	}

	statements := make([]any, len(p.Statements))
	for i, s := range p.Statements {
		statements[i] = statementToCanonical(s)
	}

	funcs := make([]any, len(p.Funcs))
	for i, f := range p.Funcs {
		params := make([]any, len(f.Params))
		for j, param := range f.Params {
			params[j] = map[string]any{"id": string(param.ID), "ty": string(param.Ty)}
		}
		rets := make([]any, len(f.RetTypes))
		for j, r := range f.RetTypes {
			rets[j] = string(r)
		}
		funcs[i] = map[string]any{
			"id":     string(f.ID),
			"params": params,
			"ret":    rets,
			"entry":  int64(f.Entry),
		}
	}

	return map[string]any{
		"ir_version": IRVersion,
		"types":      types,
		"libfuncs":   libfuncs,
		"statements": statements,
		"functions":  funcs,
	}
}

func statementToCanonical(s Statement) map[string]any {
	if s.IsReturn() {
		return map[string]any{"return": varsToCanonical(s.Return)}
	}
	branches := make([]any, len(s.Invocation.Branches))
	for i, b := range s.Invocation.Branches {
		target := any("fallthrough")
		if !b.Target.Fallthrough {
			target = int64(b.Target.Statement)
		}
		branches[i] = map[string]any{
			"target":  target,
			"results": varsToCanonical(b.Results),
		}
	}
	return map[string]any{
		"invoke":   string(s.Invocation.LibFunc),
		"args":     varsToCanonical(s.Invocation.Args),
		"branches": branches,
	}
}

func varsToCanonical(vars []VarID) []any {
	arr := make([]any, len(vars))
	for i, v := range vars {
		arr[i] = string(v)
	}
	return arr
}
