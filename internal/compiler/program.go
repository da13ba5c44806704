package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/sierra/internal/ir"
)

// CompileProgram parses a CUE program manifest into an ir.Program.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The manifest is a structured description of the declarations, not the
// textual program syntax:
//
//	types:    [{id: "felt", generic: "felt"}]
//	libfuncs: [{id: "c5", generic: "felt_const", args: [{value: 5}]}]
//	statements: [
//		{invoke: "c5", branches: [{results: ["x"]}]},
//		{return: ["x"]},
//	]
//	functions: [{id: "main", params: [], ret: ["felt"], entry: 0}]
//
// A branch without a target falls through to the next statement.
// Every section is optional; an absent section compiles to an empty slice.
func CompileProgram(v cue.Value) (*ir.Program, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &ir.Program{
		Types:      []ir.TypeDeclaration{},
		LibFuncs:   []ir.LibFuncDeclaration{},
		Statements: []ir.Statement{},
		Funcs:      []ir.Function{},
	}

	err := eachElem(v, "", "types", func(field string, elem cue.Value) error {
		id, generic, args, err := parseDeclaration(field, elem)
		if err != nil {
			return err
		}
		p.Types = append(p.Types, ir.TypeDeclaration{
			ID:        ir.ConcreteTypeID(id),
			GenericID: ir.GenericTypeID(generic),
			Args:      args,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElem(v, "", "libfuncs", func(field string, elem cue.Value) error {
		id, generic, args, err := parseDeclaration(field, elem)
		if err != nil {
			return err
		}
		p.LibFuncs = append(p.LibFuncs, ir.LibFuncDeclaration{
			ID:        ir.ConcreteLibFuncID(id),
			GenericID: ir.GenericLibFuncID(generic),
			Args:      args,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElem(v, "", "statements", func(field string, elem cue.Value) error {
		stmt, err := parseStatement(field, elem)
		if err != nil {
			return err
		}
		p.Statements = append(p.Statements, stmt)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachElem(v, "", "functions", func(field string, elem cue.Value) error {
		fn, err := parseFunction(field, elem)
		if err != nil {
			return err
		}
		p.Funcs = append(p.Funcs, fn)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p, nil
}

// eachElem calls fn for every element of the list at v.<name>. A missing
// list is not an error. parent is the field path of v, used in errors.
func eachElem(v cue.Value, parent, name string, fn func(field string, elem cue.Value) error) error {
	path := joinField(parent, name)
	listVal := v.LookupPath(cue.ParsePath(name))
	if !listVal.Exists() {
		return nil
	}
	iter, err := listVal.List()
	if err != nil {
		return &CompileError{
			Field:   path,
			Message: "must be a list",
			Pos:     listVal.Pos(),
		}
	}
	for i := 0; iter.Next(); i++ {
		if err := fn(fmt.Sprintf("%s[%d]", path, i), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// parseDeclaration reads the id, generic and args fields shared by type and
// libfunc declarations.
func parseDeclaration(field string, v cue.Value) (id, generic string, args []ir.GenericArg, err error) {
	if id, err = requiredString(field, v, "id"); err != nil {
		return "", "", nil, err
	}
	if generic, err = requiredString(field, v, "generic"); err != nil {
		return "", "", nil, err
	}
	args = []ir.GenericArg{}
	err = eachElem(v, field, "args", func(argField string, elem cue.Value) error {
		arg, err := parseGenericArg(argField, elem)
		if err != nil {
			return err
		}
		args = append(args, arg)
		return nil
	})
	if err != nil {
		return "", "", nil, err
	}
	return id, generic, args, nil
}

// parseGenericArg reads {type: "<id>"} or {value: <int>}.
func parseGenericArg(field string, v cue.Value) (ir.GenericArg, error) {
	typeVal := v.LookupPath(cue.ParsePath("type"))
	valueVal := v.LookupPath(cue.ParsePath("value"))

	switch {
	case typeVal.Exists() && valueVal.Exists():
		return nil, &CompileError{
			Field:   field,
			Message: "generic argument must set exactly one of type or value",
			Pos:     v.Pos(),
		}
	case typeVal.Exists():
		s, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.TypeArg{ID: ir.ConcreteTypeID(s)}, nil
	case valueVal.Exists():
		n, err := parseInt(field+".value", valueVal)
		if err != nil {
			return nil, err
		}
		return ir.ValueArg{Value: n}, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: "generic argument must set type or value",
			Pos:     v.Pos(),
		}
	}
}

// parseStatement reads {invoke, args, branches} or {return}.
func parseStatement(field string, v cue.Value) (ir.Statement, error) {
	invokeVal := v.LookupPath(cue.ParsePath("invoke"))
	returnVal := v.LookupPath(cue.ParsePath("return"))

	if invokeVal.Exists() == returnVal.Exists() {
		return ir.Statement{}, &CompileError{
			Field:   field,
			Message: "statement must set exactly one of invoke or return",
			Pos:     v.Pos(),
		}
	}

	if returnVal.Exists() {
		vars, err := varList(field, v, "return")
		if err != nil {
			return ir.Statement{}, err
		}
		return ir.Statement{Return: vars}, nil
	}

	libfunc, err := invokeVal.String()
	if err != nil {
		return ir.Statement{}, formatCUEError(err)
	}
	args, err := varList(field, v, "args")
	if err != nil {
		return ir.Statement{}, err
	}

	inv := &ir.Invocation{
		LibFunc:  ir.ConcreteLibFuncID(libfunc),
		Args:     args,
		Branches: []ir.BranchInfo{},
	}
	err = eachElem(v, field, "branches", func(branchField string, elem cue.Value) error {
		branch, err := parseBranch(branchField, elem)
		if err != nil {
			return err
		}
		inv.Branches = append(inv.Branches, branch)
		return nil
	})
	if err != nil {
		return ir.Statement{}, err
	}
	return ir.Statement{Invocation: inv}, nil
}

func parseBranch(field string, v cue.Value) (ir.BranchInfo, error) {
	results, err := varList(field, v, "results")
	if err != nil {
		return ir.BranchInfo{}, err
	}
	branch := ir.BranchInfo{Target: ir.Fallthrough(), Results: results}

	targetVal := v.LookupPath(cue.ParsePath("target"))
	if targetVal.Exists() {
		n, err := parseInt(field+".target", targetVal)
		if err != nil {
			return ir.BranchInfo{}, err
		}
		branch.Target = ir.JumpTo(ir.StatementIdx(n))
	}
	return branch, nil
}

func parseFunction(field string, v cue.Value) (ir.Function, error) {
	id, err := requiredString(field, v, "id")
	if err != nil {
		return ir.Function{}, err
	}

	entryVal := v.LookupPath(cue.ParsePath("entry"))
	if !entryVal.Exists() {
		return ir.Function{}, &CompileError{
			Field:   field + ".entry",
			Message: "entry is required",
			Pos:     v.Pos(),
		}
	}
	entry, err := parseInt(field+".entry", entryVal)
	if err != nil {
		return ir.Function{}, err
	}

	fn := ir.Function{
		ID:       ir.FunctionID(id),
		Params:   []ir.Param{},
		RetTypes: []ir.ConcreteTypeID{},
		Entry:    ir.StatementIdx(entry),
	}

	err = eachElem(v, field, "params", func(paramField string, elem cue.Value) error {
		name, err := requiredString(paramField, elem, "id")
		if err != nil {
			return err
		}
		ty, err := requiredString(paramField, elem, "type")
		if err != nil {
			return err
		}
		fn.Params = append(fn.Params, ir.Param{ID: ir.VarID(name), Ty: ir.ConcreteTypeID(ty)})
		return nil
	})
	if err != nil {
		return ir.Function{}, err
	}

	ret, err := stringList(field, v, "ret")
	if err != nil {
		return ir.Function{}, err
	}
	for _, ty := range ret {
		fn.RetTypes = append(fn.RetTypes, ir.ConcreteTypeID(ty))
	}
	return fn, nil
}

func requiredString(field string, v cue.Value, name string) (string, error) {
	val := v.LookupPath(cue.ParsePath(name))
	if !val.Exists() {
		return "", &CompileError{
			Field:   joinField(field, name),
			Message: name + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// stringList reads an optional list of strings; a missing list is empty.
func stringList(field string, v cue.Value, name string) ([]string, error) {
	out := []string{}
	err := eachElem(v, field, name, func(_ string, elem cue.Value) error {
		s, err := elem.String()
		if err != nil {
			return formatCUEError(err)
		}
		out = append(out, s)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func varList(field string, v cue.Value, name string) ([]ir.VarID, error) {
	names, err := stringList(field, v, name)
	if err != nil {
		return nil, err
	}
	vars := make([]ir.VarID, len(names))
	for i, n := range names {
		vars[i] = ir.VarID(n)
	}
	return vars, nil
}

// parseInt reads an int64. Floats are forbidden: values are field-element
// literals.
func parseInt(field string, v cue.Value) (int64, error) {
	switch v.IncompleteKind() {
	case cue.IntKind:
	case cue.FloatKind, cue.NumberKind:
		return 0, &CompileError{
			Field:   field,
			Message: "float values are forbidden, use int instead",
			Pos:     v.Pos(),
		}
	default:
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expected int, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
