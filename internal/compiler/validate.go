package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/sierra/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrEmptyID            = "E101" // declaration, function or variable id is empty
	ErrDuplicateID        = "E102" // id declared twice in the same namespace
	ErrUndeclaredLibFunc  = "E103" // statement invokes an undeclared libfunc
	ErrUndeclaredType     = "E104" // function or type argument names an undeclared type
	ErrBranchTarget       = "E105" // branch target out of range
	ErrEntryOutOfRange    = "E106" // function entry out of range
	ErrNoBranches         = "E107" // invocation without branches
	ErrDuplicateParam     = "E108" // function parameter declared twice
	ErrFallthroughPastEnd = "E109" // last statement falls through
)

// ValidationError represents a structural program error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled program for structural errors.
// Returns all errors found (does not fail-fast).
//
// Validation is purely structural. Whether a declaration names a known
// generic id, or whether its arguments fit, is decided by the registry.
func Validate(p *ir.Program) []ValidationError {
	var errs []ValidationError

	types := make(map[ir.ConcreteTypeID]bool, len(p.Types))
	for i, decl := range p.Types {
		field := fmt.Sprintf("types[%d]", i)
		errs = append(errs, checkID(field+".id", string(decl.ID))...)
		errs = append(errs, checkID(field+".generic", string(decl.GenericID))...)
		if types[decl.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate type id: %q", decl.ID),
				Code:    ErrDuplicateID,
			})
		}
		// A type argument must be declared before it is used.
		errs = append(errs, checkTypeArgs(field, decl.Args, types)...)
		types[decl.ID] = true
	}

	libfuncs := make(map[ir.ConcreteLibFuncID]bool, len(p.LibFuncs))
	for i, decl := range p.LibFuncs {
		field := fmt.Sprintf("libfuncs[%d]", i)
		errs = append(errs, checkID(field+".id", string(decl.ID))...)
		errs = append(errs, checkID(field+".generic", string(decl.GenericID))...)
		if libfuncs[decl.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate libfunc id: %q", decl.ID),
				Code:    ErrDuplicateID,
			})
		}
		libfuncs[decl.ID] = true
		errs = append(errs, checkTypeArgs(field, decl.Args, types)...)
	}

	n := len(p.Statements)
	for i, stmt := range p.Statements {
		field := fmt.Sprintf("statements[%d]", i)
		if stmt.IsReturn() {
			errs = append(errs, checkVars(field+".return", stmt.Return)...)
			continue
		}
		inv := stmt.Invocation
		if !libfuncs[inv.LibFunc] {
			errs = append(errs, ValidationError{
				Field:   field + ".invoke",
				Message: fmt.Sprintf("libfunc %q is not declared", inv.LibFunc),
				Code:    ErrUndeclaredLibFunc,
			})
		}
		errs = append(errs, checkVars(field+".args", inv.Args)...)
		if len(inv.Branches) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".branches",
				Message: "invocation must have at least one branch",
				Code:    ErrNoBranches,
			})
		}
		for j, branch := range inv.Branches {
			bf := fmt.Sprintf("%s.branches[%d]", field, j)
			errs = append(errs, checkVars(bf+".results", branch.Results)...)
			if branch.Target.Fallthrough {
				if i == n-1 {
					errs = append(errs, ValidationError{
						Field:   bf,
						Message: "last statement cannot fall through",
						Code:    ErrFallthroughPastEnd,
					})
				}
				continue
			}
			if t := branch.Target.Statement; t < 0 || int(t) >= n {
				errs = append(errs, ValidationError{
					Field:   bf + ".target",
					Message: fmt.Sprintf("target %d out of range [0, %d)", t, n),
					Code:    ErrBranchTarget,
				})
			}
		}
	}

	funcs := make(map[ir.FunctionID]bool, len(p.Funcs))
	for i, fn := range p.Funcs {
		field := fmt.Sprintf("functions[%d]", i)
		errs = append(errs, checkID(field+".id", string(fn.ID))...)
		if funcs[fn.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate function id: %q", fn.ID),
				Code:    ErrDuplicateID,
			})
		}
		funcs[fn.ID] = true

		if fn.Entry < 0 || int(fn.Entry) >= n {
			errs = append(errs, ValidationError{
				Field:   field + ".entry",
				Message: fmt.Sprintf("entry %d out of range [0, %d)", fn.Entry, n),
				Code:    ErrEntryOutOfRange,
			})
		}

		params := make(map[ir.VarID]bool, len(fn.Params))
		for j, param := range fn.Params {
			pf := fmt.Sprintf("%s.params[%d]", field, j)
			errs = append(errs, checkID(pf+".id", string(param.ID))...)
			if params[param.ID] {
				errs = append(errs, ValidationError{
					Field:   pf + ".id",
					Message: fmt.Sprintf("duplicate parameter: %q", param.ID),
					Code:    ErrDuplicateParam,
				})
			}
			params[param.ID] = true
			if !types[param.Ty] {
				errs = append(errs, ValidationError{
					Field:   pf + ".type",
					Message: fmt.Sprintf("type %q is not declared", param.Ty),
					Code:    ErrUndeclaredType,
				})
			}
		}
		for j, ty := range fn.RetTypes {
			if !types[ty] {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.ret[%d]", field, j),
					Message: fmt.Sprintf("type %q is not declared", ty),
					Code:    ErrUndeclaredType,
				})
			}
		}
	}

	return errs
}

func checkID(field, id string) []ValidationError {
	if strings.TrimSpace(id) == "" {
		return []ValidationError{{
			Field:   field,
			Message: "id must be non-empty",
			Code:    ErrEmptyID,
		}}
	}
	return nil
}

func checkVars(field string, vars []ir.VarID) []ValidationError {
	var errs []ValidationError
	for i, v := range vars {
		errs = append(errs, checkID(fmt.Sprintf("%s[%d]", field, i), string(v))...)
	}
	return errs
}

func checkTypeArgs(field string, args []ir.GenericArg, declared map[ir.ConcreteTypeID]bool) []ValidationError {
	var errs []ValidationError
	for i, arg := range args {
		ta, ok := arg.(ir.TypeArg)
		if !ok || declared[ta.ID] {
			continue
		}
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("%s.args[%d]", field, i),
			Message: fmt.Sprintf("type %q is not declared before use", ta.ID),
			Code:    ErrUndeclaredType,
		})
	}
	return errs
}
