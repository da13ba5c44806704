// Package registry resolves every declaration of a program into its concrete
// form.
//
// New runs three phases in order:
//
//  1. Types: each TypeDeclaration is validated against the type catalog and
//     recorded in the ConcreteTypeIDMap together with its size.
//  2. Functions: user functions are indexed by id.
//  3. Libfuncs: each LibFuncDeclaration is specialized through the libfunc
//     hierarchy with a read-only SpecializationContext over phases 1 and 2.
//     Type arguments must name declared types.
//
// Phase 3 may run in parallel. The result does not depend on the degree of
// parallelism: declarations are independent and the first failing
// declaration in program order is the one reported.
package registry

import (
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/extensions/core"
	"github.com/roach88/sierra/internal/ir"
)

// Registry holds the concrete view of one program. It is immutable after New.
type Registry struct {
	program   *ir.Program
	hash      string
	types     *extensions.ConcreteTypeIDMap
	typeInfos map[ir.ConcreteTypeID]extensions.ConcreteTypeInfo
	functions extensions.FunctionMap
	libfuncs  map[ir.ConcreteLibFuncID]extensions.ConcreteLibFunc
	decls     map[ir.ConcreteLibFuncID]ir.LibFuncDeclaration

	parallelism int
	family      extensions.Family
	catalog     extensions.TypeCatalog
}

// Option configures a Registry.
type Option func(*Registry)

// WithParallelism bounds the number of concurrent libfunc specializations.
// Values below 1 mean sequential.
func WithParallelism(n int) Option {
	return func(r *Registry) {
		r.parallelism = n
	}
}

// WithLibFuncs replaces the core libfunc hierarchy.
func WithLibFuncs(family extensions.Family) Option {
	return func(r *Registry) {
		r.family = family
	}
}

// WithTypes replaces the core type catalog.
func WithTypes(catalog extensions.TypeCatalog) Option {
	return func(r *Registry) {
		r.catalog = catalog
	}
}

// New builds the registry for program.
func New(program *ir.Program, opts ...Option) (*Registry, error) {
	if program == nil {
		return nil, fmt.Errorf("registry: program is nil")
	}
	hash, err := ir.ProgramHash(program)
	if err != nil {
		return nil, fmt.Errorf("registry: hash program: %w", err)
	}

	r := &Registry{
		program:     program,
		hash:        hash,
		types:       extensions.NewConcreteTypeIDMap(),
		typeInfos:   make(map[ir.ConcreteTypeID]extensions.ConcreteTypeInfo, len(program.Types)),
		functions:   make(extensions.FunctionMap, len(program.Funcs)),
		libfuncs:    make(map[ir.ConcreteLibFuncID]extensions.ConcreteLibFunc, len(program.LibFuncs)),
		decls:       make(map[ir.ConcreteLibFuncID]ir.LibFuncDeclaration, len(program.LibFuncs)),
		parallelism: 1,
		family:      core.LibFuncs,
		catalog:     core.Types,
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.declareTypes(); err != nil {
		return nil, err
	}
	if err := r.indexFunctions(); err != nil {
		return nil, err
	}
	if err := r.specializeLibFuncs(); err != nil {
		return nil, err
	}

	slog.Info("program registered",
		"program_hash", r.hash,
		"types", len(r.typeInfos),
		"libfuncs", len(r.libfuncs),
		"functions", len(r.functions),
	)
	return r, nil
}

func (r *Registry) lookupInfo(id ir.ConcreteTypeID) (extensions.ConcreteTypeInfo, bool) {
	info, ok := r.typeInfos[id]
	return info, ok
}

func (r *Registry) declareTypes() error {
	for _, decl := range r.program.Types {
		if _, exists := r.typeInfos[decl.ID]; exists {
			return &DeclarationError{Kind: "type", ID: string(decl.ID), Err: ErrDuplicateID}
		}
		info, err := r.catalog.SpecializeType(r.lookupInfo, decl.GenericID, decl.Args)
		if err != nil {
			return &DeclarationError{Kind: "type", ID: string(decl.ID), Err: err}
		}
		if err := r.types.Declare(decl.GenericID, decl.Args, decl.ID); err != nil {
			return &DeclarationError{Kind: "type", ID: string(decl.ID), Err: err}
		}
		r.typeInfos[decl.ID] = info
		slog.Debug("type declared",
			"type_id", decl.ID,
			"generic_id", decl.GenericID,
			"args", ir.FormatArgs(decl.Args),
			"size", info.Size,
		)
	}
	return nil
}

func (r *Registry) indexFunctions() error {
	for _, fn := range r.program.Funcs {
		if _, exists := r.functions[fn.ID]; exists {
			return &DeclarationError{Kind: "function", ID: string(fn.ID), Err: ErrDuplicateID}
		}
		r.functions[fn.ID] = fn
	}
	return nil
}

func (r *Registry) specializeLibFuncs() error {
	decls := r.program.LibFuncs
	for _, decl := range decls {
		if _, exists := r.decls[decl.ID]; exists {
			return &DeclarationError{Kind: "libfunc", ID: string(decl.ID), Err: ErrDuplicateID}
		}
		r.decls[decl.ID] = decl
	}

	ctx := extensions.NewSpecializationContext(r.functions, r.types)
	results := make([]extensions.ConcreteLibFunc, len(decls))
	errs := make([]error, len(decls))

	// Each goroutine writes only its own slot; the first error by index is
	// reported so the outcome is independent of scheduling.
	var g errgroup.Group
	g.SetLimit(max(r.parallelism, 1))
	for i, decl := range decls {
		if errs[i] = r.checkTypeArgs(decl.Args); errs[i] != nil {
			continue
		}
		g.Go(func() error {
			results[i], errs[i] = extensions.SpecializeByID(r.family, ctx, decl.GenericID, decl.Args)
			return nil
		})
	}
	_ = g.Wait()

	for i, decl := range decls {
		if errs[i] != nil {
			return &DeclarationError{Kind: "libfunc", ID: string(decl.ID), Err: errs[i]}
		}
		r.libfuncs[decl.ID] = results[i]
		slog.Debug("libfunc specialized",
			"libfunc_id", decl.ID,
			"generic_id", decl.GenericID,
			"args", ir.FormatArgs(decl.Args),
		)
	}
	return nil
}

// checkTypeArgs rejects type arguments naming types the program never
// declared. Families that only carry a type through, such as store_temp, never
// consult the context, so the check cannot be left to them.
func (r *Registry) checkTypeArgs(args []ir.GenericArg) error {
	for _, arg := range args {
		if ta, ok := arg.(ir.TypeArg); ok {
			if _, declared := r.typeInfos[ta.ID]; !declared {
				return &extensions.SpecializationError{Code: extensions.ErrCodeUndeclaredTypeArg, ConcreteTypeID: ta.ID}
			}
		}
	}
	return nil
}

// Program returns the registered program.
func (r *Registry) Program() *ir.Program { return r.program }

// Hash returns the program hash.
func (r *Registry) Hash() string { return r.hash }

// ConcreteLibFunc returns the specialization of a declared libfunc.
func (r *Registry) ConcreteLibFunc(id ir.ConcreteLibFuncID) (extensions.ConcreteLibFunc, bool) {
	c, ok := r.libfuncs[id]
	return c, ok
}

// LibFuncDeclaration returns the declaration behind a concrete libfunc id.
func (r *Registry) LibFuncDeclaration(id ir.ConcreteLibFuncID) (ir.LibFuncDeclaration, bool) {
	d, ok := r.decls[id]
	return d, ok
}

// TypeInfo returns the info of a declared concrete type.
func (r *Registry) TypeInfo(id ir.ConcreteTypeID) (extensions.ConcreteTypeInfo, bool) {
	return r.lookupInfo(id)
}

// Function returns a user function by id.
func (r *Registry) Function(id ir.FunctionID) (ir.Function, bool) {
	fn, ok := r.functions[id]
	return fn, ok
}

// SpecializationContext returns the read-only context used for libfuncs.
func (r *Registry) SpecializationContext() extensions.SpecializationContext {
	return extensions.NewSpecializationContext(r.functions, r.types)
}

// Signatures returns every concrete libfunc signature in declaration order.
func (r *Registry) Signatures() []Entry {
	entries := make([]Entry, 0, len(r.program.LibFuncs))
	for _, decl := range r.program.LibFuncs {
		entries = append(entries, Entry{
			Declaration: decl,
			Signature:   extensions.SignatureOf(r.libfuncs[decl.ID]),
		})
	}
	return entries
}

// Entry pairs a libfunc declaration with its concrete signature.
type Entry struct {
	Declaration ir.LibFuncDeclaration
	Signature   extensions.Signature
}
