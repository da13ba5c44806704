package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/sierra/internal/compiler"
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/registry"
)

// LoadError represents an error that occurred while loading a program.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants, unified across all CLI commands. Structural program
// errors use the compiler's E1xx codes.
const (
	ErrCodeGeneric         = "E001" // Generic/unknown error
	ErrCodeScanError       = "E002" // Directory scan error
	ErrCodeNoFiles         = "E003" // No CUE files found
	ErrCodeLoadFailed      = "E004" // Program could not be read
	ErrCodeNotFound        = "E005" // Path not found
	ErrCodeBuildFailed     = "E006" // CUE build failed
	ErrCodeWriteFailed     = "E007" // File write error
	ErrCodeInvalidManifest = "E008" // Manifest does not match the program schema
	ErrCodeInvalidInputs   = "E009" // --inputs is not a list of lists of cells
	ErrCodeStoreFailed     = "E010" // SQLite store error

	ErrCodeSpecialization = "E201" // A type or libfunc failed to specialize
)

// LoadProgram compiles the program at path, converting failures to
// LoadErrors. A directory must contain at least one .cue file.
func LoadProgram(path string) (*ir.Program, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("program not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error accessing program: %v", err)}
	}
	if info.IsDir() {
		files, err := FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(files) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	}

	program, err := compiler.LoadProgram(path)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return program, nil
}

// FindCUEFiles returns the .cue files directly inside dir, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, err
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		code := ErrCodeInvalidManifest
		if compileErr.Field == "cue" {
			code = ErrCodeBuildFailed
		}
		return &LoadError{
			Code:    code,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
}

// validationFailure turns the compiler's structural errors into one
// LoadError carrying the first code.
func validationFailure(errs []compiler.ValidationError) *LoadError {
	msgs := make([]string, len(errs))
	for i, ve := range errs {
		msgs[i] = ve.Error()
	}
	return &LoadError{
		Code:    errs[0].Code,
		Message: fmt.Sprintf("invalid program: %s", strings.Join(msgs, "; ")),
	}
}

// specializationFailure converts a registry error to a LoadError.
func specializationFailure(err error) *LoadError {
	var se *extensions.SpecializationError
	if errors.As(err, &se) {
		return &LoadError{Code: ErrCodeSpecialization, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// LoadRegistry loads, validates and specializes the program at path.
func LoadRegistry(path string, opts ...registry.Option) (*registry.Registry, error) {
	program, err := LoadProgram(path)
	if err != nil {
		return nil, err
	}
	if errs := compiler.Validate(program); len(errs) > 0 {
		return nil, validationFailure(errs)
	}
	reg, err := registry.New(program, opts...)
	if err != nil {
		return nil, specializationFailure(err)
	}
	return reg, nil
}

// failLoad reports a LoadError as a command error.
func failLoad(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), msg)
		}
		return f.Fail(ExitCommandError, loadErr.Code, msg)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error())
}
