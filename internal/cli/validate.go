package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/compiler"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/registry"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                       `json:"valid"`
	Statements  int                        `json:"statements"`
	Functions   int                        `json:"functions"`
	Errors      []compiler.ValidationError `json:"errors,omitempty"`
	Warnings    []compiler.LoopWarning     `json:"warnings,omitempty"`
	Unreachable []ir.StatementIdx          `json:"unreachable,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Validate a program manifest",
		Long: `Validate a CUE program manifest without running it.

Compiles the manifest, checks its structure (ids, branch targets, function
entries, declared types) and specializes every type and libfunc. Loops and
unreachable statements are reported as warnings.

Exit codes:
  0 - Program is valid (warnings allowed)
  1 - Structural or specialization errors
  2 - Command error (program not found, CUE does not build)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	program, err := LoadProgram(path)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Compiled %s: %d type(s), %d libfunc(s), %d statement(s), %d function(s)",
		path, len(program.Types), len(program.LibFuncs), len(program.Statements), len(program.Funcs))

	result := ValidationResult{
		Statements: len(program.Statements),
		Functions:  len(program.Funcs),
		Errors:     compiler.Validate(program),
	}

	// Specialization only makes sense on a structurally sound program.
	if len(result.Errors) == 0 {
		if _, err := registry.New(program); err != nil {
			result.Errors = append(result.Errors, specializationValidationError(err))
		}
	}

	result.Warnings = compiler.AnalyzeLoops(program)
	result.Unreachable = compiler.Unreachable(program)
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// specializationValidationError reports a registry failure alongside the
// structural errors.
func specializationValidationError(err error) compiler.ValidationError {
	ve := compiler.ValidationError{
		Field:   "program",
		Message: err.Error(),
		Code:    ErrCodeSpecialization,
	}
	var declErr *registry.DeclarationError
	if errors.As(err, &declErr) {
		ve.Field = declErr.Kind + " " + declErr.ID
		ve.Message = declErr.Err.Error()
	}
	return ve
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Program valid: %d statement(s), %d function(s)\n", result.Statements, result.Functions)
	printWarnings(formatter, result)
	return nil
}

func printWarnings(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn.Message)
	}
	if len(result.Unreachable) > 0 {
		fmt.Fprintf(w, "  warning: unreachable statement(s) %v\n", result.Unreachable)
	}
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}); err != nil {
			return err
		}
		return exitErr
	}

	w := formatter.Writer
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, err := range errs {
		fmt.Fprintf(w, "  %s\n", err.Error())
	}
	printWarnings(formatter, result)
	return exitErr
}
