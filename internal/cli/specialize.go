package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/registry"
	"github.com/roach88/sierra/internal/store"
)

// SpecializeOptions holds flags for the specialize command.
type SpecializeOptions struct {
	*RootOptions
	Database    string // optional store to record specializations in
	Output      string // optional file for the JSON signatures
	Parallelism int
}

// SpecializedLibFunc is one concrete libfunc and its signature.
type SpecializedLibFunc struct {
	ID        ir.ConcreteLibFuncID `json:"id"`
	GenericID ir.GenericLibFuncID  `json:"generic_id"`
	Args      string               `json:"args,omitempty"`
	Signature extensions.Signature `json:"signature"`
}

// SpecializeResult holds the signatures of a specialized program.
type SpecializeResult struct {
	ProgramHash string               `json:"program_hash"`
	LibFuncs    []SpecializedLibFunc `json:"libfuncs"`
	Recorded    int                  `json:"recorded"`
}

// NewSpecializeCommand creates the specialize command.
func NewSpecializeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SpecializeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "specialize <program>",
		Short: "Specialize every libfunc of a program",
		Long: `Declare the types and specialize the libfuncs of a CUE program manifest,
printing each concrete libfunc signature.

With --db, the specializations are recorded in the SQLite store under the
program hash. Recording the same program twice writes nothing new.

Examples:
  sierra specialize ./program.cue
  sierra specialize ./program.cue --db ./sierra.db
  sierra specialize ./program.cue -o signatures.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpecialize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to record specializations")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write signatures as JSON to this file")
	cmd.Flags().IntVar(&opts.Parallelism, "parallelism", 1, "number of libfuncs specialized concurrently")

	return cmd
}

func runSpecialize(opts *SpecializeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Parallelism < 1 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "--parallelism must be at least 1")
	}
	reg, err := LoadRegistry(path, registry.WithParallelism(opts.Parallelism))
	if err != nil {
		return failLoad(formatter, err)
	}

	result := SpecializeResult{ProgramHash: reg.Hash()}
	for _, entry := range reg.Signatures() {
		formatter.VerboseLog("Specialized %s as %s%s", entry.Declaration.ID,
			entry.Declaration.GenericID, ir.FormatArgs(entry.Declaration.Args))
		result.LibFuncs = append(result.LibFuncs, SpecializedLibFunc{
			ID:        entry.Declaration.ID,
			GenericID: entry.Declaration.GenericID,
			Args:      ir.FormatArgs(entry.Declaration.Args),
			Signature: entry.Signature,
		})
	}
	if result.LibFuncs == nil {
		result.LibFuncs = []SpecializedLibFunc{}
	}

	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to open database: %v", err))
		}
		defer st.Close()

		result.Recorded, err = st.WriteSpecializations(context.Background(), reg)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("failed to record specializations: %v", err))
		}
	}

	if opts.Output != "" {
		if err := writeSignaturesToFile(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputSpecializeSuccess(formatter, result, opts)
}

// outputSpecializeSuccess outputs the specialized signatures.
func outputSpecializeSuccess(formatter *OutputFormatter, result SpecializeResult, opts *SpecializeOptions) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Specialized %d libfunc(s)\n", len(result.LibFuncs))
	fmt.Fprintf(w, "Program: %s\n\n", result.ProgramHash)
	for _, lf := range result.LibFuncs {
		fmt.Fprintf(w, "  %s = %s%s\n", lf.ID, lf.GenericID, lf.Args)
		fmt.Fprintf(w, "      %s\n", FormatSignature(lf.Signature))
	}

	if opts.Database != "" {
		fmt.Fprintf(w, "\nRecorded %d new specialization(s) in %s\n", result.Recorded, opts.Database)
	}
	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote signatures to %s\n", opts.Output)
	}
	return nil
}

// FormatSignature renders a signature as "(in) -> [out0] | [out1]". The
// fallthrough branch, if any, is marked with a leading "*".
func FormatSignature(sig extensions.Signature) string {
	branches := make([]string, len(sig.OutputTypes))
	for i, out := range sig.OutputTypes {
		branches[i] = "[" + joinTypes(out) + "]"
		if sig.Fallthrough != nil && *sig.Fallthrough == i {
			branches[i] = "*" + branches[i]
		}
	}
	return fmt.Sprintf("(%s) -> %s", joinTypes(sig.InputTypes), strings.Join(branches, " | "))
}

func joinTypes(ids []ir.ConcreteTypeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

// writeSignaturesToFile writes the result as indented JSON.
func writeSignaturesToFile(result SpecializeResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling signatures: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
