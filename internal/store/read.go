package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/extensions"
	"github.com/roach88/sierra/internal/ir"
)

// ErrRunNotFound is returned by ReadRun for an unknown run token.
var ErrRunNotFound = errors.New("run not found")

// SpecializationRecord is one row of the specializations table.
type SpecializationRecord struct {
	ProgramHash string
	LibFuncID   ir.ConcreteLibFuncID
	GenericID   ir.GenericLibFuncID
	Args        []ir.GenericArg
	Signature   extensions.Signature
	Seq         int64
}

// RunSummary describes a recorded run without its steps.
type RunSummary struct {
	Token       string
	ProgramHash string
	Function    ir.FunctionID
	ErrorCode   engine.RuntimeErrorCode
	Seq         int64
	Steps       int
}

// ReadSpecializations returns the recorded specializations of a program in
// declaration order. Returns an empty slice (not nil) if none exist.
func (s *Store) ReadSpecializations(ctx context.Context, programHash string) ([]SpecializationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT program_hash, libfunc_id, generic_id, args, signature, seq
		FROM specializations
		WHERE program_hash = ?
		ORDER BY seq ASC, libfunc_id COLLATE BINARY ASC
	`, programHash)
	if err != nil {
		return nil, fmt.Errorf("query specializations: %w", err)
	}
	defer rows.Close()

	records := []SpecializationRecord{}
	for rows.Next() {
		var (
			rec               SpecializationRecord
			libfunc, generic  string
			argsJSON, sigJSON string
		)
		if err := rows.Scan(&rec.ProgramHash, &libfunc, &generic, &argsJSON, &sigJSON, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan specialization: %w", err)
		}
		rec.LibFuncID = ir.ConcreteLibFuncID(libfunc)
		rec.GenericID = ir.GenericLibFuncID(generic)
		if rec.Args, err = unmarshalArgs(argsJSON); err != nil {
			return nil, fmt.Errorf("specialization %s: %w", libfunc, err)
		}
		if rec.Signature, err = unmarshalSignature(sigJSON); err != nil {
			return nil, fmt.Errorf("specialization %s: %w", libfunc, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate specializations: %w", err)
	}
	return records, nil
}

// ReadRun returns a recorded run with its steps ordered by seq.
func (s *Store) ReadRun(ctx context.Context, token string) (*engine.RunResult, error) {
	var (
		run                     engine.RunResult
		function, errorCode     string
		inputsJSON, outputsJSON string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, program_hash, function_id, inputs, outputs, error_code, error
		FROM runs
		WHERE id = ?
	`, token).Scan(&run.Token, &run.ProgramHash, &function, &inputsJSON, &outputsJSON, &errorCode, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, token)
	}
	if err != nil {
		return nil, fmt.Errorf("query run %s: %w", token, err)
	}
	run.Function = ir.FunctionID(function)
	run.ErrorCode = engine.RuntimeErrorCode(errorCode)
	if run.Inputs, err = unmarshalVars(inputsJSON); err != nil {
		return nil, fmt.Errorf("run %s inputs: %w", token, err)
	}
	if run.Outputs, err = unmarshalVars(outputsJSON); err != nil {
		return nil, fmt.Errorf("run %s outputs: %w", token, err)
	}

	steps, err := s.readSteps(ctx, token)
	if err != nil {
		return nil, err
	}
	run.Steps = steps
	return &run, nil
}

func (s *Store) readSteps(ctx context.Context, token string) ([]engine.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, statement_idx, libfunc_id, inputs, outputs, branch
		FROM run_steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query steps of %s: %w", token, err)
	}
	defer rows.Close()

	steps := []engine.Step{}
	for rows.Next() {
		var (
			step                    engine.Step
			stmt                    int
			libfunc                 string
			inputsJSON, outputsJSON string
		)
		if err := rows.Scan(&step.Seq, &stmt, &libfunc, &inputsJSON, &outputsJSON, &step.Branch); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Statement = ir.StatementIdx(stmt)
		step.LibFunc = ir.ConcreteLibFuncID(libfunc)
		if step.Inputs, err = unmarshalVars(inputsJSON); err != nil {
			return nil, fmt.Errorf("step %d inputs: %w", step.Seq, err)
		}
		if step.Outputs, err = unmarshalVars(outputsJSON); err != nil {
			return nil, fmt.Errorf("step %d outputs: %w", step.Seq, err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// ListRuns returns the recorded runs in recording order. An empty
// programHash lists the runs of every program.
func (s *Store) ListRuns(ctx context.Context, programHash string) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.program_hash, r.function_id, r.error_code, r.seq,
		       (SELECT COUNT(*) FROM run_steps st WHERE st.run_id = r.id)
		FROM runs r
		WHERE ? = '' OR r.program_hash = ?
		ORDER BY r.seq ASC, r.id COLLATE BINARY ASC
	`, programHash, programHash)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			sum                 RunSummary
			function, errorCode string
		)
		if err := rows.Scan(&sum.Token, &sum.ProgramHash, &function, &errorCode, &sum.Seq, &sum.Steps); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.Function = ir.FunctionID(function)
		sum.ErrorCode = engine.RuntimeErrorCode(errorCode)
		runs = append(runs, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LastStepSeq returns the highest recorded step seq, or 0 for an empty
// store. An engine clock created with engine.NewClockAt(LastStepSeq) keeps
// step numbers increasing across processes.
func (s *Store) LastStepSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM run_steps`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq, nil
}
