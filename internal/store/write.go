package store

import (
	"context"
	"fmt"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/registry"
)

// WriteSpecializations records the concrete signature of every libfunc
// declared by the registered program, in declaration order. Returns the
// number of new rows; a program that was already recorded yields 0.
func (s *Store) WriteSpecializations(ctx context.Context, reg *registry.Registry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write specializations: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for i, entry := range reg.Signatures() {
		args, err := marshalArgs(entry.Declaration.Args)
		if err != nil {
			return 0, fmt.Errorf("write specialization %s: %w", entry.Declaration.ID, err)
		}
		sig, err := marshalSignature(entry.Signature)
		if err != nil {
			return 0, fmt.Errorf("write specialization %s: %w", entry.Declaration.ID, err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO specializations
			(program_hash, libfunc_id, generic_id, args, signature, seq, engine_version, ir_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(program_hash, libfunc_id) DO NOTHING
		`,
			reg.Hash(),
			string(entry.Declaration.ID),
			string(entry.Declaration.GenericID),
			args,
			sig,
			i,
			ir.EngineVersion,
			ir.IRVersion,
		)
		if err != nil {
			return 0, fmt.Errorf("write specialization %s: %w", entry.Declaration.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("write specialization %s: %w", entry.Declaration.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write specializations: %w", err)
	}
	return inserted, nil
}

// WriteRun records a run and its steps atomically. Returns false without
// touching the steps if the run token is already recorded.
func (s *Store) WriteRun(ctx context.Context, run *engine.RunResult) (bool, error) {
	inputs, err := marshalVars(run.Inputs)
	if err != nil {
		return false, fmt.Errorf("write run %s: %w", run.Token, err)
	}
	outputs, err := marshalVars(run.Outputs)
	if err != nil {
		return false, fmt.Errorf("write run %s: %w", run.Token, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write run %s: %w", run.Token, err)
	}
	defer tx.Rollback()

	// Runs are numbered in recording order.
	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, program_hash, function_id, inputs, outputs, error_code, error, seq, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.Token,
		run.ProgramHash,
		string(run.Function),
		inputs,
		outputs,
		string(run.ErrorCode),
		run.Error,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write run %s: %w", run.Token, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write run %s: %w", run.Token, err)
	}
	if n == 0 {
		return false, nil
	}

	for _, step := range run.Steps {
		stepInputs, err := marshalVars(step.Inputs)
		if err != nil {
			return false, fmt.Errorf("write run %s step %d: %w", run.Token, step.Seq, err)
		}
		stepOutputs, err := marshalVars(step.Outputs)
		if err != nil {
			return false, fmt.Errorf("write run %s step %d: %w", run.Token, step.Seq, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_steps
			(run_id, seq, statement_idx, libfunc_id, inputs, outputs, branch)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			run.Token,
			step.Seq,
			int(step.Statement),
			string(step.LibFunc),
			stepInputs,
			stepOutputs,
			step.Branch,
		)
		if err != nil {
			return false, fmt.Errorf("write run %s step %d: %w", run.Token, step.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("write run %s: %w", run.Token, err)
	}
	return true, nil
}

// RecordRun implements engine.TraceSink. A run token that is already
// recorded is ignored.
func (s *Store) RecordRun(ctx context.Context, run *engine.RunResult) error {
	_, err := s.WriteRun(ctx, run)
	return err
}
