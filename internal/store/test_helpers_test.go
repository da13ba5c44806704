package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/roach88/sierra/internal/engine"
	"github.com/roach88/sierra/internal/ir"
	"github.com/roach88/sierra/internal/registry"
	"github.com/roach88/sierra/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// coreEngine returns an engine over testutil.CoreProgram that records into s
// with deterministic tokens and seq numbers.
func coreEngine(t *testing.T, s *Store, tokens ...string) *engine.Engine {
	t.Helper()
	reg, err := registry.New(testutil.CoreProgram())
	if err != nil {
		t.Fatalf("registry.New() failed: %v", err)
	}
	return engine.New(reg,
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithRunTokenGenerator(engine.NewFixedGenerator(tokens...)),
		engine.WithTraceSink(s),
	)
}

func runOrFatal(t *testing.T, e *engine.Engine, fn string, values ...int64) *engine.RunResult {
	t.Helper()
	res, err := e.Run(context.Background(), ir.FunctionID(fn), testutil.SingleCells(values...))
	if err != nil {
		t.Fatalf("Run(%s) failed: %v", fn, err)
	}
	return res
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid         int
			name, ctype string
			notnull, pk int
			dfltValue   any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
