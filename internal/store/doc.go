// Package store provides SQLite-backed durable storage for runs and
// specializations.
//
// The store is an append-only log of three kinds of records:
//   - Specializations: the concrete signature of every libfunc declaration,
//     keyed by (program_hash, libfunc_id)
//   - Runs: one row per run token with its function, inputs, outputs and
//     error code
//   - Run steps: one row per executed invocation, keyed by (run_id, seq)
//
// # Ordering
//
// All ordering uses seq INTEGER from the engine's logical clock, never
// timestamps. Every query that returns more than one row orders by seq and
// breaks ties on the id with COLLATE BINARY, so reads are identical across
// processes and replays.
//
// # Idempotency
//
// Writes use ON CONFLICT DO NOTHING. Recording the same run token twice
// keeps the first recording; recording the specializations of a program
// twice is a no-op.
//
// # Encoding
//
// Argument lists, signatures and cell values are stored as RFC 8785
// canonical JSON TEXT. Cells are decimal strings.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks instead of failing
//   - foreign_keys=ON: run_steps must reference a run
//   - user_version: schema migrations
package store
