// Package store provides the SQLite run log for verdict runs.
//
// The log is append-only:
//   - Runs: one row per runner invocation, with pass/fail counts
//   - Outcomes: one row per executed test case, holding its Outcome
//   - Assertions: every AssertionRecord the case made
//
// # Identity and ordering
//
// Run ids are UUIDv7. Outcome ids are content-addressed with
// ir.OutcomeID over (run id, seq, case name), so rewriting an outcome is a
// no-op (ON CONFLICT DO NOTHING). All ordering uses seq columns; wall-clock
// columns are informational only. Queries order by seq, then by id
// with COLLATE BINARY, so results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The harness itself persists nothing; only the runner writes here.
package store
