// Package store provides the SQLite-backed run journal.
//
// Every scenario run gets a row in runs, and every tester a row in
// outcomes. Runs are identified by UUIDv7 and ordered by a monotonic seq
// column; outcomes are ordered by their per-run seq. Queries never order
// by timestamp.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
