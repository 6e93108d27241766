// Package store provides SQLite-backed durable storage for ledger journals.
//
// A session is one run of a registry. The store records:
//   - Sessions: one row per run, with the hash of the registry catalog
//   - Catalogs: canonical JSON snapshots, content-addressed by hash
//   - Ledger events: every ownership transition observed during the run
//
// # Ordering
//
// Events are ordered by seq, the registry's logical clock, never by wall
// time. Every query that returns events uses ORDER BY seq ASC, id ASC so
// results are identical across reads.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
