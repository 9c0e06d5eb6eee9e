// Package snapshot provides the SQLite-backed checkpoint store: a complete
// table of current nodes and edges plus per-author cursor positions, used
// as the rebuilder's starting state.
//
// The snapshot is a full node/edge table, not a log fragment: it preserves
// every change ID ever materialized (tombstones included) and its current
// field values, so future edges referencing a compacted-away creation
// record still resolve.
//
// # Critical patterns
//
//   - All ordering uses local_id / (created_at, author) — replay order,
//     never snapshot-file iteration order.
//   - Reads ORDER BY ... COLLATE BINARY for deterministic results.
//   - Snapshot replacement goes through a temp file and rename, so a
//     crashed checkpoint leaves the previous snapshot intact. Log
//     truncation is only ever performed after the snapshot write is
//     durable, never before.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON
package snapshot
