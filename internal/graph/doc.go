// Package graph defines the materialized decision graph: typed nodes and
// edges keyed by stable change IDs, plus the pending-edge set.
//
// The graph is the query target for every read command. It is produced only
// by the rebuilder (package rebuild), exactly once per rebuild invocation,
// and is read-only afterwards. Nothing in this package performs I/O.
//
// # Identity
//
//   - ChangeID: globally unique, assigned at creation, immutable. The only
//     identifier other nodes and edges may reference.
//   - LocalID: a per-installation sequential number assigned at
//     materialization time. Not stable across observers of the same history
//     and never used as a cross-author reference.
//
// # Closed variants
//
// Kind, Status and the well-known EdgeType values are closed sets validated
// at the command boundary, so replay and queries can switch exhaustively.
// EdgeType additionally admits free-form relation names.
//
// Deletion is a tombstone: a deleted node or edge stays in the graph so
// its ChangeID keeps resolving, but is hidden from every query view.
package graph
