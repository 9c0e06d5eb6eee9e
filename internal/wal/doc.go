// Package wal persists author logs: one append-only, line-delimited JSON
// file per contributor.
//
// Each process owns exactly one author log for writes and treats every
// other log as read-only foreign input. Records are never rewritten or
// reordered in place, so an external file-synchronization mechanism (a
// version-control merge, typically) can distribute and merge logs as a
// line-level set union.
//
// A malformed line is never fatal: the scanner skips it, reports it, and
// keeps going, so one corrupt line in one author's log cannot block anyone
// else's state from being reconstructed.
package wal
