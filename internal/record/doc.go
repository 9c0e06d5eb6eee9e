// Package record defines the Event Record, the atomic append-only unit of
// change, and its content-addressed identity.
//
// Every user-facing operation is persisted as one or more records appended
// to the acting author's log. Records are immutable once written: logs are
// never rewritten or reordered in place, so merging two authors' files is a
// set union.
//
// # Identity
//
// A record's ID is a SHA-256 hash with domain separation over the RFC 8785
// canonical JSON of (change_id, op, author, seq). Two resynchronized copies
// of the same record therefore carry the same ID and deduplicate during
// replay.
//
// # Composite bursts
//
// Records belonging to one composite operation (pivot) share a transaction
// marker and a declared burst size. The rebuilder applies such a burst only
// when every member is present; a truncated trailing burst is withheld, not
// partially applied.
package record
