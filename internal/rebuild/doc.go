// Package rebuild turns a set of author logs plus the last checkpoint into
// a materialized graph.
//
// Rebuild is a pure function of the event set: the result does not depend
// on the physical order in which logs were discovered or concatenated, and
// running it twice on the same inputs yields an identical graph.
//
// # Ordering (the merge core)
//
// A deterministic total order is established across authors by the tuple
// (logical_timestamp, author, per-author sequence). Logical timestamp first,
// so explicitly backdated events sort by their stated date rather than
// ingestion time; author identifier breaks ties; sequence breaks ties within
// one author. Status changes and tombstones are last-writer-wins under this
// order, not under wall-clock arrival order.
//
// # Containment
//
// Per-record problems never abort a rebuild. Malformed lines are skipped,
// out-of-order sequence numbers are reported and the valid remainder is
// used, edges whose endpoints are unknown become pending edges retried on
// every future rebuild, and an incomplete composite burst is withheld
// whole rather than applied partially.
package rebuild
