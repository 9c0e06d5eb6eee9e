// Package command validates user-facing operations and emits the event
// records they persist as.
//
// Commands never mutate the graph directly: each one validates its input
// against the local materialized graph, then returns sealed records for the
// caller to append to the acting author's log. Validation failures reject
// the command before any record exists, so there is no partial state to
// clean up.
//
// The two composite operations, pivot and supersede, emit bursts of
// primitive records sharing a transaction marker; the rebuilder applies
// such a burst all-or-nothing.
package command
