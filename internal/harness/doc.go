// Package harness drives multi-author scenarios end to end for tests: it
// owns a temporary workspace, a deterministic clock, and one log per
// author, and runs commands, rebuilds, and checkpoints against them.
//
// Golden assertions normalize change IDs (random UUIDs) to stable
// local-order tokens before comparison, so golden files stay byte-stable
// across runs.
package harness
