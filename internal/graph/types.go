package graph

import "time"

// Kind classifies a node within the decision story.
type Kind string

const (
	KindGoal        Kind = "goal"
	KindDecision    Kind = "decision"
	KindOption      Kind = "option"
	KindObservation Kind = "observation"
	KindAction      Kind = "action"
	KindOutcome     Kind = "outcome"
	KindRevisit     Kind = "revisit"
)

// Kinds lists every valid node kind.
var Kinds = []Kind{
	KindGoal, KindDecision, KindOption, KindObservation,
	KindAction, KindOutcome, KindRevisit,
}

// ValidKind reports whether k is a recognized node kind.
func ValidKind(k Kind) bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of a node.
//
// Transitions are monotone only by convention (active → rejected,
// active → superseded). The engine does not enforce a transition table:
// any status may overwrite any other, last writer wins under the replay
// total order.
type Status string

const (
	StatusActive     Status = "active"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
	StatusSuperseded Status = "superseded"
)

// Statuses lists every valid node status.
var Statuses = []Status{StatusActive, StatusRejected, StatusCompleted, StatusSuperseded}

// ValidStatus reports whether s is a recognized status.
func ValidStatus(s Status) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// EdgeType names the relation an edge carries. The four well-known values
// below drive pulse and pivot-chain traversal; any other non-empty value is
// accepted as a free-form relation.
type EdgeType string

const (
	EdgeLeadsTo          EdgeType = "leads_to"
	EdgeChosen           EdgeType = "chosen"
	EdgeRejected         EdgeType = "rejected"
	EdgePossibleApproach EdgeType = "possible_approach"
)

// Node is one element of the decision story.
type Node struct {
	ChangeID    string    `json:"change_id"`
	LocalID     int       `json:"local_id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Confidence  int       `json:"confidence"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Author      string    `json:"author"`

	// Optional provenance.
	CommitRef string   `json:"commit_ref,omitempty"`
	Files     []string `json:"files,omitempty"`

	// Deleted marks a tombstoned node: retained for ChangeID resolution,
	// hidden from queries.
	Deleted bool `json:"deleted,omitempty"`

	// StatusWrite is the total-order position of the record that last set
	// Status. A replay resumed on top of a checkpoint compares against it,
	// so a late-syncing status with an earlier logical timestamp cannot
	// overwrite one the checkpoint already folded in.
	StatusWrite WriteKey `json:"-"`
}

// Edge is a typed, directional relation between two nodes' stable
// identities. From and To are ChangeIDs, never LocalIDs; this is what lets
// an edge be authored before its target is locally known.
type Edge struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Type      EdgeType  `json:"edge_type"`
	Rationale string    `json:"rationale,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author"`
	Deleted   bool      `json:"deleted,omitempty"`

	// LastWrite is the total-order position of the record that last
	// created or tombstoned this edge.
	LastWrite WriteKey `json:"-"`
}

// Key returns the identity of the edge within a graph. One edge may exist
// per (from, to, type) triple; unlink tombstones every type between a pair.
func (e Edge) Key() EdgeKey {
	return EdgeKey{From: e.From, To: e.To, Type: e.Type}
}

// WriteKey is the position of a record in the replay total order:
// logical timestamp, then author, then per-author sequence. Mutations
// carry it so that a write folded into a checkpoint stays comparable
// against records that sync in afterwards.
type WriteKey struct {
	At     time.Time
	Author string
	Seq    int64
}

// Before reports whether k precedes o in the total order.
func (k WriteKey) Before(o WriteKey) bool {
	if !k.At.Equal(o.At) {
		return k.At.Before(o.At)
	}
	if k.Author != o.Author {
		return k.Author < o.Author
	}
	return k.Seq < o.Seq
}

// IsZero reports whether k carries no ordering information.
func (k WriteKey) IsZero() bool {
	return k.At.IsZero() && k.Author == "" && k.Seq == 0
}

// EdgeKey identifies an edge by endpoints and relation.
type EdgeKey struct {
	From string
	To   string
	Type EdgeType
}
