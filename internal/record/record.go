package record

import (
	"time"

	"github.com/cairn-dev/cairn/internal/graph"
)

// Op identifies the operation a record carries.
type Op string

const (
	OpCreateNode Op = "create_node"
	OpCreateEdge Op = "create_edge"
	OpSetStatus  Op = "set_status"
	OpDeleteNode Op = "delete_node"
	OpDeleteEdge Op = "delete_edge"
)

// Ops lists every valid operation.
var Ops = []Op{OpCreateNode, OpCreateEdge, OpSetStatus, OpDeleteNode, OpDeleteEdge}

// ValidOp reports whether op is a recognized operation.
func ValidOp(op Op) bool {
	for _, known := range Ops {
		if op == known {
			return true
		}
	}
	return false
}

// Record is one line of an author log.
//
// ChangeID is the target identity: the created node for create_node, the
// affected node for set_status/delete_node, and a fresh identity for edge
// records (edges are addressed by their endpoints, carried in the payload).
//
// Seq is the author's monotonic per-log sequence number. Timestamp is the
// logical timestamp, which may be explicitly backdated for historical
// reconstruction; replay orders by (Timestamp, Author, Seq).
type Record struct {
	RecordID  string    `json:"record_id"`
	ChangeID  string    `json:"change_id"`
	Author    string    `json:"author"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"logical_timestamp"`
	Op        Op        `json:"op"`

	// Txn and TxnSize tag the members of a composite burst. Zero values
	// mean the record stands alone.
	Txn     string `json:"txn,omitempty"`
	TxnSize int    `json:"txn_size,omitempty"`

	Node   *NodePayload   `json:"node,omitempty"`
	Edge   *EdgePayload   `json:"edge,omitempty"`
	Status *StatusPayload `json:"status,omitempty"`
}

// NodePayload is the body of a create_node record.
type NodePayload struct {
	Kind        graph.Kind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Confidence  int        `json:"confidence"`
	CommitRef   string     `json:"commit_ref,omitempty"`
	Files       []string   `json:"files,omitempty"`
}

// EdgePayload is the body of a create_edge or delete_edge record. For
// delete_edge only From and To are meaningful: unlink tombstones every
// relation between the pair.
type EdgePayload struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Type      graph.EdgeType `json:"edge_type,omitempty"`
	Rationale string         `json:"rationale,omitempty"`
}

// StatusPayload is the body of a set_status record.
type StatusPayload struct {
	Status graph.Status `json:"status"`
}

// Seal computes and sets the record's content-addressed ID. Must be called
// after every identity field (ChangeID, Op, Author, Seq) is final.
func (r *Record) Seal() error {
	id, err := ID(r.ChangeID, r.Op, r.Author, r.Seq)
	if err != nil {
		return err
	}
	r.RecordID = id
	return nil
}
