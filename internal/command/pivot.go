package command

import (
	"time"

	"github.com/google/uuid"

	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/record"
)

// pivotBurstSize is the number of records a pivot emits: three nodes,
// three edges, one status change.
const pivotBurstSize = 7

// PivotParams are the inputs to Pivot.
type PivotParams struct {
	From        string `validate:"required"`
	Observation string `validate:"required"`
	Approach    string `validate:"required"`
	// Kind of the new-approach node: decision (default) or option.
	Kind string
	Date time.Time
}

// Pivot records that a prior approach was reconsidered and replaced. It
// emits, as one burst sharing a transaction marker:
//
//	observation, revisit and new-approach nodes;
//	edges from -> observation -> revisit -> new approach;
//	a superseded status on the pivoted-from node.
//
// All records carry the same logical timestamp and consecutive sequence
// numbers, written to the author's log in one uninterrupted append. A
// replayer that sees fewer than all seven treats the pivot as not yet
// applied.
func (c *Commander) Pivot(p PivotParams) ([]record.Record, error) {
	if err := c.checkStruct(p); err != nil {
		return nil, err
	}
	newKind := graph.KindDecision
	switch p.Kind {
	case "", string(graph.KindDecision):
	case string(graph.KindOption):
		newKind = graph.KindOption
	default:
		return nil, &ValidationError{Field: "kind", Message: "pivot target must be decision or option, got " + p.Kind}
	}
	if _, ok := c.graph.Node(p.From); !ok {
		return nil, &NotFoundError{ChangeID: p.From}
	}

	txn := uuid.NewString()
	ts := c.timestamp(p.Date)

	obsID := uuid.NewString()
	revID := uuid.NewString()
	newID := uuid.NewString()

	recs := []record.Record{
		c.burstNode(obsID, graph.KindObservation, p.Observation, ts, txn),
		c.burstNode(revID, graph.KindRevisit, "Revisit: "+p.Observation, ts, txn),
		c.burstNode(newID, newKind, p.Approach, ts, txn),
		c.burstEdge(p.From, obsID, ts, txn),
		c.burstEdge(obsID, revID, ts, txn),
		c.burstEdge(revID, newID, ts, txn),
	}

	status := record.Record{
		ChangeID:  p.From,
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: ts,
		Op:        record.OpSetStatus,
		Txn:       txn,
		TxnSize:   pivotBurstSize,
		Status:    &record.StatusPayload{Status: graph.StatusSuperseded},
	}
	recs = append(recs, status)

	for i := range recs {
		if err := recs[i].Seal(); err != nil {
			return nil, err
		}
	}
	return recs, nil
}

func (c *Commander) burstNode(changeID string, kind graph.Kind, title string, ts time.Time, txn string) record.Record {
	return record.Record{
		ChangeID:  changeID,
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: ts,
		Op:        record.OpCreateNode,
		Txn:       txn,
		TxnSize:   pivotBurstSize,
		Node: &record.NodePayload{
			Kind:       kind,
			Title:      title,
			Confidence: DefaultConfidence,
		},
	}
}

func (c *Commander) burstEdge(from, to string, ts time.Time, txn string) record.Record {
	return record.Record{
		ChangeID:  uuid.NewString(),
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: ts,
		Op:        record.OpCreateEdge,
		Txn:       txn,
		TxnSize:   pivotBurstSize,
		Edge: &record.EdgePayload{
			From: from,
			To:   to,
			Type: graph.EdgeLeadsTo,
		},
	}
}

// Supersede marks a node superseded. With cascade, every node reachable via
// outgoing edges of the currently materialized graph is marked too; the
// traversal tolerates cycles and reads a stable graph, not a live view.
func (c *Commander) Supersede(changeID string, cascade bool) ([]record.Record, error) {
	if _, ok := c.graph.Node(changeID); !ok {
		return nil, &NotFoundError{ChangeID: changeID}
	}

	targets := []string{changeID}
	if cascade {
		visited := map[string]bool{changeID: true}
		stack := []string{changeID}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range c.graph.Outgoing(id) {
				if visited[e.To] {
					continue
				}
				visited[e.To] = true
				if n, ok := c.graph.Node(e.To); ok && n.Status != graph.StatusSuperseded {
					targets = append(targets, e.To)
				}
				stack = append(stack, e.To)
			}
		}
	}

	txn, txnSize := "", 0
	if len(targets) > 1 {
		txn = uuid.NewString()
		txnSize = len(targets)
	}
	recs := make([]record.Record, 0, len(targets))
	for _, id := range targets {
		rec, err := c.statusRecord(id, graph.StatusSuperseded, txn, txnSize)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
