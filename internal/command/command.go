package command

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/record"
)

// DefaultConfidence is used when add does not specify one.
const DefaultConfidence = 50

// Commander validates operations against the local materialized graph and
// emits sealed event records. One Commander acts for one author within one
// process invocation.
type Commander struct {
	graph   *graph.Graph
	author  string
	nextSeq int64
	now     func() time.Time

	validate *validator.Validate
}

// New returns a Commander for the given author. nextSeq is the author's
// next unused log sequence number.
func New(g *graph.Graph, author string, nextSeq int64) *Commander {
	if g == nil {
		g = graph.New()
	}
	return &Commander{
		graph:    g,
		author:   author,
		nextSeq:  nextSeq,
		now:      time.Now,
		validate: validator.New(),
	}
}

// WithClock overrides the wall clock, for tests.
func (c *Commander) WithClock(now func() time.Time) *Commander {
	c.now = now
	return c
}

// NextSeq returns the next unallocated sequence number.
func (c *Commander) NextSeq() int64 {
	return c.nextSeq
}

func (c *Commander) seq() int64 {
	s := c.nextSeq
	c.nextSeq++
	return s
}

// timestamp returns the logical timestamp for a record: the explicit
// backdate when given, the wall clock otherwise.
func (c *Commander) timestamp(date time.Time) time.Time {
	if !date.IsZero() {
		return date.UTC()
	}
	return c.now().UTC()
}

// AddParams are the inputs to Add.
type AddParams struct {
	Kind        string `validate:"required"`
	Title       string `validate:"required"`
	Description string
	// Confidence is 0–100; nil means DefaultConfidence.
	Confidence *int `validate:"omitempty,min=0,max=100"`
	// Date backdates the node for historical reconstruction.
	Date      time.Time
	CommitRef string
	Files     []string
}

// Add emits a create_node record with a fresh change ID.
func (c *Commander) Add(p AddParams) (record.Record, error) {
	if err := c.checkStruct(p); err != nil {
		return record.Record{}, err
	}
	kind := graph.Kind(p.Kind)
	if !graph.ValidKind(kind) {
		return record.Record{}, &ValidationError{Field: "kind", Message: "unknown kind " + p.Kind}
	}

	confidence := DefaultConfidence
	if p.Confidence != nil {
		confidence = *p.Confidence
	}

	rec := record.Record{
		ChangeID:  uuid.NewString(),
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: c.timestamp(p.Date),
		Op:        record.OpCreateNode,
		Node: &record.NodePayload{
			Kind:        kind,
			Title:       p.Title,
			Description: p.Description,
			Confidence:  confidence,
			CommitRef:   p.CommitRef,
			Files:       p.Files,
		},
	}
	if err := rec.Seal(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

// LinkParams are the inputs to Link.
type LinkParams struct {
	From      string `validate:"required"`
	To        string `validate:"required"`
	Type      string
	Rationale string
	Date      time.Time
}

// Link emits a create_edge record. It succeeds even when from or to do not
// resolve locally yet; the rebuilder records such an edge as pending until
// the endpoint's creation record arrives.
func (c *Commander) Link(p LinkParams) (record.Record, error) {
	if err := c.checkStruct(p); err != nil {
		return record.Record{}, err
	}
	edgeType := graph.EdgeType(p.Type)
	if edgeType == "" {
		edgeType = graph.EdgeLeadsTo
	}

	rec := record.Record{
		ChangeID:  uuid.NewString(),
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: c.timestamp(p.Date),
		Op:        record.OpCreateEdge,
		Edge: &record.EdgePayload{
			From:      p.From,
			To:        p.To,
			Type:      edgeType,
			Rationale: p.Rationale,
		},
	}
	if err := rec.Seal(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

// SetStatus emits a set_status record. The target must be known in the
// local materialized graph.
func (c *Commander) SetStatus(changeID string, status string) (record.Record, error) {
	s := graph.Status(status)
	if !graph.ValidStatus(s) {
		return record.Record{}, &ValidationError{Field: "status", Message: "unknown status " + status}
	}
	if _, ok := c.graph.Node(changeID); !ok {
		return record.Record{}, &NotFoundError{ChangeID: changeID}
	}
	return c.statusRecord(changeID, s, "", 0)
}

// Delete emits a tombstone record for a node. History is never erased: the
// node becomes inert and disappears from query results, but its creation
// record and change ID remain.
func (c *Commander) Delete(changeID string) (record.Record, error) {
	if _, ok := c.graph.Node(changeID); !ok {
		return record.Record{}, &NotFoundError{ChangeID: changeID}
	}
	rec := record.Record{
		ChangeID:  changeID,
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: c.timestamp(time.Time{}),
		Op:        record.OpDeleteNode,
	}
	if err := rec.Seal(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

// Unlink emits a tombstone record covering every edge between from and to.
func (c *Commander) Unlink(from, to string) (record.Record, error) {
	if !c.hasEdgeBetween(from, to) {
		return record.Record{}, &NotFoundError{ChangeID: from + " -> " + to}
	}
	rec := record.Record{
		ChangeID:  uuid.NewString(),
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: c.timestamp(time.Time{}),
		Op:        record.OpDeleteEdge,
		Edge:      &record.EdgePayload{From: from, To: to},
	}
	if err := rec.Seal(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

func (c *Commander) hasEdgeBetween(from, to string) bool {
	for _, e := range c.graph.Outgoing(from) {
		if e.To == to {
			return true
		}
	}
	for _, e := range c.graph.Pending() {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

func (c *Commander) statusRecord(changeID string, s graph.Status, txn string, txnSize int) (record.Record, error) {
	rec := record.Record{
		ChangeID:  changeID,
		Author:    c.author,
		Seq:       c.seq(),
		Timestamp: c.timestamp(time.Time{}),
		Op:        record.OpSetStatus,
		Txn:       txn,
		TxnSize:   txnSize,
		Status:    &record.StatusPayload{Status: s},
	}
	if err := rec.Seal(); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

// checkStruct runs validator tags and converts the first failure into a
// ValidationError.
func (c *Commander) checkStruct(p any) error {
	err := c.validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if ok := asValidationErrors(err, &fieldErrs); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: "failed " + fe.Tag() + " constraint"}
	}
	return &ValidationError{Message: err.Error()}
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}
