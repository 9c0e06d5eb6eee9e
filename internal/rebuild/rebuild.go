package rebuild

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/record"
	"github.com/cairn-dev/cairn/internal/wal"
)

// Options configures a rebuild pass.
type Options struct {
	// Logger receives structured diagnostics. Nil means no logging.
	Logger *zap.Logger
}

// Result is the output of one rebuild pass.
type Result struct {
	// Graph is the materialized store, built in a fresh workspace. The
	// caller swaps it in only on full success.
	Graph *graph.Graph

	// Cursors maps each author to the highest contiguously applied
	// sequence number, the position a checkpoint may truncate to.
	// A withheld burst or a sequence gap stops the cursor short of it.
	Cursors map[string]int64

	Diags []Diagnostic

	// Applied counts records that mutated the graph. Deduplicated counts
	// records whose effect was already present (replayed copies).
	// Withheld counts records held back in incomplete bursts.
	Applied      int
	Deduplicated int
	Withheld     int
}

// sourced is a collected record with its provenance and disposition.
type sourced struct {
	rec      record.Record
	path     string
	withheld bool
}

// Rebuild replays every author log on top of the checkpoint graph and
// returns the materialized result.
//
// base is the checkpoint snapshot graph (nil for none) and cursors the
// per-author checkpoint positions; only records with a sequence after the
// author's cursor are collected. base is never mutated.
func Rebuild(base *graph.Graph, cursors map[string]int64, logs []wal.AuthorLog, opts Options) *Result {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	res := &Result{Cursors: make(map[string]int64, len(cursors))}
	for author, seq := range cursors {
		res.Cursors[author] = seq
	}

	if base == nil {
		res.Graph = graph.New()
	} else {
		res.Graph = base.Clone()
	}

	collected := collect(logs, cursors, res)
	withholdIncompleteBursts(collected, res)
	advanceCursors(collected, res)

	// Deterministic total order across authors:
	// (logical_timestamp, author, per-author sequence).
	sort.Slice(collected, func(i, j int) bool {
		return totalOrderLess(collected[i].rec, collected[j].rec)
	})

	for _, src := range collected {
		if src.withheld {
			res.Withheld++
			continue
		}
		apply(res, src)
	}

	// Newly created nodes may satisfy previously pending edges; resolve to
	// a fixed point.
	res.Graph.ResolvePending()

	for _, e := range res.Graph.Pending() {
		res.diag(logger, Diagnostic{
			Kind:    DiagDanglingReference,
			Author:  e.Author,
			Message: fmt.Sprintf("edge %s -> %s (%s) still pending: endpoint unknown", e.From, e.To, e.Type),
		})
	}

	logger.Debug("rebuild complete",
		zap.Int("applied", res.Applied),
		zap.Int("deduplicated", res.Deduplicated),
		zap.Int("withheld", res.Withheld),
		zap.Int("nodes", res.Graph.Len()),
		zap.Int("pending_edges", len(res.Graph.Pending())),
		zap.Int("diagnostics", len(res.Diags)))

	return res
}

// totalOrderLess implements the replay total order. RecordID is a final
// fallback so the order is total even over pathological inputs.
func totalOrderLess(a, b record.Record) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	if a.Author != b.Author {
		return a.Author < b.Author
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.RecordID < b.RecordID
}

// collect gathers post-cursor records from every log, deduplicating by
// record identity and containing per-line and per-sequence problems.
func collect(logs []wal.AuthorLog, cursors map[string]int64, res *Result) []*sourced {
	var out []*sourced
	seen := make(map[string]bool)

	for _, log := range logs {
		for _, m := range log.Malformed {
			res.Diags = append(res.Diags, Diagnostic{
				Kind:    DiagMalformedRecord,
				Path:    m.Path,
				Line:    m.Line,
				Message: m.Err.Error(),
			})
		}

		// A record's sequence must be strictly increasing within one
		// author's stream. Track per author: a log may also carry
		// resynchronized copies of foreign records.
		lastSeq := make(map[string]int64)
		for _, rec := range log.Records {
			if prev, ok := lastSeq[rec.Author]; ok && rec.Seq <= prev {
				res.Diags = append(res.Diags, Diagnostic{
					Kind:    DiagOrderingAnomaly,
					Author:  rec.Author,
					Path:    log.Path,
					Seq:     rec.Seq,
					Message: fmt.Sprintf("sequence %d observed after %d", rec.Seq, prev),
				})
				continue
			}
			lastSeq[rec.Author] = rec.Seq

			if rec.Seq <= cursors[rec.Author] {
				continue // already folded into the checkpoint
			}
			if seen[rec.RecordID] {
				continue // resynchronized copy
			}
			seen[rec.RecordID] = true
			out = append(out, &sourced{rec: rec, path: log.Path})
		}
	}
	return out
}

// withholdIncompleteBursts marks every member of a composite burst whose
// observed member count is short of its declared size. An incomplete
// trailing burst (log truncated mid-write) is thereby not-yet-applied
// rather than partially applied.
func withholdIncompleteBursts(collected []*sourced, res *Result) {
	groups := make(map[string][]*sourced)
	for _, src := range collected {
		if src.rec.Txn != "" {
			groups[src.rec.Txn] = append(groups[src.rec.Txn], src)
		}
	}
	for txn, members := range groups {
		declared := 0
		for _, m := range members {
			if m.rec.TxnSize > declared {
				declared = m.rec.TxnSize
			}
		}
		if declared == 0 || len(members) >= declared {
			continue
		}
		for _, m := range members {
			m.withheld = true
		}
		res.Diags = append(res.Diags, Diagnostic{
			Kind:    DiagIncompleteBurst,
			Author:  members[0].rec.Author,
			Message: fmt.Sprintf("burst %s has %d of %d records; withheld", txn, len(members), declared),
		})
	}
}

// advanceCursors moves each author's cursor through contiguously applied
// sequence numbers. It stops before a withheld record, and before a gap:
// either may be filled by a later sync, and a checkpoint must not truncate
// past it.
func advanceCursors(collected []*sourced, res *Result) {
	perAuthor := make(map[string][]*sourced)
	for _, src := range collected {
		perAuthor[src.rec.Author] = append(perAuthor[src.rec.Author], src)
	}
	for author, srcs := range perAuthor {
		sort.Slice(srcs, func(i, j int) bool { return srcs[i].rec.Seq < srcs[j].rec.Seq })
		cursor := res.Cursors[author]
		for _, src := range srcs {
			if src.withheld {
				break
			}
			if src.rec.Seq != cursor+1 {
				res.Diags = append(res.Diags, Diagnostic{
					Kind:    DiagOrderingAnomaly,
					Author:  author,
					Seq:     src.rec.Seq,
					Message: fmt.Sprintf("sequence gap: %d follows %d", src.rec.Seq, cursor),
				})
				break
			}
			cursor = src.rec.Seq
		}
		res.Cursors[author] = cursor
	}
}

// apply replays one record against the graph.
func apply(res *Result, src *sourced) {
	rec := src.rec
	g := res.Graph
	key := graph.WriteKey{At: rec.Timestamp, Author: rec.Author, Seq: rec.Seq}

	switch rec.Op {
	case record.OpCreateNode:
		if rec.Node == nil {
			res.malformedPayload(src, "create_node without node payload")
			return
		}
		added := g.AddNode(graph.Node{
			ChangeID:    rec.ChangeID,
			Kind:        rec.Node.Kind,
			Title:       rec.Node.Title,
			Description: rec.Node.Description,
			Confidence:  rec.Node.Confidence,
			Status:      graph.StatusActive,
			CreatedAt:   rec.Timestamp,
			Author:      rec.Author,
			CommitRef:   rec.Node.CommitRef,
			Files:       rec.Node.Files,
			StatusWrite: key,
		})
		res.count(added)

	case record.OpCreateEdge:
		if rec.Edge == nil {
			res.malformedPayload(src, "create_edge without edge payload")
			return
		}
		e := graph.Edge{
			From:      rec.Edge.From,
			To:        rec.Edge.To,
			Type:      rec.Edge.Type,
			Rationale: rec.Edge.Rationale,
			CreatedAt: rec.Timestamp,
			Author:    rec.Author,
			LastWrite: key,
		}
		if _, fromOK := g.Node(e.From); fromOK {
			if _, toOK := g.Node(e.To); toOK {
				res.count(g.AddEdge(e))
				return
			}
		}
		// Endpoint not yet known: retained for re-evaluation on every
		// future rebuild, never dropped.
		res.count(g.AddPending(e))

	case record.OpSetStatus:
		if rec.Status == nil {
			res.malformedPayload(src, "set_status without status payload")
			return
		}
		if !graph.ValidStatus(rec.Status.Status) {
			res.malformedPayload(src, fmt.Sprintf("unknown status %q", rec.Status.Status))
			return
		}
		if _, ok := g.Node(rec.ChangeID); !ok {
			res.dangling(src, "set_status target unknown")
			return
		}
		// False means a later-ordered write already holds the status.
		res.count(g.SetStatus(rec.ChangeID, rec.Status.Status, key))

	case record.OpDeleteNode:
		if !g.DeleteNode(rec.ChangeID) {
			res.dangling(src, "delete target unknown")
			return
		}
		res.Applied++

	case record.OpDeleteEdge:
		if rec.Edge == nil {
			res.malformedPayload(src, "delete_edge without edge payload")
			return
		}
		if g.DeleteEdges(rec.Edge.From, rec.Edge.To, key) == 0 {
			res.dangling(src, "unlink matched no edges")
			return
		}
		res.Applied++
	}
}

func (r *Result) count(mutated bool) {
	if mutated {
		r.Applied++
	} else {
		r.Deduplicated++
	}
}

func (r *Result) malformedPayload(src *sourced, msg string) {
	r.Diags = append(r.Diags, Diagnostic{
		Kind:    DiagMalformedRecord,
		Author:  src.rec.Author,
		Path:    src.path,
		Seq:     src.rec.Seq,
		Message: msg,
	})
}

func (r *Result) dangling(src *sourced, msg string) {
	r.Diags = append(r.Diags, Diagnostic{
		Kind:    DiagDanglingReference,
		Author:  src.rec.Author,
		Seq:     src.rec.Seq,
		Message: fmt.Sprintf("%s: %s", msg, src.rec.ChangeID),
	})
}

func (r *Result) diag(logger *zap.Logger, d Diagnostic) {
	r.Diags = append(r.Diags, d)
	logger.Warn("rebuild diagnostic",
		zap.String("kind", string(d.Kind)),
		zap.String("author", d.Author),
		zap.String("message", d.Message))
}
