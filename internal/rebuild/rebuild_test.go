package rebuild

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/record"
	"github.com/cairn-dev/cairn/internal/wal"
)

var epoch = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

func tick(i int) time.Time { return epoch.Add(time.Duration(i) * time.Minute) }

func nodeRec(t *testing.T, author string, seq int64, ts time.Time, changeID, title string, kind graph.Kind) record.Record {
	t.Helper()
	rec := record.Record{
		ChangeID:  changeID,
		Author:    author,
		Seq:       seq,
		Timestamp: ts,
		Op:        record.OpCreateNode,
		Node:      &record.NodePayload{Kind: kind, Title: title, Confidence: 50},
	}
	require.NoError(t, rec.Seal())
	return rec
}

func edgeRec(t *testing.T, author string, seq int64, ts time.Time, from, to string, typ graph.EdgeType) record.Record {
	t.Helper()
	rec := record.Record{
		ChangeID:  "edge-" + author + "-" + from + "-" + to,
		Author:    author,
		Seq:       seq,
		Timestamp: ts,
		Op:        record.OpCreateEdge,
		Edge:      &record.EdgePayload{From: from, To: to, Type: typ},
	}
	require.NoError(t, rec.Seal())
	return rec
}

func statusRec(t *testing.T, author string, seq int64, ts time.Time, changeID string, s graph.Status) record.Record {
	t.Helper()
	rec := record.Record{
		ChangeID:  changeID,
		Author:    author,
		Seq:       seq,
		Timestamp: ts,
		Op:        record.OpSetStatus,
		Status:    &record.StatusPayload{Status: s},
	}
	require.NoError(t, rec.Seal())
	return rec
}

func logOf(author string, recs ...record.Record) wal.AuthorLog {
	return wal.AuthorLog{Author: author, Path: author + ".log", Records: recs}
}

func TestRebuildSingleAuthor(t *testing.T) {
	logs := []wal.AuthorLog{logOf("x",
		nodeRec(t, "x", 1, tick(0), "g", "goal", graph.KindGoal),
		nodeRec(t, "x", 2, tick(1), "d", "decision", graph.KindDecision),
		edgeRec(t, "x", 3, tick(2), "g", "d", graph.EdgeLeadsTo),
	)}

	res := Rebuild(nil, nil, logs, Options{})
	assert.Empty(t, res.Diags)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 2, res.Graph.Len())
	assert.Len(t, res.Graph.Edges(), 1)
	assert.Equal(t, int64(3), res.Cursors["x"])

	g, ok := res.Graph.Node("g")
	require.True(t, ok)
	assert.Equal(t, 1, g.LocalID)
	assert.Equal(t, graph.StatusActive, g.Status)
}

func TestRebuildIdempotentOverReplayedCopies(t *testing.T) {
	recs := []record.Record{
		nodeRec(t, "x", 1, tick(0), "g", "goal", graph.KindGoal),
		nodeRec(t, "x", 2, tick(1), "d", "decision", graph.KindDecision),
		edgeRec(t, "x", 3, tick(2), "g", "d", graph.EdgeLeadsTo),
	}

	// The same records appear in a second log, as after a file-level merge
	// that resynchronized a foreign copy.
	logs := []wal.AuthorLog{logOf("x", recs...), {Author: "y", Path: "y.log", Records: recs}}

	res := Rebuild(nil, nil, logs, Options{})
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 2, res.Graph.Len())
	assert.Len(t, res.Graph.Edges(), 1)
	assert.Empty(t, res.Diags)
}

func TestRebuildOrderIndependentAcrossLogs(t *testing.T) {
	xLog := logOf("x",
		nodeRec(t, "x", 1, tick(0), "g", "goal", graph.KindGoal),
		statusRec(t, "x", 2, tick(3), "o", graph.StatusRejected),
	)
	yLog := logOf("y",
		nodeRec(t, "y", 1, tick(1), "o", "option", graph.KindOption),
		edgeRec(t, "y", 2, tick(2), "g", "o", graph.EdgePossibleApproach),
	)

	a := Rebuild(nil, nil, []wal.AuthorLog{xLog, yLog}, Options{})
	b := Rebuild(nil, nil, []wal.AuthorLog{yLog, xLog}, Options{})

	assert.Equal(t, a.Graph.Nodes(), b.Graph.Nodes())
	assert.Equal(t, a.Graph.Edges(), b.Graph.Edges())
	assert.Equal(t, a.Cursors, b.Cursors)

	n, _ := a.Graph.Node("o")
	assert.Equal(t, graph.StatusRejected, n.Status)
}

func TestRebuildPendingEdgeResolvesWhenEndpointArrives(t *testing.T) {
	// y links to a node x has not created yet.
	yOnly := []wal.AuthorLog{logOf("y",
		nodeRec(t, "y", 1, tick(0), "o", "option", graph.KindOption),
		edgeRec(t, "y", 2, tick(1), "g", "o", graph.EdgePossibleApproach),
	)}
	res := Rebuild(nil, nil, yOnly, Options{})
	assert.Empty(t, res.Graph.Edges())
	require.Len(t, res.Graph.Pending(), 1)
	// The unresolved endpoint surfaces as a diagnostic, not an error.
	require.Len(t, res.Diags, 1)
	assert.Equal(t, DiagDanglingReference, res.Diags[0].Kind)

	// x's creation record arrives: the edge materializes on the next pass.
	both := append(yOnly, logOf("x", nodeRec(t, "x", 1, tick(2), "g", "goal", graph.KindGoal)))
	res = Rebuild(nil, nil, both, Options{})
	assert.Empty(t, res.Diags)
	assert.Len(t, res.Graph.Edges(), 1)
	assert.Empty(t, res.Graph.Pending())
}

func TestRebuildLastWriterWinsWithAuthorTieBreak(t *testing.T) {
	ts := tick(5)
	logs := []wal.AuthorLog{
		logOf("a",
			nodeRec(t, "a", 1, tick(0), "n", "node", graph.KindDecision),
			statusRec(t, "a", 2, ts, "n", graph.StatusCompleted),
		),
		logOf("b", statusRec(t, "b", 1, ts, "n", graph.StatusRejected)),
	}

	// Identical timestamps order by author: b applies after a.
	res := Rebuild(nil, nil, logs, Options{})
	n, _ := res.Graph.Node("n")
	assert.Equal(t, graph.StatusRejected, n.Status)

	// Later timestamp beats author order.
	logs[0].Records[1] = statusRec(t, "a", 2, tick(6), "n", graph.StatusCompleted)
	res = Rebuild(nil, nil, logs, Options{})
	n, _ = res.Graph.Node("n")
	assert.Equal(t, graph.StatusCompleted, n.Status)
}

func burst(t *testing.T, author string, startSeq int64, ts time.Time, txn string, size int) []record.Record {
	t.Helper()
	ids := []string{"obs", "rev", "new"}
	var recs []record.Record
	seq := startSeq
	for _, id := range ids {
		rec := nodeRec(t, author, seq, ts, txn+"-"+id, id, graph.KindObservation)
		rec.Txn = txn
		rec.TxnSize = size
		require.NoError(t, rec.Seal())
		recs = append(recs, rec)
		seq++
	}
	pairs := [][2]string{{"from", txn + "-obs"}, {txn + "-obs", txn + "-rev"}, {txn + "-rev", txn + "-new"}}
	for _, p := range pairs {
		rec := edgeRec(t, author, seq, ts, p[0], p[1], graph.EdgeLeadsTo)
		rec.Txn = txn
		rec.TxnSize = size
		require.NoError(t, rec.Seal())
		recs = append(recs, rec)
		seq++
	}
	rec := statusRec(t, author, seq, ts, "from", graph.StatusSuperseded)
	rec.Txn = txn
	rec.TxnSize = size
	require.NoError(t, rec.Seal())
	recs = append(recs, rec)
	return recs
}

func TestRebuildWithholdsIncompleteBurst(t *testing.T) {
	full := burst(t, "x", 2, tick(1), "txn-1", 7)
	from := nodeRec(t, "x", 1, tick(0), "from", "original", graph.KindDecision)

	// Only 4 of the 7 burst records survived a mid-write truncation.
	partial := append([]record.Record{from}, full[:4]...)
	res := Rebuild(nil, nil, []wal.AuthorLog{logOf("x", partial...)}, Options{})

	assert.Equal(t, 4, res.Withheld)
	assert.Equal(t, 1, res.Graph.Len())
	assert.Empty(t, res.Graph.Edges())
	n, _ := res.Graph.Node("from")
	assert.Equal(t, graph.StatusActive, n.Status)

	// The cursor stops before the withheld burst so a checkpoint cannot
	// truncate it away.
	assert.Equal(t, int64(1), res.Cursors["x"])

	var kinds []DiagKind
	for _, d := range res.Diags {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, DiagIncompleteBurst)
}

func TestRebuildAppliesCompleteBurstAtomically(t *testing.T) {
	from := nodeRec(t, "x", 1, tick(0), "from", "original", graph.KindDecision)
	full := append([]record.Record{from}, burst(t, "x", 2, tick(1), "txn-1", 7)...)

	res := Rebuild(nil, nil, []wal.AuthorLog{logOf("x", full...)}, Options{})
	assert.Zero(t, res.Withheld)
	assert.Equal(t, 4, res.Graph.Len())
	assert.Len(t, res.Graph.Edges(), 3)
	n, _ := res.Graph.Node("from")
	assert.Equal(t, graph.StatusSuperseded, n.Status)
	assert.Equal(t, int64(8), res.Cursors["x"])
}

func TestRebuildSkipsNonMonotonicSequence(t *testing.T) {
	logs := []wal.AuthorLog{logOf("x",
		nodeRec(t, "x", 2, tick(0), "a", "a", graph.KindGoal),
		nodeRec(t, "x", 1, tick(1), "b", "b", graph.KindGoal),
	)}

	res := Rebuild(nil, nil, logs, Options{})
	assert.Equal(t, 1, res.Graph.Len())
	_, ok := res.Graph.Node("a")
	assert.True(t, ok)

	var kinds []DiagKind
	for _, d := range res.Diags {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, DiagOrderingAnomaly)
}

func TestRebuildCursorStopsAtSequenceGap(t *testing.T) {
	logs := []wal.AuthorLog{logOf("x",
		nodeRec(t, "x", 1, tick(0), "a", "a", graph.KindGoal),
		nodeRec(t, "x", 4, tick(1), "b", "b", graph.KindGoal),
	)}

	res := Rebuild(nil, nil, logs, Options{})
	// Both records apply; the cursor stops at the gap.
	assert.Equal(t, 2, res.Graph.Len())
	assert.Equal(t, int64(1), res.Cursors["x"])

	var kinds []DiagKind
	for _, d := range res.Diags {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, DiagOrderingAnomaly)
}

func TestRebuildHonorsCheckpointCursors(t *testing.T) {
	base := graph.New()
	base.AddNode(graph.Node{ChangeID: "g", Kind: graph.KindGoal, Title: "goal",
		Status: graph.StatusActive, CreatedAt: tick(0), Author: "x"})

	logs := []wal.AuthorLog{logOf("x",
		nodeRec(t, "x", 1, tick(0), "g", "goal", graph.KindGoal),
		nodeRec(t, "x", 2, tick(1), "d", "decision", graph.KindDecision),
	)}

	res := Rebuild(base, map[string]int64{"x": 1}, logs, Options{})
	assert.Equal(t, 1, res.Applied)
	assert.Zero(t, res.Deduplicated)
	assert.Equal(t, 2, res.Graph.Len())
	assert.Equal(t, int64(2), res.Cursors["x"])

	// base stays untouched.
	assert.Equal(t, 1, base.Len())
}

func TestRebuildLastWriterWinsAcrossCheckpoint(t *testing.T) {
	xLog := logOf("x",
		nodeRec(t, "x", 1, tick(0), "n", "decision", graph.KindDecision),
		statusRec(t, "x", 2, tick(10), "n", graph.StatusRejected),
	)
	// y set superseded before x set rejected, but y's log syncs in later.
	yLog := logOf("y", statusRec(t, "y", 1, tick(5), "n", graph.StatusSuperseded))

	fresh := Rebuild(nil, nil, []wal.AuthorLog{xLog, yLog}, Options{})
	n, _ := fresh.Graph.Node("n")
	require.Equal(t, graph.StatusRejected, n.Status)

	// Same logs, but x's status was already folded into a checkpoint when
	// y's arrives. The outcome must not depend on arrival order.
	checkpointed := Rebuild(nil, nil, []wal.AuthorLog{xLog}, Options{})
	resumed := Rebuild(checkpointed.Graph, checkpointed.Cursors, []wal.AuthorLog{xLog, yLog}, Options{})

	n, _ = resumed.Graph.Node("n")
	assert.Equal(t, graph.StatusRejected, n.Status)
	assert.Equal(t, fresh.Graph.Nodes(), resumed.Graph.Nodes())
}

func TestRebuildRelinkAfterUnlink(t *testing.T) {
	unlink := record.Record{ChangeID: "u1", Author: "x", Seq: 4, Timestamp: tick(3),
		Op: record.OpDeleteEdge, Edge: &record.EdgePayload{From: "g", To: "o"}}
	require.NoError(t, unlink.Seal())

	logs := []wal.AuthorLog{logOf("x",
		nodeRec(t, "x", 1, tick(0), "g", "goal", graph.KindGoal),
		nodeRec(t, "x", 2, tick(1), "o", "option", graph.KindOption),
		edgeRec(t, "x", 3, tick(2), "g", "o", graph.EdgeLeadsTo),
		unlink,
		edgeRec(t, "x", 5, tick(4), "g", "o", graph.EdgeLeadsTo),
	)}

	res := Rebuild(nil, nil, logs, Options{})
	assert.Equal(t, 5, res.Applied)
	assert.Zero(t, res.Deduplicated)
	edges := res.Graph.Edges()
	require.Len(t, edges, 1)
	assert.False(t, edges[0].Deleted)

	// The relink also survives a checkpoint taken after the unlink.
	folded := Rebuild(nil, nil, []wal.AuthorLog{logOf("x", logs[0].Records[:4]...)}, Options{})
	require.Empty(t, folded.Graph.Edges())
	resumed := Rebuild(folded.Graph, folded.Cursors, logs, Options{})
	assert.Len(t, resumed.Graph.Edges(), 1)
}

func TestRebuildDanglingStatusAndDelete(t *testing.T) {
	logs := []wal.AuthorLog{logOf("x",
		statusRec(t, "x", 1, tick(0), "ghost", graph.StatusRejected),
	)}
	res := Rebuild(nil, nil, logs, Options{})
	assert.Zero(t, res.Applied)
	require.Len(t, res.Diags, 1)
	assert.Equal(t, DiagDanglingReference, res.Diags[0].Kind)
}

func TestRebuildMalformedLinesSurface(t *testing.T) {
	logs := []wal.AuthorLog{{
		Author: "x",
		Path:   "x.log",
		Malformed: []wal.MalformedLine{
			{Path: "x.log", Line: 3, Err: assert.AnError},
		},
	}}
	res := Rebuild(nil, nil, logs, Options{})
	require.Len(t, res.Diags, 1)
	assert.Equal(t, DiagMalformedRecord, res.Diags[0].Kind)
	assert.Equal(t, 3, res.Diags[0].Line)
}

func TestRebuildDeleteNodeAndEdge(t *testing.T) {
	delNode := record.Record{ChangeID: "d", Author: "x", Seq: 4, Timestamp: tick(3), Op: record.OpDeleteNode}
	require.NoError(t, delNode.Seal())
	delEdge := record.Record{ChangeID: "ue", Author: "x", Seq: 5, Timestamp: tick(4),
		Op: record.OpDeleteEdge, Edge: &record.EdgePayload{From: "g", To: "o"}}
	require.NoError(t, delEdge.Seal())

	logs := []wal.AuthorLog{logOf("x",
		nodeRec(t, "x", 1, tick(0), "g", "goal", graph.KindGoal),
		nodeRec(t, "x", 2, tick(1), "o", "option", graph.KindOption),
		nodeRec(t, "x", 3, tick(1), "d", "decision", graph.KindDecision),
		delNode,
		delEdge,
	)}
	// No edge between g and o exists, so the unlink is dangling.
	res := Rebuild(nil, nil, logs, Options{})
	assert.Equal(t, 2, res.Graph.Len())
	n, ok := res.Graph.Node("d")
	require.True(t, ok)
	assert.True(t, n.Deleted)

	var kinds []DiagKind
	for _, d := range res.Diags {
		kinds = append(kinds, d.Kind)
	}
	assert.Contains(t, kinds, DiagDanglingReference)
}

func TestTotalOrderLess(t *testing.T) {
	tests := []struct {
		name string
		a, b record.Record
		want bool
	}{
		{"timestamp first", record.Record{Timestamp: tick(0)}, record.Record{Timestamp: tick(1)}, true},
		{"author breaks ties", record.Record{Timestamp: tick(0), Author: "a"}, record.Record{Timestamp: tick(0), Author: "b"}, true},
		{"seq breaks author ties", record.Record{Timestamp: tick(0), Author: "a", Seq: 1}, record.Record{Timestamp: tick(0), Author: "a", Seq: 2}, true},
		{"record id is final fallback", record.Record{Timestamp: tick(0), Author: "a", Seq: 1, RecordID: "a"}, record.Record{Timestamp: tick(0), Author: "a", Seq: 1, RecordID: "b"}, true},
		{"equal is not less", record.Record{Timestamp: tick(0)}, record.Record{Timestamp: tick(0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, totalOrderLess(tt.a, tt.b))
			if tt.want {
				assert.False(t, totalOrderLess(tt.b, tt.a))
			}
		})
	}
}
