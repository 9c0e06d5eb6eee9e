package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/record"
	"github.com/cairn-dev/cairn/internal/testutil"
)

func newCommander(t *testing.T, g *graph.Graph) *Commander {
	t.Helper()
	return New(g, "x", 1).WithClock(testutil.NewClock().Now)
}

func intPtr(v int) *int { return &v }

func TestAddEmitsSealedCreateNode(t *testing.T) {
	c := newCommander(t, nil)
	rec, err := c.Add(AddParams{Kind: "goal", Title: "Cache strategy", Description: "pick one"})
	require.NoError(t, err)

	assert.Equal(t, record.OpCreateNode, rec.Op)
	assert.Equal(t, "x", rec.Author)
	assert.Equal(t, int64(1), rec.Seq)
	assert.NotEmpty(t, rec.ChangeID)
	assert.Equal(t, record.MustID(rec.ChangeID, record.OpCreateNode, "x", 1), rec.RecordID)
	require.NotNil(t, rec.Node)
	assert.Equal(t, graph.KindGoal, rec.Node.Kind)
	assert.Equal(t, DefaultConfidence, rec.Node.Confidence)
	assert.Empty(t, rec.Txn)

	// Sequence advances per emitted record.
	rec2, err := c.Add(AddParams{Kind: "option", Title: "second"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec2.Seq)
	assert.NotEqual(t, rec.ChangeID, rec2.ChangeID)
}

func TestAddValidation(t *testing.T) {
	c := newCommander(t, nil)
	tests := []struct {
		name   string
		params AddParams
	}{
		{"missing kind", AddParams{Title: "t"}},
		{"missing title", AddParams{Kind: "goal"}},
		{"unknown kind", AddParams{Kind: "note", Title: "t"}},
		{"confidence too high", AddParams{Kind: "goal", Title: "t", Confidence: intPtr(101)}},
		{"confidence negative", AddParams{Kind: "goal", Title: "t", Confidence: intPtr(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Add(tt.params)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestAddExplicitConfidenceAndBackdate(t *testing.T) {
	c := newCommander(t, nil)
	date := testutil.NewClock().At(100)
	rec, err := c.Add(AddParams{Kind: "decision", Title: "t", Confidence: intPtr(90), Date: date})
	require.NoError(t, err)
	assert.Equal(t, 90, rec.Node.Confidence)
	assert.True(t, rec.Timestamp.Equal(date))
}

func TestLinkDefaultsToLeadsTo(t *testing.T) {
	c := newCommander(t, nil)
	rec, err := c.Link(LinkParams{From: "a", To: "b"})
	require.NoError(t, err)
	assert.Equal(t, record.OpCreateEdge, rec.Op)
	require.NotNil(t, rec.Edge)
	assert.Equal(t, graph.EdgeLeadsTo, rec.Edge.Type)
}

func TestLinkAllowsUnknownEndpoints(t *testing.T) {
	// Linking to a change ID another author will create later must
	// succeed locally.
	c := newCommander(t, graph.New())
	rec, err := c.Link(LinkParams{From: "not-here", To: "also-not-here", Type: "possible_approach", Rationale: "r"})
	require.NoError(t, err)
	assert.Equal(t, "not-here", rec.Edge.From)
	assert.Equal(t, "r", rec.Edge.Rationale)
}

func TestLinkValidation(t *testing.T) {
	c := newCommander(t, nil)
	_, err := c.Link(LinkParams{To: "b"})
	assert.True(t, IsValidation(err))
	_, err = c.Link(LinkParams{From: "a"})
	assert.True(t, IsValidation(err))
}

func seeded(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	require.True(t, g.AddNode(graph.Node{ChangeID: "n1", Kind: graph.KindDecision,
		Title: "old approach", Status: graph.StatusActive, Author: "x"}))
	require.True(t, g.AddNode(graph.Node{ChangeID: "n2", Kind: graph.KindOption,
		Title: "other", Status: graph.StatusActive, Author: "x"}))
	require.True(t, g.AddEdge(graph.Edge{From: "n1", To: "n2", Type: graph.EdgeLeadsTo, Author: "x"}))
	return g
}

func TestSetStatus(t *testing.T) {
	c := newCommander(t, seeded(t))
	rec, err := c.SetStatus("n1", "rejected")
	require.NoError(t, err)
	assert.Equal(t, record.OpSetStatus, rec.Op)
	assert.Equal(t, "n1", rec.ChangeID)
	assert.Equal(t, graph.StatusRejected, rec.Status.Status)

	_, err = c.SetStatus("n1", "paused")
	assert.True(t, IsValidation(err))
	_, err = c.SetStatus("ghost", "rejected")
	assert.True(t, IsNotFound(err))
}

func TestDelete(t *testing.T) {
	c := newCommander(t, seeded(t))
	rec, err := c.Delete("n2")
	require.NoError(t, err)
	assert.Equal(t, record.OpDeleteNode, rec.Op)
	assert.Equal(t, "n2", rec.ChangeID)

	_, err = c.Delete("ghost")
	assert.True(t, IsNotFound(err))
}

func TestUnlink(t *testing.T) {
	c := newCommander(t, seeded(t))
	rec, err := c.Unlink("n1", "n2")
	require.NoError(t, err)
	assert.Equal(t, record.OpDeleteEdge, rec.Op)
	assert.Equal(t, "n1", rec.Edge.From)
	assert.Equal(t, "n2", rec.Edge.To)

	_, err = c.Unlink("n2", "n1")
	assert.True(t, IsNotFound(err))
}

func TestUnlinkCoversPendingEdges(t *testing.T) {
	g := seeded(t)
	g.AddPending(graph.Edge{From: "n2", To: "future", Type: graph.EdgeLeadsTo, Author: "x"})
	c := newCommander(t, g)
	_, err := c.Unlink("n2", "future")
	require.NoError(t, err)
}

func TestPivotBurstShape(t *testing.T) {
	c := newCommander(t, seeded(t))
	recs, err := c.Pivot(PivotParams{
		From:        "n1",
		Observation: "latency regressed",
		Approach:    "switch to write-through",
	})
	require.NoError(t, err)
	require.Len(t, recs, 7)

	txn := recs[0].Txn
	require.NotEmpty(t, txn)
	for i, rec := range recs {
		assert.Equal(t, txn, rec.Txn, "record %d", i)
		assert.Equal(t, 7, rec.TxnSize, "record %d", i)
		assert.Equal(t, int64(i+1), rec.Seq, "record %d", i)
		assert.True(t, rec.Timestamp.Equal(recs[0].Timestamp), "record %d", i)
		assert.NotEmpty(t, rec.RecordID, "record %d", i)
	}

	assert.Equal(t, graph.KindObservation, recs[0].Node.Kind)
	assert.Equal(t, "latency regressed", recs[0].Node.Title)
	assert.Equal(t, graph.KindRevisit, recs[1].Node.Kind)
	assert.Equal(t, "Revisit: latency regressed", recs[1].Node.Title)
	assert.Equal(t, graph.KindDecision, recs[2].Node.Kind)
	assert.Equal(t, "switch to write-through", recs[2].Node.Title)

	// from -> observation -> revisit -> new approach.
	assert.Equal(t, "n1", recs[3].Edge.From)
	assert.Equal(t, recs[0].ChangeID, recs[3].Edge.To)
	assert.Equal(t, recs[0].ChangeID, recs[4].Edge.From)
	assert.Equal(t, recs[1].ChangeID, recs[4].Edge.To)
	assert.Equal(t, recs[1].ChangeID, recs[5].Edge.From)
	assert.Equal(t, recs[2].ChangeID, recs[5].Edge.To)

	assert.Equal(t, record.OpSetStatus, recs[6].Op)
	assert.Equal(t, "n1", recs[6].ChangeID)
	assert.Equal(t, graph.StatusSuperseded, recs[6].Status.Status)
}

func TestPivotKindOption(t *testing.T) {
	c := newCommander(t, seeded(t))
	recs, err := c.Pivot(PivotParams{From: "n1", Observation: "o", Approach: "a", Kind: "option"})
	require.NoError(t, err)
	assert.Equal(t, graph.KindOption, recs[2].Node.Kind)
}

func TestPivotValidation(t *testing.T) {
	c := newCommander(t, seeded(t))
	_, err := c.Pivot(PivotParams{From: "n1", Observation: "o"})
	assert.True(t, IsValidation(err))
	_, err = c.Pivot(PivotParams{From: "n1", Observation: "o", Approach: "a", Kind: "goal"})
	assert.True(t, IsValidation(err))
	_, err = c.Pivot(PivotParams{From: "ghost", Observation: "o", Approach: "a"})
	assert.True(t, IsNotFound(err))
}

func TestSupersedeSingle(t *testing.T) {
	c := newCommander(t, seeded(t))
	recs, err := c.Supersede("n1", false)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "n1", recs[0].ChangeID)
	assert.Equal(t, graph.StatusSuperseded, recs[0].Status.Status)
	assert.Empty(t, recs[0].Txn)
	assert.Zero(t, recs[0].TxnSize)
}

func TestSupersedeCascade(t *testing.T) {
	g := seeded(t)
	require.True(t, g.AddNode(graph.Node{ChangeID: "n3", Kind: graph.KindAction,
		Title: "followup", Status: graph.StatusActive, Author: "x"}))
	require.True(t, g.AddEdge(graph.Edge{From: "n2", To: "n3", Type: graph.EdgeLeadsTo, Author: "x"}))
	// A cycle back to the root must not loop the traversal.
	require.True(t, g.AddEdge(graph.Edge{From: "n3", To: "n1", Type: graph.EdgeLeadsTo, Author: "x"}))

	c := newCommander(t, g)
	recs, err := c.Supersede("n1", true)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	targets := map[string]bool{}
	txn := recs[0].Txn
	require.NotEmpty(t, txn)
	for _, rec := range recs {
		targets[rec.ChangeID] = true
		assert.Equal(t, txn, rec.Txn)
		assert.Equal(t, 3, rec.TxnSize)
	}
	assert.Equal(t, map[string]bool{"n1": true, "n2": true, "n3": true}, targets)
}

func TestSupersedeCascadeSkipsAlreadySuperseded(t *testing.T) {
	g := seeded(t)
	require.True(t, g.SetStatus("n2", graph.StatusSuperseded, graph.WriteKey{}))
	c := newCommander(t, g)
	recs, err := c.Supersede("n1", true)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "n1", recs[0].ChangeID)
}

func TestNextSeqTracksEmission(t *testing.T) {
	c := New(graph.New(), "x", 5)
	assert.Equal(t, int64(5), c.NextSeq())
	_, err := c.Add(AddParams{Kind: "goal", Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), c.NextSeq())
}
