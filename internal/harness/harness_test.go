package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cairn-dev/cairn/internal/command"
	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/query"
)

// Two authors build one decision story through their own logs; after the
// logs meet, replay must materialize a single coherent graph.
func TestTwoAuthorStory(t *testing.T) {
	env := NewEnv(t)

	goal := env.Add("x", command.AddParams{Kind: "goal", Title: "Cache strategy"})
	opt := env.Add("y", command.AddParams{Kind: "option", Title: "in-memory cache"})
	env.Link("y", command.LinkParams{From: goal, To: opt, Type: "possible_approach"})
	dec := env.Add("x", command.AddParams{Kind: "decision", Title: "Chose in-memory cache"})
	env.Link("x", command.LinkParams{From: opt, To: dec, Type: "chosen"})

	res := env.Rebuild()
	require.Empty(t, res.Diags)
	assert.Equal(t, 3, res.Graph.Len())

	edges := res.Graph.Edges()
	require.Len(t, edges, 2)
	assert.Equal(t, graph.EdgePossibleApproach, edges[0].Type)
	assert.Equal(t, goal, edges[0].From)
	assert.Equal(t, opt, edges[0].To)
	assert.Equal(t, graph.EdgeChosen, edges[1].Type)
	assert.Equal(t, opt, edges[1].From)
	assert.Equal(t, dec, edges[1].To)

	report := query.Pulse(res.Graph)
	require.Len(t, report.Covered, 1)
	assert.Equal(t, goal, report.Covered[0].ChangeID)
	assert.Empty(t, report.Gaps)
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, dec, report.Orphans[0].ChangeID)

	AssertGolden(t, "two_author_story", res.Graph)
}

// An edge referencing a node whose creation record has not arrived stays
// pending and materializes once the log carrying it syncs in.
func TestCrossAuthorPendingEdge(t *testing.T) {
	env := NewEnv(t)

	// x creates the goal in a log the world has not seen yet.
	cx := command.New(graph.New(), "x", 1).WithClock(env.Clock.Now)
	goalRec, err := cx.Add(command.AddParams{Kind: "goal", Title: "unsynced goal"})
	require.NoError(t, err)

	opt := env.Add("y", command.AddParams{Kind: "option", Title: "candidate"})
	env.Link("y", command.LinkParams{From: goalRec.ChangeID, To: opt})

	res := env.Rebuild()
	assert.Empty(t, res.Graph.Edges())
	assert.Len(t, res.Graph.Pending(), 1)

	// x's log arrives: the edge resolves on the next replay.
	env.Append("x", goalRec)
	res = env.Rebuild()
	assert.Empty(t, res.Graph.Pending())
	require.Len(t, res.Graph.Edges(), 1)
	assert.Equal(t, goalRec.ChangeID, res.Graph.Edges()[0].From)
}

// Checkpointing with log truncation must not change what replay produces.
func TestCheckpointPreservesReplayResult(t *testing.T) {
	env := NewEnv(t)

	goal := env.Add("x", command.AddParams{Kind: "goal", Title: "Cache strategy"})
	opt := env.Add("y", command.AddParams{Kind: "option", Title: "in-memory cache"})
	env.Link("y", command.LinkParams{From: goal, To: opt, Type: "possible_approach"})

	before := env.Rebuild()
	env.Checkpoint(true)
	after := env.Rebuild()

	assert.Equal(t, before.Graph.AllNodes(), after.Graph.AllNodes())
	assert.Equal(t, before.Graph.AllEdges(), after.Graph.AllEdges())
	assert.Equal(t, before.Cursors, after.Cursors)

	// Post-checkpoint writes keep working and keep their sequence.
	dec := env.Add("x", command.AddParams{Kind: "decision", Title: "Chose in-memory cache"})
	env.Link("x", command.LinkParams{From: opt, To: dec, Type: "chosen"})

	res := env.Rebuild()
	assert.Equal(t, 3, res.Graph.Len())
	assert.Len(t, res.Graph.Edges(), 2)
	assert.Empty(t, res.Diags)
}

// A pivot replays all-or-nothing even across an intervening checkpoint.
func TestPivotSurvivesCheckpoint(t *testing.T) {
	env := NewEnv(t)

	dec := env.Add("x", command.AddParams{Kind: "decision", Title: "use polling"})
	env.Pivot("x", command.PivotParams{
		From:        dec,
		Observation: "polling saturates the API",
		Approach:    "switch to webhooks",
	})

	res := env.Checkpoint(true)
	assert.Equal(t, 4, res.Graph.Len())

	res = env.Rebuild()
	assert.Equal(t, 4, res.Graph.Len())
	assert.Len(t, res.Graph.Edges(), 3)

	n, ok := res.Graph.Node(dec)
	require.True(t, ok)
	assert.Equal(t, graph.StatusSuperseded, n.Status)

	chains := query.PivotChains(res.Graph)
	require.Len(t, chains, 1)
	require.NotNil(t, chains[0].Origin)
	assert.Equal(t, dec, chains[0].Origin.ChangeID)
}

func TestNormalizeExportMapsChangeIDs(t *testing.T) {
	env := NewEnv(t)
	goal := env.Add("x", command.AddParams{Kind: "goal", Title: "g"})
	opt := env.Add("x", command.AddParams{Kind: "option", Title: "o"})
	env.Link("x", command.LinkParams{From: goal, To: opt})

	doc := NormalizeExport(query.Export(env.Rebuild().Graph))
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "n1", doc.Nodes[0].ChangeID)
	assert.Equal(t, "n2", doc.Nodes[1].ChangeID)
	require.Len(t, doc.Edges, 1)
	assert.Equal(t, "n1", doc.Edges[0].From)
	assert.Equal(t, "n2", doc.Edges[0].To)
}
