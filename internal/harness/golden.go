package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/cairn-dev/cairn/internal/graph"
	"github.com/cairn-dev/cairn/internal/query"
)

// NormalizeExport rewrites every change ID in doc to a stable token
// derived from the node's local ID ("n1", "n2", ...). Change IDs are
// random UUIDs, so exports are never byte-stable without this.
func NormalizeExport(doc query.Document) query.Document {
	ids := make(map[string]string, len(doc.Nodes))
	for _, n := range doc.Nodes {
		ids[n.ChangeID] = fmt.Sprintf("n%d", n.LocalID)
	}
	rewrite := func(id string) string {
		if tok, ok := ids[id]; ok {
			return tok
		}
		return id
	}
	out := query.Document{
		Nodes: make([]graph.Node, len(doc.Nodes)),
		Edges: make([]graph.Edge, len(doc.Edges)),
	}
	for i, n := range doc.Nodes {
		n.ChangeID = rewrite(n.ChangeID)
		out.Nodes[i] = n
	}
	for i, e := range doc.Edges {
		e.From = rewrite(e.From)
		e.To = rewrite(e.To)
		out.Edges[i] = e
	}
	return out
}

// AssertGolden compares the normalized export of g against the named
// golden file under testdata/golden.
func AssertGolden(t *testing.T, name string, g *graph.Graph) {
	t.Helper()
	doc := NormalizeExport(query.Export(g))
	data, err := query.MarshalDocument(doc)
	require.NoError(t, err)
	gl := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden.json"),
	)
	gl.Assert(t, name, data)
}
