package query

import (
	"sort"

	"github.com/cairn-dev/cairn/internal/graph"
)

// NodeFilter narrows a node listing. Zero values match everything.
type NodeFilter struct {
	Kind   graph.Kind
	Status graph.Status
}

// Nodes lists live nodes in replay order, optionally filtered.
func Nodes(g *graph.Graph, f NodeFilter) []graph.Node {
	var out []graph.Node
	for _, n := range g.Nodes() {
		if f.Kind != "" && n.Kind != f.Kind {
			continue
		}
		if f.Status != "" && n.Status != f.Status {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Edges lists live edges between live nodes in replay order.
func Edges(g *graph.Graph) []graph.Edge {
	return g.Edges()
}

// Timeline lists live nodes in chronological order, optionally filtered by
// kind. LocalID alone is not chronological: a backdated record synced in
// after a checkpoint gets the next free LocalID, so the sort is
// (created_at, author, local_id).
func Timeline(g *graph.Graph, kind graph.Kind) []graph.Node {
	out := Nodes(g, NodeFilter{Kind: kind})
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Author != b.Author {
			return a.Author < b.Author
		}
		return a.LocalID < b.LocalID
	})
	return out
}
