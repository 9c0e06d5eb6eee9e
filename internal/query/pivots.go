package query

import "github.com/cairn-dev/cairn/internal/graph"

// Chain is one pivot story: the node whose approach was reconsidered, the
// revisit marker, and the forward path to the replacement.
type Chain struct {
	Revisit graph.Node `json:"revisit"`

	// Origin is the node the pivot stepped away from, found by walking
	// causal edges backward from the revisit. Nil when the origin's
	// creation record has not arrived locally yet.
	Origin *graph.Node `json:"origin,omitempty"`

	// Forward is the depth-first path of leads_to successors of the
	// revisit, ending at the replacement approach.
	Forward []graph.Node `json:"forward"`
}

// traversal edge types considered causal when walking backward to a
// pivot's origin.
func causal(t graph.EdgeType) bool {
	switch t {
	case graph.EdgeLeadsTo, graph.EdgeChosen, graph.EdgeRejected:
		return true
	}
	return false
}

// PivotChains lists the pivot chain of every live revisit node, in replay
// order of the revisit nodes.
func PivotChains(g *graph.Graph) []Chain {
	var chains []Chain
	for _, n := range g.Nodes() {
		if n.Kind != graph.KindRevisit {
			continue
		}
		chains = append(chains, Chain{
			Revisit: n,
			Origin:  origin(g, n.ChangeID),
			Forward: forward(g, n.ChangeID),
		})
	}
	return chains
}

// origin walks causal edges backward from the revisit until a node with no
// further causal predecessor, skipping the intermediate observation.
func origin(g *graph.Graph, revisitID string) *graph.Node {
	visited := map[string]bool{revisitID: true}
	current := revisitID
	var last *graph.Node
	for {
		var next *graph.Node
		for _, e := range g.Incoming(current) {
			if !causal(e.Type) || visited[e.From] {
				continue
			}
			if n, ok := g.Node(e.From); ok && !n.Deleted {
				next = n
				break
			}
		}
		if next == nil {
			return last
		}
		visited[next.ChangeID] = true
		current = next.ChangeID
		if next.Kind != graph.KindObservation {
			last = next
		}
	}
}

// forward collects the depth-first leads_to successors of the revisit.
func forward(g *graph.Graph, revisitID string) []graph.Node {
	var path []graph.Node
	visited := map[string]bool{revisitID: true}

	var walk func(id string)
	walk = func(id string) {
		for _, e := range g.Outgoing(id) {
			if e.Type != graph.EdgeLeadsTo || visited[e.To] {
				continue
			}
			visited[e.To] = true
			if n, ok := g.Node(e.To); ok && !n.Deleted {
				path = append(path, *n)
				walk(e.To)
			}
		}
	}
	walk(revisitID)
	return path
}
