package graph

// Clone returns a deep copy. The rebuilder replays into a clone of the
// checkpoint graph so an aborted rebuild never corrupts the store the
// read side is using.
func (g *Graph) Clone() *Graph {
	out := New()
	out.nextLocal = g.nextLocal
	for id, n := range g.nodes {
		cp := *n
		if n.Files != nil {
			cp.Files = append([]string(nil), n.Files...)
		}
		out.nodes[id] = &cp
	}
	for k, e := range g.edges {
		cp := *e
		out.edges[k] = &cp
	}
	out.pending = append(out.pending, g.pending...)
	return out
}
