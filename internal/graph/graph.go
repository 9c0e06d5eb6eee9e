package graph

import "sort"

// Graph is the materialized node/edge collection plus the pending-edge set.
//
// A Graph is built by replay and read-only afterwards; mutating methods are
// only called by the rebuilder and the snapshot loader. Concurrent reads of
// a stable Graph need no locking.
type Graph struct {
	nodes   map[string]*Node
	edges   map[EdgeKey]*Edge
	pending []Edge

	// nextLocal is the next LocalID to hand out at materialization.
	nextLocal int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		edges:     make(map[EdgeKey]*Edge),
		nextLocal: 1,
	}
}

// AddNode inserts a node and assigns its LocalID. If the ChangeID is already
// present the call is ignored and reports false: creation is idempotent
// because author logs may be replayed more than once.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.nodes[n.ChangeID]; ok {
		return false
	}
	if n.LocalID == 0 {
		n.LocalID = g.nextLocal
	}
	if n.LocalID >= g.nextLocal {
		g.nextLocal = n.LocalID + 1
	}
	g.nodes[n.ChangeID] = &n
	return true
}

// Node returns the node for a ChangeID, tombstoned or not.
func (g *Graph) Node(changeID string) (*Node, bool) {
	n, ok := g.nodes[changeID]
	return n, ok
}

// AddEdge inserts an edge whose endpoints both resolve. Duplicate
// (from, to, type) insertions are ignored, except that a creation ordered
// after the tombstone on its key resurrects the edge: unlink followed by a
// later link restores the relation.
func (g *Graph) AddEdge(e Edge) bool {
	if prev, ok := g.edges[e.Key()]; ok {
		if prev.Deleted && prev.LastWrite.Before(e.LastWrite) {
			*prev = e
			return true
		}
		return false
	}
	g.edges[e.Key()] = &e
	return true
}

// Edge returns the edge for a key, tombstoned or not.
func (g *Graph) Edge(k EdgeKey) (*Edge, bool) {
	e, ok := g.edges[k]
	return e, ok
}

// AddPending records an edge whose endpoints do not all resolve yet. The
// pending set is part of the graph and is rebuilt fresh on every replay,
// never mutated incrementally outside one. Re-recording an edge already
// known, resolved or pending, is ignored.
func (g *Graph) AddPending(e Edge) bool {
	if _, ok := g.edges[e.Key()]; ok {
		return false
	}
	for _, p := range g.pending {
		if p.Key() == e.Key() {
			return false
		}
	}
	g.pending = append(g.pending, e)
	return true
}

// ResolvePending moves every pending edge whose endpoints now resolve into
// the edge set, repeating until a fixed point. Returns the number of edges
// resolved. Bounded by the pending count, so it terminates.
func (g *Graph) ResolvePending() int {
	resolved := 0
	for {
		progress := false
		remaining := g.pending[:0]
		for _, e := range g.pending {
			if g.resolves(e.From) && g.resolves(e.To) {
				g.AddEdge(e)
				resolved++
				progress = true
				continue
			}
			remaining = append(remaining, e)
		}
		g.pending = remaining
		if !progress {
			return resolved
		}
	}
}

func (g *Graph) resolves(changeID string) bool {
	_, ok := g.nodes[changeID]
	return ok
}

// SetStatus overwrites a node's status when key does not precede the write
// that set the current one. Reports false if the ChangeID is unknown or
// the write is stale.
func (g *Graph) SetStatus(changeID string, s Status, key WriteKey) bool {
	n, ok := g.nodes[changeID]
	if !ok {
		return false
	}
	if key.Before(n.StatusWrite) {
		return false
	}
	n.Status = s
	n.StatusWrite = key
	return true
}

// DeleteNode tombstones a node. The node stays resolvable by ChangeID.
func (g *Graph) DeleteNode(changeID string) bool {
	n, ok := g.nodes[changeID]
	if !ok {
		return false
	}
	n.Deleted = true
	return true
}

// DeleteEdges tombstones every edge between from and to, regardless of
// type, and drops matching pending edges. Edges written after key are left
// alone. Returns the number touched.
func (g *Graph) DeleteEdges(from, to string, key WriteKey) int {
	count := 0
	for k, e := range g.edges {
		if k.From == from && k.To == to && !e.Deleted && !key.Before(e.LastWrite) {
			e.Deleted = true
			e.LastWrite = key
			count++
		}
	}
	remaining := g.pending[:0]
	for _, e := range g.pending {
		if e.From == from && e.To == to {
			count++
			continue
		}
		remaining = append(remaining, e)
	}
	g.pending = remaining
	return count
}

// Nodes returns every live node ordered by LocalID (the replay total
// order).
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n.Deleted {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out
}

// AllNodes returns every node including tombstones, ordered by LocalID.
// Used by the snapshot writer, which must preserve tombstones so future
// edges keep resolving.
func (g *Graph) AllNodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocalID < out[j].LocalID })
	return out
}

// Edges returns every live edge whose endpoints are both live, in the
// replay total order of (created_at, author, seq), falling back to key
// order for stability.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		if e.Deleted {
			continue
		}
		if from, ok := g.nodes[e.From]; !ok || from.Deleted {
			continue
		}
		if to, ok := g.nodes[e.To]; !ok || to.Deleted {
			continue
		}
		out = append(out, *e)
	}
	sortEdges(out)
	return out
}

// AllEdges returns every edge including tombstones, for snapshotting.
func (g *Graph) AllEdges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, *e)
	}
	sortEdges(out)
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Author != b.Author {
			return a.Author < b.Author
		}
		if a.LastWrite.Seq != b.LastWrite.Seq {
			return a.LastWrite.Seq < b.LastWrite.Seq
		}
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Type < b.Type
	})
}

// Pending returns a copy of the pending-edge set.
func (g *Graph) Pending() []Edge {
	out := make([]Edge, len(g.pending))
	copy(out, g.pending)
	return out
}

// Outgoing returns the live outgoing edges of a node.
func (g *Graph) Outgoing(changeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.From == changeID {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the live incoming edges of a node.
func (g *Graph) Incoming(changeID string) []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.To == changeID {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the live node count.
func (g *Graph) Len() int {
	count := 0
	for _, n := range g.nodes {
		if !n.Deleted {
			count++
		}
	}
	return count
}
