package query

import "github.com/cairn-dev/cairn/internal/graph"

// PulseReport is the project's heartbeat view: loose ends and goals whose
// story has no resolution yet.
type PulseReport struct {
	// Orphans are live nodes with no outgoing edges.
	Orphans []graph.Node `json:"orphans"`

	// Gaps are active goals from which no live decision is reachable —
	// stories started but not yet carried to a terminal decision.
	Gaps []graph.Node `json:"gaps"`

	// Covered are active goals that do reach a live decision.
	Covered []graph.Node `json:"covered"`
}

// Summary condenses a PulseReport into counters.
type Summary struct {
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	PendingEdges int            `json:"pending_edges"`
	Orphans      int            `json:"orphans"`
	Gaps         int            `json:"gaps"`
	Covered      int            `json:"covered"`
	ByKind       map[string]int `json:"by_kind"`
	ByStatus     map[string]int `json:"by_status"`
}

// Pulse computes the orphan and coverage views.
func Pulse(g *graph.Graph) PulseReport {
	var report PulseReport

	outgoing := make(map[string]int)
	for _, e := range g.Edges() {
		outgoing[e.From]++
	}

	for _, n := range g.Nodes() {
		if outgoing[n.ChangeID] == 0 {
			report.Orphans = append(report.Orphans, n)
		}
		if n.Kind == graph.KindGoal && n.Status == graph.StatusActive {
			if reachesDecision(g, n.ChangeID) {
				report.Covered = append(report.Covered, n)
			} else {
				report.Gaps = append(report.Gaps, n)
			}
		}
	}
	return report
}

// reachesDecision reports whether any live, non-rejected, non-superseded
// decision node is reachable from start via live edges. Cycles are
// tolerated.
func reachesDecision(g *graph.Graph, start string) bool {
	visited := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.Outgoing(id) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			if n, ok := g.Node(e.To); ok && !n.Deleted {
				if n.Kind == graph.KindDecision &&
					n.Status != graph.StatusRejected && n.Status != graph.StatusSuperseded {
					return true
				}
			}
			stack = append(stack, e.To)
		}
	}
	return false
}

// Summarize computes pulse counters for the whole graph.
func Summarize(g *graph.Graph) Summary {
	report := Pulse(g)
	s := Summary{
		Nodes:        g.Len(),
		Edges:        len(g.Edges()),
		PendingEdges: len(g.Pending()),
		Orphans:      len(report.Orphans),
		Gaps:         len(report.Gaps),
		Covered:      len(report.Covered),
		ByKind:       make(map[string]int),
		ByStatus:     make(map[string]int),
	}
	for _, n := range g.Nodes() {
		s.ByKind[string(n.Kind)]++
		s.ByStatus[string(n.Status)]++
	}
	return s
}
