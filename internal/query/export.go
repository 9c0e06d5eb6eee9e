package query

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cairn-dev/cairn/internal/graph"
)

// Document is the flattened export of a graph for static or offline
// rendering. Node and edge order is the replay order, so the same history
// always exports byte-identically.
type Document struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// Export builds the export document from a graph.
func Export(g *graph.Graph) Document {
	nodes := g.Nodes()
	if nodes == nil {
		nodes = []graph.Node{}
	}
	edges := g.Edges()
	if edges == nil {
		edges = []graph.Edge{}
	}
	return Document{Nodes: nodes, Edges: edges}
}

// MarshalDocument renders the export document as indented JSON without
// HTML escaping.
func MarshalDocument(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return buf.Bytes(), nil
}
