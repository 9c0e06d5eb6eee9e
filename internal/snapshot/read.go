package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cairn-dev/cairn/internal/graph"
)

// LoadState reads the complete snapshot back into a graph plus the
// per-author cursor positions. Reads are ordered deterministically:
// nodes by local_id, edges by (created_at, author, key) COLLATE BINARY.
func (s *Store) LoadState(ctx context.Context) (*graph.Graph, map[string]int64, error) {
	g := graph.New()

	rows, err := s.db.QueryContext(ctx, `
		SELECT change_id, local_id, kind, title, description, confidence, status, created_at, author, commit_ref, files, deleted,
		       status_at, status_author, status_seq
		FROM nodes
		ORDER BY local_id ASC
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			n         graph.Node
			createdAt string
			statusAt  string
			filesJSON string
			deleted   int
		)
		var kind, status string
		if err := rows.Scan(&n.ChangeID, &n.LocalID, &kind, &n.Title, &n.Description,
			&n.Confidence, &status, &createdAt, &n.Author, &n.CommitRef, &filesJSON, &deleted,
			&statusAt, &n.StatusWrite.Author, &n.StatusWrite.Seq); err != nil {
			return nil, nil, fmt.Errorf("load snapshot: scan node: %w", err)
		}
		n.Kind = graph.Kind(kind)
		n.Status = graph.Status(status)
		n.Deleted = deleted != 0
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, nil, fmt.Errorf("load snapshot: node %s created_at: %w", n.ChangeID, err)
		}
		if n.StatusWrite.At, err = time.Parse(time.RFC3339Nano, statusAt); err != nil {
			return nil, nil, fmt.Errorf("load snapshot: node %s status_at: %w", n.ChangeID, err)
		}
		if filesJSON != "" && filesJSON != "null" {
			if err := json.Unmarshal([]byte(filesJSON), &n.Files); err != nil {
				return nil, nil, fmt.Errorf("load snapshot: node %s files: %w", n.ChangeID, err)
			}
		}
		g.AddNode(n)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("load snapshot: iterate nodes: %w", err)
	}

	if err := s.loadEdges(ctx, g); err != nil {
		return nil, nil, err
	}

	cursors, err := s.Cursors(ctx)
	if err != nil {
		return nil, nil, err
	}
	return g, cursors, nil
}

func (s *Store) loadEdges(ctx context.Context, g *graph.Graph) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id, edge_type, rationale, created_at, author, deleted,
		       written_at, written_author, written_seq
		FROM edges
		ORDER BY created_at ASC, author ASC, from_id COLLATE BINARY ASC, to_id COLLATE BINARY ASC, edge_type COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("load snapshot: query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEdge(rows.Scan, true)
		if err != nil {
			return err
		}
		g.AddEdge(e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load snapshot: iterate edges: %w", err)
	}

	pending, err := s.db.QueryContext(ctx, `
		SELECT from_id, to_id, edge_type, rationale, created_at, author,
		       written_at, written_author, written_seq
		FROM pending_edges
		ORDER BY created_at ASC, author ASC, from_id COLLATE BINARY ASC, to_id COLLATE BINARY ASC, edge_type COLLATE BINARY ASC
	`)
	if err != nil {
		return fmt.Errorf("load snapshot: query pending edges: %w", err)
	}
	defer pending.Close()

	for pending.Next() {
		e, err := scanEdge(pending.Scan, false)
		if err != nil {
			return err
		}
		g.AddPending(e)
	}
	if err := pending.Err(); err != nil {
		return fmt.Errorf("load snapshot: iterate pending edges: %w", err)
	}
	return nil
}

func scanEdge(scan func(...any) error, withDeleted bool) (graph.Edge, error) {
	var (
		e         graph.Edge
		edgeType  string
		createdAt string
		writtenAt string
		deleted   int
	)
	dest := []any{&e.From, &e.To, &edgeType, &e.Rationale, &createdAt, &e.Author}
	if withDeleted {
		dest = append(dest, &deleted)
	}
	dest = append(dest, &writtenAt, &e.LastWrite.Author, &e.LastWrite.Seq)
	if err := scan(dest...); err != nil {
		return e, fmt.Errorf("load snapshot: scan edge: %w", err)
	}
	e.Type = graph.EdgeType(edgeType)
	e.Deleted = deleted != 0
	var err error
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return e, fmt.Errorf("load snapshot: edge %s->%s created_at: %w", e.From, e.To, err)
	}
	if e.LastWrite.At, err = time.Parse(time.RFC3339Nano, writtenAt); err != nil {
		return e, fmt.Errorf("load snapshot: edge %s->%s written_at: %w", e.From, e.To, err)
	}
	return e, nil
}

// Cursors returns the per-author checkpoint positions.
func (s *Store) Cursors(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT author, seq FROM cursors ORDER BY author COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: query cursors: %w", err)
	}
	defer rows.Close()

	cursors := make(map[string]int64)
	for rows.Next() {
		var author string
		var seq int64
		if err := rows.Scan(&author, &seq); err != nil {
			return nil, fmt.Errorf("load snapshot: scan cursor: %w", err)
		}
		cursors[author] = seq
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot: iterate cursors: %w", err)
	}
	return cursors, nil
}

// LoadIfExists loads the snapshot at path, returning an empty state when no
// snapshot has been written yet.
func LoadIfExists(ctx context.Context, path string) (*graph.Graph, map[string]int64, error) {
	if !Exists(path) {
		return nil, map[string]int64{}, nil
	}
	store, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()
	return store.LoadState(ctx)
}
