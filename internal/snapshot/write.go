package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cairn-dev/cairn/internal/graph"
)

// WriteState replaces the snapshot's contents with the given graph and
// cursors in a single transaction. Tombstoned nodes and edges are written
// too: a snapshot must preserve every live change ID so future edges
// continue to resolve without the original creation event.
func (s *Store) WriteState(ctx context.Context, g *graph.Graph, cursors map[string]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	for _, table := range []string{"nodes", "edges", "pending_edges", "cursors"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("write snapshot: clear %s: %w", table, err)
		}
	}

	for _, n := range g.AllNodes() {
		filesJSON, err := json.Marshal(n.Files)
		if err != nil {
			return fmt.Errorf("write snapshot: marshal files: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO nodes
			(change_id, local_id, kind, title, description, confidence, status, created_at, author, commit_ref, files, deleted,
			 status_at, status_author, status_seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(change_id) DO NOTHING
		`,
			n.ChangeID, n.LocalID, string(n.Kind), n.Title, n.Description,
			n.Confidence, string(n.Status), n.CreatedAt.UTC().Format(time.RFC3339Nano),
			n.Author, n.CommitRef, string(filesJSON), boolToInt(n.Deleted),
			n.StatusWrite.At.UTC().Format(time.RFC3339Nano), n.StatusWrite.Author, n.StatusWrite.Seq,
		)
		if err != nil {
			return fmt.Errorf("write snapshot: insert node %s: %w", n.ChangeID, err)
		}
	}

	for _, e := range g.AllEdges() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO edges
			(from_id, to_id, edge_type, rationale, created_at, author, deleted,
			 written_at, written_author, written_seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(from_id, to_id, edge_type) DO NOTHING
		`,
			e.From, e.To, string(e.Type), e.Rationale,
			e.CreatedAt.UTC().Format(time.RFC3339Nano), e.Author, boolToInt(e.Deleted),
			e.LastWrite.At.UTC().Format(time.RFC3339Nano), e.LastWrite.Author, e.LastWrite.Seq,
		)
		if err != nil {
			return fmt.Errorf("write snapshot: insert edge %s->%s: %w", e.From, e.To, err)
		}
	}

	for _, e := range g.Pending() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO pending_edges
			(from_id, to_id, edge_type, rationale, created_at, author,
			 written_at, written_author, written_seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(from_id, to_id, edge_type) DO NOTHING
		`,
			e.From, e.To, string(e.Type), e.Rationale,
			e.CreatedAt.UTC().Format(time.RFC3339Nano), e.Author,
			e.LastWrite.At.UTC().Format(time.RFC3339Nano), e.LastWrite.Author, e.LastWrite.Seq,
		)
		if err != nil {
			return fmt.Errorf("write snapshot: insert pending edge %s->%s: %w", e.From, e.To, err)
		}
	}

	for author, seq := range cursors {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cursors (author, seq) VALUES (?, ?)
			ON CONFLICT(author) DO UPDATE SET seq = excluded.seq
		`, author, seq)
		if err != nil {
			return fmt.Errorf("write snapshot: insert cursor %s: %w", author, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot: commit: %w", err)
	}
	return nil
}

// Replace atomically replaces the snapshot at path with the given state.
// The new snapshot is written to a temporary file and renamed over the old
// one on full success, so readers observe either the previous snapshot or
// the complete new one, never a partial write.
func Replace(ctx context.Context, path string, g *graph.Graph, cursors map[string]int64) error {
	tmp := path + ".tmp"
	os.Remove(tmp) // stale temp from an aborted run

	store, err := Open(tmp)
	if err != nil {
		return err
	}
	if err := store.WriteState(ctx, g, cursors); err != nil {
		store.Close()
		os.Remove(tmp)
		return err
	}
	if err := store.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: close: %w", err)
	}

	// SQLite WAL sidecars must not outlive the database they belong to.
	os.Remove(tmp + "-wal")
	os.Remove(tmp + "-shm")
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: rename: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
