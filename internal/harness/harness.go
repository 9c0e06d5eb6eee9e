package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairn-dev/cairn/internal/command"
	"github.com/cairn-dev/cairn/internal/config"
	"github.com/cairn-dev/cairn/internal/rebuild"
	"github.com/cairn-dev/cairn/internal/record"
	"github.com/cairn-dev/cairn/internal/snapshot"
	"github.com/cairn-dev/cairn/internal/testutil"
	"github.com/cairn-dev/cairn/internal/wal"
)

// Env is one multi-author scenario world: a temp workspace, a shared
// deterministic clock, and per-author sequence tracking.
type Env struct {
	T     *testing.T
	WS    config.Workspace
	Clock *testutil.Clock

	seqs map[string]int64
}

// NewEnv creates a scenario environment in a temp directory.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	ws, err := config.Init(t.TempDir(), "harness")
	require.NoError(t, err)
	return &Env{
		T:     t,
		WS:    ws,
		Clock: testutil.NewClock(),
		seqs:  make(map[string]int64),
	}
}

// Commander returns a fresh commander for author, validated against the
// current rebuild of the world.
func (e *Env) Commander(author string) *command.Commander {
	e.T.Helper()
	res := e.Rebuild()
	seq := e.seqs[author]
	if seq == 0 {
		seq = 1
	}
	return command.New(res.Graph, author, seq).WithClock(e.Clock.Now)
}

// Append writes records to author's log and advances its sequence.
func (e *Env) Append(author string, recs ...record.Record) {
	e.T.Helper()
	require.NoError(e.T, wal.Append(e.WS.LogsDir(), author, recs))
	seq := e.seqs[author]
	if seq == 0 {
		seq = 1
	}
	e.seqs[author] = seq + int64(len(recs))
}

// Add creates a node as author and returns its change ID.
func (e *Env) Add(author string, p command.AddParams) string {
	e.T.Helper()
	rec, err := e.Commander(author).Add(p)
	require.NoError(e.T, err)
	e.Append(author, rec)
	return rec.ChangeID
}

// Link creates an edge as author.
func (e *Env) Link(author string, p command.LinkParams) {
	e.T.Helper()
	rec, err := e.Commander(author).Link(p)
	require.NoError(e.T, err)
	e.Append(author, rec)
}

// SetStatus changes a node's status as author.
func (e *Env) SetStatus(author, changeID, status string) {
	e.T.Helper()
	rec, err := e.Commander(author).SetStatus(changeID, status)
	require.NoError(e.T, err)
	e.Append(author, rec)
}

// Pivot runs the composite pivot as author.
func (e *Env) Pivot(author string, p command.PivotParams) {
	e.T.Helper()
	recs, err := e.Commander(author).Pivot(p)
	require.NoError(e.T, err)
	e.Append(author, recs...)
}

// Rebuild replays the snapshot plus all logs.
func (e *Env) Rebuild() *rebuild.Result {
	e.T.Helper()
	ctx := context.Background()
	base, cursors, err := snapshot.LoadIfExists(ctx, e.WS.SnapshotPath())
	require.NoError(e.T, err)
	logs, err := wal.ScanDir(e.WS.LogsDir())
	require.NoError(e.T, err)
	return rebuild.Rebuild(base, cursors, logs, rebuild.Options{})
}

// Checkpoint compacts the world: snapshot write, cursor advance, and with
// clear, log truncation.
func (e *Env) Checkpoint(clear bool) *rebuild.Result {
	e.T.Helper()
	res := e.Rebuild()
	ctx := context.Background()
	require.NoError(e.T, snapshot.Replace(ctx, e.WS.SnapshotPath(), res.Graph, res.Cursors))
	if clear {
		for author, seq := range res.Cursors {
			require.NoError(e.T, wal.Truncate(e.WS.LogsDir(), author, seq))
		}
	}
	return res
}
