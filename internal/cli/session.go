package cli

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cairn-dev/cairn/internal/command"
	"github.com/cairn-dev/cairn/internal/config"
	"github.com/cairn-dev/cairn/internal/rebuild"
	"github.com/cairn-dev/cairn/internal/record"
	"github.com/cairn-dev/cairn/internal/snapshot"
	"github.com/cairn-dev/cairn/internal/wal"
)

// session is the per-invocation state: the discovered workspace and the
// graph materialized from the last checkpoint plus all author logs. It is
// constructed at process start and discarded at process end; there is no
// ambient singleton.
type session struct {
	ws     config.Workspace
	cfg    config.Config
	author string
	logs   []wal.AuthorLog
	res    *rebuild.Result
	logger *zap.Logger
}

// openSession locates the workspace and rebuilds the materialized graph.
func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	var (
		ws  config.Workspace
		err error
	)
	if opts.Dir != "" {
		ws = config.Workspace{Root: opts.Dir}
		if info, statErr := os.Stat(ws.Dir()); statErr != nil || !info.IsDir() {
			return nil, WrapExitError(ExitCommandError, "open workspace", config.ErrNoWorkspace)
		}
	} else {
		ws, err = config.Discover(".")
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open workspace", err)
		}
	}

	cfg, err := ws.LoadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	author := opts.Author
	if author == "" {
		author = os.Getenv("CAIRN_AUTHOR")
	}
	if author == "" {
		author = cfg.Author
	}

	base, cursors, err := snapshot.LoadIfExists(ctx, ws.SnapshotPath())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load snapshot", err)
	}

	logs, err := wal.ScanDir(ws.LogsDir())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "scan logs", err)
	}

	logger := newLogger(opts)
	res := rebuild.Rebuild(base, cursors, logs, rebuild.Options{Logger: logger})

	return &session{
		ws:     ws,
		cfg:    cfg,
		author: author,
		logs:   logs,
		res:    res,
		logger: logger,
	}, nil
}

// commander builds a command.Commander for the acting author. The next
// sequence number continues after both the author's own log and the
// checkpoint cursor, whichever is further along.
func (s *session) commander() (*command.Commander, error) {
	if s.author == "" {
		return nil, WrapExitError(ExitCommandError, "author identity required",
			fmt.Errorf("set author via --author, CAIRN_AUTHOR, or 'author:' in %s", s.ws.ConfigPath()))
	}

	nextSeq := int64(1)
	for _, log := range s.logs {
		if log.Author == s.author {
			if next := wal.NextSeq(log); next > nextSeq {
				nextSeq = next
			}
		}
	}
	if cur := s.res.Cursors[s.author]; cur+1 > nextSeq {
		nextSeq = cur + 1
	}

	return command.New(s.res.Graph, s.author, nextSeq), nil
}

// appendRecords writes sealed records to the acting author's log in one
// uninterrupted burst.
func (s *session) appendRecords(recs ...record.Record) error {
	if err := wal.Append(s.ws.LogsDir(), s.author, recs); err != nil {
		return WrapExitError(ExitCommandError, "append to author log", err)
	}
	return nil
}
