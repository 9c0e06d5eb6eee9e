package wal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cairn-dev/cairn/internal/record"
)

// LogExt is the file extension of author log files.
const LogExt = ".log"

// AuthorLog is one contributor's scanned log: its valid records in file
// order plus any lines that failed to parse.
type AuthorLog struct {
	Author    string
	Path      string
	Records   []record.Record
	Malformed []MalformedLine
}

// MalformedLine reports one unparseable log line. Contained, never fatal.
type MalformedLine struct {
	Path string
	Line int
	Err  error
}

// LogPath returns the log file path for an author inside dir.
func LogPath(dir, author string) string {
	return filepath.Join(dir, author+LogExt)
}

// Append appends records to the author's log file, creating it if needed.
// Records are written one JSON document per line and synced before
// returning, so a crash can truncate only the trailing burst.
func Append(dir, author string, recs []record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("append log: %w", err)
	}

	f, err := os.OpenFile(LogPath(dir, author), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range recs {
		if recs[i].RecordID == "" {
			return fmt.Errorf("append log: record %d has no record_id (unsealed)", i)
		}
		if recs[i].Author != author {
			return fmt.Errorf("append log: record author %q does not match log %q", recs[i].Author, author)
		}
		if err := enc.Encode(recs[i]); err != nil {
			return fmt.Errorf("append log: encode record: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("append log: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("append log: sync: %w", err)
	}
	return nil
}

// Scan reads one author log file. Unparseable lines are collected as
// MalformedLine entries and skipped; scanning always continues.
func Scan(path string) (AuthorLog, error) {
	author := strings.TrimSuffix(filepath.Base(path), LogExt)
	log := AuthorLog{Author: author, Path: path}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return log, nil
		}
		return log, fmt.Errorf("scan log %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec record.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Malformed = append(log.Malformed, MalformedLine{Path: path, Line: lineNo, Err: err})
			continue
		}
		if rec.RecordID == "" || rec.Author == "" || !record.ValidOp(rec.Op) {
			log.Malformed = append(log.Malformed, MalformedLine{
				Path: path,
				Line: lineNo,
				Err:  fmt.Errorf("missing record_id/author or unknown op %q", rec.Op),
			})
			continue
		}
		log.Records = append(log.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return log, fmt.Errorf("scan log %s: %w", path, err)
	}
	return log, nil
}

// ScanDir scans every author log in dir, sorted by author identifier so the
// result is independent of directory iteration order.
func ScanDir(dir string) ([]AuthorLog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan logs dir: %w", err)
	}

	var logs []AuthorLog
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), LogExt) {
			continue
		}
		log, err := Scan(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Author < logs[j].Author })
	return logs, nil
}

// NextSeq returns the next per-author sequence number after the records in
// the author's log. Sequence numbers start at 1.
func NextSeq(log AuthorLog) int64 {
	var max int64
	for _, r := range log.Records {
		if r.Seq > max {
			max = r.Seq
		}
	}
	return max + 1
}

// Truncate rewrites the author's log keeping only records with seq strictly
// greater than cursor. Used by checkpointing after the snapshot is durably
// written, never before. The rewrite goes through a temp file and rename so
// readers see either the old or the new file, never a partial one.
func Truncate(dir, author string, cursor int64) error {
	path := LogPath(dir, author)
	log, err := Scan(path)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("truncate log: %w", err)
	}
	enc := json.NewEncoder(f)
	for _, r := range log.Records {
		if r.Seq <= cursor {
			continue
		}
		if err := enc.Encode(r); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("truncate log: encode: %w", err)
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("truncate log: sync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("truncate log: close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("truncate log: rename: %w", err)
	}
	return nil
}
