package rebuild

import "fmt"

// DiagKind categorizes rebuild diagnostics.
type DiagKind string

const (
	// DiagMalformedRecord reports a log line that failed to parse. The
	// line is skipped and replay continues.
	DiagMalformedRecord DiagKind = "malformed_record"

	// DiagOrderingAnomaly reports a sequence number that is not strictly
	// greater than its predecessor for the same author — evidence of log
	// corruption or truncation. The engine proceeds with the valid
	// records it can establish.
	DiagOrderingAnomaly DiagKind = "ordering_anomaly"

	// DiagDanglingReference reports an operation targeting a change ID
	// not (yet) known. For edges this is a pending edge, not an error.
	DiagDanglingReference DiagKind = "dangling_reference"

	// DiagIncompleteBurst reports a composite burst with fewer members
	// than it declares. The whole burst is withheld as not-yet-applied.
	DiagIncompleteBurst DiagKind = "incomplete_burst"
)

// Diagnostic is one contained, non-fatal replay finding.
type Diagnostic struct {
	Kind    DiagKind `json:"kind"`
	Author  string   `json:"author,omitempty"`
	Path    string   `json:"path,omitempty"`
	Line    int      `json:"line,omitempty"`
	Seq     int64    `json:"seq,omitempty"`
	Message string   `json:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", d.Kind, d.Path, d.Line, d.Message)
	case d.Author != "":
		return fmt.Sprintf("%s: author %s seq %d: %s", d.Kind, d.Author, d.Seq, d.Message)
	default:
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
}
