// Package diag implements the error taxonomy of the structuring core: a
// leveled diagnostic log for the non-fatal cases (irreducible regions,
// indirect calls with unknown destinations, empty out-edge sets, unknown
// persisted fields) and a recoverable Bug panic for structural assertion
// violations. It is grounded on godoctor's doctor.Log/LogEntry severity
// model, generalized from source positions to block references.
package diag

import (
	"bytes"
	"fmt"
)

// Severity classifies a diagnostic entry, mirroring doctor.Severity.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
	FatalError
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case FatalError:
		return "fatal"
	default:
		return "unknown"
	}
}

// Entry is a single diagnostic produced while structuring a procedure.
// BlockOrd is the block's reverse-post-order index (block.ID is internal to
// the arena and not meaningful once the procedure is done); it is -1 when
// the entry is not associated with a particular block.
type Entry struct {
	Severity Severity
	Message  string
	BlockOrd int
}

func (e Entry) String() string {
	var buf bytes.Buffer
	switch e.Severity {
	case Warning:
		buf.WriteString("warning: ")
	case Error:
		buf.WriteString("error: ")
	case FatalError:
		buf.WriteString("fatal: ")
	}
	buf.WriteString(e.Message)
	if e.BlockOrd >= 0 {
		fmt.Fprintf(&buf, " (block #%d)", e.BlockOrd)
	}
	return buf.String()
}

// Log accumulates diagnostics produced by one structuring run. A nonempty
// Log does not mean structuring failed — Warning entries and the Error
// entries written by Degrade both describe non-fatal conditions, such as
// graceful degradation to goto form (§7's "recovery is local").
type Log struct {
	Entries []Entry
}

func (l *Log) add(sev Severity, blockOrd int, format string, args ...interface{}) {
	l.Entries = append(l.Entries, Entry{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		BlockOrd: blockOrd,
	})
}

// Info records an informational entry (e.g. "structured" note for tooling).
func (l *Log) Info(blockOrd int, format string, args ...interface{}) {
	l.add(Info, blockOrd, format, args...)
}

// Warn records a non-fatal warning: indirect call destination unknown, empty
// out-edge set on a Seq block, or an unknown TLV field skipped during
// deserialization.
func (l *Log) Warn(blockOrd int, format string, args ...interface{}) {
	l.add(Warning, blockOrd, format, args...)
}

// Degrade records that a block or region could not be classified and was
// degraded to goto-threaded Seq form (§7's "irreducible region" case). Never
// fatal, per spec.
func (l *Log) Degrade(blockOrd int, format string, args ...interface{}) {
	l.add(Error, blockOrd, format, args...)
}

// HasErrors reports whether any Error or FatalError entries were logged.
func (l *Log) HasErrors() bool {
	for _, e := range l.Entries {
		if e.Severity >= Error {
			return true
		}
	}
	return false
}

func (l *Log) String() string {
	var buf bytes.Buffer
	for _, e := range l.Entries {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}

// Bug is the payload of a panic raised when a structural assertion (§3.2) is
// violated — a programmer error, not a property of the input CFG. Structurer
// entry points recover it and turn it back into a normal Go error so that a
// library caller never sees a panic escape a call (see structure.Run).
type Bug struct {
	Message string
}

func (b Bug) Error() string { return "structurer: " + b.Message }

// Assertf panics with a Bug if cond is false. Used for structural
// assertions: Cond/SetCond on a block with no trailing branch, and the
// emitter's invariant checks.
func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(Bug{Message: fmt.Sprintf(format, args...)})
	}
}
