// Package assemble groups a line stream into raw per-game records.
package assemble

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTruncatedRecord is reported when the stream ends inside a record, with
// header lines buffered but no movetext line seen.
var ErrTruncatedRecord = errors.New("truncated trailing record")

// RawRecord is the ordered non-blank lines of one game: zero or more header
// lines followed by exactly one movetext line.
type RawRecord struct {
	Lines     []string
	StartLine int // 1-based stream position of the first buffered line
}

// Headers returns the header lines of the record.
func (r RawRecord) Headers() []string {
	return r.Lines[:len(r.Lines)-1]
}

// Movetext returns the terminating movetext line of the record.
func (r RawRecord) Movetext() string {
	return r.Lines[len(r.Lines)-1]
}

// Assembler consumes a line stream one line at a time and emits a RawRecord
// whenever a movetext terminator completes one. A line terminates a record
// exactly when its first non-space character is a digit.
type Assembler struct {
	skip     int
	lineNum  int
	buf      []string
	bufStart int
}

// New returns an assembler that ignores the first skipLines lines of the
// stream before any classification begins.
func New(skipLines int) *Assembler {
	return &Assembler{skip: skipLines}
}

// Feed consumes one line. It returns the completed record and true when the
// line terminates one, otherwise a zero record and false.
func (a *Assembler) Feed(line string) (RawRecord, bool) {
	a.lineNum++
	if a.lineNum <= a.skip {
		return RawRecord{}, false
	}

	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return RawRecord{}, false
	}

	if a.buf == nil {
		a.bufStart = a.lineNum
	}

	if stripped[0] >= '0' && stripped[0] <= '9' {
		a.buf = append(a.buf, stripped)
		rec := RawRecord{Lines: a.buf, StartLine: a.bufStart}
		a.buf = nil
		return rec, true
	}

	a.buf = append(a.buf, stripped)
	return RawRecord{}, false
}

// Finish reports whether the stream ended mid-record. The buffered lines are
// dropped either way; the caller decides whether the condition is fatal.
func (a *Assembler) Finish() error {
	if len(a.buf) == 0 {
		return nil
	}
	n := len(a.buf)
	start := a.bufStart
	a.buf = nil
	return fmt.Errorf("%w: %d header lines starting at line %d with no movetext", ErrTruncatedRecord, n, start)
}

// LineCount returns the number of lines consumed so far, including skipped
// and blank lines.
func (a *Assembler) LineCount() int {
	return a.lineNum
}
