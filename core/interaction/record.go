// Package interaction parses catRAPID all-vs-all interaction lines.
//
// A line looks like
//
//	sp|Q96DC8|ECHD3_HUMAN ENST00000579524	-12.33	0.10	0.00
//
// The protein compound token and the RNA ID are separated by a space; the
// remaining columns are tab separated. The protein (left) ID is the middle
// field of the pipe-delimited compound; the RNA (right) ID and the score are
// the first two fields after it. Further columns are ignored.
package interaction

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"catrapid-core/histogram"
)

// Record is one parsed interaction.
type Record struct {
	Left  string // protein ID, e.g. UniProt accession
	Right string // RNA ID, e.g. Ensembl transcript
	Score float64
}

// Fields is a zero-copy view of a parsed line. Left and Right alias the
// line buffer and are only valid until that buffer is reused.
type Fields struct {
	Left  []byte
	Right []byte
	Score float64
}

// Record copies the view into an immutable Record.
func (f Fields) Record() Record {
	return Record{Left: string(f.Left), Right: string(f.Right), Score: f.Score}
}

// MalformedRecordError reports a line that does not match the grammar.
type MalformedRecordError struct {
	Line   int64  // 1-based line number
	Raw    string // the offending line without its terminator
	Reason string
	Err    error // underlying parse error, if any
}

func (e *MalformedRecordError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("line %d: malformed interaction (%s): %q", e.Line, e.Reason, raw)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Split parses one line (with or without its trailing newline).
// lineNo is only used to annotate errors.
func Split(line []byte, lineNo int64) (Fields, error) {
	body := bytes.TrimRight(line, "\r\n")
	fail := func(reason string, err error) (Fields, error) {
		return Fields{}, &MalformedRecordError{Line: lineNo, Raw: string(body), Reason: reason, Err: err}
	}

	sp := bytes.IndexByte(body, ' ')
	if sp < 0 {
		return fail("no space after protein token", nil)
	}
	compound, rest := body[:sp], body[sp+1:]

	left, ok := middleField(compound)
	if !ok {
		return fail("protein token is not prefix|ID|suffix", nil)
	}

	right, rest := nextField(rest)
	if len(right) == 0 {
		return fail("missing RNA ID", nil)
	}
	scoreTok, _ := nextField(rest)
	if len(scoreTok) == 0 {
		return fail("missing score", nil)
	}
	score, err := strconv.ParseFloat(string(scoreTok), 64)
	if err != nil {
		return fail("bad score", err)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fail("score is not finite", nil)
	}
	if !histogram.InRange(score) {
		return fail("score out of range", nil)
	}
	return Fields{Left: left, Right: right, Score: score}, nil
}

// Parse is Split followed by a copy into a Record.
func Parse(line []byte, lineNo int64) (Record, error) {
	f, err := Split(line, lineNo)
	if err != nil {
		return Record{}, err
	}
	return f.Record(), nil
}

func middleField(compound []byte) ([]byte, bool) {
	i := bytes.IndexByte(compound, '|')
	if i < 0 {
		return nil, false
	}
	mid := compound[i+1:]
	if j := bytes.IndexByte(mid, '|'); j >= 0 {
		mid = mid[:j]
	}
	return mid, len(mid) > 0
}

// nextField skips leading spaces/tabs and returns the next token and the
// remainder after it.
func nextField(b []byte) (field, rest []byte) {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	j := i
	for j < len(b) && b[j] != ' ' && b[j] != '\t' {
		j++
	}
	return b[i:j], b[j:]
}
