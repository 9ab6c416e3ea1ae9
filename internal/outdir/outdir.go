// internal/outdir/outdir.go
package outdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catrapid/internal/ioerr"
)

// Fixed output file names.
const (
	StoredInteractionsName = "storedInteractions.tsv"
	ProteinSummaryName     = "proteinInteractions.tsv"
	RNASummaryName         = "rnaInteractions.tsv"
	RunReportName          = "run_report.json"
)

// Policy decides what happens when the output directory already holds
// results from an earlier run.
type Policy string

const (
	PolicyFail      Policy = "fail"
	PolicyOverwrite Policy = "overwrite"
)

// ParsePolicy accepts "fail" or "overwrite" (empty means fail).
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyFail:
		return PolicyFail, nil
	case PolicyOverwrite:
		return p, nil
	default:
		return "", fmt.Errorf("unknown if-exists policy %q (want fail or overwrite)", s)
	}
}

// ConflictError reports output files that would be replaced under PolicyFail.
type ConflictError struct {
	Dir      string
	Existing []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("output directory %s already contains %s (use --if-exists overwrite)",
		e.Dir, strings.Join(e.Existing, ", "))
}

// Layout is the set of paths a run writes.
type Layout struct {
	Dir                string
	StoredInteractions string
	ProteinSummary     string
	RNASummary         string
	RunReport          string
}

// NewLayout returns the layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{
		Dir:                dir,
		StoredInteractions: filepath.Join(dir, StoredInteractionsName),
		ProteinSummary:     filepath.Join(dir, ProteinSummaryName),
		RNASummary:         filepath.Join(dir, RNASummaryName),
		RunReport:          filepath.Join(dir, RunReportName),
	}
}

// Outputs lists the result files in the order they are committed.
func (l Layout) Outputs(withStored bool) []string {
	out := make([]string, 0, 4)
	if withStored {
		out = append(out, l.StoredInteractions)
	}
	return append(out, l.RNASummary, l.ProteinSummary, l.RunReport)
}

// Prepare creates dir if needed and applies policy. Under PolicyFail any
// existing result file is a *ConflictError. Under PolicyOverwrite existing
// results are left in place and replaced atomically as each new file is
// committed; a stored-interactions file that this run will not produce is
// removed so the directory stays consistent.
func Prepare(dir string, policy Policy, withStored bool) (Layout, error) {
	fi, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, ioerr.Wrap("mkdir", dir, err)
		}
	case err != nil:
		return Layout{}, ioerr.Wrap("stat", dir, err)
	case !fi.IsDir():
		return Layout{}, ioerr.Wrap("stat", dir, fmt.Errorf("not a directory"))
	}

	l := NewLayout(dir)
	var existing []string
	for _, p := range l.Outputs(true) {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, filepath.Base(p))
		}
	}
	if len(existing) == 0 {
		return l, nil
	}
	if policy != PolicyOverwrite {
		return Layout{}, &ConflictError{Dir: dir, Existing: existing}
	}
	if !withStored {
		if err := os.Remove(l.StoredInteractions); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Layout{}, ioerr.Wrap("remove", l.StoredInteractions, err)
		}
	}
	return l, nil
}
