// Package filter implements the inclusion cascade applied to every
// interaction: score cutoff, then RNA allow-list, then protein allow-list,
// then pair allow-list. An empty allow-list disables its stage.
package filter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Set is an allow-list of IDs (or "protein_rna" pair keys).
type Set map[string]struct{}

// Has reports whether id is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Enabled reports whether the stage backed by s filters anything.
func (s Set) Enabled() bool { return len(s) > 0 }

// PairKey joins a protein and an RNA ID the way pair allow-lists are keyed.
func PairKey(left, right string) string { return left + "_" + right }

// CutoffOff is the keyword that disables the score cutoff.
const CutoffOff = "OFF"

// Cutoff is the minimum retained score. The zero value is disabled.
type Cutoff struct {
	Value   float64
	Enabled bool
}

// ParseCutoff accepts a number or "OFF" (case-insensitive; empty means OFF).
func ParseCutoff(s string) (Cutoff, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, CutoffOff) {
		return Cutoff{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Cutoff{}, fmt.Errorf("invalid cutoff %q: want a number or %s", s, CutoffOff)
	}
	if math.IsNaN(v) {
		return Cutoff{}, errors.New("cutoff must not be NaN")
	}
	return Cutoff{Value: v, Enabled: true}, nil
}

// Keeps reports whether score passes. The bound is inclusive.
func (c Cutoff) Keeps(score float64) bool {
	return !c.Enabled || score >= c.Value
}

func (c Cutoff) String() string {
	if !c.Enabled {
		return CutoffOff
	}
	return strconv.FormatFloat(c.Value, 'g', -1, 64)
}

// Spec is the full, read-only filter configuration of a run.
type Spec struct {
	Cutoff   Cutoff
	Pairs    Set // keys are PairKey(protein, rna)
	Proteins Set // left-entity allow-list
	RNAs     Set // right-entity allow-list
}

// Stage identifies the cascade step that rejected a record.
type Stage int

const (
	Pass Stage = iota
	StageCutoff
	StageRNA
	StageProtein
	StagePair
	numStages
)

// Stages lists the rejecting stages in cascade order.
var Stages = [...]Stage{StageCutoff, StageRNA, StageProtein, StagePair}

// NumStages sizes per-stage counters indexed by Stage.
const NumStages = int(numStages)

func (s Stage) String() string {
	switch s {
	case Pass:
		return "pass"
	case StageCutoff:
		return "cutoff"
	case StageRNA:
		return "rna"
	case StageProtein:
		return "protein"
	case StagePair:
		return "pair"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Cascade applies a Spec. It keeps a scratch buffer for pair keys, so a
// Cascade must not be shared between goroutines.
type Cascade struct {
	spec    Spec
	scratch []byte
}

// NewCascade returns a cascade for spec.
func NewCascade(spec Spec) *Cascade {
	return &Cascade{spec: spec, scratch: make([]byte, 0, 64)}
}

// Spec returns the configuration the cascade applies.
func (c *Cascade) Spec() Spec { return c.spec }

// Check runs the stages in order and returns the first one that rejects,
// or Pass.
func (c *Cascade) Check(left, right []byte, score float64) Stage {
	if !c.spec.Cutoff.Keeps(score) {
		return StageCutoff
	}
	if c.spec.RNAs.Enabled() && !c.spec.RNAs.Has(string(right)) {
		return StageRNA
	}
	if c.spec.Proteins.Enabled() && !c.spec.Proteins.Has(string(left)) {
		return StageProtein
	}
	if c.spec.Pairs.Enabled() {
		c.scratch = append(append(append(c.scratch[:0], left...), '_'), right...)
		if !c.spec.Pairs.Has(string(c.scratch)) {
			return StagePair
		}
	}
	return Pass
}
