// core/histogram/round.go
package histogram

import (
	"math"
	"strconv"
	"strings"
)

// Tenths is a score rounded to one decimal place, stored as score*10.
// Integer keys keep histogram buckets exact; 5.3 is Tenths(53).
type Tenths int64

// Float returns the rounded score as a float64.
func (t Tenths) Float() float64 { return float64(t) / 10 }

// MaxAbsScore bounds the scores a histogram can hold exactly: ten times
// the value must fit in an int64 key.
const MaxAbsScore = 1e17

// InRange reports whether score can be rounded without saturating.
func InRange(score float64) bool {
	return !math.IsNaN(score) && math.Abs(score) < MaxAbsScore
}

// Round rounds score to one decimal place with ties going to the even
// neighbour (5.25 -> 5.2, 5.35 -> 5.4, -0.05 -> -0.0).
//
// Rounding works on the shortest decimal representation of score, so a
// value read from text as "0.15" is treated as the exact tie it looks like
// rather than as its binary approximation. NaN and ±Inf round to 0; callers
// reject them before they reach a histogram.
func Round(score float64) Tenths {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	neg := score < 0
	s := strconv.FormatFloat(math.Abs(score), 'f', -1, 64)

	intPart, frac, _ := strings.Cut(s, ".")
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || whole > math.MaxInt64/10-1 {
		// saturate outside the int64 range
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	t := whole * 10
	if frac != "" {
		t += int64(frac[0] - '0')
		if up(frac[1:], t) {
			t++
		}
	}
	if neg {
		t = -t
	}
	return Tenths(t)
}

// up decides whether the remaining digits round the last kept digit up.
func up(rest string, kept int64) bool {
	if rest == "" {
		return false
	}
	switch {
	case rest[0] > '5':
		return true
	case rest[0] < '5':
		return false
	}
	if strings.TrimRight(rest[1:], "0") != "" {
		return true
	}
	return kept%2 == 1
}
