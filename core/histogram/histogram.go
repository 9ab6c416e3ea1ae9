// core/histogram/histogram.go
package histogram

import (
	"math"
	"sort"
)

// Histogram counts occurrences of rounded scores for one entity.
// It replaces a raw score list: memory grows with the number of distinct
// rounded values, not with the number of records.
type Histogram struct {
	counts map[Tenths]uint64
	total  uint64
}

// New returns an empty histogram.
func New() *Histogram {
	return &Histogram{counts: make(map[Tenths]uint64, 4)}
}

// Add records one occurrence of t.
func (h *Histogram) Add(t Tenths) {
	h.counts[t]++
	h.total++
}

// Count is the number of recorded occurrences (the sum of all buckets).
func (h *Histogram) Count() uint64 { return h.total }

// Buckets returns the number of distinct rounded values.
func (h *Histogram) Buckets() int { return len(h.counts) }

// Bucket returns the count recorded for t.
func (h *Histogram) Bucket(t Tenths) uint64 { return h.counts[t] }

// Summary holds the statistics reconstructed from a histogram.
type Summary struct {
	Mean   float64
	Median float64
	Std    float64 // population standard deviation (divides by N)
	Count  uint64
}

// Summarize reconstructs mean, median and population standard deviation
// as if the histogram were expanded back into its value list. The second
// result is false when the histogram is empty; there is no defined summary
// for zero values.
func (h *Histogram) Summarize() (Summary, bool) {
	if h == nil || h.total == 0 {
		return Summary{}, false
	}
	keys := make([]Tenths, 0, len(h.counts))
	var sum float64
	for k, c := range h.counts {
		keys = append(keys, k)
		sum += float64(k) * float64(c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	n := float64(h.total)
	mean := sum / (10 * n)

	var ss float64
	for _, k := range keys {
		d := k.Float() - mean
		ss += float64(h.counts[k]) * d * d
	}

	return Summary{
		Mean:   mean,
		Median: h.median(keys),
		Std:    math.Sqrt(ss / n),
		Count:  h.total,
	}, true
}

// median walks the sorted buckets by cumulative count. For an even number
// of values it averages the two middle ones.
func (h *Histogram) median(keys []Tenths) float64 {
	lo := (h.total - 1) / 2 // 0-based rank of the lower middle value
	hi := h.total / 2       // equal to lo when the count is odd
	var (
		seen         uint64
		loVal, hiVal Tenths
		haveLo       bool
	)
	for _, k := range keys {
		seen += h.counts[k]
		if !haveLo && seen > lo {
			loVal, haveLo = k, true
		}
		if seen > hi {
			hiVal = k
			break
		}
	}
	return (float64(loVal) + float64(hiVal)) / 20
}
