// core/histogram/table.go
package histogram

// Table is the frequency aggregator: one Histogram per entity key.
// It is not safe for concurrent use; a run has exactly one writer.
type Table[K comparable] struct {
	m map[K]*Histogram
}

// NewTable returns an empty table.
func NewTable[K comparable]() *Table[K] {
	return &Table[K]{m: make(map[K]*Histogram)}
}

// Record adds one rounded score for key. It performs no I/O.
func (t *Table[K]) Record(key K, score Tenths) {
	h, ok := t.m[key]
	if !ok {
		h = New()
		t.m[key] = h
	}
	h.Add(score)
}

// Finalize returns the summary for key, or false if key has no data.
func (t *Table[K]) Finalize(key K) (Summary, bool) {
	return t.m[key].Summarize()
}

// Get returns the histogram for key, or nil.
func (t *Table[K]) Get(key K) *Histogram { return t.m[key] }

// Len is the number of keys with at least one recorded score.
func (t *Table[K]) Len() int { return len(t.m) }

// Buckets sums distinct rounded values over all keys; it is the quantity
// that bounds the table's memory.
func (t *Table[K]) Buckets() int {
	n := 0
	for _, h := range t.m {
		n += h.Buckets()
	}
	return n
}
