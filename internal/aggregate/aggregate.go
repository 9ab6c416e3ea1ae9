// internal/aggregate/aggregate.go
package aggregate

import (
	"catrapid-core/histogram"

	"catrapid/internal/universe"
)

// Aggregator owns the entity universe and one histogram table per side.
// It has a single writer: the scanner feeds it during the pass, then Freeze
// hands it read-only to the reporter.
type Aggregator struct {
	u      *universe.Universe
	tables [2]*histogram.Table[uint32]
	frozen bool
}

func New() *Aggregator {
	return &Aggregator{
		u:      universe.New(),
		tables: [2]*histogram.Table[uint32]{histogram.NewTable[uint32](), histogram.NewTable[uint32]()},
	}
}

// Observe registers both IDs of a raw record, before any filter runs.
func (a *Aggregator) Observe(left, right []byte) (lh, rh uint32, err error) {
	a.mustBeOpen("Observe")
	return a.u.Observe(left, right)
}

// Record adds a surviving record's rounded score to both entities.
func (a *Aggregator) Record(lh, rh uint32, score float64) {
	a.mustBeOpen("Record")
	t := histogram.Round(score)
	a.tables[universe.Left].Record(lh, t)
	a.tables[universe.Right].Record(rh, t)
}

// Freeze ends the mutation phase. It is idempotent.
func (a *Aggregator) Freeze() { a.frozen = true }

func (a *Aggregator) Frozen() bool { return a.frozen }

func (a *Aggregator) mustBeOpen(op string) {
	if a.frozen {
		panic("aggregate: " + op + " after Freeze")
	}
}

// Universe returns the observed IDs.
func (a *Aggregator) Universe() *universe.Universe { return a.u }

// Finalize returns the summary for id on side, or false if id has no
// surviving records (or was never seen).
func (a *Aggregator) Finalize(side universe.Side, id string) (histogram.Summary, bool) {
	h, ok := a.u.Interner().Lookup(id)
	if !ok {
		return histogram.Summary{}, false
	}
	return a.tables[side].Finalize(h)
}

// Row is one line of a summary table.
type Row struct {
	ID      string
	Summary histogram.Summary
	HasData bool
}

// Rows returns one row per entity seen on side, sorted by ID.
func (a *Aggregator) Rows(side universe.Side) []Row {
	ents := a.u.Sorted(side)
	rows := make([]Row, len(ents))
	for i, e := range ents {
		s, ok := a.tables[side].Finalize(e.Handle)
		rows[i] = Row{ID: e.ID, Summary: s, HasData: ok}
	}
	return rows
}

// Totals summarizes both sides for the run report.
type Totals struct {
	Proteins         int `json:"proteins"`
	RNAs             int `json:"rnas"`
	ProteinsWithData int `json:"proteins_with_data"`
	RNAsWithData     int `json:"rnas_with_data"`
	Buckets          int `json:"histogram_buckets"`
}

func (a *Aggregator) Totals() Totals {
	return Totals{
		Proteins:         a.u.Len(universe.Left),
		RNAs:             a.u.Len(universe.Right),
		ProteinsWithData: a.tables[universe.Left].Len(),
		RNAsWithData:     a.tables[universe.Right].Len(),
		Buckets:          a.tables[universe.Left].Buckets() + a.tables[universe.Right].Buckets(),
	}
}
