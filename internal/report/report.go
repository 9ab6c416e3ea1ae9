// internal/report/report.go
package report

import (
	"io"
	"strconv"

	"catrapid/internal/aggregate"
	"catrapid/internal/universe"
	"catrapid/internal/writers"
)

// Column headers are part of the file contract; downstream scripts key on them.
const (
	ProteinHeader = "uniprotac\tmean_score\tmedian_score\tstd_score\tcount"
	RNAHeader     = "ensembl_id\tmean_score\tmedian_score\tstd_score\tcount"
)

// Sentinel fills every value column of an entity with no surviving records.
const Sentinel = "NA"

// Header returns the header row for side.
func Header(side universe.Side) string {
	if side == universe.Left {
		return ProteinHeader
	}
	return RNAHeader
}

// AppendRow formats one row (with newline) onto dst.
func AppendRow(dst []byte, r aggregate.Row) []byte {
	dst = append(dst, r.ID...)
	if !r.HasData {
		for i := 0; i < 4; i++ {
			dst = append(dst, '\t')
			dst = append(dst, Sentinel...)
		}
		return append(dst, '\n')
	}
	for _, v := range [...]float64{r.Summary.Mean, r.Summary.Median, r.Summary.Std} {
		dst = append(dst, '\t')
		dst = strconv.AppendFloat(dst, v, 'f', 2, 64)
	}
	dst = append(dst, '\t')
	dst = strconv.AppendUint(dst, r.Summary.Count, 10)
	return append(dst, '\n')
}

// WriteTable writes header and rows in the order given.
func WriteTable(w io.Writer, header string, rows []aggregate.Row) error {
	buf := make([]byte, 0, 4096)
	buf = append(append(buf, header...), '\n')
	for _, r := range rows {
		buf = AppendRow(buf, r)
		if len(buf) >= 64*1024 {
			if _, err := w.Write(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	_, err := w.Write(buf)
	return err
}

// Paths names the two summary files.
type Paths struct {
	Protein string
	RNA     string
}

// WriteAll writes both summary files from a frozen aggregator into g. The
// files appear at their paths when g is committed. It returns the number of
// rows written per side.
func WriteAll(g *writers.Group, p Paths, agg *aggregate.Aggregator) (proteins, rnas int, err error) {
	if !agg.Frozen() {
		panic("report: aggregator is still being written")
	}
	write := func(path string, side universe.Side) (int, error) {
		rows := agg.Rows(side)
		af, err := g.Create(path)
		if err != nil {
			return 0, err
		}
		return len(rows), WriteTable(af, Header(side), rows)
	}
	if rnas, err = write(p.RNA, universe.Right); err != nil {
		return 0, 0, err
	}
	if proteins, err = write(p.Protein, universe.Left); err != nil {
		return 0, 0, err
	}
	return proteins, rnas, nil
}
