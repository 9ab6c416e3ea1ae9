// pkg/api/run_v1.go
package api

// RunReportVersion is the schema version written into RunReportV1.Version.
const RunReportVersion = 1

// RunReportV1 is the stable JSON summary of one run (run_report.json).
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type RunReportV1 struct {
	Version   int    `json:"version"`
	RunID     string `json:"run_id"`
	Tool      string `json:"tool"`     // "catrapid <version>"
	Input     string `json:"input"`    // path or "-"
	Encoding  string `json:"encoding"` // plain | gzip | zstd
	OutputDir string `json:"output_dir"`

	Options RunOptionsV1   `json:"options"`
	Counts  RunCountsV1    `json:"counts"`
	Totals  EntityTotalsV1 `json:"entities"`

	Outputs   []string `json:"outputs"`             // file names, in commit order
	Published []string `json:"published,omitempty"` // object keys

	StartedAt  string  `json:"started_at"` // RFC 3339
	ElapsedSec float64 `json:"elapsed_sec"`
}

// RunOptionsV1 echoes the effective settings.
type RunOptionsV1 struct {
	Cutoff            string `json:"cutoff"` // number or "OFF"
	PairFilter        string `json:"pair_filter,omitempty"`
	ProteinFilter     string `json:"protein_filter,omitempty"`
	RNAFilter         string `json:"rna_filter,omitempty"`
	PairFilterSize    int    `json:"pair_filter_size"`
	ProteinFilterSize int    `json:"protein_filter_size"`
	RNAFilterSize     int    `json:"rna_filter_size"`
	WriteInteractions bool   `json:"write_interactions"`
	BatchSize         int    `json:"batch_size"`
	ShardCodec        string `json:"shard_codec"`
	Pipeline          bool   `json:"pipeline"`
	SkipMalformed     bool   `json:"skip_malformed"`
}

// RunCountsV1 are the scan counters. Dropped is keyed by cascade stage
// ("cutoff", "rna", "protein", "pair").
type RunCountsV1 struct {
	Lines       int64            `json:"lines"`
	Blank       int64            `json:"blank"`
	Records     int64            `json:"records"`
	Kept        int64            `json:"kept"`
	Malformed   int64            `json:"malformed"`
	Dropped     map[string]int64 `json:"dropped"`
	Shards      int              `json:"shards"`
	MergedBytes int64            `json:"merged_bytes"`
}

// EntityTotalsV1 sizes the two universes.
type EntityTotalsV1 struct {
	Proteins         int `json:"proteins"`
	RNAs             int `json:"rnas"`
	ProteinsWithData int `json:"proteins_with_data"`
	RNAsWithData     int `json:"rnas_with_data"`
	HistogramBuckets int `json:"histogram_buckets"`
}
