// internal/integration/integration_test.go
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catrapid/internal/app"
	"catrapid/pkg/api"
)

const example = "sp|P1|X ENST1\t5.26\t0.1\n" +
	"sp|P1|X ENST2\t-3.0\t0.2\n" +
	"sp|P2|Y ENST1\t1.0\t0.0\n"

func write(t *testing.T, dir, name, data string) string {
	t.Helper()
	fn := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(fn, []byte(data), 0o644))
	return fn
}

func read(t *testing.T, fn string) string {
	t.Helper()
	b, err := os.ReadFile(fn)
	require.NoError(t, err)
	return string(b)
}

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errBuf bytes.Buffer
	code := app.Run(args, &out, &errBuf)
	return code, out.String(), errBuf.String()
}

func TestEndToEnd_WorkedExample(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "interactions.out", example)
	outDir := filepath.Join(dir, "results")

	code, stdout, stderr := run(t, "--cutoff", "0", "--log-level", "warn", in, outDir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "3 records, 2 kept, 1 dropped")

	assert.Equal(t,
		"uniprotac\tmean_score\tmedian_score\tstd_score\tcount\n"+
			"P1\t5.30\t5.30\t0.00\t1\n"+
			"P2\t1.00\t1.00\t0.00\t1\n",
		read(t, filepath.Join(outDir, "proteinInteractions.tsv")))
	assert.Equal(t,
		"ensembl_id\tmean_score\tmedian_score\tstd_score\tcount\n"+
			"ENST1\t3.15\t3.15\t2.15\t2\n"+
			"ENST2\tNA\tNA\tNA\tNA\n",
		read(t, filepath.Join(outDir, "rnaInteractions.tsv")))
	assert.Equal(t,
		"sp|P1|X ENST1\t5.26\t0.1\nsp|P2|Y ENST1\t1.0\t0.0\n",
		read(t, filepath.Join(outDir, "storedInteractions.tsv")))

	var rep api.RunReportV1
	require.NoError(t, json.Unmarshal([]byte(read(t, filepath.Join(outDir, "run_report.json"))), &rep))
	assert.Equal(t, api.RunReportVersion, rep.Version)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, int64(3), rep.Counts.Records)
	assert.Equal(t, int64(2), rep.Counts.Kept)
	assert.Equal(t, int64(1), rep.Counts.Dropped["cutoff"])
	assert.Equal(t, "0", rep.Options.Cutoff)
	assert.Equal(t, []string{"storedInteractions.tsv", "rnaInteractions.tsv", "proteinInteractions.tsv", "run_report.json"}, rep.Outputs)

	ents, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, ents, 4, "no shards or temp files may remain")
}

func TestEndToEnd_NoInteractionsFile(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "in.tsv", example)
	outDir := filepath.Join(dir, "out")
	code, _, stderr := run(t, "-q", "--write-interactions=false", in, outDir)
	require.Equal(t, 0, code, stderr)
	assert.NoFileExists(t, filepath.Join(outDir, "storedInteractions.tsv"))
	assert.FileExists(t, filepath.Join(outDir, "rnaInteractions.tsv"))
}

func synthetic(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "sp|Q%03d|H_HUMAN ENST%05d\t%d.%02d\t0.%d\t0.00\n", i%31, i%47, i%21-10, (i*7)%100, i%10)
	}
	return b.String()
}

func outputs(t *testing.T, dir string) map[string]string {
	t.Helper()
	m := map[string]string{}
	for _, name := range []string{"storedInteractions.tsv", "proteinInteractions.tsv", "rnaInteractions.tsv"} {
		m[name] = read(t, filepath.Join(dir, name))
	}
	return m
}

func TestBatchSizeAndModeInvariance(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "in.tsv", synthetic(3000))

	var base map[string]string
	for i, args := range [][]string{
		{"--batch-size", "1000000"},
		{"--batch-size", "1"},
		{"--batch-size", "17", "--shard-codec", "zstd"},
		{"--batch-size", "250", "--shard-codec", "lz4", "--pipeline"},
	} {
		outDir := filepath.Join(dir, fmt.Sprintf("out%d", i))
		argv := append([]string{"-q", "--cutoff", "-2"}, args...)
		code, _, stderr := run(t, append(argv, in, outDir)...)
		require.Equal(t, 0, code, stderr)
		got := outputs(t, outDir)
		if base == nil {
			base = got
			continue
		}
		if diff := cmp.Diff(base, got); diff != "" {
			t.Fatalf("%v changed outputs (-base +got):\n%s", args, diff)
		}
	}
}

func countRows(s string) int { return strings.Count(s, "\n") }

func TestMonotonicFiltering(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "in.tsv", synthetic(2000))
	rnas := write(t, dir, "rnas.txt", "ENST00001\nENST00002\nENST00003\nENST00010\n")
	prots := write(t, dir, "prots.txt", "Q001\nQ002\n")
	pairs := write(t, dir, "pairs.tsv", "Q001\tENST00001\nQ002\tENST00010\n")

	var prev = -1
	for i, extra := range [][]string{
		{},
		{"--rna-filter", rnas},
		{"--rna-filter", rnas, "--protein-filter", prots},
		{"--rna-filter", rnas, "--protein-filter", prots, "--pair-filter", pairs},
	} {
		outDir := filepath.Join(dir, fmt.Sprintf("out%d", i))
		argv := append([]string{"-q", "--cutoff", "0"}, extra...)
		code, _, stderr := run(t, append(argv, in, outDir)...)
		require.Equal(t, 0, code, stderr)
		kept := countRows(read(t, filepath.Join(outDir, "storedInteractions.tsv")))
		if prev >= 0 {
			assert.LessOrEqual(t, kept, prev, "filters %v", extra)
		}
		prev = kept
		// Every entity seen in the input keeps a row, filtered or not.
		assert.Equal(t, 31+1, countRows(read(t, filepath.Join(outDir, "proteinInteractions.tsv"))))
		assert.Equal(t, 47+1, countRows(read(t, filepath.Join(outDir, "rnaInteractions.tsv"))))
	}
}

func TestCutoffInclusive(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "in.tsv", "sp|P1|X R1\t0.5\nsp|P1|X R2\t0.49\n")
	outDir := filepath.Join(dir, "out")
	code, _, stderr := run(t, "-q", "--cutoff", "0.5", in, outDir)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "sp|P1|X R1\t0.5\n", read(t, filepath.Join(outDir, "storedInteractions.tsv")))
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "in.tsv", example)
	cfg := write(t, dir, "run.yaml", "cutoff: \"0\"\noutput:\n  write_interactions: false\nlogging:\n  level: error\n")
	outDir := filepath.Join(dir, "out")
	code, _, stderr := run(t, "--config", cfg, in, outDir)
	require.Equal(t, 0, code, stderr)
	assert.NoFileExists(t, filepath.Join(outDir, "storedInteractions.tsv"))
	assert.Contains(t, read(t, filepath.Join(outDir, "rnaInteractions.tsv")), "ENST2\tNA\tNA\tNA\tNA\n")
}
