// internal/integration/errors_test.go
package integration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodes(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "good.tsv", example)
	bad := write(t, dir, "bad.tsv", "sp|P1|X ENST1\t1.0\nnot a record\n")
	badFilter := write(t, dir, "rnas.txt", "ENST1\tENST2\n")
	gap := write(t, dir, "gap.tsv", "sp|P1|X ENST1\t1.0\n\nsp|P2|Y ENST2\t2.0\n")
	trailing := write(t, dir, "trailing.tsv", "sp|P1|X ENST1\t1.0\n\n\n")

	cases := []struct {
		name string
		args []string
		want int
	}{
		{"no args prints usage", nil, 0},
		{"help", []string{"--help"}, 0},
		{"version", []string{"--version"}, 0},
		{"missing positional", []string{good}, 2},
		{"bad flag", []string{"--nope", good, filepath.Join(dir, "o1")}, 2},
		{"bad batch", []string{"--batch-size", "0", good, filepath.Join(dir, "o2")}, 2},
		{"malformed filter", []string{"--rna-filter", badFilter, good, filepath.Join(dir, "o3")}, 2},
		{"missing filter", []string{"--rna-filter", filepath.Join(dir, "nope.txt"), good, filepath.Join(dir, "o4")}, 2},
		{"bad publish url", []string{"--publish", "ftp://x", good, filepath.Join(dir, "o5")}, 2},
		{"missing input", []string{filepath.Join(dir, "nope.tsv"), filepath.Join(dir, "o6")}, 3},
		{"malformed record", []string{bad, filepath.Join(dir, "o7")}, 3},
		{"skip malformed", []string{"--skip-malformed", bad, filepath.Join(dir, "o8")}, 0},
		{"interior blank line", []string{gap, filepath.Join(dir, "o9")}, 3},
		{"interior blank line skipped", []string{"--skip-malformed", gap, filepath.Join(dir, "o10")}, 0},
		{"trailing blank lines", []string{trailing, filepath.Join(dir, "o11")}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			args := tc.args
			if args != nil {
				args = append([]string{"-q"}, args...)
			}
			code, _, stderr := run(t, args...)
			assert.Equal(t, tc.want, code, stderr)
		})
	}
}

func TestMalformedRecord_LeavesNoPartialOutputs(t *testing.T) {
	dir := t.TempDir()
	bad := write(t, dir, "bad.tsv", "sp|P1|X ENST1\t1.0\nsp|P2|Y ENST2\t2.0\nnot a record\n")
	outDir := filepath.Join(dir, "out")
	code, _, stderr := run(t, "-q", "--batch-size", "1", bad, outDir)
	require.Equal(t, 3, code)
	assert.Contains(t, stderr, "line 3")

	ents, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, ents)
}

func TestOutputDirectoryConflict(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "in.tsv", example)
	outDir := filepath.Join(dir, "out")

	code, _, stderr := run(t, "-q", in, outDir)
	require.Equal(t, 0, code, stderr)
	before := read(t, filepath.Join(outDir, "rnaInteractions.tsv"))

	code, _, stderr = run(t, "-q", "--cutoff", "0", in, outDir)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "already contains")
	assert.Equal(t, before, read(t, filepath.Join(outDir, "rnaInteractions.tsv")), "fail policy must not touch outputs")

	code, _, stderr = run(t, "-q", "--cutoff", "0", "--if-exists", "overwrite", in, outDir)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, read(t, filepath.Join(outDir, "rnaInteractions.tsv")), "ENST2\tNA\tNA\tNA\tNA\n")
}

func TestFailureAfterMerge_CommitsNothing(t *testing.T) {
	dir := t.TempDir()
	in := write(t, dir, "in.tsv", example)
	outDir := filepath.Join(dir, "out")
	// A directory where a summary should go: the scan and merge succeed,
	// but the summary cannot be put in place.
	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "rnaInteractions.tsv"), 0o755))

	code, _, stderr := run(t, "-q", "--if-exists", "overwrite", "--batch-size", "1", in, outDir)
	require.Equal(t, 3, code, stderr)

	ents, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"rnaInteractions.tsv"}, names,
		"no stored interactions, summaries, run report, shards or temp files may remain")

	// With the obstacle gone the same directory accepts a clean run.
	require.NoError(t, os.Remove(filepath.Join(outDir, "rnaInteractions.tsv")))
	code, _, stderr = run(t, "-q", in, outDir)
	require.Equal(t, 0, code, stderr)
}
