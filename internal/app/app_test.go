package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"catrapid-core/filter"
	"catrapid-core/interaction"

	"catrapid/internal/cli"
	"catrapid/internal/config"
	"catrapid/internal/ioerr"
	"catrapid/internal/outdir"
	"catrapid/pkg/api"
)

func TestExitCode(t *testing.T) {
	live := context.Background()
	dead, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{"canceled", dead, fmt.Errorf("scan: %w", context.Canceled), ExitCanceled},
		{"canceled error without cancel", live, context.Canceled, ExitRuntime},
		{"setup", live, &setupError{errors.New("bad cutoff")}, ExitUsage},
		{"conflict", live, &outdir.ConflictError{Dir: "out", Existing: []string{"run_report.json"}}, ExitUsage},
		{"usage", live, &cli.UsageError{Err: errors.New("bad flag")}, ExitUsage},
		{"allow-list", live, fmt.Errorf("rnas.txt: %w", filter.ErrMalformedFilterLine), ExitUsage},
		{"malformed record", live, &interaction.MalformedRecordError{Line: 3, Reason: "bad score"}, ExitRuntime},
		{"io", live, ioerr.Wrap("open", "in.tsv", os.ErrNotExist), ExitRuntime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, exitCode(tc.ctx, tc.err))
		})
	}
}

func TestSummaryLine(t *testing.T) {
	r := &api.RunReportV1{
		OutputDir: "results",
		Counts: api.RunCountsV1{
			Records:   10,
			Kept:      6,
			Malformed: 1,
			Dropped:   map[string]int64{"cutoff": 3, "rna": 1},
		},
		Totals: api.EntityTotalsV1{Proteins: 2, RNAs: 5},
	}
	assert.Equal(t,
		"catrapid: 10 records, 6 kept, 4 dropped (cutoff 3, rna 1, protein 0, pair 0), 1 malformed; 2 proteins, 5 RNAs -> results",
		summaryLine(r))
}

func TestLoadFilters(t *testing.T) {
	dir := t.TempDir()
	rnas := filepath.Join(dir, "rnas.txt")
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(rnas, []byte("ENST1\nENST2\nENST1\n"), 0o644))
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	core, logs := observer.New(zapcore.InfoLevel)
	spec, err := loadFilters(config.FiltersConfig{RNAs: rnas, Proteins: empty}, zap.New(core))
	require.NoError(t, err)

	assert.Len(t, spec.RNAs, 2)
	assert.False(t, spec.Proteins.Enabled())
	assert.False(t, spec.Pairs.Enabled())
	assert.Equal(t, 2, logs.FilterMessage("loaded allow-list").Len())
	assert.Equal(t, 1, logs.FilterMessage("allow-list is empty; stage disabled").Len())

	_, err = loadFilters(config.FiltersConfig{Pairs: filepath.Join(dir, "missing.tsv")}, zap.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	var out, errBuf bytes.Buffer
	code := Run(nil, &out, &errBuf)
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, out.String(), "catrapid")
	assert.Empty(t, errBuf.String())
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	code := Run([]string{"--version"}, &out, &bytes.Buffer{})
	assert.Equal(t, ExitOK, code)
	assert.True(t, strings.HasPrefix(out.String(), "catrapid version "))
}

func TestRun_BadFlag(t *testing.T) {
	var errBuf bytes.Buffer
	code := Run([]string{"--batch-size", "x", "in", "out"}, &bytes.Buffer{}, &errBuf)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errBuf.String(), "Run 'catrapid --help' for usage.")
}
