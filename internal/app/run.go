// internal/app/run.go
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"catrapid-core/filter"

	"catrapid/internal/aggregate"
	"catrapid/internal/cli"
	"catrapid/internal/jsonutil"
	"catrapid/internal/outdir"
	"catrapid/internal/publish"
	"catrapid/internal/report"
	"catrapid/internal/scan"
	"catrapid/internal/source"
	"catrapid/internal/spool"
	"catrapid/internal/version"
	"catrapid/internal/writers"
	"catrapid/pkg/api"
)

// execute performs one run: load allow-lists, prepare the output directory,
// scan, write summaries and the run report, then publish if asked.
func execute(ctx context.Context, o cli.Options, log *zap.Logger, runID string) (*api.RunReportV1, error) {
	started := time.Now()
	cfg := o.Config

	cutoff, err := filter.ParseCutoff(cfg.Cutoff)
	if err != nil {
		return nil, &setupError{err}
	}
	codec, err := spool.ParseCodec(cfg.Output.ShardCodec)
	if err != nil {
		return nil, &setupError{err}
	}
	policy, err := outdir.ParsePolicy(cfg.Output.IfExists)
	if err != nil {
		return nil, &setupError{err}
	}
	var target *publish.Target
	if cfg.Publish.URL != "" {
		t, err := publish.ParseTarget(cfg.Publish.URL)
		if err != nil {
			return nil, &setupError{err}
		}
		target = &t
	}

	spec, err := loadFilters(cfg.Filters, log)
	if err != nil {
		return nil, &setupError{err}
	}
	spec.Cutoff = cutoff

	layout, err := outdir.Prepare(o.OutDir, policy, cfg.Output.WriteInteractions)
	if err != nil {
		return nil, err
	}

	src, err := source.Open(o.Input)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	var sp *spool.Writer
	if cfg.Output.WriteInteractions {
		sp, err = spool.New(spool.Options{
			Dir:        layout.Dir,
			MergedPath: layout.StoredInteractions,
			BatchSize:  cfg.Output.BatchSize,
			Codec:      codec,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
	}

	agg := aggregate.New()
	sc, err := scan.New(scan.Config{
		Input:            src,
		InputName:        o.Input,
		Filter:           spec,
		Aggregator:       agg,
		Spool:            sp,
		SkipMalformed:    cfg.Scan.SkipMalformed,
		Pipelined:        cfg.Scan.Pipeline,
		ProgressInterval: cfg.GetProgressInterval(),
		Logger:           log,
	})
	if err != nil {
		return nil, err
	}
	log.Info("scan started",
		zap.String("input", o.Input),
		zap.String("encoding", string(src.Encoding)),
		zap.String("cutoff", cutoff.String()),
		zap.Bool("write_interactions", sp != nil),
		zap.Int("batch_size", cfg.Output.BatchSize))

	stats, err := sc.Run(ctx)
	if err != nil {
		return nil, err
	}

	// Everything the run produces is committed as one group: a failure
	// before the commit leaves no new file in the output directory.
	var out writers.Group
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = out.Abort()
		if sp != nil {
			_ = sp.Discard()
		}
	}()
	if sp != nil {
		out.Add(sp.Staged())
	}
	if _, _, err := report.WriteAll(&out, report.Paths{Protein: layout.ProteinSummary, RNA: layout.RNASummary}, agg); err != nil {
		return nil, err
	}

	rep := buildReport(runID, o, src.Encoding, spec, stats, agg.Totals(), started)
	files := layout.Outputs(sp != nil)
	for _, f := range files {
		rep.Outputs = append(rep.Outputs, filepath.Base(f))
	}
	if err := jsonutil.Stage(&out, layout.RunReport, rep); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := out.Commit(); err != nil {
		return nil, err
	}
	committed = true
	log.Info("scan finished",
		zap.Int64("lines", stats.Lines),
		zap.Int64("kept", stats.Kept),
		zap.Int64("dropped", stats.DroppedTotal()),
		zap.Int64("malformed", stats.Malformed),
		zap.Int("shards", stats.Shards),
		zap.Duration("elapsed", time.Since(started)))

	if target != nil {
		up, err := publish.NewUploader(ctx, *target, publish.Options{
			Insecure:  cfg.Publish.Insecure,
			AccessKey: cfg.Publish.AccessKey,
			SecretKey: cfg.Publish.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("publish: %w", err)
		}
		res, err := publish.Publish(ctx, up, *target, files, log)
		if err != nil {
			return nil, err
		}
		rep.Published = res.Keys
		log.Info("published outputs", zap.String("target", target.String()), zap.Int("objects", len(res.Keys)),
			zap.Duration("elapsed", res.Elapsed))
		if err := jsonutil.WriteFile(layout.RunReport, rep); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

func buildReport(runID string, o cli.Options, enc source.Encoding, spec filter.Spec, st scan.Stats, tot aggregate.Totals, started time.Time) *api.RunReportV1 {
	cfg := o.Config
	dropped := make(map[string]int64, len(filter.Stages))
	for _, s := range filter.Stages {
		dropped[s.String()] = st.Dropped[s]
	}
	return &api.RunReportV1{
		Version:   api.RunReportVersion,
		RunID:     runID,
		Tool:      "catrapid " + version.Version,
		Input:     o.Input,
		Encoding:  string(enc),
		OutputDir: o.OutDir,
		Options: api.RunOptionsV1{
			Cutoff:            spec.Cutoff.String(),
			PairFilter:        cfg.Filters.Pairs,
			ProteinFilter:     cfg.Filters.Proteins,
			RNAFilter:         cfg.Filters.RNAs,
			PairFilterSize:    len(spec.Pairs),
			ProteinFilterSize: len(spec.Proteins),
			RNAFilterSize:     len(spec.RNAs),
			WriteInteractions: cfg.Output.WriteInteractions,
			BatchSize:         cfg.Output.BatchSize,
			ShardCodec:        cfg.Output.ShardCodec,
			Pipeline:          cfg.Scan.Pipeline,
			SkipMalformed:     cfg.Scan.SkipMalformed,
		},
		Counts: api.RunCountsV1{
			Lines:       st.Lines,
			Blank:       st.Blank,
			Records:     st.Records,
			Kept:        st.Kept,
			Malformed:   st.Malformed,
			Dropped:     dropped,
			Shards:      st.Shards,
			MergedBytes: st.MergedBytes,
		},
		Totals: api.EntityTotalsV1{
			Proteins:         tot.Proteins,
			RNAs:             tot.RNAs,
			ProteinsWithData: tot.ProteinsWithData,
			RNAsWithData:     tot.RNAsWithData,
			HistogramBuckets: tot.Buckets,
		},
		StartedAt:  started.UTC().Format(time.RFC3339),
		ElapsedSec: time.Since(started).Seconds(),
	}
}

// summaryLine is the one-line human summary printed on success.
func summaryLine(r *api.RunReportV1) string {
	var drops []string
	for _, s := range filter.Stages {
		drops = append(drops, fmt.Sprintf("%s %d", s, r.Counts.Dropped[s.String()]))
	}
	return fmt.Sprintf("catrapid: %d records, %d kept, %d dropped (%s), %d malformed; %d proteins, %d RNAs -> %s",
		r.Counts.Records, r.Counts.Kept, r.Counts.Records-r.Counts.Kept,
		strings.Join(drops, ", "), r.Counts.Malformed, r.Totals.Proteins, r.Totals.RNAs, r.OutputDir)
}
