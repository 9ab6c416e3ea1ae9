// internal/cli/options.go
package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"catrapid/internal/config"
	"catrapid/internal/version"
)

// ErrHelp is returned when help or the version was printed and the
// process should exit successfully without running.
var ErrHelp = errors.New("help requested")

// UsageError wraps a bad invocation: unknown flag, wrong arguments, or an
// invalid configuration value.
type UsageError struct{ Err error }

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usage(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Err: err}
}

// Options is the resolved invocation: positional arguments plus the
// effective configuration (defaults < YAML file < explicit flags).
type Options struct {
	Input      string // path or "-" for stdin
	OutDir     string
	ConfigPath string
	Quiet      bool
	Config     config.Config
}

type flagValues struct {
	configPath string
	cutoff     string

	pairs, proteins, rnas string

	writeInteractions bool
	batchSize         int
	ifExists          string
	shardCodec        string

	pipeline         bool
	skipMalformed    bool
	progressInterval string

	publishURL      string
	publishInsecure bool

	logLevel  string
	logFormat string
	quiet     bool
}

// NewCommand builds the root command. run is called with the resolved
// options once flags and arguments are valid.
func NewCommand(run func(Options) error) *cobra.Command {
	var fv flagValues
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "catrapid [flags] <interactions-file> <output-dir>",
		Short: "Filter catRAPID interactions and summarize scores per protein and RNA",
		Long: `catrapid reads a catRAPID all-vs-all interaction file once, applies the
score cutoff and the optional RNA, protein and pair allow-lists, and writes
per-protein and per-RNA score summaries (mean, median, std, count) plus an
optional copy of the surviving interaction lines.

The input may be plain, gzip or zstd compressed; "-" reads stdin.

Outputs (in <output-dir>):
  rnaInteractions.tsv       per-RNA summary
  proteinInteractions.tsv   per-protein summary
  storedInteractions.tsv    surviving lines (unless --write-interactions=false)
  run_report.json           counts, options and timings`,
		Example: `  catrapid --cutoff 0 interactions.out.gz results/
  catrapid --rna-filter wanted_rnas.txt --batch-size 500000 interactions.out results/
  zcat interactions.out.gz | catrapid --config run.yaml - results/`,
		Version:       version.Version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := resolve(cmd, fv, args)
			if err != nil {
				return usage(err)
			}
			return run(opts)
		},
	}
	cmd.SetVersionTemplate("catrapid version {{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&fv.configPath, "config", "", "YAML configuration file")
	f.StringVar(&fv.cutoff, "cutoff", def.Cutoff, "minimum retained score (inclusive), or OFF")
	f.StringVar(&fv.pairs, "pair-filter", "", "allow-list of protein<TAB>RNA pairs")
	f.StringVar(&fv.proteins, "protein-filter", "", "allow-list of protein IDs, one per line")
	f.StringVar(&fv.rnas, "rna-filter", "", "allow-list of RNA IDs, one per line")
	f.BoolVar(&fv.writeInteractions, "write-interactions", def.Output.WriteInteractions, "write surviving lines to storedInteractions.tsv")
	f.IntVar(&fv.batchSize, "batch-size", def.Output.BatchSize, "surviving lines buffered per shard")
	f.StringVar(&fv.ifExists, "if-exists", def.Output.IfExists, "existing outputs: fail | overwrite")
	f.StringVar(&fv.shardCodec, "shard-codec", def.Output.ShardCodec, "shard compression: none | lz4 | zstd")
	f.BoolVar(&fv.pipeline, "pipeline", def.Scan.Pipeline, "read input on a separate goroutine")
	f.BoolVar(&fv.skipMalformed, "skip-malformed", def.Scan.SkipMalformed, "count and skip malformed lines instead of failing")
	f.StringVar(&fv.progressInterval, "progress-interval", def.Scan.ProgressInterval, "progress log interval (0 disables)")
	f.StringVar(&fv.publishURL, "publish", "", "upload outputs to s3://bucket/prefix or minio://endpoint/bucket/prefix")
	f.BoolVar(&fv.publishInsecure, "publish-insecure", false, "use plain HTTP for minio:// targets")
	f.StringVar(&fv.logLevel, "log-level", def.Logging.Level, "debug | info | warn | error")
	f.StringVar(&fv.logFormat, "log-format", def.Logging.Format, "console | json")
	f.BoolVarP(&fv.quiet, "quiet", "q", false, "only log warnings and errors; no summary line")
	f.SortFlags = false

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usage(err) })
	return cmd
}

// Parse runs the command over argv and returns the resolved options. Help
// and version output go to stdout and yield ErrHelp. Every other error is a
// *UsageError.
func Parse(argv []string, stdout io.Writer) (Options, error) {
	var (
		got Options
		ran bool
	)
	cmd := NewCommand(func(o Options) error {
		got, ran = o, true
		return nil
	})
	if argv == nil {
		argv = []string{} // a nil slice makes cobra fall back to os.Args
	}
	cmd.SetArgs(argv)
	cmd.SetOut(stdout)
	cmd.SetErr(io.Discard)
	if err := cmd.Execute(); err != nil {
		var ue *UsageError
		if errors.As(err, &ue) {
			return Options{}, err
		}
		return Options{}, usage(err)
	}
	if !ran {
		return Options{}, ErrHelp
	}
	return got, nil
}

// Usage writes the help text to w.
func Usage(w io.Writer) error {
	cmd := NewCommand(func(Options) error { return nil })
	cmd.SetOut(w)
	return cmd.Help()
}

func resolve(cmd *cobra.Command, fv flagValues, args []string) (Options, error) {
	var cfg *config.Config
	if fv.configPath != "" {
		c, err := config.Load(fv.configPath)
		if err != nil {
			return Options{}, err
		}
		cfg = c
	} else {
		cfg = config.DefaultConfig()
		cfg.ApplyEnv()
	}

	changed := cmd.Flags().Changed
	if changed("cutoff") {
		cfg.Cutoff = fv.cutoff
	}
	if changed("pair-filter") {
		cfg.Filters.Pairs = fv.pairs
	}
	if changed("protein-filter") {
		cfg.Filters.Proteins = fv.proteins
	}
	if changed("rna-filter") {
		cfg.Filters.RNAs = fv.rnas
	}
	if changed("write-interactions") {
		cfg.Output.WriteInteractions = fv.writeInteractions
	}
	if changed("batch-size") {
		if fv.batchSize <= 0 {
			return Options{}, errors.New("--batch-size must be > 0")
		}
		cfg.Output.BatchSize = fv.batchSize
	}
	if changed("if-exists") {
		cfg.Output.IfExists = fv.ifExists
	}
	if changed("shard-codec") {
		cfg.Output.ShardCodec = fv.shardCodec
	}
	if changed("pipeline") {
		cfg.Scan.Pipeline = fv.pipeline
	}
	if changed("skip-malformed") {
		cfg.Scan.SkipMalformed = fv.skipMalformed
	}
	if changed("progress-interval") {
		cfg.Scan.ProgressInterval = fv.progressInterval
	}
	if changed("publish") {
		cfg.Publish.URL = fv.publishURL
	}
	if changed("publish-insecure") {
		cfg.Publish.Insecure = fv.publishInsecure
	}
	if changed("log-level") {
		cfg.Logging.Level = fv.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = fv.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	if args[0] == "" || args[1] == "" {
		return Options{}, fmt.Errorf("input and output directory must be non-empty (got %s, %s)",
			strconv.Quote(args[0]), strconv.Quote(args[1]))
	}
	return Options{
		Input:      args[0],
		OutDir:     args[1],
		ConfigPath: fv.configPath,
		Quiet:      fv.quiet,
		Config:     *cfg,
	}, nil
}
