// internal/scan/scan.go
package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"catrapid-core/filter"
	"catrapid-core/interaction"

	"catrapid/internal/aggregate"
	"catrapid/internal/ioerr"
	"catrapid/internal/spool"
)

// Config wires one pass.
type Config struct {
	Input      io.Reader
	InputName  string // for error messages
	Filter     filter.Spec
	Aggregator *aggregate.Aggregator
	Spool      *spool.Writer // nil disables persistence

	SkipMalformed    bool
	Pipelined        bool
	ProgressInterval time.Duration // <= 0 disables progress logs
	Logger           *zap.Logger
}

// Stats are the pass counters. Lines counts every physical line; Records
// counts lines that parsed.
type Stats struct {
	Lines       int64
	Blank       int64
	Records     int64
	Kept        int64
	Malformed   int64
	Dropped     [filter.NumStages]int64 // indexed by filter.Stage
	Shards      int
	MergedBytes int64
}

// DroppedTotal sums drops over all cascade stages.
func (s Stats) DroppedTotal() int64 {
	var n int64
	for _, d := range s.Dropped {
		n += d
	}
	return n
}

// Scanner runs a single pass. It is not reusable.
type Scanner struct {
	cfg      Config
	log      *zap.Logger
	cascade  *filter.Cascade
	state    atomic.Int32
	stats    Stats
	progress *rate.Sometimes
	started  time.Time

	firstBlank int64 // line number opening the current run of blank lines, 0 if none
}

// New validates cfg.
func New(cfg Config) (*Scanner, error) {
	if cfg.Input == nil {
		return nil, errors.New("scan: nil input")
	}
	if cfg.Aggregator == nil {
		return nil, errors.New("scan: nil aggregator")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Scanner{cfg: cfg, log: log, cascade: filter.NewCascade(cfg.Filter)}
	if cfg.ProgressInterval > 0 {
		s.progress = &rate.Sometimes{Interval: cfg.ProgressInterval}
	}
	return s, nil
}

// State returns the current lifecycle state. Safe to call concurrently.
func (s *Scanner) State() State { return State(s.state.Load()) }

func (s *Scanner) setState(to State) {
	from := s.State()
	if !next(from, to) {
		panic(fmt.Sprintf("scan: illegal transition %s -> %s", from, to))
	}
	s.state.Store(int32(to))
}

// Run reads the input to EOF, then flushes and merges the spool and
// freezes the aggregator. The merged file is left staged on the spool for
// the caller to commit. On any error, including cancellation, the spool
// is discarded and the scanner ends in Failed.
func (s *Scanner) Run(ctx context.Context) (Stats, error) {
	s.setState(Scanning)
	s.started = time.Now()

	var err error
	if s.cfg.Pipelined {
		err = s.runPipelined(ctx)
	} else {
		err = s.runSequential(ctx)
	}
	if err == nil {
		err = s.finish(ctx)
	}
	if err != nil {
		s.setState(Failed)
		if sp := s.cfg.Spool; sp != nil {
			if derr := sp.Discard(); derr != nil {
				s.log.Warn("discard shards", zap.Error(derr))
			}
		}
		return s.stats, err
	}
	s.cfg.Aggregator.Freeze()
	s.setState(Done)
	return s.stats, nil
}

func (s *Scanner) runSequential(ctx context.Context) error {
	lr := newLineReader(s.cfg.Input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, n, err := lr.next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return s.readErr(err)
		}
		if err := s.process(line, n); err != nil {
			return err
		}
	}
}

func (s *Scanner) readErr(err error) error {
	if errors.Is(err, ErrLineTooLong) {
		return err
	}
	return ioerr.Wrap("read", s.cfg.InputName, err)
}

// process handles one physical line. It is the only code that mutates the
// aggregator and the spool.
func (s *Scanner) process(line []byte, n int64) error {
	s.stats.Lines++
	if len(bytes.TrimSpace(line)) == 0 {
		s.stats.Blank++
		if s.firstBlank == 0 {
			s.firstBlank = n
		}
		return nil
	}
	// Blank lines are tolerated only at the end of the input.
	if s.firstBlank != 0 {
		bl := s.firstBlank
		s.firstBlank = 0
		if !s.cfg.SkipMalformed {
			return &interaction.MalformedRecordError{Line: bl, Reason: "blank line"}
		}
	}
	f, err := interaction.Split(line, n)
	if err != nil {
		var me *interaction.MalformedRecordError
		if s.cfg.SkipMalformed && errors.As(err, &me) {
			s.stats.Malformed++
			if s.stats.Malformed <= 10 {
				s.log.Warn("skipping malformed line", zap.Int64("line", n), zap.String("reason", me.Reason))
			}
			return nil
		}
		return err
	}
	s.stats.Records++

	lh, rh, err := s.cfg.Aggregator.Observe(f.Left, f.Right)
	if err != nil {
		return err
	}
	if st := s.cascade.Check(f.Left, f.Right, f.Score); st != filter.Pass {
		s.stats.Dropped[st]++
		s.tick()
		return nil
	}
	s.stats.Kept++
	s.cfg.Aggregator.Record(lh, rh, f.Score)

	if sp := s.cfg.Spool; sp != nil {
		sp.Append(line)
		if sp.Full() {
			s.setState(Flushing)
			if err := sp.Flush(); err != nil {
				return err
			}
			s.stats.Shards = len(sp.Shards())
			s.setState(Scanning)
		}
	}
	s.tick()
	return nil
}

func (s *Scanner) tick() {
	if s.progress == nil {
		return
	}
	s.progress.Do(func() {
		el := time.Since(s.started)
		perSec := 0.0
		if secs := el.Seconds(); secs > 0 {
			perSec = float64(s.stats.Records) / secs
		}
		s.log.Info("scan progress",
			zap.Int64("lines", s.stats.Lines),
			zap.Int64("kept", s.stats.Kept),
			zap.Int64("dropped", s.stats.DroppedTotal()),
			zap.Float64("records_per_sec", perSec),
			zap.Duration("elapsed", el))
	})
}

func (s *Scanner) finish(ctx context.Context) error {
	sp := s.cfg.Spool
	if sp == nil {
		return nil
	}
	if sp.Pending() > 0 {
		s.setState(Flushing)
		if err := sp.Flush(); err != nil {
			return err
		}
	}
	s.stats.Shards = len(sp.Shards())
	s.setState(Merging)
	n, err := sp.Merge(ctx)
	if err != nil {
		return err
	}
	s.stats.MergedBytes = n
	return nil
}
