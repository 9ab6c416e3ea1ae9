// internal/spool/spool.go
package spool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"catrapid/internal/ioerr"
	"catrapid/internal/writers"
)

// ShardPrefix starts the name of every shard file.
const ShardPrefix = "temp_storedInteractions_"

// ShardName returns the file name of shard n (1-based).
func ShardName(n int, c Codec) string {
	return ShardPrefix + strconv.Itoa(n) + ".tsv" + c.Ext()
}

// Options configures a Writer.
type Options struct {
	Dir        string // shard directory
	MergedPath string // final concatenated file
	BatchSize  int    // lines per shard, > 0
	Codec      Codec
	Logger     *zap.Logger
}

// Writer buffers surviving lines and spills them to numbered shards. Merge
// concatenates the shards, in the order they were written, into a staged
// file for MergedPath.
//
// Shards never outlive a run: Merge deletes them on success and Discard
// deletes them on failure or cancellation.
type Writer struct {
	opts    Options
	log     *zap.Logger
	buf     bytes.Buffer
	pending int
	shards  []string
	written int64
	merged  *writers.AtomicFile
}

// New validates opts and removes shards left behind by an earlier run in
// the same directory.
func New(opts Options) (*Writer, error) {
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("spool: batch size must be > 0, got %d", opts.BatchSize)
	}
	if opts.Dir == "" || opts.MergedPath == "" {
		return nil, errors.New("spool: Dir and MergedPath are required")
	}
	if opts.Codec == "" {
		opts.Codec = CodecNone
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	stale, err := filepath.Glob(filepath.Join(opts.Dir, ShardPrefix+"*"))
	if err != nil {
		return nil, err
	}
	for _, fn := range stale {
		if err := os.Remove(fn); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, ioerr.Wrap("remove", fn, err)
		}
		log.Warn("removed stale shard", zap.String("path", fn))
	}
	return &Writer{opts: opts, log: log}, nil
}

// Append buffers one line verbatim, terminator included.
func (w *Writer) Append(line []byte) {
	w.buf.Write(line)
	w.pending++
}

// Full reports whether the buffer holds a whole batch and must be flushed.
func (w *Writer) Full() bool { return w.pending >= w.opts.BatchSize }

// Pending is the number of buffered lines.
func (w *Writer) Pending() int { return w.pending }

// SpooledBytes is the number of bytes flushed to shards so far.
func (w *Writer) SpooledBytes() int64 { return w.written }

// Shards returns the paths written so far, in write order.
func (w *Writer) Shards() []string { return append([]string(nil), w.shards...) }

// Flush writes the buffered lines as the next shard. It is a no-op when
// nothing is buffered.
func (w *Writer) Flush() error {
	if w.pending == 0 {
		return nil
	}
	path := filepath.Join(w.opts.Dir, ShardName(len(w.shards)+1, w.opts.Codec))
	if err := w.writeShard(path); err != nil {
		_ = os.Remove(path)
		return err
	}
	w.shards = append(w.shards, path)
	w.log.Debug("flushed shard",
		zap.String("path", path),
		zap.Int("lines", w.pending),
		zap.Int("bytes", w.buf.Len()))
	w.written += int64(w.buf.Len())
	w.buf.Reset()
	w.pending = 0
	return nil
}

func (w *Writer) writeShard(path string) error {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return ioerr.Wrap("create", path, err)
	}
	enc, err := w.opts.Codec.encoder(fh)
	if err != nil {
		_ = fh.Close()
		return ioerr.Wrap("write", path, err)
	}
	if _, err := enc.Write(w.buf.Bytes()); err != nil {
		_ = enc.Close()
		_ = fh.Close()
		return ioerr.Wrap("write", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = fh.Close()
		return ioerr.Wrap("write", path, err)
	}
	return ioerr.Wrap("close", path, fh.Close())
}

// Merge flushes any remainder, streams every shard in ascending shard
// number into a staged temp file for MergedPath, and deletes the shards.
// It returns the number of merged bytes. The merged file only appears at
// MergedPath when the caller commits Staged, usually together with the
// other outputs of the run. On error the shards and the temp file are
// removed.
func (w *Writer) Merge(ctx context.Context) (int64, error) {
	if err := w.Flush(); err != nil {
		_ = w.Discard()
		return 0, err
	}
	af, err := writers.CreateAtomic(w.opts.MergedPath)
	if err != nil {
		_ = w.Discard()
		return 0, err
	}
	var total int64
	for _, shard := range w.shards {
		n, err := w.copyShard(ctx, af, shard)
		total += n
		if err != nil {
			_ = af.Abort()
			_ = w.Discard()
			return 0, err
		}
	}
	if err := af.Stage(); err != nil {
		_ = w.Discard()
		return 0, err
	}
	w.merged = af
	w.log.Debug("merged shards",
		zap.Int("shards", len(w.shards)),
		zap.Int64("bytes", total),
		zap.String("path", w.opts.MergedPath))
	return total, w.removeShards()
}

// Staged returns the merged file left by a successful Merge, or nil.
func (w *Writer) Staged() *writers.AtomicFile { return w.merged }

func (w *Writer) copyShard(ctx context.Context, dst io.Writer, shard string) (int64, error) {
	fh, err := os.Open(shard)
	if err != nil {
		return 0, ioerr.Wrap("merge", shard, err)
	}
	defer fh.Close()
	r, done, err := w.opts.Codec.decoder(fh)
	if err != nil {
		return 0, ioerr.Wrap("merge", shard, err)
	}
	defer done()
	n, err := io.Copy(dst, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, ioerr.Wrap("merge", shard, err)
	}
	return n, nil
}

// Discard drops the buffer, deletes every shard written so far, and aborts
// an uncommitted merged file.
func (w *Writer) Discard() error {
	w.buf.Reset()
	w.pending = 0
	var aerr error
	if w.merged != nil {
		aerr = w.merged.Abort()
		w.merged = nil
	}
	return errors.Join(aerr, w.removeShards())
}

func (w *Writer) removeShards() error {
	var errs []error
	for _, fn := range w.shards {
		if err := os.Remove(fn); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, ioerr.Wrap("remove", fn, err))
		}
	}
	w.shards = nil
	return errors.Join(errs...)
}

// ctxReader checks ctx before every Read so a long merge can be canceled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.r.Read(p)
}
