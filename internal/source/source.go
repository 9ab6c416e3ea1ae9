// internal/source/source.go
package source

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"catrapid/internal/ioerr"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

const peekSize = 1 << 16

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Encoding names the detected container format of an input.
type Encoding string

const (
	Plain Encoding = "plain"
	Gzip  Encoding = "gzip"
	Zstd  Encoding = "zstd"
)

// Reader is an opened input. Close releases the decoder and the file.
type Reader struct {
	io.Reader
	Path     string
	Encoding Encoding

	closers []func() error
}

func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// Open opens path (or stdin for "-") and transparently decodes gzip and
// zstd, detected by magic bytes or file suffix. Sniffing peeks a buffered
// reader, so non-seekable inputs work.
func Open(path string) (*Reader, error) {
	var (
		raw     io.Reader
		closers []func() error
	)
	if path == Stdin {
		raw = os.Stdin
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, ioerr.Wrap("open", path, err)
		}
		adviseSequential(fh)
		raw = fh
		closers = append(closers, fh.Close)
	}
	br := bufio.NewReaderSize(raw, peekSize)
	sig, _ := br.Peek(len(zstdMagic))

	r := &Reader{Path: path, Encoding: Plain}
	switch {
	case bytes.HasPrefix(sig, gzipMagic) || strings.HasSuffix(path, ".gz"):
		gr, err := gzip.NewReader(br)
		if err != nil {
			closeAll(closers)
			return nil, ioerr.Wrap("open", path, err)
		}
		r.Reader, r.Encoding = gr, Gzip
		closers = append([]func() error{gr.Close}, closers...)
	case bytes.HasPrefix(sig, zstdMagic) || strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(br)
		if err != nil {
			closeAll(closers)
			return nil, ioerr.Wrap("open", path, err)
		}
		r.Reader, r.Encoding = zr, Zstd
		closers = append([]func() error{func() error { zr.Close(); return nil }}, closers...)
	default:
		r.Reader = br
	}
	r.closers = closers
	return r, nil
}

func closeAll(cs []func() error) {
	for _, c := range cs {
		_ = c()
	}
}
