// internal/spool/codec.go
package spool

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects how shard files are encoded on disk. The merged output is
// always plain text.
type Codec string

const (
	CodecNone Codec = "none"
	CodecLZ4  Codec = "lz4"
	CodecZstd Codec = "zstd"
)

// ParseCodec accepts "none", "lz4", or "zstd" (case-insensitive; empty means none).
func ParseCodec(s string) (Codec, error) {
	switch c := Codec(strings.ToLower(strings.TrimSpace(s))); c {
	case "", CodecNone:
		return CodecNone, nil
	case CodecLZ4, CodecZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unknown shard codec %q (want none, lz4 or zstd)", s)
	}
}

// Ext is the file suffix appended after ".tsv".
func (c Codec) Ext() string {
	switch c {
	case CodecLZ4:
		return ".lz4"
	case CodecZstd:
		return ".zst"
	default:
		return ""
	}
}

// encoder wraps w; closing the result flushes the frame but does not close w.
func (c Codec) encoder(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CodecLZ4:
		return lz4.NewWriter(w), nil
	case CodecZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	default:
		return nopWriteCloser{w}, nil
	}
}

func (c Codec) decoder(r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CodecLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CodecZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
