// internal/scan/reader.go
package scan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// MaxLine bounds a single input line (64 MiB).
const MaxLine = 64 * 1024 * 1024

// ErrLineTooLong is returned for a line longer than MaxLine.
var ErrLineTooLong = errors.New("line exceeds maximum length")

// lineReader yields lines with their terminators so survivors can be
// spooled byte for byte. The returned slice is only valid until the next
// call.
type lineReader struct {
	br   *bufio.Reader
	long []byte
	n    int64
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{br: bufio.NewReaderSize(r, 1<<20)}
}

// next returns the next line and its 1-based number, or io.EOF.
func (lr *lineReader) next() ([]byte, int64, error) {
	line, err := lr.br.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		lr.long = append(lr.long[:0], line...)
		for errors.Is(err, bufio.ErrBufferFull) {
			line, err = lr.br.ReadSlice('\n')
			lr.long = append(lr.long, line...)
			if len(lr.long) > MaxLine {
				return nil, lr.n + 1, fmt.Errorf("line %d: %w", lr.n+1, ErrLineTooLong)
			}
		}
		line = lr.long
	}
	if len(line) == 0 {
		if err == nil {
			err = io.EOF
		}
		return nil, lr.n, err
	}
	if err != nil && err != io.EOF {
		return nil, lr.n, err
	}
	lr.n++
	return line, lr.n, nil
}
