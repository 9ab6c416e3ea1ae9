// internal/scan/pipeline.go
package scan

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

const (
	batchLines = 4096
	batchBytes = 1 << 20
	batchDepth = 4
)

// batch is a run of consecutive lines copied out of the reader buffer.
type batch struct {
	data  []byte
	ends  []int // ends[i] is the end offset of line i in data
	first int64 // number of the first line
}

// runPipelined overlaps reading with processing: one goroutine reads and
// copies lines into batches while a single consumer processes them in order.
// All aggregator and spool mutations stay on the consumer.
func (s *Scanner) runPipelined(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	ch := make(chan *batch, batchDepth)
	free := make(chan *batch, batchDepth+2)

	g.Go(func() error {
		defer close(ch)
		lr := newLineReader(s.cfg.Input)
		b := getBatch(free)
		for {
			if err := gctx.Err(); err != nil {
				return err
			}
			line, n, err := lr.next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return s.readErr(err)
			}
			if len(b.ends) == 0 {
				b.first = n
			}
			b.data = append(b.data, line...)
			b.ends = append(b.ends, len(b.data))
			if len(b.ends) >= batchLines || len(b.data) >= batchBytes {
				select {
				case ch <- b:
				case <-gctx.Done():
					return gctx.Err()
				}
				b = getBatch(free)
			}
		}
		if len(b.ends) > 0 {
			select {
			case ch <- b:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for b := range ch {
			start := 0
			for i, end := range b.ends {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := s.process(b.data[start:end], b.first+int64(i)); err != nil {
					return err
				}
				start = end
			}
			select {
			case free <- b:
			default:
			}
		}
		return nil
	})

	return g.Wait()
}

func getBatch(free chan *batch) *batch {
	select {
	case b := <-free:
		b.data, b.ends, b.first = b.data[:0], b.ends[:0], 0
		return b
	default:
		return &batch{data: make([]byte, 0, batchBytes), ends: make([]int, 0, batchLines)}
	}
}
