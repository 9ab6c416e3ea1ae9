// internal/writers/atomic.go
package writers

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"

	"catrapid/internal/ioerr"
)

const atomicBufSize = 1 << 20

// AtomicFile is a buffered writer whose content appears at Path only after
// a successful Commit. Abort (or a failed Commit) removes the temp file and
// leaves any previous file at Path untouched.
type AtomicFile struct {
	Path string

	tmp    *os.File
	bw     *bufio.Writer
	staged bool // flushed, synced and closed; only the rename is left
	done   bool
}

// CreateAtomic opens a temp file next to path.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return nil, ioerr.Wrap("create", path, err)
	}
	_ = tmp.Chmod(0o644)
	return &AtomicFile{Path: path, tmp: tmp, bw: bufio.NewWriterSize(tmp, atomicBufSize)}, nil
}

func (a *AtomicFile) Write(p []byte) (int, error) {
	if a.done || a.staged {
		return 0, ioerr.Wrap("write", a.Path, os.ErrClosed)
	}
	n, err := a.bw.Write(p)
	if err != nil {
		return n, ioerr.Wrap("write", a.Path, err)
	}
	return n, nil
}

// WriteString avoids a []byte conversion for bufio-backed writes.
func (a *AtomicFile) WriteString(s string) (int, error) {
	if a.done || a.staged {
		return 0, ioerr.Wrap("write", a.Path, os.ErrClosed)
	}
	n, err := a.bw.WriteString(s)
	if err != nil {
		return n, ioerr.Wrap("write", a.Path, err)
	}
	return n, nil
}

// Stage flushes, fsyncs and closes the temp file without renaming it. After
// Stage only Commit or Abort are valid. A failed Stage removes the temp file.
func (a *AtomicFile) Stage() error {
	if a.done {
		return ioerr.Wrap("stage", a.Path, os.ErrClosed)
	}
	if a.staged {
		return nil
	}
	tmpPath := a.tmp.Name()
	fail := func(op string, err error) error {
		a.done = true
		_ = a.tmp.Close()
		_ = os.Remove(tmpPath)
		return ioerr.Wrap(op, a.Path, err)
	}
	if err := a.bw.Flush(); err != nil {
		return fail("write", err)
	}
	if err := a.tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := a.tmp.Close(); err != nil {
		a.done = true
		_ = os.Remove(tmpPath)
		return ioerr.Wrap("close", a.Path, err)
	}
	a.staged = true
	return nil
}

// Commit stages the file if needed and renames it into place.
func (a *AtomicFile) Commit() error {
	if err := a.rename(); err != nil {
		return err
	}
	_ = syncDir(filepath.Dir(a.Path))
	return nil
}

func (a *AtomicFile) rename() error {
	if err := a.Stage(); err != nil {
		return err
	}
	a.done = true
	tmpPath := a.tmp.Name()
	if err := os.Rename(tmpPath, a.Path); err != nil {
		_ = os.Remove(tmpPath)
		return ioerr.Wrap("rename", a.Path, err)
	}
	return nil
}

// Abort discards the temp file. It is safe after Commit and safe to call
// more than once.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	var cerr error
	if !a.staged {
		cerr = a.tmp.Close()
	}
	rerr := os.Remove(a.tmp.Name())
	if errors.Is(rerr, os.ErrNotExist) {
		rerr = nil
	}
	return errors.Join(cerr, rerr)
}

// WriteFileAtomic writes the output of fn to path atomically.
func WriteFileAtomic(path string, fn func(w *AtomicFile) error) error {
	af, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	if err := fn(af); err != nil {
		_ = af.Abort()
		return err
	}
	return af.Commit()
}

// syncDir best-effort fsyncs a directory so the rename survives a crash.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
