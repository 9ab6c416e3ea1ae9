// internal/ioerr/ioerr.go
package ioerr

import (
	"errors"
	"fmt"
)

// Error is a failed open, read, write, or merge of a run file.
type Error struct {
	Op   string // "open", "read", "write", "merge", "remove", ...
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap returns nil for a nil err. An err that is already an *Error is
// returned unchanged so the innermost operation wins.
func Wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ie *Error
	if errors.As(err, &ie) {
		return err
	}
	return &Error{Op: op, Path: path, Err: err}
}

// Is reports whether err carries an *Error anywhere in its chain.
func Is(err error) bool {
	var ie *Error
	return errors.As(err, &ie)
}
