// internal/writers/group.go
package writers

import (
	"errors"
	"os"
	"path/filepath"

	"catrapid/internal/ioerr"
)

var errGroupDone = errors.New("writers: group already committed or aborted")

// Group commits a set of atomic files together. Every file is staged
// before the first rename, so a write, sync or close failure on any member
// leaves all targets untouched. If a rename fails, files this group already
// renamed are removed again and the rest are aborted; the group never
// leaves part of its output behind.
type Group struct {
	files []*AtomicFile
	done  bool
}

// Create opens a member file for path.
func (g *Group) Create(path string) (*AtomicFile, error) {
	af, err := CreateAtomic(path)
	if err != nil {
		return nil, err
	}
	g.files = append(g.files, af)
	return af, nil
}

// Add adopts an already open atomic file. Commit renames in Add order.
func (g *Group) Add(af *AtomicFile) {
	if af != nil {
		g.files = append(g.files, af)
	}
}

// Paths lists member targets in commit order.
func (g *Group) Paths() []string {
	out := make([]string, len(g.files))
	for i, af := range g.files {
		out[i] = af.Path
	}
	return out
}

// Commit stages every member, then renames them in order.
func (g *Group) Commit() error {
	if g.done {
		return errGroupDone
	}
	g.done = true
	for _, af := range g.files {
		if err := af.Stage(); err != nil {
			return errors.Join(err, g.abort())
		}
	}
	dirs := map[string]struct{}{}
	for i, af := range g.files {
		if err := af.rename(); err != nil {
			var errs []error
			errs = append(errs, err)
			for _, prev := range g.files[:i] {
				if rerr := os.Remove(prev.Path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
					errs = append(errs, ioerr.Wrap("remove", prev.Path, rerr))
				}
			}
			errs = append(errs, g.abort())
			return errors.Join(errs...)
		}
		dirs[filepath.Dir(af.Path)] = struct{}{}
	}
	for dir := range dirs {
		_ = syncDir(dir)
	}
	return nil
}

// Abort discards every member that has not been committed. Safe to call
// after Commit.
func (g *Group) Abort() error {
	g.done = true
	return g.abort()
}

func (g *Group) abort() error {
	var errs []error
	for _, af := range g.files {
		errs = append(errs, af.Abort())
	}
	return errors.Join(errs...)
}
