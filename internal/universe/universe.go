// Package universe records every protein and RNA ID seen in the raw input,
// before any filtering, so the reporter can emit a row (real or sentinel)
// for each of them.
//
// IDs are interned to dense uint32 handles; each side is a roaring bitmap of
// handles. Per-entity state elsewhere is keyed by handle, so an ID string is
// stored once no matter how many records mention it.
package universe

import (
	"errors"
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// ErrTooManyIDs is returned once the interner runs out of uint32 handles.
var ErrTooManyIDs = errors.New("universe: more than 2^32-1 distinct IDs")

// Side selects the protein (left) or RNA (right) universe.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "protein"
	}
	return "rna"
}

// Interner maps ID strings to dense handles starting at 0.
type Interner struct {
	index map[string]uint32
	ids   []string
}

func NewInterner() *Interner {
	return &Interner{index: make(map[string]uint32)}
}

// Intern returns the handle for id, assigning the next one if id is new.
// The lookup does not allocate for known IDs.
func (in *Interner) Intern(id []byte) (uint32, error) {
	if h, ok := in.index[string(id)]; ok {
		return h, nil
	}
	if uint64(len(in.ids)) >= math.MaxUint32 {
		return 0, ErrTooManyIDs
	}
	s := string(id)
	h := uint32(len(in.ids))
	in.index[s] = h
	in.ids = append(in.ids, s)
	return h, nil
}

// Lookup returns the handle for id without interning it.
func (in *Interner) Lookup(id string) (uint32, bool) {
	h, ok := in.index[id]
	return h, ok
}

// ID returns the string for a handle issued by Intern.
func (in *Interner) ID(h uint32) string { return in.ids[h] }

// Len is the number of distinct IDs interned so far.
func (in *Interner) Len() int { return len(in.ids) }

// Entity is one member of a side, in report order.
type Entity struct {
	Handle uint32
	ID     string
}

// Universe holds both sides. The zero value is not usable; call New.
type Universe struct {
	in    *Interner
	sides [2]*roaring.Bitmap
}

func New() *Universe {
	return &Universe{in: NewInterner(), sides: [2]*roaring.Bitmap{roaring.New(), roaring.New()}}
}

// Observe registers a record's left and right IDs and returns their handles.
func (u *Universe) Observe(left, right []byte) (uint32, uint32, error) {
	lh, err := u.in.Intern(left)
	if err != nil {
		return 0, 0, err
	}
	rh, err := u.in.Intern(right)
	if err != nil {
		return 0, 0, err
	}
	u.sides[Left].Add(lh)
	u.sides[Right].Add(rh)
	return lh, rh, nil
}

// Contains reports whether id was seen on side.
func (u *Universe) Contains(side Side, id string) bool {
	h, ok := u.in.Lookup(id)
	return ok && u.sides[side].Contains(h)
}

// Len is the number of distinct IDs on side.
func (u *Universe) Len(side Side) int { return int(u.sides[side].GetCardinality()) }

// Interner exposes the handle table shared by both sides.
func (u *Universe) Interner() *Interner { return u.in }

// Sorted returns the members of side ordered by ID, byte-wise ascending.
func (u *Universe) Sorted(side Side) []Entity {
	out := make([]Entity, 0, u.sides[side].GetCardinality())
	it := u.sides[side].Iterator()
	for it.HasNext() {
		h := it.Next()
		out = append(out, Entity{Handle: h, ID: u.in.ID(h)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
