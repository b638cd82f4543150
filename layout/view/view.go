// Package view produces scope-limited reinterpretations of placed byte
// ranges without touching the solver's layout table.
//
// A Scoped view owns a copy of the source's current bytes, reinterpreted
// under a new element size; its lifetime is the enclosing lexical scope
// (callers defer Close, which releases on every exit path). An Alias view
// shares the original bytes with no copy; it is permitted only in an
// explicitly unsafe context and always comes with a warning diagnostic,
// because it observes stride and count inconsistently if the source is
// later relocated.
package view

import (
	"errors"
	"fmt"

	"github.com/joshuapare/layoutkit/pkg/types"
)

// ErrClosed indicates use of a scoped view after Close.
var ErrClosed = errors.New("view: closed")

// Scoped is a copy-owning reinterpretation of a placement's bytes.
type Scoped struct {
	src      types.LayoutEntry
	elemSize uint64
	data     []byte // independently owned copy, released by Close
}

// NewScoped copies src's current element bytes out of img (the owning
// arena's backing image) and reinterprets them as elements of newElemSize
// bytes. Spread gaps are not part of the copy: the view sees the elements
// packed contiguously, which is what reinterpretation under a new type
// expects. The source's layout entry is never mutated.
func NewScoped(src types.LayoutEntry, img []byte, newElemSize uint64) (*Scoped, error) {
	if newElemSize == 0 {
		return nil, fmt.Errorf("view: zero element size")
	}
	if uint64(len(img)) < src.End() {
		return nil, fmt.Errorf("view: image of %d bytes does not cover source %s", len(img), src.Footprint())
	}
	data := make([]byte, 0, src.TotalBytes())
	for i := uint64(0); i < src.Count; i++ {
		er := src.ElemRange(i)
		data = append(data, img[er.Start:er.End]...)
	}
	return &Scoped{src: src, elemSize: newElemSize, data: data}, nil
}

// Count returns the number of whole new-type elements the copy holds.
func (v *Scoped) Count() uint64 {
	if v.data == nil {
		return 0
	}
	return uint64(len(v.data)) / v.elemSize
}

// Elem returns the bytes of new-type element i.
func (v *Scoped) Elem(i uint64) ([]byte, error) {
	if v.data == nil {
		return nil, ErrClosed
	}
	start := i * v.elemSize
	if start+v.elemSize > uint64(len(v.data)) {
		return nil, fmt.Errorf("view: element %d out of range", i)
	}
	return v.data[start : start+v.elemSize], nil
}

// Bytes returns the whole copied buffer.
func (v *Scoped) Bytes() ([]byte, error) {
	if v.data == nil {
		return nil, ErrClosed
	}
	return v.data, nil
}

// Close releases the copy. Idempotent, so it is safe on every exit path.
func (v *Scoped) Close() error {
	v.data = nil
	return nil
}

// Alias is a non-owning reinterpretation sharing the original bytes.
type Alias struct {
	src  types.LayoutEntry
	data []byte // aliases the arena image, no copy
}

// NewAlias aliases src's footprint inside img. The returned diagnostic is
// always non-nil: constructing an alias is legal only in an unsafe
// context and the toolchain surfaces the warning unconditionally.
func NewAlias(src types.LayoutEntry, img []byte) (*Alias, *types.Diagnostic, error) {
	if uint64(len(img)) < src.End() {
		return nil, nil, fmt.Errorf("view: image of %d bytes does not cover source %s", len(img), src.Footprint())
	}
	warn := &types.Diagnostic{
		Kind:     types.KindUnsafeAlias,
		Severity: types.SevWarning,
		Message:  fmt.Sprintf("unchecked alias of %s; invalid if the source is relocated", src.Footprint()),
	}
	return &Alias{src: src, data: img[src.Base:src.End()]}, warn, nil
}

// Bytes returns the aliased bytes (shared storage, including spread gaps).
func (a *Alias) Bytes() []byte { return a.data }

// Stale reports whether the live table entry for the source no longer
// matches the entry this alias was built against.
func (a *Alias) Stale(current types.LayoutEntry) bool {
	return current != a.src
}
