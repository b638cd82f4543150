package types

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// LayoutEntry is the resolved placement of one declaration. Entries are
// emitted once per successful reservation and are never silently changed;
// only an explicit relocation replaces an entry, and relocation re-validates
// every dependent before committing.
type LayoutEntry struct {
	Base      uint64    `json:"base"`
	Stride    uint64    `json:"stride"`
	ElemSize  uint64    `json:"elem_size"`
	Count     uint64    `json:"count"`
	Direction Direction `json:"direction"`
	Arena     string    `json:"arena"`

	// Anchor records what the placement was resolved against. It is part
	// of the layout identity (see LayoutID) but not of the byte placement.
	Anchor AnchorKind `json:"anchor"`

	// CopyOf names the source declaration for reversed copies ('~'): the
	// entry owns fresh bytes whose element order is the source reversed.
	// Codegen uses this as a copy reference, never as shared storage.
	CopyOf string `json:"copy_of,omitempty"`
}

// End returns the first offset past the entry's last element slot,
// i.e. Base + Stride*Count. Adjacency-after anchors resolve to this.
func (e LayoutEntry) End() uint64 {
	return e.Base + e.Stride*e.Count
}

// Footprint returns the total byte range the entry occupies, including
// internal gaps left by spread placement.
func (e LayoutEntry) Footprint() Range {
	return Range{Start: e.Base, End: e.End()}
}

// TotalBytes returns the number of bytes actually used by elements,
// excluding internal gaps.
func (e LayoutEntry) TotalBytes() uint64 {
	return e.ElemSize * e.Count
}

// ElemRange returns the byte range of element i (0-based, in memory order).
func (e LayoutEntry) ElemRange(i uint64) Range {
	start := e.Base + i*e.Stride
	return Range{Start: start, End: start + e.ElemSize}
}

// LayoutID returns the canonical layout identity hash used by
// memory-aware overload resolution: a stable key over
// (anchor kind, stride, elem size, count, direction). Two entries with
// equal identity components hash equally regardless of declaration order
// or base offset.
func (e LayoutEntry) LayoutID() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	put(uint64(e.Anchor))
	put(e.Stride)
	put(e.ElemSize)
	put(e.Count)
	put(uint64(e.Direction))
	return h.Sum64()
}

func (e LayoutEntry) String() string {
	return fmt.Sprintf("%s base=%d stride=%d elem=%d count=%d %s",
		e.Arena, e.Base, e.Stride, e.ElemSize, e.Count, e.Direction)
}
