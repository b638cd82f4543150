package types

import "fmt"

// Range is a half-open byte range [Start, End) within one arena.
type Range struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// NewRange builds a range from a base offset and a length in bytes.
func NewRange(start, length uint64) Range {
	return Range{Start: start, End: start + length}
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return r.End - r.Start
}

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool { return r.End <= r.Start }

// Overlaps reports whether r and o share at least one byte.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End && !r.Empty() && !o.Empty()
}

// Contains reports whether o lies entirely within r.
func (r Range) Contains(o Range) bool {
	return o.Start >= r.Start && o.End <= r.End
}

// ContainsOffset reports whether the byte at off lies within r.
func (r Range) ContainsOffset(off uint64) bool {
	return off >= r.Start && off < r.End
}

// Intersect returns the overlapping portion of r and o (possibly empty).
func (r Range) Intersect(o Range) Range {
	out := Range{Start: max(r.Start, o.Start), End: min(r.End, o.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}
