// Package arena implements the arena manager: named, byte-addressable
// regions that track occupied byte ranges and hand out conflict-free
// reservations.
//
// # Overview
//
// An Arena owns a sorted, non-overlapping set of occupied ranges. All
// placement flows through Reserve, which rejects any candidate range that
// intersects an occupant - nothing is ever displaced to make room. Free
// space is computed on demand as maximal free-byte runs, either across the
// whole arena or restricted to a bound (a declaration's footprint).
//
// # Growth
//
// Bounded arenas can be extended with Grow, which appends unoccupied
// capacity at the end. Open-ended arenas never run out; their high-water
// mark tracks the furthest reserved byte for reporting and free-run
// bounding.
//
// # Thread Safety
//
// Every mutating and scanning operation takes the arena's single writer
// lock, so free-run computation and reservation are atomic with respect to
// each other: two concurrent fills can never choose the same run.
package arena
