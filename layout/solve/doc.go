// Package solve implements the two-pass layout solver.
//
// Pass 1 orders the declaration graph topologically (anchors may be
// declared after the declarations that reference them) and detects cycles.
// Pass 2 walks the order and assigns absolute byte offsets by evaluating
// each declaration's placement operator against its resolved anchors,
// reserving every placement in its arena. Reservations are non-destructive:
// a candidate range that intersects occupied bytes is rejected with an
// overlap diagnostic, never shifted, and nothing already placed moves.
//
// Declarations with absolute addresses or cross-arena anchors (plus their
// transitive dependencies) are resolved in one serialized coordinating
// step; the remaining per-arena work then runs in parallel, one goroutine
// per arena, since arenas share no mutable state.
//
// The output is a Solution: the layout table, a structured diagnostics
// report, sanitizer guard metadata, and the runtime helper intrinsics
// (closest, spacefrom, size, layout_id, align, move, delete).
package solve
