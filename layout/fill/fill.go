// Package fill implements the gap-filling operator ('%', LHS-only): a
// filler declaration consumes free bytes inside a container declaration's
// footprint, or falls back to the arena's next free area outside it.
package fill

import (
	"errors"
	"fmt"

	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// Place resolves filler against the already-solved container entry.
//
// The filler needs M = elem_size x count contiguous bytes. Free-byte runs
// inside the container's footprint are scanned in ascending offset order
// and the earliest run of length >= M receives exactly M bytes at its
// start; a single filler is never split across runs. When no run is large
// enough the filler is placed in the arena's next free area outside the
// footprint and a non-fatal FallbackAllocation diagnostic is returned
// alongside the entry.
//
// Fill is recursive by construction: the returned reservation is ordinary
// occupied space, so a later filler scanning the same container sees the
// remaining runs, and a filler's own footprint is immediately fillable.
// Existing reservations are never moved.
func Place(ar *arena.Arena, filler *graph.Decl, container types.LayoutEntry) (types.LayoutEntry, *types.Diagnostic, error) {
	need := filler.TotalBytes()
	if need == 0 {
		return types.LayoutEntry{}, nil, fmt.Errorf("fill %s: zero-size filler", filler.ID)
	}
	footprint := container.Footprint()

	r, err := ar.ReserveEarliest(footprint, need, filler.ID)
	if err == nil {
		return entryFor(filler, ar.Name(), r.Start), nil, nil
	}
	if !errors.Is(err, arena.ErrNoSpace) {
		return types.LayoutEntry{}, nil, err
	}

	// Fallback: next free area strictly outside the container's footprint.
	start, err := ar.NextFree(need, 1, footprint.End)
	if err != nil {
		if !errors.Is(err, arena.ErrNoSpace) {
			return types.LayoutEntry{}, nil, err
		}
		ar.Grow(need)
		start, err = ar.NextFree(need, 1, footprint.End)
		if err != nil {
			return types.LayoutEntry{}, nil, err
		}
	}
	if err := ar.Reserve(types.NewRange(start, need), filler.ID); err != nil {
		return types.LayoutEntry{}, nil, err
	}
	warn := &types.Diagnostic{
		Kind:     types.KindFallbackAllocation,
		Severity: types.SevWarning,
		Decl:     filler.ID,
		Message: fmt.Sprintf("no free run of %d bytes inside %s footprint %s; placed at %d",
			need, container.Arena, footprint, start),
	}
	return entryFor(filler, ar.Name(), start), warn, nil
}

func entryFor(filler *graph.Decl, arenaName string, base uint64) types.LayoutEntry {
	return types.LayoutEntry{
		Base:      base,
		Stride:    filler.ElemSize,
		ElemSize:  filler.ElemSize,
		Count:     filler.Count,
		Direction: types.Forward,
		Arena:     arenaName,
		Anchor:    types.AnchorDecl,
	}
}
