package arena

import (
	"fmt"

	"github.com/joshuapare/layoutkit/internal/align"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// FreeRuns returns the maximal contiguous unoccupied byte ranges inside
// bound, ascending by start offset. The zero bound means the whole arena:
// [0, capacity) when bounded, [0, highWater) when open-ended (the space
// past the high-water mark of an open-ended arena is trivially free and
// unbounded, so it is not enumerated).
//
// Runs are computed on demand from the occupied set and never persisted.
func (a *Arena) FreeRuns(bound types.Range) []types.Range {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.freeRunsLocked(bound)
}

func (a *Arena) freeRunsLocked(bound types.Range) []types.Range {
	if bound == (types.Range{}) {
		end := a.capacity
		if end == 0 {
			end = a.highWater
		}
		bound = types.Range{Start: 0, End: end}
	}
	if bound.Empty() {
		return nil
	}
	var runs []types.Range
	cursor := bound.Start
	idx := a.searchLocked(bound.Start)
	// Step back one: the previous reservation may reach into the bound.
	if idx > 0 && a.occupied[idx-1].rng.End > bound.Start {
		cursor = a.occupied[idx-1].rng.End
	}
	for ; idx < len(a.occupied) && a.occupied[idx].rng.Start < bound.End; idx++ {
		occ := a.occupied[idx].rng
		if occ.Start > cursor {
			runs = append(runs, types.Range{Start: cursor, End: occ.Start})
		}
		if occ.End > cursor {
			cursor = occ.End
		}
	}
	if cursor < bound.End {
		runs = append(runs, types.Range{Start: cursor, End: bound.End})
	}
	return runs
}

// NextFree returns the earliest alignment-satisfying offset >= after where
// size contiguous bytes are free. Bounded arenas return ErrNoSpace when
// nothing fits; callers decide whether to Grow and retry. Open-ended
// arenas always succeed (past the high-water mark if need be).
func (a *Arena) NextFree(size, alignment, after uint64) (uint64, error) {
	if size == 0 {
		return 0, fmt.Errorf("%w: zero size", ErrBadRange)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	openEnded := a.capacity == 0
	scanEnd := a.capacity
	if openEnded {
		scanEnd = a.highWater
	}
	for _, run := range a.freeRunsLocked(types.Range{Start: after, End: scanEnd}) {
		start := align.Up(run.Start, alignment)
		if start+size <= run.End {
			return start, nil
		}
		// The trailing run of an open-ended arena extends past the
		// high-water mark, so any aligned start inside it works.
		if openEnded && run.End == scanEnd && start < run.End {
			return start, nil
		}
	}
	if openEnded {
		// Nothing free below the high-water mark: place past everything.
		start := a.highWater
		if start < after {
			start = after
		}
		return align.Up(start, alignment), nil
	}
	return 0, fmt.Errorf("%w: need %d bytes (align %d) in arena %q", ErrNoSpace, size, alignment, a.name)
}

// ReserveEarliest reserves size bytes at the start of the earliest free
// run of length >= size inside bound. The scan and the reservation happen
// under one lock acquisition, so two concurrent callers can never choose
// the same run.
func (a *Arena) ReserveEarliest(bound types.Range, size uint64, owner string) (types.Range, error) {
	if size == 0 {
		return types.Range{}, fmt.Errorf("%w: zero size", ErrBadRange)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, run := range a.freeRunsLocked(bound) {
		if run.Len() >= size {
			r := types.NewRange(run.Start, size)
			if err := a.reserveLocked(r, owner); err != nil {
				return types.Range{}, err
			}
			return r, nil
		}
	}
	return types.Range{}, fmt.Errorf("%w: no run of %d bytes inside %s", ErrNoSpace, size, bound)
}

// ReserveNext finds the earliest free position via NextFree and reserves
// it for owner, growing a bounded arena when required. It returns the
// reserved range.
func (a *Arena) ReserveNext(size, alignment uint64, owner string) (types.Range, error) {
	for {
		start, err := a.NextFree(size, alignment, 0)
		if err != nil {
			// Bounded and full: append capacity and retry once per loop.
			a.Grow(align.Up(size+alignment, a.policy.LineSize))
			start, err = a.NextFree(size, alignment, 0)
			if err != nil {
				return types.Range{}, err
			}
		}
		r := types.NewRange(start, size)
		if err := a.Reserve(r, owner); err == nil {
			return r, nil
		}
		// Lost a race with a concurrent reservation; rescan.
	}
}
