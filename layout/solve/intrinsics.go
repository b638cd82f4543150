package solve

import (
	"fmt"

	"github.com/joshuapare/layoutkit/internal/align"
	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/layout/guard"
	"github.com/joshuapare/layoutkit/layout/profile"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// Runtime helper intrinsics over a solved table. These back the language
// intrinsics closest, spacefrom, size, layout_id, align, move, and delete.

// Size returns the bytes used by id's elements, excluding spread gaps.
func (sol *Solution) Size(id string) (uint64, error) {
	e, err := sol.Entry(id)
	if err != nil {
		return 0, err
	}
	return e.TotalBytes(), nil
}

// LayoutID returns id's canonical layout identity hash.
func (sol *Solution) LayoutID(id string) (uint64, error) {
	e, err := sol.Entry(id)
	if err != nil {
		return 0, err
	}
	return e.LayoutID(), nil
}

// Align reports whether id's base offset is a multiple of n.
func (sol *Solution) Align(id string, n uint64) (bool, error) {
	e, err := sol.Entry(id)
	if err != nil {
		return false, err
	}
	return align.IsAligned(e.Base, n), nil
}

// Closest returns the identifier of the nearest other placement in the
// same arena, measured by the byte gap between footprints. Ties go to the
// lexicographically smaller identifier so the answer is deterministic.
func (sol *Solution) Closest(id string) (string, error) {
	sol.mu.Lock()
	defer sol.mu.Unlock()
	e, err := sol.entryLocked(id)
	if err != nil {
		return "", err
	}
	best := ""
	var bestGap uint64
	for other, oe := range sol.table {
		if other == id || oe.Arena != e.Arena {
			continue
		}
		var gap uint64
		switch {
		case oe.Base >= e.End():
			gap = oe.Base - e.End()
		case e.Base >= oe.End():
			gap = e.Base - oe.End()
		}
		if best == "" || gap < bestGap || (gap == bestGap && other < best) {
			best, bestGap = other, gap
		}
	}
	if best == "" {
		return "", types.WrapKind(types.ErrKindNotFound,
			fmt.Sprintf("%s: no other placement in arena %q", id, e.Arena), types.ErrNotFound)
	}
	return best, nil
}

// SpaceFrom returns the free bytes immediately after id's footprint,
// up to the next occupied byte. For open-ended arenas the scan stops at
// the high-water mark; space past it is unbounded and reported as the
// distance to the mark.
func (sol *Solution) SpaceFrom(id string) (uint64, error) {
	sol.mu.Lock()
	defer sol.mu.Unlock()
	e, err := sol.entryLocked(id)
	if err != nil {
		return 0, err
	}
	ar := sol.arenas[e.Arena]
	end := ar.Capacity()
	if end == 0 {
		end = ar.HighWater()
	}
	if e.End() >= end {
		return 0, nil
	}
	runs := ar.FreeRuns(types.Range{Start: e.End(), End: end})
	if len(runs) == 0 || runs[0].Start != e.End() {
		return 0, nil
	}
	return runs[0].Len(), nil
}

// Delete releases id's reservation and removes its layout entry.
// Dependents placed relative to id keep their already-resolved entries.
func (sol *Solution) Delete(id string) error {
	sol.mu.Lock()
	defer sol.mu.Unlock()
	e, err := sol.entryLocked(id)
	if err != nil {
		return err
	}
	ar := sol.arenas[e.Arena]
	ar.ReleaseOwner(id)
	delete(sol.table, id)
	delete(sol.guards, id)
	if d, ok := sol.prog.Lookup(id); ok {
		d.Resolved = false
		d.Entry = types.LayoutEntry{}
	}
	sol.refreshGuards(e.Arena)
	return nil
}

// Move relocates id to newBase and re-packs every transitive dependent
// placed via adjacency to it. The operation is stop-the-world for the
// affected arenas: it validates against a snapshot and either commits the
// whole relocation or rolls everything back.
//
// An embed-profile placement never moves (fatal RelocationForbidden). A
// dependent that cannot be re-packed without overlap fails the whole move
// with OverlapError; no cascade policy is applied.
func (sol *Solution) Move(id string, newBase uint64) error {
	sol.mu.Lock()
	defer sol.mu.Unlock()

	if _, err := sol.entryLocked(id); err != nil {
		return err
	}
	d, ok := sol.prog.Lookup(id)
	if !ok {
		return types.WrapKind(types.ErrKindNotFound, fmt.Sprintf("%q is not declared", id), types.ErrNotFound)
	}

	pol := sol.arenas[sol.arenaName(d)].Policy()
	if d.Profile != "" {
		pol = profile.For(types.ParseProfile(d.Profile))
	}
	if !pol.AllowsMove() {
		sol.report.Fatalf(types.KindRelocationForbidden, id, "move forbidden under embed profile")
		return types.WrapKind(types.ErrKindRelocation,
			fmt.Sprintf("%s: move forbidden under embed profile", id), types.ErrRelocationForbidden)
	}

	moved := sol.dependentsOf(id)
	moved = append([]*graph.Decl{d}, moved...)

	// Snapshot every touched arena and every touched entry before any
	// mutation, so failure restores the exact prior state.
	snaps := make(map[string]arena.Snapshot)
	prevEntries := make(map[string]types.LayoutEntry, len(moved))
	for _, m := range moved {
		name := sol.arenaName(m)
		if _, ok := snaps[name]; !ok {
			snaps[name] = sol.arenas[name].Snapshot()
		}
		prevEntries[m.ID] = m.Entry
	}
	rollback := func() {
		for name, snap := range snaps {
			sol.arenas[name].Restore(snap)
		}
		for _, m := range moved {
			m.Entry = prevEntries[m.ID]
			m.Resolved = true
			sol.table[m.ID] = m.Entry
		}
	}

	for _, m := range moved {
		sol.arenas[sol.arenaName(m)].ReleaseOwner(m.ID)
		m.Resolved = false
	}

	// Re-place the moved declaration at its new base with its original
	// shape, then re-resolve dependents in their original topological
	// order against the new positions.
	newEntry := d.Entry
	newEntry.Base = newBase
	ar := sol.arenas[sol.arenaName(d)]
	if err := reserveShape(ar, d, newEntry); err != nil {
		rollback()
		return err
	}
	d.Entry = newEntry
	d.Resolved = true
	sol.table[id] = newEntry

	for _, dep := range moved[1:] {
		entry, diags, err := sol.solver.resolve(sol, dep)
		if err != nil {
			rollback()
			return err
		}
		sol.report.Merge(diags)
		dep.Entry = entry
		dep.Resolved = true
		sol.table[dep.ID] = entry
	}

	for name := range snaps {
		sol.refreshGuards(name)
	}
	return nil
}

// dependentsOf collects, in topological order, every declaration whose
// position chains off id through '+'/'-' adjacency, adjacency
// inheritance, fill, or reverse copying.
func (sol *Solution) dependentsOf(id string) []*graph.Decl {
	in := map[string]bool{id: true}
	var out []*graph.Decl
	// Declarations are stored in source order; chase chains until no new
	// dependent appears. The graph is acyclic, so this terminates.
	for {
		grew := false
		for _, d := range sol.prog.Decls() {
			if in[d.ID] {
				continue
			}
			anchored := d.Anchor.Kind == types.AnchorDecl && in[d.Anchor.Name]
			adjacent := d.AdjacentTo != "" && in[d.AdjacentTo]
			if (anchored || adjacent) && d.Resolved {
				in[d.ID] = true
				out = append(out, d)
				grew = true
			}
		}
		if !grew {
			break
		}
	}
	order, err := sol.prog.TopoOrder()
	if err != nil {
		return out
	}
	var ordered []*graph.Decl
	for _, d := range order {
		if in[d.ID] && d.ID != id {
			ordered = append(ordered, d)
		}
	}
	return ordered
}

// reserveShape reserves entry's byte ranges for d: per element for
// spread, contiguous otherwise.
func reserveShape(ar *arena.Arena, d *graph.Decl, entry types.LayoutEntry) error {
	if d.Op == types.OpSpread {
		for i := uint64(0); i < entry.Count; i++ {
			if err := ar.Reserve(entry.ElemRange(i), d.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return ar.Reserve(types.NewRange(entry.Base, entry.TotalBytes()), d.ID)
}

// refreshGuards recomputes guard metadata for one arena after a
// post-solve mutation. No-op when the solver ran without Sanitize.
func (sol *Solution) refreshGuards(name string) {
	if sol.guards == nil {
		return
	}
	ar := sol.arenas[name]
	owners := make(map[string]bool)
	for _, r := range ar.Reservations() {
		owners[r.Owner] = true
	}
	for id, band := range guard.Collect(ar) {
		sol.guards[id] = band
	}
	for id, e := range sol.table {
		if e.Arena == name && !owners[id] {
			delete(sol.guards, id)
		}
	}
}
