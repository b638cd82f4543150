// Package guard implements the conflict checker: static adjacency
// arbitration at solve time and the guard-band metadata the runtime
// sanitizer consumes.
package guard

import (
	"fmt"
	"sort"

	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// CheckAdjacency validates every adjacency-inheritance request in the
// program. Each child may target at most one parent (structurally
// enforced by the declaration shape); two children targeting the same
// parent are ambiguous unless the program disambiguates with distinct
// priorities. First declared wins; the later request gets the fatal
// diagnostic.
//
// The returned map gives each parent its children in arbitration order
// (priority ascending, then declaration order), which pass 2 uses to
// chain the children after the parent.
func CheckAdjacency(decls []*graph.Decl) (map[string][]*graph.Decl, error) {
	children := make(map[string][]*graph.Decl)
	for _, d := range decls {
		if d.AdjacentTo == "" {
			continue
		}
		children[d.AdjacentTo] = append(children[d.AdjacentTo], d)
	}
	for parent, kids := range children {
		byPriority := make(map[int]*graph.Decl, len(kids))
		for _, kid := range kids {
			if prev, dup := byPriority[kid.Priority]; dup {
				return nil, types.WrapKind(types.ErrKindAdjacency,
					fmt.Sprintf("%s: adjacency to %q already requested by %q with equal priority",
						kid.ID, parent, prev.ID),
					types.ErrAdjacencyConflict)
			}
			byPriority[kid.Priority] = kid
		}
		sort.Slice(kids, func(i, j int) bool {
			if kids[i].Priority != kids[j].Priority {
				return kids[i].Priority < kids[j].Priority
			}
			return kids[i].Index < kids[j].Index
		})
		children[parent] = kids
	}
	return children, nil
}

// Band is the pair of guard ranges immediately surrounding one
// reservation: [0] before the base, [1] after the end. Either side may be
// empty when a neighbor or the arena start leaves no room - guards are
// metadata only and never claim occupied bytes.
type Band [2]types.Range

// Set maps declaration identifiers to their guard bands.
type Set map[string]Band

// Collect computes guard bands for every placed object in ar. Width is
// the profile's guard quantum. Spread declarations reserve per element but
// guard per object, so bands surround the merged footprint. Each band is
// clamped against bytes owned by other objects - guards cover free bytes
// only.
func Collect(ar *arena.Arena) Set {
	width := ar.Policy().GuardWidth()
	res := ar.Reservations()

	// Merge each owner's reservations into one footprint, preserving
	// first-seen order for determinism of the metadata output.
	footprints := make(map[string]types.Range, len(res))
	var owners []string
	for _, r := range res {
		fp, seen := footprints[r.Owner]
		if !seen {
			owners = append(owners, r.Owner)
			footprints[r.Owner] = r.Range
			continue
		}
		if r.Range.Start < fp.Start {
			fp.Start = r.Range.Start
		}
		if r.Range.End > fp.End {
			fp.End = r.Range.End
		}
		footprints[r.Owner] = fp
	}

	set := make(Set, len(owners))
	for _, owner := range owners {
		fp := footprints[owner]
		var b Band

		lo := uint64(0)
		if fp.Start > width {
			lo = fp.Start - width
		}
		hi := fp.End + width
		if end := ar.Capacity(); end != 0 && hi > end {
			hi = end
		}
		// Clamp against other owners' bytes.
		for _, r := range res {
			if r.Owner == owner {
				continue
			}
			if r.Range.End <= fp.Start && r.Range.End > lo {
				lo = r.Range.End
			}
			if r.Range.Start >= fp.End && r.Range.Start < hi {
				hi = r.Range.Start
			}
		}
		if lo < fp.Start {
			b[0] = types.Range{Start: lo, End: fp.Start}
		}
		if hi > fp.End {
			b[1] = types.Range{Start: fp.End, End: hi}
		}
		set[owner] = b
	}
	return set
}

// Check reports a write that lands outside id's own reservation but
// inside its guard band. The violation is reported, never corrected.
func (s Set) Check(id string, write types.Range) *types.Diagnostic {
	b, ok := s[id]
	if !ok {
		return nil
	}
	for _, g := range b {
		if !g.Empty() && g.Overlaps(write) {
			return &types.Diagnostic{
				Kind:     types.KindGuardViolation,
				Severity: types.SevFatal,
				Decl:     id,
				Message:  fmt.Sprintf("write %s lands in guard band %s", write, g),
			}
		}
	}
	return nil
}
