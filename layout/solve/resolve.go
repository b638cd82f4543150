package solve

import (
	"errors"
	"fmt"

	"github.com/joshuapare/layoutkit/internal/align"
	"github.com/joshuapare/layoutkit/layout/arena"
	"github.com/joshuapare/layoutkit/layout/fill"
	"github.com/joshuapare/layoutkit/layout/graph"
	"github.com/joshuapare/layoutkit/layout/profile"
	"github.com/joshuapare/layoutkit/pkg/types"
)

// resolve evaluates one declaration's placement operator and reserves its
// bytes. On failure the returned report carries the fatal diagnostic and
// the error aborts the owning arena's solve. Anchor entries are read from
// the anchor declarations themselves: topological order guarantees they
// resolved first, and the coordination set keeps cross-arena reads out of
// the parallel phase.
func (s *Solver) resolve(sol *Solution, d *graph.Decl) (types.LayoutEntry, *types.Report, error) {
	rep := &types.Report{}
	ar := sol.arenas[sol.arenaName(d)]
	pol := ar.Policy()
	if d.Profile != "" {
		pol = profile.For(types.ParseProfile(d.Profile))
	}

	var entry types.LayoutEntry
	var err error
	switch d.Op {
	case types.OpFill:
		var warn *types.Diagnostic
		entry, warn, err = s.placeFill(sol, ar, d)
		if warn != nil {
			rep.Add(*warn)
		}
	case types.OpReverse:
		entry, err = s.placeReverse(sol, ar, pol, d)
	default:
		entry, err = s.placeShaped(sol, ar, pol, d)
	}
	if err != nil {
		rep.Fatalf(fatalKind(err), d.ID, "%v", err)
		return types.LayoutEntry{}, rep, err
	}
	s.logPlacement(d, entry)
	return entry, rep, nil
}

// placeShaped handles every operator whose shape is known up front:
// adjacency, spread, repeat, absolute, and anchorless placement.
func (s *Solver) placeShaped(sol *Solution, ar *arena.Arena, pol profile.Policy, d *graph.Decl) (types.LayoutEntry, error) {
	stride := d.Stride()
	footLen := d.FootprintLen()
	total := d.TotalBytes()

	var base uint64
	switch d.Op {
	case types.OpAbsolute:
		base = d.Addr

	case types.OpAfter:
		point, err := s.anchorPoint(sol, ar, pol, d, true)
		if err != nil {
			return types.LayoutEntry{}, err
		}
		// Chained literal offsets apply after the anchor's end.
		base = point + d.Offset

	case types.OpBefore:
		point, err := s.anchorPoint(sol, ar, pol, d, false)
		if err != nil {
			return types.LayoutEntry{}, err
		}
		need := footLen + d.Offset
		if point < need {
			return types.LayoutEntry{}, types.WrapKind(types.ErrKindOverlap,
				fmt.Sprintf("%s: only %d bytes before anchor, need %d", d.ID, point, need),
				types.ErrOverlap)
		}
		base = point - need

	default: // OpNone, OpSpread, OpRepeat
		var err error
		base, err = s.shapedBase(sol, ar, pol, d, footLen)
		if err != nil {
			return types.LayoutEntry{}, err
		}
	}

	// Reserve: spread placements reserve each element's run individually,
	// leaving the gap bytes free for fills; everything else is one
	// contiguous range.
	if d.Op == types.OpSpread {
		for i := uint64(0); i < d.Count; i++ {
			r := types.NewRange(base+i*stride, d.ElemSize)
			if err := ar.Reserve(r, d.ID); err != nil {
				return types.LayoutEntry{}, err
			}
		}
	} else {
		if err := ar.Reserve(types.NewRange(base, total), d.ID); err != nil {
			return types.LayoutEntry{}, err
		}
	}

	return types.LayoutEntry{
		Base:      base,
		Stride:    stride,
		ElemSize:  d.ElemSize,
		Count:     d.Count,
		Direction: types.Forward,
		Arena:     ar.Name(),
		Anchor:    d.Anchor.Kind,
	}, nil
}

// shapedBase picks the base offset for a non-adjacency placement: the
// anchor's position when one is named, the adjacency chain position when
// the declaration inherits with physical adjacency, or the earliest
// aligned free region otherwise.
func (s *Solver) shapedBase(sol *Solution, ar *arena.Arena, pol profile.Policy, d *graph.Decl, footLen uint64) (uint64, error) {
	if d.AdjacentTo != "" {
		return s.adjacencyBase(sol, d)
	}
	switch d.Anchor.Kind {
	case types.AnchorDecl:
		ref, err := sol.resolvedAnchor(d.Anchor.Name)
		if err != nil {
			return 0, err
		}
		return ref.Entry.End(), nil
	case types.AnchorBase:
		return s.basePoint(ar, pol, d.Anchor.Name), nil
	case types.AnchorAbsolute:
		return d.Anchor.Addr, nil
	}
	// Anchorless: earliest aligned free region large enough for the
	// whole footprint.
	alignment := pol.Alignment(d.ElemSize)
	base, err := ar.NextFree(footLen, alignment, 0)
	if errors.Is(err, arena.ErrNoSpace) {
		ar.Grow(align.Up(footLen+alignment, pol.LineSize))
		base, err = ar.NextFree(footLen, alignment, 0)
	}
	return base, err
}

// adjacencyBase chains a child after its parent so arbitration order
// becomes physical order. Each child's slot is computed from the
// footprint sizes of its higher-precedence siblings, not from their
// resolved entries, so the result does not depend on which sibling
// happens to resolve first.
func (s *Solver) adjacencyBase(sol *Solution, d *graph.Decl) (uint64, error) {
	parent, err := sol.resolvedAnchor(d.AdjacentTo)
	if err != nil {
		return 0, err
	}
	base := parent.Entry.End()
	for _, sib := range sol.adjacency[d.AdjacentTo] {
		if sib.ID == d.ID {
			break
		}
		base += sib.FootprintLen()
	}
	return base, nil
}

// anchorPoint resolves the byte position an adjacency operator works
// from: the anchor's end for '+', its base for '-'.
func (s *Solver) anchorPoint(sol *Solution, ar *arena.Arena, pol profile.Policy, d *graph.Decl, after bool) (uint64, error) {
	switch d.Anchor.Kind {
	case types.AnchorDecl:
		ref, err := sol.resolvedAnchor(d.Anchor.Name)
		if err != nil {
			return 0, err
		}
		if after {
			return ref.Entry.End(), nil
		}
		return ref.Entry.Base, nil
	case types.AnchorBase:
		return s.basePoint(ar, pol, d.Anchor.Name), nil
	case types.AnchorAbsolute:
		return d.Anchor.Addr, nil
	default:
		return 0, &types.Error{Kind: types.ErrKindArg,
			Msg: fmt.Sprintf("%s: adjacency operator without anchor", d.ID)}
	}
}

// basePoint maps a global base name to a byte offset in ar.
func (s *Solver) basePoint(ar *arena.Arena, pol profile.Policy, name string) uint64 {
	switch name {
	case types.BaseWarp:
		return align.Up(ar.HighWater(), pol.SegmentSize)
	case types.BaseCacheline:
		return align.Up(ar.HighWater(), pol.LineSize)
	default: // origin
		return 0
	}
}

// placeFill delegates to the fill engine against the container's entry.
func (s *Solver) placeFill(sol *Solution, ar *arena.Arena, d *graph.Decl) (types.LayoutEntry, *types.Diagnostic, error) {
	container, err := sol.resolvedAnchor(d.Anchor.Name)
	if err != nil {
		return types.LayoutEntry{}, nil, err
	}
	return fill.Place(ar, d, container.Entry)
}

// placeReverse allocates a fresh range holding the source's elements in
// reversed order. The source's bytes stay reserved, so the new range can
// never alias them; the entry carries a copy reference for codegen.
func (s *Solver) placeReverse(sol *Solution, ar *arena.Arena, pol profile.Policy, d *graph.Decl) (types.LayoutEntry, error) {
	src, err := sol.resolvedAnchor(d.Anchor.Name)
	if err != nil {
		return types.LayoutEntry{}, err
	}
	elem := d.ElemSize
	if elem == 0 {
		elem = src.Entry.ElemSize
	}
	count := d.Count
	if count <= 1 {
		count = src.Entry.Count
	}
	total := elem * count

	alignment := pol.Alignment(elem)
	base, err := ar.NextFree(total, alignment, 0)
	if errors.Is(err, arena.ErrNoSpace) {
		ar.Grow(align.Up(total+alignment, pol.LineSize))
		base, err = ar.NextFree(total, alignment, 0)
	}
	if err != nil {
		return types.LayoutEntry{}, err
	}
	if err := ar.Reserve(types.NewRange(base, total), d.ID); err != nil {
		return types.LayoutEntry{}, err
	}

	dir := types.Reverse
	if src.Entry.Direction == types.Reverse {
		dir = types.Forward
	}
	return types.LayoutEntry{
		Base:      base,
		Stride:    elem,
		ElemSize:  elem,
		Count:     count,
		Direction: dir,
		Arena:     ar.Name(),
		Anchor:    types.AnchorDecl,
		CopyOf:    src.ID,
	}, nil
}
